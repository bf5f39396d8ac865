//go:build windows

package supervisor

import "os/exec"

// Windows has no process groups in the POSIX sense; both signals collapse
// to a hard kill of the direct child.
func setProcGroup(_ *exec.Cmd) {}

func signalGroupTerm(cmd *exec.Cmd) error {
	return signalGroupKill(cmd)
}

func signalGroupKill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
