package config

import (
	"os"
	"time"

	"github.com/mendocinotim/EmbyFixer/internal/log"
)

// Environment variable names recognised by mergeEnv.
const (
	envLogLevel       = "EMBYFIX_LOG_LEVEL"
	envReplacementDir = "EMBYFIX_REPLACEMENT_DIR"
	envStandInDir     = "EMBYFIX_STANDIN_DIR"
	envProbeTimeout   = "EMBYFIX_PROBE_TIMEOUT"
	envStopGrace      = "EMBYFIX_STOP_GRACE"
)

func (c *Config) mergeEnv() {
	logger := log.WithComponent("config")

	if v := os.Getenv(envLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(envReplacementDir); v != "" {
		c.ReplacementDir = v
	}
	if v := os.Getenv(envStandInDir); v != "" {
		c.StandInDir = v
	}
	if v := os.Getenv(envProbeTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ProbeTimeout = d
		} else {
			logger.Warn().Str("key", envProbeTimeout).Str("value", v).Msg("ignoring unparseable duration")
		}
	}
	if v := os.Getenv(envStopGrace); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.StopGrace = d
		} else {
			logger.Warn().Str("key", envStopGrace).Str("value", v).Msg("ignoring unparseable duration")
		}
	}
}
