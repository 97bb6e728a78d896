package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Runtime.Device)) {
	case "cpu", "cuda":
	default:
		return fmt.Errorf("runtime.device must be cpu or cuda, got %q", cfg.Runtime.Device)
	}

	if cfg.Runtime.Sessions <= 0 {
		return fmt.Errorf("runtime.sessions must be positive, got %d", cfg.Runtime.Sessions)
	}
	if cfg.Runtime.IntraOpThreads < 0 {
		return fmt.Errorf("runtime.intra_op_threads must not be negative, got %d", cfg.Runtime.IntraOpThreads)
	}
	if cfg.Runtime.InterOpThreads < 0 {
		return fmt.Errorf("runtime.inter_op_threads must not be negative, got %d", cfg.Runtime.InterOpThreads)
	}

	if lvl := strings.ToLower(strings.TrimSpace(cfg.Logging.Level)); lvl != "" {
		switch lvl {
		case "trace", "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("logging.level must be trace, debug, info, warn or error, got %q", cfg.Logging.Level)
		}
	}

	return nil
}
