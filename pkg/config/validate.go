package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags first, then the rules that span fields.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	var errs []error

	if err := cfg.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if cfg.Metrics.Enabled && !cfg.API.Enabled {
		errs = append(errs, errors.New("metrics: requires api.enabled, /metrics is served by the admin API"))
	}

	if cfg.API.Enabled && cfg.API.Port == cfg.Server.Port {
		errs = append(errs, fmt.Errorf("api: port %d is already used by the server", cfg.API.Port))
	}

	seen := make(map[string]struct{}, len(cfg.BBS.Boards))
	for _, b := range cfg.BBS.Boards {
		key := strings.ToLower(b.Name)
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("bbs: duplicate board %q", b.Name))
			continue
		}
		seen[key] = struct{}{}
	}

	for _, op := range cfg.BBS.Operators {
		if strings.TrimSpace(op) == "" {
			errs = append(errs, errors.New("bbs: operator names must not be empty"))
			break
		}
	}

	return errors.Join(errs...)
}
