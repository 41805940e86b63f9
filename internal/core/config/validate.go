package config

import (
	"fmt"
	"net/url"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

var platforms = map[string]bool{"android": true, "ios": true, "web": true}

// Validate checks that the configuration is usable. Errors are returned as
// criterio.FieldErrors keyed by YAML path.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}

	if c.Recent.Capacity < 1 {
		errs = errs.Append("recent.capacity", fmt.Errorf("must be at least 1, got %d", c.Recent.Capacity))
	}

	if !isBackend(c.Recent.Backend) {
		errs = errs.Append("recent.backend", fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Recent.Backend, BackendPrefs, BackendSQLite, BackendMemory))
	}

	if c.Recent.Key == "" {
		errs = errs.Append("recent.key", fmt.Errorf("cannot be empty"))
	}

	if c.Recent.SeedFrom != "" {
		switch {
		case !isBackend(c.Recent.SeedFrom):
			errs = errs.Append("recent.seed_from", fmt.Errorf("unknown backend %q", c.Recent.SeedFrom))
		case c.Recent.SeedFrom == BackendMemory:
			errs = errs.Append("recent.seed_from", fmt.Errorf("%s starts empty and cannot seed", BackendMemory))
		case c.Recent.SeedFrom == c.Recent.Backend:
			errs = errs.Append("recent.seed_from", fmt.Errorf("must differ from recent.backend"))
		}
	}

	if !platforms[c.Push.Platform] {
		errs = errs.Append("push.platform", fmt.Errorf("unknown platform %q (want android, ios or web)", c.Push.Platform))
	}

	if c.Push.Timeout < 0 {
		errs = errs.Append("push.timeout", fmt.Errorf("cannot be negative"))
	}

	if c.Push.Endpoint != "" {
		u, err := url.Parse(c.Push.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = errs.Append("push.endpoint", fmt.Errorf("must be an absolute http(s) URL, got %q", c.Push.Endpoint))
		}
	}

	return errs.ToError()
}

// Warnings returns non-fatal issues worth surfacing to the user.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Push.Endpoint == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Push",
			Item:     "push.endpoint",
			Message:  "not set; push tokens are cached locally and never sent",
		})
	}

	if c.Recent.Capacity > 100 {
		warnings = append(warnings, ValidationWarning{
			Category: "Recent",
			Item:     "recent.capacity",
			Message:  fmt.Sprintf("%d entries is unusually large for a recent list", c.Recent.Capacity),
		})
	}

	return warnings
}

func isBackend(name string) bool {
	switch name {
	case BackendPrefs, BackendSQLite, BackendMemory:
		return true
	}
	return false
}
