package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_Ports(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		tag    string
	}{
		{"server port too large", func(c *Config) { c.Server.Port = 70000 }, "max"},
		{"server port negative", func(c *Config) { c.Server.Port = -1 }, "min"},
		{"api port too large", func(c *Config) { c.API.Port = 70000 }, "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.tag) {
				t.Errorf("Expected %q validation error, got: %v", tt.tag, err)
			}
		})
	}
}

func TestValidate_Boards(t *testing.T) {
	tests := []struct {
		name   string
		boards []BoardConfig
		want   string
	}{
		{"empty list", []BoardConfig{}, "min"},
		{"missing name", []BoardConfig{{Description: "x"}}, "required"},
		{"space in name", []BoardConfig{{Name: "Two Words"}}, "excludesall"},
		{"duplicate", []BoardConfig{{Name: "Tech"}, {Name: "tech"}}, "duplicate board"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.BBS.Boards = tt.boards

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected %q in error, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_CrossField(t *testing.T) {
	t.Run("metrics without api", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Metrics.Enabled = true

		err := Validate(cfg)
		if err == nil || !strings.Contains(err.Error(), "api.enabled") {
			t.Fatalf("Expected metrics to require the API, got %v", err)
		}

		cfg.API.Enabled = true
		if err := Validate(cfg); err != nil {
			t.Fatalf("Expected metrics with API to validate, got %v", err)
		}
	})

	t.Run("api port collides with server", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.API.Enabled = true
		cfg.API.Port = cfg.Server.Port

		if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "already used") {
			t.Fatalf("Expected port collision error, got %v", err)
		}
	})

	t.Run("empty operator", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.BBS.Operators = []string{"alice", " "}

		if err := Validate(cfg); err == nil {
			t.Fatal("Expected error for empty operator name")
		}
	})

	t.Run("postgres without host", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Database.Type = "postgres"

		if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "database") {
			t.Fatalf("Expected database error, got %v", err)
		}
	})
}

func TestValidate_Credentials(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Credentials.SaltLength = 4

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for short salt")
	}

	cfg = GetDefaultConfig()
	cfg.Credentials.HashIterations = 1
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for a single PBKDF2 round")
	}

	cfg.Credentials.HashIterations = 999
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error below 1000 iterations")
	}

	cfg.Credentials.HashIterations = 1000
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected 1000 iterations to be accepted, got %v", err)
	}
}

func TestValidate_SampleRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.SampleRate = 1.5

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for sample rate above 1")
	}
}
