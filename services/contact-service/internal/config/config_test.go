package config

import (
	"flag"
	"io"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		errMsg string
	}{
		{
			name: "valid config",
			cfg:  Config{HTTPPort: "8081", DatabaseURL: "postgres://localhost/contacts"},
		},
		{
			name:   "empty http-port",
			cfg:    Config{DatabaseURL: "postgres://localhost/contacts"},
			errMsg: "http-port cannot be empty",
		},
		{
			name:   "empty database-url",
			cfg:    Config{HTTPPort: "8081"},
			errMsg: "database-url cannot be empty",
		},
		{
			name:   "negative rate-limit-rps",
			cfg:    Config{HTTPPort: "8081", DatabaseURL: "postgres://localhost/contacts", RateLimitRPS: -1},
			errMsg: "rate-limit-rps must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tt.errMsg {
				t.Errorf("Validate() error = %v, want %q", err, tt.errMsg)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/contacts")
	t.Setenv("MIGRATE", "true")

	fs := flag.NewFlagSet("contact-service", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := Parse(fs, []string{"-http-port", "9000", "-cors-origins", "http://a.test, http://b.test"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.HTTPPort != "9000" {
		t.Errorf("HTTPPort = %q, want 9000", cfg.HTTPPort)
	}
	if cfg.DatabaseURL != "postgres://env/contacts" {
		t.Errorf("DatabaseURL = %q, want the environment value", cfg.DatabaseURL)
	}
	if !cfg.Migrate {
		t.Error("Migrate = false, want true from MIGRATE")
	}
	if cfg.RateLimitRPS != 0 {
		t.Errorf("RateLimitRPS = %d, want 0", cfg.RateLimitRPS)
	}
	if got := cfg.Origins(); len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("Origins() = %v", got)
	}
}

func TestParseRejectsUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("contact-service", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := Parse(fs, []string{"-nope"}); err == nil {
		t.Error("Parse() succeeded with an unknown flag")
	}
}
