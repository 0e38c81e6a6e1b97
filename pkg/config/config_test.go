package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got error: %v", err)
	}
}

func TestDefaultConfigHasDeviceID(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Device.ID == "" {
		t.Fatal("expected default config to carry a device id")
	}
	// Identities must stay distinguishable across daemons.
	if other := DefaultConfig(); other.Device.ID == cfg.Device.ID {
		t.Errorf("expected fresh device id per config, got %q twice", cfg.Device.ID)
	}
}

func TestDefaultTiersMatchBuiltins(t *testing.T) {
	cfg := DefaultConfig()
	tier, ok := cfg.Quality.Tiers["balanced"]
	if !ok {
		t.Fatal("expected balanced tier in defaults")
	}
	if tier.Width != 1920 || tier.Height != 1080 || tier.FrameRate != 30 {
		t.Errorf("unexpected balanced tier params: %+v", tier)
	}
	if q := cfg.Quality.Tiers["quality"]; q.Encoding != "lossless" || !q.Reliable {
		t.Errorf("expected quality tier lossless and reliable, got %+v", q)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name: "device id must not be empty",
			mutate: func(c *Config) {
				c.Device.ID = ""
			},
		},
		{
			name: "device name must not be empty",
			mutate: func(c *Config) {
				c.Device.Name = ""
			},
		},
		{
			name: "discovery port range",
			mutate: func(c *Config) {
				c.Discovery.Port = 70000
			},
		},
		{
			name: "max retries must be > 0",
			mutate: func(c *Config) {
				c.Session.MaxRetries = 0
			},
		},
		{
			name: "invite timeout must be > 0",
			mutate: func(c *Config) {
				c.Session.InviteTimeout = 0
			},
		},
		{
			name: "initial tier must exist",
			mutate: func(c *Config) {
				c.Streaming.InitialTier = "ultra"
			},
		},
		{
			name: "lossy tier needs quality in range",
			mutate: func(c *Config) {
				tier := c.Quality.Tiers["balanced"]
				tier.EncodingQuality = 180
				c.Quality.Tiers["balanced"] = tier
			},
		},
		{
			name: "tier payload budget must be > 0",
			mutate: func(c *Config) {
				tier := c.Quality.Tiers["performance"]
				tier.MaxPayloadBytes = 0
				c.Quality.Tiers["performance"] = tier
			},
		},
		{
			name: "unknown encoding rejected",
			mutate: func(c *Config) {
				tier := c.Quality.Tiers["performance"]
				tier.Encoding = "raw"
				c.Quality.Tiers["performance"] = tier
			},
		},
		{
			name: "signaling rate must be > 0",
			mutate: func(c *Config) {
				c.Signaling.MessagesPerSecond = 0
			},
		},
		{
			name: "tracing endpoint required when enabled",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Endpoint = ""
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for case %q, got nil", tc.name)
			}
		})
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Discovery.ServiceID != "_mirrornet._tcp" {
		t.Errorf("expected default service id, got %q", cfg.Discovery.ServiceID)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("streaming:\n  initial_tier: performance\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Streaming.InitialTier != "performance" {
		t.Errorf("expected initial_tier override, got %q", cfg.Streaming.InitialTier)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level override, got %q", cfg.Logging.Level)
	}
	// untouched sections keep their defaults
	if cfg.Session.MaxRetries != 3 {
		t.Errorf("expected default max_retries, got %d", cfg.Session.MaxRetries)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MIRRORNET_DEVICE_ID", "rig-7")
	t.Setenv("MIRRORNET_DEVICE_NAME", "bench-rig")
	t.Setenv("MIRRORNET_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Device.ID != "rig-7" {
		t.Errorf("expected env device id, got %q", cfg.Device.ID)
	}
	if cfg.Device.Name != "bench-rig" {
		t.Errorf("expected env device name, got %q", cfg.Device.Name)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected env log level, got %q", cfg.Logging.Level)
	}
}
