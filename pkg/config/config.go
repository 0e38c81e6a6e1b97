package config

import (
	"fmt"
	"os"
	"time"

	"mirrornet/pkg/utils"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Device struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"device"`

	Discovery struct {
		ServiceID        string        `yaml:"service_id"`
		Domain           string        `yaml:"domain"`
		Port             int           `yaml:"port"`
		AnnounceInterval time.Duration `yaml:"announce_interval"`
	} `yaml:"discovery"`

	Session struct {
		MaxRetries        int           `yaml:"max_retries"`
		InviteTimeout     time.Duration `yaml:"invite_timeout"`
		ReinitMaxAttempts int           `yaml:"reinit_max_attempts"`
		ReinitDelay       time.Duration `yaml:"reinit_delay"`
		ReinitMaxDelay    time.Duration `yaml:"reinit_max_delay"`
	} `yaml:"session"`

	Signaling struct {
		Address           string        `yaml:"address"`
		MessagesPerSecond float64       `yaml:"messages_per_second"`
		Burst             int           `yaml:"burst"`
		HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	} `yaml:"signaling"`

	Streaming struct {
		Enabled     bool   `yaml:"enabled"`
		InitialTier string `yaml:"initial_tier"`
	} `yaml:"streaming"`

	Quality struct {
		Tiers map[string]TierConfig `yaml:"tiers"`
	} `yaml:"quality"`

	API struct {
		Address           string        `yaml:"address"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 disables rate limiting
		Burst             int           `yaml:"burst"`
	} `yaml:"api"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Tracing struct {
		Enabled  bool   `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"tracing"`
}

// TierConfig describes one quality tier as written in YAML. The daemon
// converts these into the domain tier table at startup.
type TierConfig struct {
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
	FrameRate       float64 `yaml:"frame_rate"`
	Encoding        string  `yaml:"encoding"` // "lossy" or "lossless"
	EncodingQuality int     `yaml:"encoding_quality"`
	MaxPayloadBytes int     `yaml:"max_payload_bytes"`
	Reliable        bool    `yaml:"reliable"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Device
	if c.Device.ID == "" {
		return fmt.Errorf("device.id must not be empty")
	}
	if c.Device.Name == "" {
		return fmt.Errorf("device.name must not be empty")
	}

	// Discovery
	if c.Discovery.ServiceID == "" {
		return fmt.Errorf("discovery.service_id must not be empty")
	}
	if c.Discovery.Port <= 0 || c.Discovery.Port > 65535 {
		return fmt.Errorf("discovery.port must be in 1..65535")
	}
	if c.Discovery.AnnounceInterval <= 0 {
		return fmt.Errorf("discovery.announce_interval must be > 0")
	}

	// Session
	if c.Session.MaxRetries <= 0 {
		return fmt.Errorf("session.max_retries must be > 0")
	}
	if c.Session.InviteTimeout <= 0 {
		return fmt.Errorf("session.invite_timeout must be > 0")
	}
	if c.Session.ReinitMaxAttempts < 0 {
		return fmt.Errorf("session.reinit_max_attempts must be >= 0")
	}

	// Signaling
	if c.Signaling.Address == "" {
		return fmt.Errorf("signaling.address must not be empty")
	}
	if c.Signaling.MessagesPerSecond <= 0 {
		return fmt.Errorf("signaling.messages_per_second must be > 0")
	}
	if c.Signaling.Burst <= 0 {
		return fmt.Errorf("signaling.burst must be > 0")
	}
	if c.Signaling.HandshakeTimeout <= 0 {
		return fmt.Errorf("signaling.handshake_timeout must be > 0")
	}

	// Streaming
	if c.Streaming.InitialTier == "" {
		return fmt.Errorf("streaming.initial_tier must not be empty")
	}
	if len(c.Quality.Tiers) > 0 {
		if _, ok := c.Quality.Tiers[c.Streaming.InitialTier]; !ok {
			return fmt.Errorf("streaming.initial_tier %q not present in quality.tiers", c.Streaming.InitialTier)
		}
	}

	// Quality tiers
	for name, tier := range c.Quality.Tiers {
		if tier.Width <= 0 || tier.Height <= 0 {
			return fmt.Errorf("quality.tiers.%s: width and height must be > 0", name)
		}
		if tier.FrameRate <= 0 {
			return fmt.Errorf("quality.tiers.%s: frame_rate must be > 0", name)
		}
		if tier.Encoding != "lossy" && tier.Encoding != "lossless" {
			return fmt.Errorf("quality.tiers.%s: encoding must be lossy or lossless", name)
		}
		if tier.Encoding == "lossy" && (tier.EncodingQuality <= 0 || tier.EncodingQuality > 100) {
			return fmt.Errorf("quality.tiers.%s: encoding_quality must be in 1..100 for lossy tiers", name)
		}
		if tier.MaxPayloadBytes <= 0 {
			return fmt.Errorf("quality.tiers.%s: max_payload_bytes must be > 0", name)
		}
	}

	// API
	if c.API.Address == "" {
		return fmt.Errorf("api.address must not be empty")
	}
	if c.API.ReadTimeout <= 0 {
		return fmt.Errorf("api.read_timeout must be > 0")
	}
	if c.API.WriteTimeout <= 0 {
		return fmt.Errorf("api.write_timeout must be > 0")
	}
	if c.API.ShutdownTimeout <= 0 {
		return fmt.Errorf("api.shutdown_timeout must be > 0")
	}
	if c.API.RequestsPerSecond > 0 && c.API.Burst <= 0 {
		return fmt.Errorf("api.burst must be > 0 when rate limiting is enabled")
	}

	// Monitoring
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Tracing
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint must not be empty when tracing.enabled=true")
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "mirrornet-device"
	}
	// The device identity doubles as the mDNS instance name and the
	// signaling peer id, so it can never default to empty.
	cfg.Device.ID = utils.GenerateDeviceID()
	cfg.Device.Name = hostname

	cfg.Discovery.ServiceID = "_mirrornet._tcp"
	cfg.Discovery.Domain = "local."
	cfg.Discovery.Port = 7840
	cfg.Discovery.AnnounceInterval = 10 * time.Second

	cfg.Session.MaxRetries = 3
	cfg.Session.InviteTimeout = 15 * time.Second
	cfg.Session.ReinitMaxAttempts = 3
	cfg.Session.ReinitDelay = 250 * time.Millisecond
	cfg.Session.ReinitMaxDelay = 5 * time.Second

	cfg.Signaling.Address = ":7841"
	cfg.Signaling.MessagesPerSecond = 50
	cfg.Signaling.Burst = 100
	cfg.Signaling.HandshakeTimeout = 10 * time.Second

	cfg.Streaming.Enabled = true
	cfg.Streaming.InitialTier = "balanced"

	cfg.Quality.Tiers = map[string]TierConfig{
		"performance": {
			Width:           1280,
			Height:          720,
			FrameRate:       60,
			Encoding:        "lossy",
			EncodingQuality: 40,
			MaxPayloadBytes: 1_000_000,
		},
		"balanced": {
			Width:           1920,
			Height:          1080,
			FrameRate:       30,
			Encoding:        "lossy",
			EncodingQuality: 70,
			MaxPayloadBytes: 3_000_000,
		},
		"quality": {
			Width:           3840,
			Height:          2160,
			FrameRate:       30,
			Encoding:        "lossless",
			MaxPayloadBytes: 8_000_000,
			Reliable:        true,
		},
	}

	cfg.API.Address = ":8080"
	cfg.API.ReadTimeout = 30 * time.Second
	cfg.API.WriteTimeout = 30 * time.Second
	cfg.API.ShutdownTimeout = 30 * time.Second
	cfg.API.RequestsPerSecond = 50
	cfg.API.Burst = 100

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Tracing.Enabled = false
	cfg.Tracing.Endpoint = "http://localhost:14268/api/traces"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if id := os.Getenv("MIRRORNET_DEVICE_ID"); id != "" {
		c.Device.ID = id
	}
	if name := os.Getenv("MIRRORNET_DEVICE_NAME"); name != "" {
		c.Device.Name = name
	}
	if id := os.Getenv("MIRRORNET_SERVICE_ID"); id != "" {
		c.Discovery.ServiceID = id
	}
	if addr := os.Getenv("MIRRORNET_SIGNALING_ADDRESS"); addr != "" {
		c.Signaling.Address = addr
	}
	if addr := os.Getenv("MIRRORNET_API_ADDRESS"); addr != "" {
		c.API.Address = addr
	}
	if level := os.Getenv("MIRRORNET_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if tier := os.Getenv("MIRRORNET_INITIAL_TIER"); tier != "" {
		c.Streaming.InitialTier = tier
	}
}
