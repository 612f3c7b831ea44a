package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"procwatch/internal/model"
)

type StreamMode string

const (
	StreamModeGRPC StreamMode = "grpc"
	StreamModeNone StreamMode = "none"
)

type Config struct {
	AgentID              string
	SampleInterval       time.Duration
	HistoryCapacity      int
	DeliveryDepth        int
	ProcessTableInterval time.Duration
	TrackedEntities      []string

	StreamMode      StreamMode
	BackendGRPCAddr string
	BackendToken    string

	TLSEnabled    bool
	TLSSkipVerify bool
	TLSCAPath     string
	TLSCertPath   string
	TLSKeyPath    string

	APIListenAddr string

	LogJSON  bool
	LogLevel string

	ShutdownTimeout time.Duration
}

// Load builds the configuration from defaults, then an optional YAML file
// named by PROCWATCH_CONFIG_FILE, then PROCWATCH_* environment overrides.
func Load() (Config, error) {
	cfg := defaults()

	if path := env("PROCWATCH_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	return Config{
		AgentID:              hostname,
		SampleInterval:       500 * time.Millisecond,
		HistoryCapacity:      50,
		DeliveryDepth:        4,
		ProcessTableInterval: 2 * time.Second,
		TrackedEntities:      []string{string(model.SystemEntity)},
		StreamMode:           StreamModeNone,
		BackendGRPCAddr:      "127.0.0.1:3001",
		APIListenAddr:        "127.0.0.1:7600",
		LogJSON:              false,
		LogLevel:             "info",
		ShutdownTimeout:      20 * time.Second,
	}
}

func (c *Config) applyEnv() {
	c.AgentID = env("PROCWATCH_AGENT_ID", c.AgentID)
	c.SampleInterval = envDuration("PROCWATCH_SAMPLE_INTERVAL", c.SampleInterval)
	c.HistoryCapacity = envInt("PROCWATCH_HISTORY_CAPACITY", c.HistoryCapacity)
	c.DeliveryDepth = envInt("PROCWATCH_DELIVERY_DEPTH", c.DeliveryDepth)
	c.ProcessTableInterval = envDuration("PROCWATCH_PROC_TABLE_INTERVAL", c.ProcessTableInterval)
	if raw := env("PROCWATCH_TRACKED_ENTITIES", ""); raw != "" {
		c.TrackedEntities = splitCSV(raw)
	}
	c.StreamMode = StreamMode(strings.ToLower(env("PROCWATCH_STREAM_MODE", string(c.StreamMode))))
	c.BackendGRPCAddr = env("PROCWATCH_BACKEND_GRPC_ADDR", c.BackendGRPCAddr)
	c.BackendToken = env("PROCWATCH_BACKEND_TOKEN", c.BackendToken)
	c.TLSEnabled = envBool("PROCWATCH_TLS_ENABLED", c.TLSEnabled)
	c.TLSSkipVerify = envBool("PROCWATCH_TLS_SKIP_VERIFY", c.TLSSkipVerify)
	c.TLSCAPath = env("PROCWATCH_TLS_CA_PATH", c.TLSCAPath)
	c.TLSCertPath = env("PROCWATCH_TLS_CERT_PATH", c.TLSCertPath)
	c.TLSKeyPath = env("PROCWATCH_TLS_KEY_PATH", c.TLSKeyPath)
	c.APIListenAddr = env("PROCWATCH_API_ADDR", c.APIListenAddr)
	c.LogJSON = envBool("PROCWATCH_LOG_JSON", c.LogJSON)
	c.LogLevel = strings.ToLower(env("PROCWATCH_LOG_LEVEL", c.LogLevel))
	c.ShutdownTimeout = envDuration("PROCWATCH_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.AgentID) == "" {
		return errors.New("agent id must not be empty")
	}
	if c.SampleInterval <= 0 {
		return errors.New("sample interval must be > 0")
	}
	if c.HistoryCapacity <= 0 {
		return errors.New("history capacity must be > 0")
	}
	if c.DeliveryDepth <= 0 {
		return errors.New("delivery depth must be > 0")
	}
	if c.ProcessTableInterval <= 0 {
		return errors.New("process table interval must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be > 0")
	}
	if len(c.TrackedEntities) == 0 {
		return errors.New("at least one tracked entity is required")
	}
	for _, raw := range c.TrackedEntities {
		if _, err := model.ParseEntityID(raw); err != nil {
			return fmt.Errorf("tracked entity: %w", err)
		}
	}
	switch c.StreamMode {
	case StreamModeGRPC, StreamModeNone:
	default:
		return fmt.Errorf("unsupported stream mode %q", c.StreamMode)
	}
	if c.StreamMode == StreamModeGRPC && strings.TrimSpace(c.BackendGRPCAddr) == "" {
		return errors.New("PROCWATCH_BACKEND_GRPC_ADDR is required for grpc mode")
	}
	return nil
}

// Entities returns the parsed tracked entity set. Call after Validate.
func (c Config) Entities() []model.EntityID {
	out := make([]model.EntityID, 0, len(c.TrackedEntities))
	for _, raw := range c.TrackedEntities {
		if id, err := model.ParseEntityID(raw); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.TLSSkipVerify}
	if c.TLSCAPath != "" {
		caBytes, err := os.ReadFile(c.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if c.TLSCertPath != "" || c.TLSKeyPath != "" {
		if c.TLSCertPath == "" || c.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(c.TLSCertPath, c.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load TLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
