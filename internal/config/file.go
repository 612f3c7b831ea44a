package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML configuration file. Every field is optional;
// unset fields keep their current value, and environment variables still
// override anything set here.
type fileConfig struct {
	AgentID              string   `yaml:"agent_id"`
	IntervalMS           int      `yaml:"interval_ms"`
	HistoryCapacity      int      `yaml:"history_capacity"`
	DeliveryDepth        int      `yaml:"delivery_depth"`
	ProcessTableInterval string   `yaml:"process_table_interval"`
	TrackedEntities      []string `yaml:"tracked_entities"`

	Stream struct {
		Mode  string `yaml:"mode"`
		Addr  string `yaml:"addr"`
		Token string `yaml:"token"`
	} `yaml:"stream"`

	TLS struct {
		Enabled    bool   `yaml:"enabled"`
		SkipVerify bool   `yaml:"skip_verify"`
		CAPath     string `yaml:"ca_path"`
		CertPath   string `yaml:"cert_path"`
		KeyPath    string `yaml:"key_path"`
	} `yaml:"tls"`

	API struct {
		Listen string `yaml:"listen"`
	} `yaml:"api"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.AgentID != "" {
		c.AgentID = fc.AgentID
	}
	if fc.IntervalMS > 0 {
		c.SampleInterval = time.Duration(fc.IntervalMS) * time.Millisecond
	}
	if fc.HistoryCapacity > 0 {
		c.HistoryCapacity = fc.HistoryCapacity
	}
	if fc.DeliveryDepth > 0 {
		c.DeliveryDepth = fc.DeliveryDepth
	}
	if fc.ProcessTableInterval != "" {
		d, err := time.ParseDuration(fc.ProcessTableInterval)
		if err != nil {
			return fmt.Errorf("parse process_table_interval: %w", err)
		}
		c.ProcessTableInterval = d
	}
	if len(fc.TrackedEntities) > 0 {
		c.TrackedEntities = fc.TrackedEntities
	}
	if fc.Stream.Mode != "" {
		c.StreamMode = StreamMode(fc.Stream.Mode)
	}
	if fc.Stream.Addr != "" {
		c.BackendGRPCAddr = fc.Stream.Addr
	}
	if fc.Stream.Token != "" {
		c.BackendToken = fc.Stream.Token
	}
	if fc.TLS.Enabled {
		c.TLSEnabled = true
	}
	if fc.TLS.SkipVerify {
		c.TLSSkipVerify = true
	}
	if fc.TLS.CAPath != "" {
		c.TLSCAPath = fc.TLS.CAPath
	}
	if fc.TLS.CertPath != "" {
		c.TLSCertPath = fc.TLS.CertPath
	}
	if fc.TLS.KeyPath != "" {
		c.TLSKeyPath = fc.TLS.KeyPath
	}
	if fc.API.Listen != "" {
		c.APIListenAddr = fc.API.Listen
	}
	if fc.Log.Level != "" {
		c.LogLevel = fc.Log.Level
	}
	if fc.Log.JSON {
		c.LogJSON = true
	}
	return nil
}
