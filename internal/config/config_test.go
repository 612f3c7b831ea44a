package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"procwatch/internal/model"
)

// clearEnv blanks every PROCWATCH_* variable this package reads so tests
// see pure defaults unless they opt in with t.Setenv.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "PROCWATCH_") {
			t.Setenv(key, "")
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SampleInterval != 500*time.Millisecond {
		t.Errorf("sample interval: got %v", cfg.SampleInterval)
	}
	if cfg.HistoryCapacity != 50 {
		t.Errorf("history capacity: got %d", cfg.HistoryCapacity)
	}
	if cfg.DeliveryDepth != 4 {
		t.Errorf("delivery depth: got %d", cfg.DeliveryDepth)
	}
	if cfg.ProcessTableInterval != 2*time.Second {
		t.Errorf("process table interval: got %v", cfg.ProcessTableInterval)
	}
	if cfg.StreamMode != StreamModeNone {
		t.Errorf("stream mode: got %q", cfg.StreamMode)
	}
	if cfg.AgentID == "" {
		t.Error("agent id must default to the hostname")
	}
	got := cfg.Entities()
	if len(got) != 1 || got[0] != model.SystemEntity {
		t.Errorf("entities: got %v, want [system]", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROCWATCH_AGENT_ID", "env-agent")
	t.Setenv("PROCWATCH_SAMPLE_INTERVAL", "250ms")
	t.Setenv("PROCWATCH_HISTORY_CAPACITY", "10")
	t.Setenv("PROCWATCH_DELIVERY_DEPTH", "2")
	t.Setenv("PROCWATCH_TRACKED_ENTITIES", "system, pid:42 ,1234")
	t.Setenv("PROCWATCH_STREAM_MODE", "GRPC")
	t.Setenv("PROCWATCH_BACKEND_GRPC_ADDR", "backend:3001")
	t.Setenv("PROCWATCH_LOG_JSON", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AgentID != "env-agent" {
		t.Errorf("agent id: got %q", cfg.AgentID)
	}
	if cfg.SampleInterval != 250*time.Millisecond {
		t.Errorf("sample interval: got %v", cfg.SampleInterval)
	}
	if cfg.HistoryCapacity != 10 || cfg.DeliveryDepth != 2 {
		t.Errorf("capacity/depth: got %d/%d", cfg.HistoryCapacity, cfg.DeliveryDepth)
	}
	if cfg.StreamMode != StreamModeGRPC || cfg.BackendGRPCAddr != "backend:3001" {
		t.Errorf("stream: got %q %q", cfg.StreamMode, cfg.BackendGRPCAddr)
	}
	if !cfg.LogJSON {
		t.Error("log json: expected true")
	}
	got := cfg.Entities()
	want := []model.EntityID{model.SystemEntity, model.ProcessEntity(42), model.ProcessEntity(1234)}
	if len(got) != len(want) {
		t.Fatalf("entities: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entity %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "procwatch.yaml")
	body := `
agent_id: file-agent
interval_ms: 250
history_capacity: 20
process_table_interval: 5s
tracked_entities:
  - system
  - pid:77
stream:
  mode: grpc
  addr: backend:4000
  token: s3cret
log:
  level: debug
  json: true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROCWATCH_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AgentID != "file-agent" {
		t.Errorf("agent id: got %q", cfg.AgentID)
	}
	if cfg.SampleInterval != 250*time.Millisecond {
		t.Errorf("sample interval: got %v", cfg.SampleInterval)
	}
	if cfg.HistoryCapacity != 20 {
		t.Errorf("history capacity: got %d", cfg.HistoryCapacity)
	}
	if cfg.ProcessTableInterval != 5*time.Second {
		t.Errorf("process table interval: got %v", cfg.ProcessTableInterval)
	}
	if cfg.StreamMode != StreamModeGRPC || cfg.BackendGRPCAddr != "backend:4000" || cfg.BackendToken != "s3cret" {
		t.Errorf("stream: got %q %q %q", cfg.StreamMode, cfg.BackendGRPCAddr, cfg.BackendToken)
	}
	if cfg.LogLevel != "debug" || !cfg.LogJSON {
		t.Errorf("log: got %q json=%v", cfg.LogLevel, cfg.LogJSON)
	}
	if len(cfg.TrackedEntities) != 2 || cfg.TrackedEntities[1] != "pid:77" {
		t.Errorf("tracked entities: got %v", cfg.TrackedEntities)
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "procwatch.yaml")
	if err := os.WriteFile(path, []byte("agent_id: file-agent\ninterval_ms: 250\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROCWATCH_CONFIG_FILE", path)
	t.Setenv("PROCWATCH_AGENT_ID", "env-agent")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AgentID != "env-agent" {
		t.Errorf("env must win over file: got %q", cfg.AgentID)
	}
	if cfg.SampleInterval != 250*time.Millisecond {
		t.Errorf("untouched file value must survive: got %v", cfg.SampleInterval)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROCWATCH_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := defaults()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty agent id", func(c *Config) { c.AgentID = " " }, true},
		{"zero interval", func(c *Config) { c.SampleInterval = 0 }, true},
		{"negative capacity", func(c *Config) { c.HistoryCapacity = -1 }, true},
		{"zero depth", func(c *Config) { c.DeliveryDepth = 0 }, true},
		{"no entities", func(c *Config) { c.TrackedEntities = nil }, true},
		{"bad entity", func(c *Config) { c.TrackedEntities = []string{"pid:abc"} }, true},
		{"bad stream mode", func(c *Config) { c.StreamMode = "websocket" }, true},
		{"grpc without addr", func(c *Config) {
			c.StreamMode = StreamModeGRPC
			c.BackendGRPCAddr = ""
		}, true},
		{"grpc with addr", func(c *Config) { c.StreamMode = StreamModeGRPC }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.TrackedEntities = append([]string(nil), valid.TrackedEntities...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" a, b ,, c ,")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTLSConfigDisabled(t *testing.T) {
	cfg := defaults()
	tlsCfg, err := cfg.TLSConfig()
	if err != nil || tlsCfg != nil {
		t.Errorf("disabled TLS: got %v, %v", tlsCfg, err)
	}
}

func TestTLSConfigCertWithoutKey(t *testing.T) {
	cfg := defaults()
	cfg.TLSEnabled = true
	cfg.TLSCertPath = "/tmp/cert.pem"
	if _, err := cfg.TLSConfig(); err == nil {
		t.Error("expected error for cert without key")
	}
}
