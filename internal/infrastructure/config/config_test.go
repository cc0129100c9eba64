package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panels.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
mqtt:
  default_broker: "homey"
  qos: 1
  brokers:
    - id: "homey"
      host: "10.0.0.5"
      port: 1883
      client_id: "panels-test"
    - id: "lab"
      host: "10.0.0.6"
      port: 8883
      tls: true
panels:
  namespace: "buttonplus"
  devices:
    - device_id: "panel-hall"
      name: "Hall Panel"
      broker_id: "lab"
      firmware: "1.11"
      connectors:
        - index: 0
          type: "display"
        - index: 1
          type: "buttonPair"
          config_id: 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if len(cfg.MQTT.Brokers) != 2 {
		t.Fatalf("len(MQTT.Brokers) = %d, want 2", len(cfg.MQTT.Brokers))
	}
	b, ok := cfg.MQTT.Broker("")
	if !ok || b.Host != "10.0.0.5" {
		t.Errorf("Broker(\"\") = %+v, %v; want the homey broker", b, ok)
	}
	if len(cfg.Panels.Devices) != 1 {
		t.Fatalf("len(Panels.Devices) = %d, want 1", len(cfg.Panels.Devices))
	}
	conn := cfg.Panels.Devices[0].Connectors[1]
	if conn.ConfigID == nil || *conn.ConfigID != 4 {
		t.Errorf("Connectors[1].ConfigID = %v, want 4", conn.ConfigID)
	}
	if cfg.Panels.Firmware.PageMinVersion != "1.11" {
		t.Errorf("default PageMinVersion = %q, want 1.11", cfg.Panels.Firmware.PageMinVersion)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/panels.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
site:
  id: ""
`)

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Panels.Devices = []PanelConfig{{
		DeviceID: "panel-1",
		Connectors: []ConnectorConfig{
			{Index: 0, Type: "buttonPair"},
		},
	}}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing site ID", mutate: func(c *Config) { c.Site.ID = "" }, wantErr: "site.id"},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: "mqtt.qos"},
		{name: "no brokers", mutate: func(c *Config) { c.MQTT.Brokers = nil }, wantErr: "mqtt.brokers"},
		{
			name: "duplicate broker",
			mutate: func(c *Config) {
				c.MQTT.Brokers = append(c.MQTT.Brokers, c.MQTT.Brokers[0])
			},
			wantErr: "duplicated",
		},
		{name: "unknown default broker", mutate: func(c *Config) { c.MQTT.DefaultBroker = "nope" }, wantErr: "default_broker"},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: "api.port"},
		{name: "api disabled ignores port", mutate: func(c *Config) { c.API.Enabled = false; c.API.Port = 0 }},
		{name: "auth without operators", mutate: func(c *Config) { c.API.Auth.JWTSecret = "s" }, wantErr: "api.auth.operators"},
		{
			name: "auth operator bad role",
			mutate: func(c *Config) {
				c.API.Auth.JWTSecret = "s"
				c.API.Auth.Operators = []OperatorConfig{{Username: "amy", PasswordHash: "$argon2id$x", Role: "root"}}
			},
			wantErr: "role",
		},
		{
			name: "auth operator valid",
			mutate: func(c *Config) {
				c.API.Auth.JWTSecret = "s"
				c.API.Auth.Operators = []OperatorConfig{{Username: "amy", PasswordHash: "$argon2id$x", Role: "Operator"}}
			},
		},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: "influxdb.url"},
		{name: "missing namespace", mutate: func(c *Config) { c.Panels.Namespace = "" }, wantErr: "panels.namespace"},
		{name: "panel without device", mutate: func(c *Config) { c.Panels.Devices[0].DeviceID = "" }, wantErr: "device_id"},
		{name: "panel unknown broker", mutate: func(c *Config) { c.Panels.Devices[0].BrokerID = "x" }, wantErr: "broker_id"},
		{name: "connector out of range", mutate: func(c *Config) { c.Panels.Devices[0].Connectors[0].Index = 8 }, wantErr: "index"},
		{name: "connector bad type", mutate: func(c *Config) { c.Panels.Devices[0].Connectors[0].Type = "slider" }, wantErr: "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("PANELS_DATABASE_PATH", "/custom/path.db")
	t.Setenv("PANELS_MQTT_AUTH_USERNAME", "testuser")
	t.Setenv("PANELS_MQTT_AUTH_PASSWORD", "testpass")
	t.Setenv("PANELS_API_HOST", "192.168.1.1")
	t.Setenv("PANELS_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("PANELS_PANEL_NAMESPACE", "bp")
	t.Setenv("PANELS_PANEL_FIRMWARE_PAGE_MIN_VERSION", "1.20")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Panels.Namespace != "bp" {
		t.Errorf("Panels.Namespace = %q, want %q", cfg.Panels.Namespace, "bp")
	}
	if cfg.Panels.Firmware.PageMinVersion != "1.20" {
		t.Errorf("Firmware.PageMinVersion = %q, want %q", cfg.Panels.Firmware.PageMinVersion, "1.20")
	}
}

func TestMQTTConfig_Credentials(t *testing.T) {
	shared := MQTTAuthConfig{Username: "shared", Password: "s"}
	own := &MQTTAuthConfig{Username: "own", Password: "o"}
	c := MQTTConfig{Auth: shared}

	if got := c.Credentials(MQTTBrokerConfig{}); got != shared {
		t.Errorf("Credentials() = %+v, want shared", got)
	}
	if got := c.Credentials(MQTTBrokerConfig{Auth: own}); got != *own {
		t.Errorf("Credentials() = %+v, want broker's own", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate, got %v", err)
	}
	if cfg.MQTT.Brokers[0].Port != 1883 {
		t.Errorf("defaultConfig broker port = %d, want 1883", cfg.MQTT.Brokers[0].Port)
	}
	if cfg.Panels.Namespace != "buttonplus" {
		t.Errorf("defaultConfig Panels.Namespace = %q, want buttonplus", cfg.Panels.Namespace)
	}
}
