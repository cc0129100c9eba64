package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix shared by every environment override.
const EnvPrefix = "PANELS_"

// Config is the root configuration structure for the panel bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site" envPrefix:"SITE_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	MQTT     MQTTConfig     `yaml:"mqtt" envPrefix:"MQTT_"`
	API      APIConfig      `yaml:"api" envPrefix:"API_"`
	InfluxDB InfluxDBConfig `yaml:"influxdb" envPrefix:"INFLUXDB_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOG_"`
	Panels   PanelsConfig   `yaml:"panels" envPrefix:"PANEL_"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id" env:"ID"`
	Name string `yaml:"name" env:"NAME"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path" env:"PATH"`
	WALMode     bool   `yaml:"wal_mode" env:"WAL_MODE"`
	BusyTimeout int    `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`
}

// MQTTConfig contains settings for every broker the bridge talks to.
//
// Panels and bound devices name a broker by ID; an empty broker ID
// resolves to DefaultBroker.
type MQTTConfig struct {
	DefaultBroker string              `yaml:"default_broker" env:"DEFAULT_BROKER"`
	QoS           int                 `yaml:"qos" env:"QOS"`
	Auth          MQTTAuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Reconnect     MQTTReconnectConfig `yaml:"reconnect" envPrefix:"RECONNECT_"`
	Brokers       []MQTTBrokerConfig  `yaml:"brokers"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	ID       string          `yaml:"id"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	TLS      bool            `yaml:"tls"`
	ClientID string          `yaml:"client_id"`
	Auth     *MQTTAuthConfig `yaml:"auth,omitempty"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay" env:"INITIAL_DELAY"`
	MaxDelay     int `yaml:"max_delay" env:"MAX_DELAY"`
}

// Credentials returns the broker's own credentials, falling back to the
// shared ones.
func (c MQTTConfig) Credentials(b MQTTBrokerConfig) MQTTAuthConfig {
	if b.Auth != nil {
		return *b.Auth
	}
	return c.Auth
}

// Broker looks up a broker by ID. An empty ID means the default broker.
func (c MQTTConfig) Broker(id string) (MQTTBrokerConfig, bool) {
	if id == "" {
		id = c.DefaultBroker
	}
	for _, b := range c.Brokers {
		if b.ID == id {
			return b, true
		}
	}
	return MQTTBrokerConfig{}, false
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled   bool             `yaml:"enabled" env:"ENABLED"`
	Host      string           `yaml:"host" env:"HOST"`
	Port      int              `yaml:"port" env:"PORT"`
	Timeouts  APITimeoutConfig `yaml:"timeouts" envPrefix:"TIMEOUT_"`
	Auth      APIAuthConfig    `yaml:"auth" envPrefix:"AUTH_"`
	WebSocket WebSocketConfig  `yaml:"websocket" envPrefix:"WS_"`
}

// APIAuthConfig controls bearer-token authentication on the API.
// An empty JWTSecret disables authentication.
// TokenTTL is the access token lifetime in minutes.
type APIAuthConfig struct {
	JWTSecret string           `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  int              `yaml:"token_ttl" env:"TOKEN_TTL"`
	Operators []OperatorConfig `yaml:"operators"`
}

// OperatorConfig is one API login. PasswordHash is an Argon2id PHC string.
type OperatorConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// WebSocketConfig contains settings for the live event feed, in seconds
// and bytes.
type WebSocketConfig struct {
	PingInterval   int `yaml:"ping_interval" env:"PING_INTERVAL"`
	PongTimeout    int `yaml:"pong_timeout" env:"PONG_TIMEOUT"`
	MaxMessageSize int `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read" env:"READ"`
	Write int `yaml:"write" env:"WRITE"`
	Idle  int `yaml:"idle" env:"IDLE"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ENABLED"`
	URL           string `yaml:"url" env:"URL"`
	Token         string `yaml:"token" env:"TOKEN"`
	Org           string `yaml:"org" env:"ORG"`
	Bucket        string `yaml:"bucket" env:"BUCKET"`
	BatchSize     int    `yaml:"batch_size" env:"BATCH_SIZE"`
	FlushInterval int    `yaml:"flush_interval" env:"FLUSH_INTERVAL"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	Output string `yaml:"output" env:"OUTPUT"`
}

// PanelsConfig describes the installed panels and how they are driven.
type PanelsConfig struct {
	// Namespace is the first topic segment of all panel traffic.
	Namespace string `yaml:"namespace" env:"NAMESPACE"`

	// BindingsFile is an optional YAML file of button and display
	// configuration tables, upserted into the database on start.
	BindingsFile string `yaml:"bindings_file" env:"BINDINGS_FILE"`

	// ResyncSchedule is a cron expression for republishing every panel's state.
	// Empty disables periodic resync.
	ResyncSchedule string `yaml:"resync_schedule" env:"RESYNC_SCHEDULE"`

	// StateSync enables ingestion of core device state topics.
	StateSync bool `yaml:"state_sync" env:"STATE_SYNC"`

	Firmware FirmwareConfig `yaml:"firmware" envPrefix:"FIRMWARE_"`
	Devices  []PanelConfig  `yaml:"devices"`
}

// FirmwareConfig holds the minimum firmware versions for gated features.
type FirmwareConfig struct {
	PageMinVersion       string `yaml:"page_min_version" env:"PAGE_MIN_VERSION"`
	BrightnessMinVersion string `yaml:"brightness_min_version" env:"BRIGHTNESS_MIN_VERSION"`
}

// PanelConfig describes one physical panel.
type PanelConfig struct {
	// DeviceID is the panel's own device in the automation graph.
	DeviceID string `yaml:"device_id"`
	Name     string `yaml:"name"`

	// MQTTID is the panel id used in topics. Derived from Name when empty.
	MQTTID   string `yaml:"mqtt_id"`
	BrokerID string `yaml:"broker_id"`
	Firmware string `yaml:"firmware"`

	Connectors []ConnectorConfig `yaml:"connectors"`
}

// ConnectorConfig describes one connector slot of a panel.
type ConnectorConfig struct {
	Index    int    `yaml:"index"`
	Type     string `yaml:"type"`
	ConfigID *int64 `yaml:"config_id,omitempty"`
}

// Load reads configuration from a YAML file and applies environment overrides.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables
//  2. YAML file values
//  3. Defaults
//
// Environment variables follow the pattern PANELS_SECTION_KEY, for example
// PANELS_DATABASE_PATH or PANELS_MQTT_AUTH_PASSWORD.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic",
		},
		Database: DatabaseConfig{
			Path:        "./data/panels.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			DefaultBroker: "default",
			QoS:           1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			Brokers: []MQTTBrokerConfig{{
				ID:       "default",
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-panels",
			}},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			Auth: APIAuthConfig{
				TokenTTL: 15,
			},
			WebSocket: WebSocketConfig{
				PingInterval:   30,
				PongTimeout:    10,
				MaxMessageSize: 8192,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Panels: PanelsConfig{
			Namespace:      "buttonplus",
			ResyncSchedule: "@every 15m",
			Firmware: FirmwareConfig{
				PageMinVersion:       "1.11",
				BrightnessMinVersion: "1.09",
			},
		},
	}
}

// applyEnvOverrides applies PANELS_* environment variables over cfg.
func applyEnvOverrides(cfg *Config) error {
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
}

var validOperatorRoles = map[string]bool{
	"viewer":   true,
	"operator": true,
}

var validConnectorTypes = map[string]bool{
	"":           true,
	"unfitted":   true,
	"buttonpair": true,
	"display":    true,
}

// Validate checks the configuration for errors.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if len(c.MQTT.Brokers) == 0 {
		errs = append(errs, "mqtt.brokers must list at least one broker")
	}
	seen := make(map[string]bool, len(c.MQTT.Brokers))
	for i, b := range c.MQTT.Brokers {
		if b.ID == "" {
			errs = append(errs, fmt.Sprintf("mqtt.brokers[%d].id is required", i))
		}
		if seen[b.ID] {
			errs = append(errs, fmt.Sprintf("mqtt.brokers[%d].id %q is duplicated", i, b.ID))
		}
		seen[b.ID] = true
		if b.Host == "" {
			errs = append(errs, fmt.Sprintf("mqtt.brokers[%d].host is required", i))
		}
	}
	if _, ok := c.MQTT.Broker(""); !ok && len(c.MQTT.Brokers) > 0 {
		errs = append(errs, fmt.Sprintf("mqtt.default_broker %q is not a configured broker", c.MQTT.DefaultBroker))
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.API.Auth.JWTSecret != "" {
		if len(c.API.Auth.Operators) == 0 {
			errs = append(errs, "api.auth.operators must list at least one operator when jwt_secret is set")
		}
		for i, op := range c.API.Auth.Operators {
			if op.Username == "" || op.PasswordHash == "" {
				errs = append(errs, fmt.Sprintf("api.auth.operators[%d] needs a username and password_hash", i))
			}
			if !validOperatorRoles[strings.ToLower(op.Role)] {
				errs = append(errs, fmt.Sprintf("api.auth.operators[%d].role %q is not recognised", i, op.Role))
			}
		}
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Panels.Namespace == "" {
		errs = append(errs, "panels.namespace is required")
	}
	for i, p := range c.Panels.Devices {
		if p.DeviceID == "" {
			errs = append(errs, fmt.Sprintf("panels.devices[%d].device_id is required", i))
		}
		if p.BrokerID != "" {
			if _, ok := c.MQTT.Broker(p.BrokerID); !ok {
				errs = append(errs, fmt.Sprintf("panels.devices[%d].broker_id %q is not a configured broker", i, p.BrokerID))
			}
		}
		for j, conn := range p.Connectors {
			if conn.Index < 0 || conn.Index > 7 {
				errs = append(errs, fmt.Sprintf("panels.devices[%d].connectors[%d].index must be between 0 and 7", i, j))
			}
			if !validConnectorTypes[strings.ToLower(conn.Type)] {
				errs = append(errs, fmt.Sprintf("panels.devices[%d].connectors[%d].type %q is not recognised", i, j, conn.Type))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
