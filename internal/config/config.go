// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the printer utility service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Printer   PrinterConfig   `mapstructure:"printer"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DiscoveryConfig holds discovery session settings.
type DiscoveryConfig struct {
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
	BroadcastPort  int           `mapstructure:"broadcast_port"`
	ProbeInterval  time.Duration `mapstructure:"probe_interval"`
	ProbeRounds    int           `mapstructure:"probe_rounds"`
}

// PrinterConfig holds connection and print settings.
type PrinterConfig struct {
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	PrintTimeout     time.Duration `mapstructure:"print_timeout"`
	ZebraTCPPort     int           `mapstructure:"zebra_tcp_port"`
	GenericTCPPort   int           `mapstructure:"generic_tcp_port"`
	BluetoothDevice  string        `mapstructure:"bluetooth_device"`
	BluetoothBaud    int           `mapstructure:"bluetooth_baud"`
	DisconnectSettle time.Duration `mapstructure:"disconnect_settle"`
	AutoReconnect    bool          `mapstructure:"auto_reconnect"`
}

// StorageConfig holds persistence settings for printer preferences.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from file and environment. Environment variables
// use the ZEBRA_UTILITY_ prefix with underscores, e.g. ZEBRA_UTILITY_SERVER_PORT.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ZEBRA_UTILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/zebra-printer-utility")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("discovery.session_timeout", "45s")
	v.SetDefault("discovery.broadcast_port", 4201)
	v.SetDefault("discovery.probe_interval", "5s")
	v.SetDefault("discovery.probe_rounds", 3)

	v.SetDefault("printer.connect_timeout", "30s")
	v.SetDefault("printer.print_timeout", "30s")
	v.SetDefault("printer.zebra_tcp_port", 6101)
	v.SetDefault("printer.generic_tcp_port", 9100)
	v.SetDefault("printer.bluetooth_device", "/dev/rfcomm0")
	v.SetDefault("printer.bluetooth_baud", 115200)
	v.SetDefault("printer.disconnect_settle", "1s")
	v.SetDefault("printer.auto_reconnect", false)

	v.SetDefault("storage.path", "./data/printers.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Discovery.SessionTimeout <= 0 {
		return fmt.Errorf("discovery session timeout must be positive")
	}
	if c.Discovery.ProbeRounds < 1 {
		return fmt.Errorf("discovery probe rounds must be at least 1")
	}
	if c.Printer.ConnectTimeout <= 0 {
		return fmt.Errorf("printer connect timeout must be positive")
	}
	if c.Printer.PrintTimeout <= 0 {
		return fmt.Errorf("printer print timeout must be positive")
	}
	if c.Printer.ZebraTCPPort < 1 || c.Printer.ZebraTCPPort > 65535 {
		return fmt.Errorf("invalid zebra tcp port: %d", c.Printer.ZebraTCPPort)
	}
	if c.Printer.GenericTCPPort < 1 || c.Printer.GenericTCPPort > 65535 {
		return fmt.Errorf("invalid generic tcp port: %d", c.Printer.GenericTCPPort)
	}
	return nil
}

// Address returns the host:port the HTTP server binds to.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
