// Package config loads the simulator configuration from YAML.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"dk154mock/pkg/ascol"
	"dk154mock/pkg/astro"
	"dk154mock/pkg/ccd3"
	"dk154mock/pkg/dfosc"
	"dk154mock/pkg/frame"
	"dk154mock/pkg/hardware"
	"dk154mock/pkg/logging"
	"dk154mock/pkg/tcpserver"
	"dk154mock/pkg/telemetry"

	"gopkg.in/yaml.v3"
)

// Config is the complete simulator configuration.
type Config struct {
	ASCOL   ServerConfig     `yaml:"ascol"`
	DFOSC   ServerConfig     `yaml:"dfosc"`
	CCD3    CCD3Config       `yaml:"ccd3"`
	Timing  hardware.Timing  `yaml:"timing"`
	Site    astro.Site       `yaml:"site"`
	Park    hardware.Park    `yaml:"park"` // used until a park position is saved
	MQTT    telemetry.Config `yaml:"mqtt"`
	Logging logging.Config   `yaml:"logging"`
	Store   StoreConfig      `yaml:"store"`
}

// ServerConfig is a listening endpoint for a line protocol.
type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type CCD3Config struct {
	Host        string       `yaml:"host"`
	Port        int          `yaml:"port"`
	DataPath    string       `yaml:"data_path"`
	WriteFrames bool         `yaml:"write_frames"`
	Seed        uint64       `yaml:"seed"`
	Sensor      frame.Sensor `yaml:"sensor"`
}

func (c CCD3Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ASCOL: ServerConfig{
			Host:        "localhost",
			Port:        ascol.DefaultPort,
			IdleTimeout: tcpserver.DefaultIdleTimeout,
		},
		DFOSC: ServerConfig{
			Host:        "localhost",
			Port:        dfosc.DefaultPort,
			IdleTimeout: tcpserver.DefaultIdleTimeout,
		},
		CCD3: CCD3Config{
			Host:        "localhost",
			Port:        ccd3.DefaultPort,
			DataPath:    "data",
			WriteFrames: true,
			Seed:        1,
			Sensor:      frame.DefaultSensor(),
		},
		Timing:  hardware.DefaultTiming(),
		Site:    astro.LaSilla,
		Park:    hardware.DefaultPark(),
		MQTT:    telemetry.DefaultConfig(),
		Logging: logging.DefaultConfig(),
		Store:   StoreConfig{Path: "dk154mock.db"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read configuration file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing configuration from %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for name, port := range map[string]int{"ascol": c.ASCOL.Port, "dfosc": c.DFOSC.Port, "ccd3": c.CCD3.Port} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("%s: invalid port %d", name, port)
		}
	}
	if c.ASCOL.IdleTimeout <= 0 || c.DFOSC.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive")
	}
	if c.CCD3.WriteFrames && c.CCD3.DataPath == "" {
		return fmt.Errorf("ccd3: data_path is required to write frames")
	}
	if err := c.CCD3.Sensor.Validate(); err != nil {
		return fmt.Errorf("ccd3 sensor: %w", err)
	}
	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("timing: %w", err)
	}
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 {
		return fmt.Errorf("site: invalid latitude %v", c.Site.Latitude)
	}
	if err := c.Park.Validate(); err != nil {
		return fmt.Errorf("park: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store: path cannot be empty")
	}
	return nil
}
