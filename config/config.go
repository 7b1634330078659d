package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	BaseURL string        `yaml:"baseURL"` // http://127.0.0.1:5000
	WSPath  string        `yaml:"wsPath"`  // /ws
	Cookie  string        `yaml:"cookie"`  // session=...
	Timeout time.Duration `yaml:"timeout"` // 5s
}

type Idle struct {
	Tick       time.Duration `yaml:"tick"`       // 1s
	Threshold  int           `yaml:"threshold"`  // 300
	PingPath   string        `yaml:"pingPath"`   // /ping
	LogoutPath string        `yaml:"logoutPath"` // /logout
}

type Room struct {
	Token       string `yaml:"token"`
	LandingPath string `yaml:"landingPath"` // /online
}

type UI struct {
	Mode string `yaml:"mode"` // tui|plain
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod, empty = APP_ENV
	Service   string `yaml:"service"`   // session-client
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap, empty = by env
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
	File      string `yaml:"file"`      // required in tui mode, stdout otherwise
}

type Config struct {
	Server  Server  `yaml:"server"`
	Idle    Idle    `yaml:"idle"`
	Room    Room    `yaml:"room"`
	UI      UI      `yaml:"ui"`
	Logging Logging `yaml:"logging"`
}

const (
	ModeTUI   = "tui"
	ModePlain = "plain"
)

// Load reads .env (if any), then the YAML file named by CONFIG_PATH.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies env overrides and defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("SERVER_BASE_URL")); v != "" {
		c.Server.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_COOKIE")); v != "" {
		c.Server.Cookie = v
	}
	if c.Room.Token == "" {
		c.Room.Token = strings.TrimSpace(os.Getenv("SESSION_TOKEN"))
	}
}

func (c *Config) validate() error {
	if c.Server.BaseURL == "" {
		return errors.New("server.baseURL is required")
	}
	if c.Idle.Threshold < 0 {
		return errors.New("idle.threshold must be >= 0")
	}

	if c.Server.WSPath == "" {
		c.Server.WSPath = "/ws"
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = 5 * time.Second
	}
	if c.Idle.Tick <= 0 {
		c.Idle.Tick = time.Second
	}
	if c.Idle.Threshold == 0 {
		c.Idle.Threshold = 300
	}
	if c.Idle.PingPath == "" {
		c.Idle.PingPath = "/ping"
	}
	if c.Idle.LogoutPath == "" {
		c.Idle.LogoutPath = "/logout"
	}
	if c.Room.LandingPath == "" {
		c.Room.LandingPath = "/online"
	}

	switch c.UI.Mode {
	case "":
		c.UI.Mode = ModeTUI
	case ModeTUI, ModePlain:
	default:
		return fmt.Errorf("ui.mode: unknown mode %q", c.UI.Mode)
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "session-client"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.UI.Mode == ModeTUI && c.Logging.File == "" {
		c.Logging.File = "session-client.log"
	}
	return nil
}
