package conf

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Backend describes one sandbox backend in preference order.
type Backend struct {
	Type      string   `toml:"type"` // "jobe" or "sqs"
	Enabled   bool     `toml:"enabled"`
	Server    string   `toml:"server"`     // jobe host[:port]
	ApiKey    string   `toml:"api_key"`    // jobe, optional
	SubmQUrl  string   `toml:"subm_queue"` // sqs submission queue url
	RespQUrl  string   `toml:"resp_queue"` // sqs response queue url
	Languages []string `toml:"languages"`  // sqs backends can't be queried
}

type Config struct {
	ListenAddr     string   `toml:"listen_addr"`
	JwtKey         string   `toml:"jwt_key"`
	AllowedOrigins []string `toml:"allowed_origins"`

	// Empty bucket means outcomes are cached in memory only.
	OutcomeBucket string `toml:"outcome_bucket"`
	AwsRegion     string `toml:"aws_region"`

	Backends []Backend `toml:"backends"`
}

func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		AwsRegion:      "eu-central-1",
		Backends: []Backend{
			{Type: "jobe", Enabled: true, Server: "localhost:4000"},
		},
	}
}

// Load reads the TOML config at path, starting from defaults. The JWT
// key may come from the environment instead of the file so the file
// can be committed.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if key := os.Getenv("GRADER_JWT_KEY"); key != "" {
		cfg.JwtKey = key
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	anyEnabled := false
	for i, b := range c.Backends {
		switch b.Type {
		case "jobe":
			if b.Server == "" {
				return fmt.Errorf("backend %d: jobe backend needs a server", i)
			}
		case "sqs":
			if b.SubmQUrl == "" || b.RespQUrl == "" {
				return fmt.Errorf("backend %d: sqs backend needs both queue urls", i)
			}
		default:
			return fmt.Errorf("backend %d: unknown type %q", i, b.Type)
		}
		if b.Enabled {
			anyEnabled = true
		}
	}
	if len(c.Backends) > 0 && !anyEnabled {
		return fmt.Errorf("all sandbox backends are disabled")
	}
	return nil
}
