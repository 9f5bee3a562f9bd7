package utils

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type AuthConfig struct {
	// APIToken is the static bearer token; empty disables it.
	APIToken    string        `yaml:"api_token"`
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTDuration time.Duration `yaml:"jwt_duration"`
}

type Config struct {
	Paths       []string      `yaml:"paths"`
	FallbackDir string        `yaml:"fallback_dir"`
	Cohorts     []string      `yaml:"cohorts"`
	CacheSize   int           `yaml:"cache_size"`
	// CacheTTL takes a duration string ("5m") or a bare number of seconds.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Watch       bool          `yaml:"watch"`

	HTTPAddr string `yaml:"http_addr"`
	TCPAddr  string `yaml:"tcp_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
	LogMode  string `yaml:"log_mode"`

	SnapshotDB string `yaml:"snapshot_db"`

	Auth AuthConfig `yaml:"auth"`
}

func DefaultConfig() Config {
	return Config{
		FallbackDir: "data",
		Cohorts:     []string{"PEA", "PEP"},
		CacheSize:   1024,
		CacheTTL:    300 * time.Second,
		HTTPAddr:    ":8080",
		TCPAddr:     ":7070",
		GRPCAddr:    ":9090",
		LogMode:     "dev",
		Auth: AuthConfig{
			JWTIssuer:   "sessionmeta",
			JWTDuration: 24 * time.Hour,
		},
	}
}

// Load starts from DefaultConfig, applies the YAML file at path when path
// is non-empty, then environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		secondsToDurations(&doc, "cache_ttl", "jwt_duration")
		if err := doc.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// secondsToDurations rewrites bare integers under the given keys as
// seconds, matching META_CACHE_TTL_SECONDS. yaml.v3 would otherwise read
// "cache_ttl: 300" as 300ns.
func secondsToDurations(n *yaml.Node, keys ...string) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			secondsToDurations(c, keys...)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if v.Kind == yaml.ScalarNode && v.ShortTag() == "!!int" && slices.Contains(keys, k.Value) {
				v.Value += "s"
				v.Tag = "!!str"
				continue
			}
			secondsToDurations(v, keys...)
		}
	}
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("MASTER_INDEX_PATHS"); ok {
		c.Paths = splitList(v)
	}
	if v, ok := os.LookupEnv("META_COHORTS"); ok {
		c.Cohorts = splitList(v)
	}
	c.FallbackDir = envString("META_FALLBACK_DIR", c.FallbackDir)
	c.HTTPAddr = envString("META_HTTP_ADDR", c.HTTPAddr)
	c.TCPAddr = envString("META_TCP_ADDR", c.TCPAddr)
	c.GRPCAddr = envString("META_GRPC_ADDR", c.GRPCAddr)
	c.LogMode = envString("META_LOG_MODE", c.LogMode)
	c.SnapshotDB = envString("META_SNAPSHOT_DB", c.SnapshotDB)
	c.Auth.APIToken = envString("SEARCH_API_TOKEN", c.Auth.APIToken)
	c.Auth.JWTSecret = envString("META_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTIssuer = envString("META_JWT_ISSUER", c.Auth.JWTIssuer)

	var err error
	if c.CacheSize, err = envInt("META_CACHE_SIZE", c.CacheSize); err != nil {
		return err
	}
	if c.CacheTTL, err = envDuration("META_CACHE_TTL_SECONDS", time.Second, c.CacheTTL); err != nil {
		return err
	}
	if c.Auth.JWTDuration, err = envDuration("META_JWT_TTL_HOURS", time.Hour, c.Auth.JWTDuration); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("META_WATCH"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("META_WATCH: %w", err)
		}
		c.Watch = b
	}
	return nil
}

// envDuration reads key as a whole number of units and leaves def untouched
// when the variable is unset.
func envDuration(key string, unit, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return def, nil
	}
	n, err := envInt(key, 0)
	if err != nil {
		return def, err
	}
	return time.Duration(n) * unit, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// splitList reads comma separated values, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
