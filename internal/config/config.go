package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config contains runtime settings for the CLI, the MCP server and the mock backend
type Config struct {
	LogLevel string `yaml:"log_level"`
	Host     string `yaml:"host"` // default 0.0.0.0
	Port     string `yaml:"port"` // default PORT env or 8080

	Portal   Portal   `yaml:"portal"`
	Auth     Auth     `yaml:"auth"`
	State    State    `yaml:"state"`
	Cache    Cache    `yaml:"cache"`
	Prefetch Prefetch `yaml:"prefetch"`
	Neo4j    Neo4j    `yaml:"neo4j"`
	Sheets   Sheets   `yaml:"sheets"`
	Mock     Mock     `yaml:"mock"`
}

// Portal configures the backend REST client
type Portal struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	MaxRedirects int           `yaml:"max_redirects"`
	UserAgent    string        `yaml:"user_agent"`
}

type Auth struct {
	TokenKey string `yaml:"token_key"`
}

// State selects where the token, profile and cache snapshot live. RedisURL
// wins over File when both are set.
type State struct {
	File        string `yaml:"file"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type Cache struct {
	TTL time.Duration `yaml:"ttl"`
	// Bypass lists categories that are always fetched live
	Bypass []string `yaml:"bypass"`
	Window int      `yaml:"window"`
}

type Prefetch struct {
	Spec        string   `yaml:"spec"`
	Categories  []string `yaml:"categories"`
	Parallelism int      `yaml:"parallelism"`
	RunOnStart  bool     `yaml:"run_on_start"`
}

type Neo4j struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type Sheets struct {
	CredentialsPath string `yaml:"credentials_path"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Tab             string `yaml:"tab"`
}

// Mock configures the in-process mock backend
type Mock struct {
	Addr   string        `yaml:"addr"`
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"token_ttl"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		LogLevel: "info",
		Host:     "0.0.0.0",
		Port:     "8080",
		Portal: Portal{
			BaseURL:      "http://localhost:8000/api/v1",
			Timeout:      10 * time.Second,
			MaxRedirects: 10,
		},
		Auth: Auth{
			TokenKey: "auth_token",
		},
		State: State{
			File:        defaultStateFile(),
			RedisPrefix: "career-compass:",
		},
		Cache: Cache{
			TTL:    30 * time.Minute,
			Bypass: []string{"33"},
			Window: 500,
		},
		Prefetch: Prefetch{
			Spec:        "@every 25m",
			Parallelism: 4,
		},
		Sheets: Sheets{
			Tab: "Favorites",
		},
		Mock: Mock{
			Addr:   "127.0.0.1:8000",
			Secret: "mock-secret",
			TTL:    time.Hour,
		},
	}
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".career-compass", "state.json")
	}
	return filepath.Join(dir, "career-compass", "state.json")
}

// Load builds the configuration: defaults, then the YAML file at path (a
// missing file is not an error), then .env, then environment overrides
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() error {
	var problems []error

	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Host, "MCP_HOST")
	setString(&c.Port, "PORT")

	setString(&c.Portal.BaseURL, "PORTAL_BASE_URL")
	setString(&c.Portal.UserAgent, "PORTAL_USER_AGENT")
	problems = append(problems,
		setDuration(&c.Portal.Timeout, "PORTAL_TIMEOUT"),
		setInt(&c.Portal.MaxRetries, "PORTAL_MAX_RETRIES"),
		setInt(&c.Portal.MaxRedirects, "PORTAL_MAX_REDIRECTS"),
	)

	setString(&c.Auth.TokenKey, "PORTAL_TOKEN_KEY")
	setString(&c.State.File, "PORTAL_STATE_FILE")
	setString(&c.State.RedisURL, "REDIS_URL")

	problems = append(problems, setDuration(&c.Cache.TTL, "PORTAL_CACHE_TTL"))
	setList(&c.Cache.Bypass, "PORTAL_CACHE_BYPASS")

	setString(&c.Prefetch.Spec, "PORTAL_PREFETCH_SPEC")
	setList(&c.Prefetch.Categories, "PORTAL_PREFETCH_CATEGORIES")

	setString(&c.Neo4j.URI, "NEO4J_URI")
	setString(&c.Neo4j.Username, "NEO4J_USERNAME")
	setString(&c.Neo4j.Password, "NEO4J_PASSWORD")
	setString(&c.Neo4j.Database, "NEO4J_DATABASE")

	setString(&c.Sheets.CredentialsPath, "GOOGLE_SHEETS_CREDENTIALS_PATH")
	setString(&c.Sheets.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")

	setString(&c.Mock.Secret, "MOCK_JWT_SECRET")

	return errors.Join(problems...)
}

// Validate reports every problem at once
func (c Config) Validate() error {
	var problems []string

	if u, err := url.Parse(c.Portal.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("portal.base_url must be an absolute http(s) url, got %q", c.Portal.BaseURL))
	}
	if c.Portal.Timeout <= 0 {
		problems = append(problems, "portal.timeout must be positive")
	}
	if c.Portal.MaxRetries < 0 {
		problems = append(problems, "portal.max_retries must not be negative")
	}
	if strings.TrimSpace(c.Auth.TokenKey) == "" {
		problems = append(problems, "auth.token_key is required")
	}
	if c.State.File == "" && c.State.RedisURL == "" {
		problems = append(problems, "state.file or state.redis_url is required")
	}
	if c.Cache.TTL <= 0 {
		problems = append(problems, "cache.ttl must be positive")
	}
	if c.Cache.Window < 0 {
		problems = append(problems, "cache.window must not be negative")
	}
	if c.Prefetch.Parallelism < 0 {
		problems = append(problems, "prefetch.parallelism must not be negative")
	}
	if c.Neo4j.URI != "" && (c.Neo4j.Username == "" || c.Neo4j.Password == "") {
		problems = append(problems, "neo4j.username and neo4j.password are required with neo4j.uri")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the MCP listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
