package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/dshills/archcheck/internal/changes"
)

// Behavior values.
const (
	BehaviorRecommendOnly = "recommend_only"
	BehaviorEnforce       = "enforce"
)

// Formats lists the supported report formats.
var Formats = []string{"text", "json", "markdown", "html"}

// Config represents the archcheck configuration.
type Config struct {
	Provider         string         `json:"provider" toml:"provider"`
	Model            string         `json:"model" toml:"model"`
	Compare          []string       `json:"compare,omitempty" toml:"compare"`
	Format           string         `json:"format" toml:"format"`
	Language         string         `json:"language" toml:"language"`
	Behavior         string         `json:"behavior" toml:"behavior"`
	Threshold        float64        `json:"threshold" toml:"threshold"`
	ScoreDefault     float64        `json:"scoreDefault" toml:"scoreDefault"`
	MaxOutputTokens  int            `json:"maxOutputTokens" toml:"maxOutputTokens"`
	Temperature      float64        `json:"temperature" toml:"temperature"`
	RulesFile        string         `json:"rulesFile,omitempty" toml:"rulesFile"`
	RequirementsFile string         `json:"requirementsFile,omitempty" toml:"requirementsFile"`
	Budget           changes.Budget `json:"budget" toml:"budget"`
	Cache            CacheConfig    `json:"cache" toml:"cache"`
	Privacy          PrivacyConfig  `json:"privacy" toml:"privacy"`
	Server           ServerConfig   `json:"server" toml:"server"`
	Azure            AzureConfig    `json:"azure" toml:"azure"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled       bool   `json:"enabled" toml:"enabled"`
	Dir           string `json:"dir,omitempty" toml:"dir"`
	TTLSeconds    int    `json:"ttlSeconds" toml:"ttlSeconds"`
	MemoryEntries int    `json:"memoryEntries" toml:"memoryEntries"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets" toml:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty" toml:"redactPaths"`
}

// ServerConfig controls the HTTP front end.
type ServerConfig struct {
	Addr string `json:"addr" toml:"addr"`
	// AllowedOrigins lists the browser origins accepted by CORS. Empty or
	// "*" accepts any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" toml:"allowedOrigins"`
}

// AzureConfig locates an Azure OpenAI deployment.
type AzureConfig struct {
	Endpoint   string `json:"endpoint,omitempty" toml:"endpoint"`
	Deployment string `json:"deployment,omitempty" toml:"deployment"`
	APIVersion string `json:"apiVersion" toml:"apiVersion"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:         "azureopenai",
		Model:            "gpt-4o",
		Format:           "text",
		Language:         "en",
		Behavior:         BehaviorRecommendOnly,
		Threshold:        0.7,
		ScoreDefault:     0.0,
		MaxOutputTokens:  800,
		Temperature:      0.4,
		RulesFile:        filepath.Join("rules", "general_rules.md"),
		RequirementsFile: filepath.Join("rules", "requirements.md"),
		Budget:           changes.DefaultBudget(),
		Cache: CacheConfig{
			Enabled:       true,
			TTLSeconds:    86400,
			MemoryEntries: 256,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Server: ServerConfig{Addr: ":5013"},
		Azure:  AzureConfig{APIVersion: "2024-02-15-preview"},
	}
}

// ConfigDir returns the platform-appropriate config directory for archcheck.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "archcheck"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "archcheck"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "archcheck"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "archcheck"), nil
	default:
		return filepath.Join(home, ".config", "archcheck"), nil
	}
}

// ConfigPath returns the full path to the config file. ARCHCHECK_CONFIG
// takes precedence over the default location.
func ConfigPath() (string, error) {
	if p := os.Getenv("ARCHCHECK_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile decodes the config file on top of cfg. A missing file leaves cfg
// unchanged. Files ending in .toml are decoded as TOML, anything else as JSON.
func LoadFile(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return decode(path, data, cfg)
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		return nil
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// EnvFiles lists the dotenv files read by Load, relative to the working
// directory.
var EnvFiles = []string{".env"}

// loadDotEnv populates the process environment from EnvFiles without
// overriding variables that are already set. Missing files are ignored.
func loadDotEnv() error {
	for _, name := range EnvFiles {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	return nil
}

// Load builds the effective config by merging: defaults <- file <- .env/env <- overrides.
// The overrides map comes from CLI flags and uses SetField key names; empty
// values are ignored.
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	if err := LoadFile(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables onto SetField keys.
var envKeys = []struct {
	env string
	key string
}{
	{"ARCHCHECK_PROVIDER", "provider"},
	{"ARCHCHECK_MODEL", "model"},
	{"ARCHCHECK_COMPARE", "compare"},
	{"ARCHCHECK_FORMAT", "format"},
	{"ARCHCHECK_LANGUAGE", "language"},
	{"ARCHCHECK_BEHAVIOR", "behavior"},
	{"ARCHCHECK_THRESHOLD", "threshold"},
	{"ARCHCHECK_SCORE_DEFAULT", "scoreDefault"},
	{"ARCHCHECK_MAX_OUTPUT_TOKENS", "maxOutputTokens"},
	{"ARCHCHECK_TEMPERATURE", "temperature"},
	{"ARCHCHECK_RULES_FILE", "rulesFile"},
	{"ARCHCHECK_REQUIREMENTS_FILE", "requirementsFile"},
	{"ARCHCHECK_MAX_CHARS", "budget.maxChars"},
	{"ARCHCHECK_MAX_APPROX_TOKENS", "budget.maxApproxTokens"},
	{"ARCHCHECK_MAX_FILES", "budget.maxFiles"},
	{"ARCHCHECK_MAX_LINES_PER_FILE", "budget.maxLinesPerFile"},
	{"ARCHCHECK_MAX_PROMPT_CHARS", "budget.maxPromptChars"},
	{"ARCHCHECK_MAX_PROMPT_TOKENS", "budget.maxPromptTokens"},
	{"ARCHCHECK_CACHE_DIR", "cache.dir"},
	{"ARCHCHECK_SERVER_ADDR", "server.addr"},
	{"ARCHCHECK_ALLOWED_ORIGINS", "server.allowedOrigins"},
	{"AZURE_OPENAI_ENDPOINT", "azure.endpoint"},
	{"AZURE_OPENAI_DEPLOYMENT", "azure.deployment"},
	{"AZURE_OPENAI_API_VERSION", "azure.apiVersion"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("invalid %s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for k, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, k, v); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Behavior != BehaviorRecommendOnly && c.Behavior != BehaviorEnforce {
		return fmt.Errorf("behavior must be %s or %s, got %q", BehaviorRecommendOnly, BehaviorEnforce, c.Behavior)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %g", c.Threshold)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	return nil
}

type setter func(cfg *Config, value string) error

func stringField(get func(*Config) *string) setter {
	return func(cfg *Config, v string) error {
		*get(cfg) = v
		return nil
	}
}

func intField(get func(*Config) *int) setter {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("must be an integer: %w", err)
		}
		*get(cfg) = n
		return nil
	}
}

func floatField(get func(*Config) *float64) setter {
	return func(cfg *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("must be a number: %w", err)
		}
		*get(cfg) = f
		return nil
	}
}

func boolField(get func(*Config) *bool) setter {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("must be true or false: %w", err)
		}
		*get(cfg) = b
		return nil
	}
}

func listField(get func(*Config) *[]string) setter {
	return func(cfg *Config, v string) error {
		*get(cfg) = splitList(v)
		return nil
	}
}

var setters = map[string]setter{
	"provider":               stringField(func(c *Config) *string { return &c.Provider }),
	"model":                  stringField(func(c *Config) *string { return &c.Model }),
	"format":                 stringField(func(c *Config) *string { return &c.Format }),
	"language":               stringField(func(c *Config) *string { return &c.Language }),
	"behavior":               stringField(func(c *Config) *string { return &c.Behavior }),
	"threshold":              floatField(func(c *Config) *float64 { return &c.Threshold }),
	"scoreDefault":           floatField(func(c *Config) *float64 { return &c.ScoreDefault }),
	"maxOutputTokens":        intField(func(c *Config) *int { return &c.MaxOutputTokens }),
	"temperature":            floatField(func(c *Config) *float64 { return &c.Temperature }),
	"rulesFile":              stringField(func(c *Config) *string { return &c.RulesFile }),
	"requirementsFile":       stringField(func(c *Config) *string { return &c.RequirementsFile }),
	"budget.maxChars":        intField(func(c *Config) *int { return &c.Budget.MaxChars }),
	"budget.maxApproxTokens": intField(func(c *Config) *int { return &c.Budget.MaxApproxTokens }),
	"budget.maxFiles":        intField(func(c *Config) *int { return &c.Budget.MaxFiles }),
	"budget.maxLinesPerFile": intField(func(c *Config) *int { return &c.Budget.MaxLinesPerFile }),
	"budget.maxPromptChars":  intField(func(c *Config) *int { return &c.Budget.MaxPromptChars }),
	"budget.maxPromptTokens": intField(func(c *Config) *int { return &c.Budget.MaxPromptTokens }),
	"cache.enabled":          boolField(func(c *Config) *bool { return &c.Cache.Enabled }),
	"cache.dir":              stringField(func(c *Config) *string { return &c.Cache.Dir }),
	"cache.ttlSeconds":       intField(func(c *Config) *int { return &c.Cache.TTLSeconds }),
	"cache.memoryEntries":    intField(func(c *Config) *int { return &c.Cache.MemoryEntries }),
	"privacy.redactSecrets":  boolField(func(c *Config) *bool { return &c.Privacy.RedactSecrets }),
	"server.addr":            stringField(func(c *Config) *string { return &c.Server.Addr }),
	"server.allowedOrigins":  listField(func(c *Config) *[]string { return &c.Server.AllowedOrigins }),
	"azure.endpoint":         stringField(func(c *Config) *string { return &c.Azure.Endpoint }),
	"azure.deployment":       stringField(func(c *Config) *string { return &c.Azure.Deployment }),
	"azure.apiVersion":       stringField(func(c *Config) *string { return &c.Azure.APIVersion }),
	"privacy.redactPaths":    listField(func(c *Config) *[]string { return &c.Privacy.RedactPaths }),
	"compare":                listField(func(c *Config) *[]string { return &c.Compare }),
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Keys returns every key accepted by SetField, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	if err := set(cfg, value); err != nil {
		return fmt.Errorf("%s %w", key, err)
	}
	return nil
}
