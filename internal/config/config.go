// Package config reads and writes ~/.config/braindump/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/braindump/internal/record"
)

// AppName is the application name used for config and data paths.
const AppName = "braindump"

// Config holds CLI configuration. Every field maps to one flat key.
type Config struct {
	Backend     string `yaml:"backend,omitempty"` // sqlite, neo4j, api
	IDs         string `yaml:"ids,omitempty"`     // ulid, uuid
	DataDir     string `yaml:"data_dir,omitempty"`
	OnError     string `yaml:"on_error,omitempty"`     // abort, continue
	InputFormat string `yaml:"input_format,omitempty"` // text, markdown

	Neo4jURI      string `yaml:"neo4j_uri,omitempty"`
	Neo4jUser     string `yaml:"neo4j_user,omitempty"`
	Neo4jPassword string `yaml:"neo4j_password,omitempty"`
	Neo4jDatabase string `yaml:"neo4j_database,omitempty"`

	APIBaseURL string `yaml:"api_base_url,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIToken   string `yaml:"api_token,omitempty"`

	GeminiModel  string `yaml:"gemini_model,omitempty"`
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`
	EnhanceURL   string `yaml:"enhance_url,omitempty"`

	DefaultTags       []string `yaml:"default_tags,omitempty"`
	DefaultUrgency    int      `yaml:"default_urgency,omitempty"`
	DefaultImportance int      `yaml:"default_importance,omitempty"`

	OutputFormat string `yaml:"output_format,omitempty"` // text, json, ndjson, table, yaml
	LogLevel     string `yaml:"log_level,omitempty"`
	LogFormat    string `yaml:"log_format,omitempty"` // console, json
}

// secretKeys are masked by Display.
var secretKeys = map[string]bool{
	"neo4j_password": true,
	"api_token":      true,
	"gemini_api_key": true,
}

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringField(ptr func(*Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}

func scoreField(ptr func(*Config) *int) field {
	return field{
		get: func(c *Config) string {
			if *ptr(c) == 0 {
				return ""
			}
			return strconv.Itoa(*ptr(c))
		},
		set: func(c *Config, v string) error {
			if v == "" {
				*ptr(c) = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < record.MinScore || n > record.MaxScore {
				return fmt.Errorf("expected an integer from %d to %d, got %q", record.MinScore, record.MaxScore, v)
			}
			*ptr(c) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"backend":        stringField(func(c *Config) *string { return &c.Backend }),
	"ids":            stringField(func(c *Config) *string { return &c.IDs }),
	"data_dir":       stringField(func(c *Config) *string { return &c.DataDir }),
	"on_error":       stringField(func(c *Config) *string { return &c.OnError }),
	"input_format":   stringField(func(c *Config) *string { return &c.InputFormat }),
	"neo4j_uri":      stringField(func(c *Config) *string { return &c.Neo4jURI }),
	"neo4j_user":     stringField(func(c *Config) *string { return &c.Neo4jUser }),
	"neo4j_password": stringField(func(c *Config) *string { return &c.Neo4jPassword }),
	"neo4j_database": stringField(func(c *Config) *string { return &c.Neo4jDatabase }),
	"api_base_url":   stringField(func(c *Config) *string { return &c.APIBaseURL }),
	"collection":     stringField(func(c *Config) *string { return &c.Collection }),
	"api_token":      stringField(func(c *Config) *string { return &c.APIToken }),
	"gemini_model":   stringField(func(c *Config) *string { return &c.GeminiModel }),
	"gemini_api_key": stringField(func(c *Config) *string { return &c.GeminiAPIKey }),
	"enhance_url":    stringField(func(c *Config) *string { return &c.EnhanceURL }),
	"default_tags": {
		get: func(c *Config) string { return strings.Join(c.DefaultTags, ",") },
		set: func(c *Config, v string) error {
			c.DefaultTags = nil
			for _, tag := range strings.Split(v, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					c.DefaultTags = append(c.DefaultTags, tag)
				}
			}
			return nil
		},
	},
	"default_urgency":    scoreField(func(c *Config) *int { return &c.DefaultUrgency }),
	"default_importance": scoreField(func(c *Config) *int { return &c.DefaultImportance }),
	"output_format":      stringField(func(c *Config) *string { return &c.OutputFormat }),
	"log_level":          stringField(func(c *Config) *string { return &c.LogLevel }),
	"log_format":         stringField(func(c *Config) *string { return &c.LogFormat }),
}

// Keys returns the supported config keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	return secretKeys[key]
}

// Get returns the value of key.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return f.get(c), nil
}

// Set assigns value to key.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	if err := f.set(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Unset clears key.
func (c *Config) Unset(key string) error {
	return c.Set(key, "")
}

// Display returns every key with secrets masked.
func (c *Config) Display() map[string]string {
	out := make(map[string]string, len(fields))
	for key, f := range fields {
		v := f.get(c)
		if secretKeys[key] {
			v = MaskSecret(v)
		}
		out[key] = v
	}
	return out
}

// Defaults returns the record defaults configured by default_tags,
// default_urgency and default_importance.
func (c *Config) Defaults() record.Defaults {
	return record.Defaults{
		Tags:       c.DefaultTags,
		Urgency:    c.DefaultUrgency,
		Importance: c.DefaultImportance,
	}.Normalize()
}

// MaskSecret keeps the last four characters of a credential.
func MaskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultDataDir is where the sqlite backend keeps its database.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// ResolveDataDir returns DataDir with a leading ~ expanded, or the default.
func (c *Config) ResolveDataDir() (string, error) {
	dir := strings.TrimSpace(c.DataDir)
	if dir == "" {
		return DefaultDataDir()
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir, nil
}

// ReadConfig reads the config file from the default location
func ReadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load loads config from the given path. A missing file is an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save saves config to the given path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
