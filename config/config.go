package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are the file names searched for, in precedence order.
var configNames = []string{
	"uptask.yml",
	"uptask.yaml",
	"uptask.toml",
	".uptask.yml",
	".uptask.yaml",
}

// Load reads and parses a single configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	return LoadFromBytes(data, formatOf(path))
}

// LoadDefault loads the configuration for the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging:
// 1. Global config (<config dir>/uptask.{yml,yaml,toml}) - base layer
// 2. Project config found from startDir upwards - overrides global
//
// Neither file is required; missing files leave the defaults in place.
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger is LoadFrom with an explicit logger for debug output.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	cfg := &Config{}

	if globalPath := findIn(paths.ConfigDir()); globalPath != "" {
		logger.WithField("path", globalPath).Debug("Loading global configuration")
		if err := decodeFileInto(globalPath, cfg); err != nil {
			logger.WithError(err).Warn("Failed to parse global configuration, continuing without it")
		}
	}

	projectPath, err := FindConfigFile(startDir)
	if err == nil {
		logger.WithField("path", projectPath).Debug("Loading project configuration")
		if err := decodeFileInto(projectPath, cfg); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, errors.ErrCodeConfigNotFound) {
		return nil, err
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded and validated successfully")
	return cfg, nil
}

// LoadFromBytes parses configuration from a byte array.
// format is "yaml" or "toml".
func LoadFromBytes(data []byte, format string) (*Config, error) {
	var cfg Config
	if err := decodeInto(data, format, &cfg); err != nil {
		return nil, err
	}
	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfigFile searches startDir and its parents for an uptask config file.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		if path := findIn(dir); path != "" {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// finalize applies defaults, then checks the result against the schema and URL rules.
func finalize(cfg *Config) error {
	cfg.SetDefaults()

	validator, err := NewSchemaValidator()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}
	if err := validator.Validate(cfg); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	return cfg.Validate()
}

// Validate checks semantic rules the schema cannot express.
func (c *Config) Validate() error {
	if err := checkURL(c.BackendURL, "http", "https"); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("backend_url: %v", err)).WithDetail("field", "backend_url")
	}
	if err := checkURL(c.ChannelURL, "ws", "wss"); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("channel_url: %v", err)).WithDetail("field", "channel_url")
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("missing host in %q", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("scheme must be one of %s, got %q", strings.Join(schemes, "/"), u.Scheme)
}

func findIn(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func formatOf(path string) string {
	if strings.HasSuffix(path, ".toml") {
		return "toml"
	}
	return "yaml"
}

func decodeFileInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	if err := decodeInto(data, formatOf(path), cfg); err != nil {
		if uerr, ok := err.(*errors.UptaskError); ok {
			return uerr.WithDetail("path", path)
		}
		return err
	}
	return nil
}

// decodeInto overlays data onto cfg. Keys absent from data keep their current value.
func decodeInto(data []byte, format string, cfg *Config) error {
	expanded := []byte(expandEnvVars(string(data)))

	switch format {
	case "toml":
		if err := toml.NewDecoder(bytes.NewReader(expanded)).Decode(cfg); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		// go-toml has no inline maps; collect unknown tables as extensions.
		var raw map[string]interface{}
		if err := toml.Unmarshal(expanded, &raw); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		for key, value := range raw {
			if knownKeys[key] {
				continue
			}
			if cfg.Extensions == nil {
				cfg.Extensions = make(map[string]interface{})
			}
			cfg.Extensions[key] = value
		}
	default:
		if err := yaml.Unmarshal(expanded, cfg); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
	}
	return nil
}

var knownKeys = map[string]bool{
	"backend_url": true,
	"channel_url": true,
	"alerts":      true,
	"reconcile":   true,
	"cache":       true,
	"relay":       true,
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
