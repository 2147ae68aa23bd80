// Package config provides file based configuration for the shop backend.
// The file is XML by default; a .yaml or .yml extension switches to YAML.
package config

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no config file is given on the command line.
const DefaultPath = "shopapp.config.xml"

// AppConfig represents the root configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"ShopApp" yaml:"-"`

	Server   ServerConfig   `xml:"Server" yaml:"server"`
	Storage  StorageConfig  `xml:"Storage" yaml:"storage"`
	Security SecurityConfig `xml:"Security" yaml:"security"`
	Advanced AdvancedConfig `xml:"Advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port              int    `xml:"Port" yaml:"port"`
	BindAddress       string `xml:"BindAddress" yaml:"bindAddress"`
	EnableCORS        bool   `xml:"EnableCORS" yaml:"enableCORS"`
	AllowOrigins      string `xml:"AllowOrigins" yaml:"allowOrigins"`
	EnableCompression bool   `xml:"EnableCompression" yaml:"enableCompression"`
	ReadTimeout       int    `xml:"ReadTimeoutSeconds" yaml:"readTimeoutSeconds"`
	WriteTimeout      int    `xml:"WriteTimeoutSeconds" yaml:"writeTimeoutSeconds"`
	IdleTimeout       int    `xml:"IdleTimeoutSeconds" yaml:"idleTimeoutSeconds"`
	ShutdownTimeout   int    `xml:"ShutdownTimeoutSeconds" yaml:"shutdownTimeoutSeconds"`
	BodyLimit         string `xml:"BodyLimit" yaml:"bodyLimit"`
}

// StorageConfig contains upload storage settings
type StorageConfig struct {
	UploadsDirectory string `xml:"UploadsDirectory" yaml:"uploadsDirectory"`
	MaxUploadSize    string `xml:"MaxUploadSize" yaml:"maxUploadSize"`
	VerifyContent    bool   `xml:"VerifyContent" yaml:"verifyContent"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowFileDeletion bool `xml:"AllowFileDeletion" yaml:"allowFileDeletion"`
}

// AdvancedConfig contains logging and tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel" yaml:"logLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging" yaml:"enableRequestLogging"`
	EventBufferSize      int    `xml:"EventBufferSize" yaml:"eventBufferSize"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:              8088,
			BindAddress:       "0.0.0.0",
			EnableCORS:        true,
			AllowOrigins:      "*",
			EnableCompression: true,
			ReadTimeout:       30,
			WriteTimeout:      30,
			IdleTimeout:       120,
			ShutdownTimeout:   10,
			BodyLimit:         "20M",
		},
		Storage: StorageConfig{
			UploadsDirectory: "uploads",
			MaxUploadSize:    "10MiB",
			VerifyContent:    false,
		},
		Security: SecurityConfig{
			AllowFileDeletion: false,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EventBufferSize:      16,
		},
	}
}

// LoadConfig loads configuration from path, writing the defaults there first if the
// file does not exist. Relative directories resolve against the file's directory.
func LoadConfig(fsys afero.Fs, configPath string) (*AppConfig, error) {
	exists, err := afero.Exists(fsys, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	config := DefaultConfig()
	if !exists {
		if err := config.Save(fsys, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := afero.ReadFile(fsys, configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := config.decode(configPath, data); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.resolvePaths(filepath.Dir(configPath))
	return config, nil
}

// Save writes the configuration to path in the format implied by its extension.
func (c *AppConfig) Save(fsys afero.Fs, configPath string) error {
	var content []byte
	if isYAML(configPath) {
		out, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		content = append([]byte("# Shop backend configuration\n# This file is auto-generated on first run\n\n"), out...)
	} else {
		out, err := xml.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		content = append([]byte(xml.Header+"\n<!-- Shop backend configuration -->\n<!-- This file is auto-generated on first run -->\n\n"), out...)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := afero.WriteFile(fsys, configPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *AppConfig) decode(configPath string, data []byte) error {
	if isYAML(configPath) {
		return yaml.Unmarshal(data, c)
	}
	return xml.Unmarshal(data, c)
}

func isYAML(configPath string) bool {
	ext := strings.ToLower(filepath.Ext(configPath))
	return ext == ".yaml" || ext == ".yml"
}

// envOverrides lists the environment variables that take precedence over the file.
type envOverrides struct {
	Port          string `env:"PORT"`
	BindAddress   string `env:"BIND_ADDRESS"`
	UploadDir     string `env:"UPLOAD_DIR"`
	MaxUploadSize string `env:"MAX_UPLOAD_SIZE"`
	LogLevel      string `env:"LOG_LEVEL"`
}

// ApplyEnvironment overrides config values from a KEY=VALUE environment list,
// typically LoadDotEnv output followed by os.Environ(). Later entries win.
func (c *AppConfig) ApplyEnvironment(environ []string) error {
	es, err := env.EnvironToEnvSet(environ)
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	var o envOverrides
	if err := env.Unmarshal(es, &o); err != nil {
		return fmt.Errorf("failed to decode environment: %w", err)
	}

	if o.Port != "" {
		p, err := strconv.Atoi(o.Port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", o.Port, err)
		}
		c.Server.Port = p
	}
	if o.BindAddress != "" {
		c.Server.BindAddress = o.BindAddress
	}
	if o.UploadDir != "" {
		c.Storage.UploadsDirectory = o.UploadDir
	}
	if o.MaxUploadSize != "" {
		c.Storage.MaxUploadSize = o.MaxUploadSize
	}
	if o.LogLevel != "" {
		c.Advanced.LogLevel = o.LogLevel
	}
	return nil
}

// LoadDotEnv reads KEY=VALUE pairs from a .env file. A missing file yields nil.
func LoadDotEnv(fsys afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}

	environ := make([]string, 0, len(vars))
	for k, v := range vars {
		environ = append(environ, k+"="+v)
	}
	return environ, nil
}

// Validate reports the first setting that cannot be used.
func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	maxUpload, err := c.MaxUploadBytes()
	if err != nil {
		return err
	}
	body, err := c.BodyLimitBytes()
	if err != nil {
		return err
	}
	if body < maxUpload {
		return fmt.Errorf("body limit %s is smaller than max upload size %s",
			c.Server.BodyLimit, c.Storage.MaxUploadSize)
	}
	if _, err := log.ParseLevel(c.Advanced.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Advanced.LogLevel)
	}
	return nil
}

// MaxUploadBytes parses Storage.MaxUploadSize ("10MiB", "5MB", "1048576").
func (c *AppConfig) MaxUploadBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.Storage.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max upload size %q: %w", c.Storage.MaxUploadSize, err)
	}
	if n == 0 || n > 1<<40 {
		return 0, fmt.Errorf("max upload size %q out of range", c.Storage.MaxUploadSize)
	}
	return int64(n), nil
}

// BodyLimitBytes parses Server.BodyLimit.
func (c *AppConfig) BodyLimitBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.Server.BodyLimit)
	if err != nil {
		return 0, fmt.Errorf("invalid body limit %q: %w", c.Server.BodyLimit, err)
	}
	return int64(n), nil
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Storage.UploadsDirectory != "" && !filepath.IsAbs(c.Storage.UploadsDirectory) {
		c.Storage.UploadsDirectory = filepath.Join(configDir, c.Storage.UploadsDirectory)
	}
}

// GetUploadDir returns the uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}
