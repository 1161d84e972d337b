package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/declarative-dom/ddom-sub003/internal/diag"
)

const (
	// JSONFileName is the canonical configuration file name.
	JSONFileName = "ddom.json"

	// YAMLFileName is the YAML alternative.
	YAMLFileName = "ddom.yaml"

	// DefaultDocument is the document loaded when the config names none.
	DefaultDocument = "ddom.hcl"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8090"

	// DefaultNamespace is the default metric name prefix.
	DefaultNamespace = "ddom"

	// DefaultHistorySize is the default per-session patch history depth.
	DefaultHistorySize = 256

	// DefaultMaxMessageSize is the default inbound message cap in bytes.
	DefaultMaxMessageSize = 1 << 20

	// DefaultS3Region is the region used when the s3 section gives none.
	DefaultS3Region = "us-east-1"
)

// Duration fields hold strings like "30s"; these are their defaults.
const (
	DefaultResumeWindow      = "5m"
	DefaultHeartbeatInterval = "30s"
	DefaultReadTimeout       = "60s"
	DefaultWriteTimeout      = "10s"
	DefaultShutdownTimeout   = "10s"
)

// FileNames lists the recognized config file names in lookup order.
var FileNames = []string{JSONFileName, YAMLFileName, "ddom.yml"}

// Config is the project configuration, stored as ddom.json or
// ddom.yaml at the project root. A document's own server block takes
// precedence over the Server section for the fields both carry.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Document is the path to the collection document, relative to the
	// config file unless absolute.
	Document string `json:"document,omitempty" yaml:"document,omitempty"`

	// Server contains the HTTP and WebSocket settings.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Session contains session resume settings.
	Session SessionConfig `json:"session,omitempty" yaml:"session,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Metrics contains metric settings.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// S3 configures the object store client for documents with s3
	// sources. Empty credentials mean unsigned requests.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP and WebSocket server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// HeartbeatInterval is how often the server pings each connection
	// (e.g. "30s").
	HeartbeatInterval string `json:"heartbeatInterval,omitempty" yaml:"heartbeatInterval,omitempty"`

	// ReadTimeout bounds each WebSocket read. It must exceed the
	// heartbeat interval.
	ReadTimeout string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`

	// MaxMessageSize caps inbound WebSocket messages in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty" yaml:"maxMessageSize,omitempty"`
}

// SessionConfig contains session resume settings.
type SessionConfig struct {
	// ResumeWindow is how long a disconnected session stays resumable
	// (e.g. "5m").
	ResumeWindow string `json:"resumeWindow,omitempty" yaml:"resumeWindow,omitempty"`

	// HistorySize is the per-session patch frame history depth used
	// for resumes.
	HistorySize int `json:"historySize,omitempty" yaml:"historySize,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format selects the handler: text, json, or auto. Auto picks text
	// on a terminal and json otherwise.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig contains metric settings.
type MetricsConfig struct {
	// Namespace prefixes the Prometheus metric names.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// S3Config contains object store client settings.
type S3Config struct {
	// Endpoint overrides the S3 endpoint, for MinIO and compatible
	// stores.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Region is the client region.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// AccessKey and SecretKey are static credentials. Leave both empty
	// for unsigned requests against public buckets.
	AccessKey string `json:"accessKey,omitempty" yaml:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`

	// PathStyle forces path-style addressing, which MinIO needs.
	PathStyle bool `json:"pathStyle,omitempty" yaml:"pathStyle,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Document: DefaultDocument,
		Server: ServerConfig{
			Addr:              DefaultAddr,
			HeartbeatInterval: DefaultHeartbeatInterval,
			ReadTimeout:       DefaultReadTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			ShutdownTimeout:   DefaultShutdownTimeout,
			MaxMessageSize:    DefaultMaxMessageSize,
		},
		Session: SessionConfig{
			ResumeWindow: DefaultResumeWindow,
			HistorySize:  DefaultHistorySize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		S3: S3Config{
			Region: DefaultS3Region,
		},
	}
}

// Load reads configuration from the specified directory. It tries
// ddom.json first, then the YAML names.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, diag.New("DDM022").
		WithDetail("No ddom.json or ddom.yaml found in " + dir).
		WithSuggestion("Run 'ddom init' to create a project")
}

// LoadFile reads configuration from the specified file path. The
// extension picks the encoding: .yaml and .yml decode as YAML,
// anything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, diag.New("DDM022").
				WithDetail("No config file at " + path).
				WithSuggestion("Run 'ddom init' to create a project")
		}
		return nil, diag.New("DDM020").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, diag.New("DDM021").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid " + encodingName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return diag.Newf(diag.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, encoded per
// the extension.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return diag.New("DDM021").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return diag.New("DDM020").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Document == "" {
		c.Document = DefaultDocument
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.HeartbeatInterval == "" {
		c.Server.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = DefaultMaxMessageSize
	}

	if c.Session.ResumeWindow == "" {
		c.Session.ResumeWindow = DefaultResumeWindow
	}
	if c.Session.HistorySize == 0 {
		c.Session.HistorySize = DefaultHistorySize
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "auto"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	if c.S3.Region == "" {
		c.S3.Region = DefaultS3Region
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value string
	}{
		{"server.heartbeatInterval", c.Server.HeartbeatInterval},
		{"server.readTimeout", c.Server.ReadTimeout},
		{"server.writeTimeout", c.Server.WriteTimeout},
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
		{"session.resumeWindow", c.Session.ResumeWindow},
	}
	for _, f := range durations {
		if f.value == "" {
			continue
		}
		if d, err := time.ParseDuration(f.value); err != nil || d <= 0 {
			return diag.New("DDM023").
				WithDetail(f.name + " must be a positive duration, got " + strconv.Quote(f.value))
		}
	}

	if c.ReadTimeout() <= c.HeartbeatInterval() {
		return diag.New("DDM023").
			WithDetail("server.readTimeout must exceed server.heartbeatInterval or idle connections get cut")
	}
	if c.Session.HistorySize < 0 {
		return diag.New("DDM023").
			WithDetail("session.historySize must not be negative")
	}
	if c.Server.MaxMessageSize < 0 {
		return diag.New("DDM023").
			WithDetail("server.maxMessageSize must not be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return diag.New("DDM023").
			WithDetail("log.level must be debug, info, warn, or error, got " + strconv.Quote(c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "text", "json":
	default:
		return diag.New("DDM023").
			WithDetail("log.format must be auto, text, or json, got " + strconv.Quote(c.Log.Format))
	}

	return nil
}

// DocumentPath returns the absolute path to the collection document.
func (c *Config) DocumentPath() string {
	path := c.Document
	if path == "" {
		path = DefaultDocument
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// ResumeWindow returns the parsed resume window.
func (c *Config) ResumeWindow() time.Duration {
	return duration(c.Session.ResumeWindow, DefaultResumeWindow)
}

// HeartbeatInterval returns the parsed heartbeat interval.
func (c *Config) HeartbeatInterval() time.Duration {
	return duration(c.Server.HeartbeatInterval, DefaultHeartbeatInterval)
}

// ReadTimeout returns the parsed read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return duration(c.Server.ReadTimeout, DefaultReadTimeout)
}

// WriteTimeout returns the parsed write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return duration(c.Server.WriteTimeout, DefaultWriteTimeout)
}

// ShutdownTimeout returns the parsed shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return duration(c.Server.ShutdownTimeout, DefaultShutdownTimeout)
}

// LogLevel maps Log.Level onto a slog level. Unknown values mean info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// duration parses s, falling back to the given default when s is empty
// or malformed. Validate reports the malformed case; the accessors
// keep the server runnable.
func duration(s, fallback string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// isYAML reports whether the path names a YAML file.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func encodingName(path string) string {
	if isYAML(path) {
		return "YAML"
	}
	return "JSON"
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if none
// is found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", diag.New("DDM022").
				WithDetail("No ddom.json or ddom.yaml found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'ddom init' to create a project")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory or the nearest parent holding a config file.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
