package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/fsroute/internal/errors"
	"github.com/vango-dev/fsroute/pkg/router"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "fsroute.json"

	// YAMLConfigFileName is the YAML alternative to ConfigFileName.
	YAMLConfigFileName = "fsroute.yaml"

	// EnvFileName is the dotenv file read next to the configuration.
	EnvFileName = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FSROUTE_"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultRoutesDir is the default routes directory.
	DefaultRoutesDir = "app/routes"

	// DefaultMode is the default rendering mode.
	DefaultMode = "ssr"

	// DefaultDebounce is the default watcher debounce window.
	DefaultDebounce = "100ms"

	// DefaultManifestOutput is the default manifest output path.
	DefaultManifestOutput = "dist/routes-manifest.json"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "fsroute"
)

// Config represents fsroute.json (or fsroute.yaml).
type Config struct {
	// RoutesDir is the path to the routes directory.
	RoutesDir string `json:"routesDir,omitempty" yaml:"routesDir,omitempty"`

	// Extensions are the recognised route file extensions.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// Ignore lists glob patterns skipped while scanning routes.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`

	// DefaultMode is the ambient rendering mode: ssr, ssg or spa.
	DefaultMode string `json:"defaultMode,omitempty" yaml:"defaultMode,omitempty"`

	// Platform selects platform-extension variants.
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`

	// MatchCacheSize bounds the per-tree match cache. Zero disables it.
	MatchCacheSize int `json:"matchCacheSize,omitempty" yaml:"matchCacheSize,omitempty"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev,omitempty" yaml:"dev,omitempty"`

	// Manifest contains routes manifest configuration.
	Manifest ManifestConfig `json:"manifest,omitempty" yaml:"manifest,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Debounce coalesces bursts of file events (e.g., "100ms").
	Debounce string `json:"debounce,omitempty" yaml:"debounce,omitempty"`

	// Watch lists extra paths to watch, such as loader data files.
	Watch []string `json:"watch,omitempty" yaml:"watch,omitempty"`

	// Ignore contains patterns to ignore during watch.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`

	// HotReload enables the reload websocket.
	HotReload *bool `json:"hotReload,omitempty" yaml:"hotReload,omitempty"`
}

// ManifestConfig contains manifest publishing settings. A non-empty Bucket
// publishes to S3 instead of Output.
type ManifestConfig struct {
	Output    string `json:"output,omitempty" yaml:"output,omitempty"`
	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty" yaml:"pathStyle,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory. It looks for
// fsroute.json, then fsroute.yaml, then applies FSROUTE_* overrides from
// the directory's .env file and the process environment.
func Load(dir string) (*Config, error) {
	path, ok := find(dir)
	if !ok {
		return nil, errors.New("F101").
			WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir).
			WithSuggestion("Create " + ConfigFileName + " at the project root")
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	env, err := Environ(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("F101").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " at the project root")
		}
		return nil, errors.New("F100").Wrap(err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("F100").
				WithLocation(path, yamlErrorLine(err), 0).
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid YAML")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			line, col := jsonErrorPosition(data, err)
			return nil, errors.New("F100").
				WithLocation(path, line, col).
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// jsonErrorPosition returns the 1-based line and column of a JSON decode
// error in data, or zeros when err carries no offset.
func jsonErrorPosition(data []byte, err error) (line, col int) {
	var (
		syntax *json.SyntaxError
		typ    *json.UnmarshalTypeError
		offset int64
	)
	switch {
	case stderrors.As(err, &syntax):
		offset = syntax.Offset
	case stderrors.As(err, &typ):
		offset = typ.Offset
	default:
		return 0, 0
	}
	read := data[:min(int(offset), len(data))]
	line = bytes.Count(read, []byte("\n")) + 1
	col = len(read) - bytes.LastIndexByte(read, '\n') - 1
	return line, col
}

var yamlLineRe = regexp.MustCompile(`line (\d+):`)

// yamlErrorLine returns the line yaml.v3 reports in err, or zero.
func yamlErrorLine(err error) int {
	m := yamlLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Environ returns the FSROUTE_* variables from dir/.env overlaid with the
// process environment. A missing .env file is not an error.
func Environ(dir string) (map[string]string, error) {
	env := make(map[string]string)
	path := filepath.Join(dir, EnvFileName)
	if _, err := os.Stat(path); err == nil {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, errors.New("F106").
				WithDetail("Failed to parse " + path + ": " + err.Error())
		}
		for k, v := range vars {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv applies FSROUTE_* overrides.
func (c *Config) ApplyEnv(env map[string]string) error {
	str := map[string]*string{
		"ROUTES_DIR":        &c.RoutesDir,
		"DEFAULT_MODE":      &c.DefaultMode,
		"PLATFORM":          &c.Platform,
		"HOST":              &c.Dev.Host,
		"DEBOUNCE":          &c.Dev.Debounce,
		"MANIFEST_OUTPUT":   &c.Manifest.Output,
		"MANIFEST_BUCKET":   &c.Manifest.Bucket,
		"MANIFEST_PREFIX":   &c.Manifest.Prefix,
		"MANIFEST_REGION":   &c.Manifest.Region,
		"MANIFEST_ENDPOINT": &c.Manifest.Endpoint,
		"METRICS_NAMESPACE": &c.Metrics.Namespace,
	}
	for name, dst := range str {
		if v, ok := env[EnvPrefix+name]; ok {
			*dst = v
		}
	}

	if v, ok := env[EnvPrefix+"PORT"]; ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return envError("PORT", v, err)
		}
		c.Dev.Port = port
	}
	if v, ok := env[EnvPrefix+"MATCH_CACHE_SIZE"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("MATCH_CACHE_SIZE", v, err)
		}
		c.MatchCacheSize = n
	}
	if v, ok := env[EnvPrefix+"HOT_RELOAD"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("HOT_RELOAD", v, err)
		}
		c.Dev.HotReload = &b
	}
	if v, ok := env[EnvPrefix+"MANIFEST_PATH_STYLE"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("MANIFEST_PATH_STYLE", v, err)
		}
		c.Manifest.PathStyle = b
	}
	return nil
}

func envError(name, value string, err error) error {
	return errors.New("F106").
		WithDetail(EnvPrefix + name + "=" + value + ": " + err.Error()).
		Wrap(err)
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML when the
// path ends in .yaml or .yml.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		// Add newline at end of file
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("F100").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("F100").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
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
	if c.RoutesDir == "" {
		c.RoutesDir = DefaultRoutesDir
	}
	if c.DefaultMode == "" {
		c.DefaultMode = DefaultMode
	}

	// Dev
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Debounce == "" {
		c.Dev.Debounce = DefaultDebounce
	}
	if c.Dev.HotReload == nil {
		on := true
		c.Dev.HotReload = &on
	}

	if c.Manifest.Output == "" {
		c.Manifest.Output = DefaultManifestOutput
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("F102").
			WithDetail("Port must be between 0 and 65535, got " + strconv.Itoa(c.Dev.Port))
	}
	if _, err := c.Mode(); err != nil {
		return errors.New("F103").
			WithDetail(`defaultMode is "` + c.DefaultMode + `"`).
			WithSuggestion(`Use "ssr", "ssg" or "spa"`).
			WithExample(`"defaultMode": "ssr"`)
	}
	if _, err := router.NewBuilder(router.Options{Platform: c.Platform}); err != nil {
		return errors.New("F104").
			WithDetail(`platform is "` + c.Platform + `"`).
			WithSuggestion(`Use "web", "server", "native", "ios" or "android"`)
	}
	if _, err := c.DebounceDuration(); err != nil {
		return errors.New("F100").
			WithDetail(`dev.debounce "` + c.Dev.Debounce + `" is not a duration`).
			WithExample(`"dev": { "debounce": "100ms" }`)
	}
	if c.MatchCacheSize < 0 {
		return errors.New("F100").
			WithDetail("matchCacheSize must not be negative")
	}
	return nil
}

// Mode returns the parsed default rendering mode.
func (c *Config) Mode() (router.Mode, error) {
	m, err := router.ParseMode(c.DefaultMode)
	if err != nil {
		return "", err
	}
	if !m.IsPage() {
		return "", errors.Newf(errors.CategoryConfig, "default mode %q is not a page mode", c.DefaultMode)
	}
	return m, nil
}

// DebounceDuration parses Dev.Debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	return time.ParseDuration(c.Dev.Debounce)
}

// HotReload reports whether the reload websocket is enabled.
func (c *Config) HotReload() bool {
	return c.Dev.HotReload == nil || *c.Dev.HotReload
}

// RouterOptions returns builder options for this configuration. Call
// Validate first; an invalid mode is passed through unchanged.
func (c *Config) RouterOptions() router.Options {
	return router.Options{
		DefaultMode:    router.Mode(c.DefaultMode),
		Platform:       c.Platform,
		Extensions:     c.Extensions,
		MatchCacheSize: c.MatchCacheSize,
	}
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// RoutesPath returns the absolute path to the routes directory.
func (c *Config) RoutesPath() string {
	return c.resolve(c.RoutesDir, DefaultRoutesDir)
}

// ManifestPath returns the absolute path of the manifest output file.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Manifest.Output, DefaultManifestOutput)
}

func (c *Config) resolve(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// find returns the configuration file in dir, JSON first.
func find(dir string) (string, bool) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName, "fsroute.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, ok := find(dir)
	return ok
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing fsroute.json, or an error if not found.
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
			return "", errors.New("F200").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Create " + ConfigFileName + " at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
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
