package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ConfigPathEnvVar = "CERT_MANAGER_CONFIG_PATH" // Environment variable for config path
	envPrefix        = "CERT_MANAGER"
)

// Config holds all configuration for the application
type Config struct {
	// Debug enables verbose logging and additional debug information
	Debug bool `mapstructure:"debug"`

	// Host application credentials
	App struct {
		URL      string `mapstructure:"url"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"app"`

	// Browser settings
	Browser struct {
		Headless     bool   `mapstructure:"headless"`
		WindowSize   string `mapstructure:"window_size"`
		ChromeBinary string `mapstructure:"chrome_binary"`
		BlockImages  bool   `mapstructure:"block_images"`
		// DebuggerURL attaches to an already running Chrome instead of launching one
		DebuggerURL string `mapstructure:"debugger_url"`
	} `mapstructure:"browser"`

	// CSS selectors of the host application's login form
	Auth struct {
		UsernameSelector string `mapstructure:"username_selector"`
		PasswordSelector string `mapstructure:"password_selector"`
		SubmitSelector   string `mapstructure:"submit_selector"`
	} `mapstructure:"auth"`

	Timeouts Timeouts `mapstructure:"timeouts"`

	Data struct {
		Dir  string `mapstructure:"dir"`
		File string `mapstructure:"file"`
	} `mapstructure:"data"`

	Logs struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"logs"`

	Screenshots struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"screenshots"`

	Report struct {
		Format string `mapstructure:"format"`
		File   string `mapstructure:"file"`
	} `mapstructure:"report"`

	// Status server exposing run progress; empty disables it
	Status struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"status"`
}

// Timeouts groups the element waits and settling pauses used while driving the UI
type Timeouts struct {
	Default        time.Duration `mapstructure:"default"`
	Long           time.Duration `mapstructure:"long"`
	Short          time.Duration `mapstructure:"short"`
	SearchSettle   time.Duration `mapstructure:"search_settle"`
	StepSettle     time.Duration `mapstructure:"step_settle"`
	UploadSettle   time.Duration `mapstructure:"upload_settle"`
	PasswordSettle time.Duration `mapstructure:"password_settle"`
}

// Load initializes and returns the configuration from all sources:
// 1. Command-line flags (highest priority, applied by the caller)
// 2. Environment variables (prefixed with CERT_MANAGER_), including a local .env file
// 3. Configuration file (lowest priority)
func Load(configPath string) (*Config, error) {
	// A missing .env is fine, real environment variables still apply
	_ = godotenv.Load()

	// Check for environment variable config path if not explicitly provided
	if configPath == "" {
		if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
			if _, err := os.Stat(envPath); os.IsNotExist(err) {
				return nil, fmt.Errorf("config file specified in %s not found: %s", ConfigPathEnvVar, envPath)
			}
			configPath = envPath
		}
	} else {
		// Verify explicitly provided config file exists
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
	}
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config.yml in the current directory
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		} else if configPath != "" {
			return nil, fmt.Errorf("specified config file not found: %s", configPath)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	// Keys without a default are still registered so AutomaticEnv can fill them on Unmarshal
	v.SetDefault("app.url", "")
	v.SetDefault("app.username", "")
	v.SetDefault("app.password", "")

	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.window_size", "1920,1080")
	v.SetDefault("browser.chrome_binary", "")
	v.SetDefault("browser.block_images", true)
	v.SetDefault("browser.debugger_url", "")

	v.SetDefault("auth.username_selector", "input[name=username], #username")
	v.SetDefault("auth.password_selector", "input[type=password]")
	v.SetDefault("auth.submit_selector", "button[type=submit]")

	v.SetDefault("timeouts.default", "10s")
	v.SetDefault("timeouts.long", "30s")
	v.SetDefault("timeouts.short", "5s")
	v.SetDefault("timeouts.search_settle", "1s")
	v.SetDefault("timeouts.step_settle", "500ms")
	v.SetDefault("timeouts.upload_settle", "1s")
	v.SetDefault("timeouts.password_settle", "1s")

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.file", "certificates.csv")
	v.SetDefault("logs.dir", "logs")
	v.SetDefault("screenshots.dir", "screenshots")

	v.SetDefault("report.format", "table")
	v.SetDefault("report.file", "")
	v.SetDefault("status.addr", "")
}

// Validate checks the settings the run command cannot work without
func (c *Config) Validate() error {
	var errs []error
	if c.App.URL == "" {
		errs = append(errs, errors.New("app.url is required"))
	}
	if c.App.Username == "" {
		errs = append(errs, errors.New("app.username is required"))
	}
	if c.App.Password == "" {
		errs = append(errs, errors.New("app.password is required"))
	}
	if _, _, err := c.WindowSize(); err != nil {
		errs = append(errs, err)
	}
	for name, d := range map[string]time.Duration{
		"timeouts.default": c.Timeouts.Default,
		"timeouts.long":    c.Timeouts.Long,
		"timeouts.short":   c.Timeouts.Short,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}
	return errors.Join(errs...)
}

// WindowSize parses browser.window_size ("width,height")
func (c *Config) WindowSize() (int, int, error) {
	w, h, ok := strings.Cut(c.Browser.WindowSize, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid browser.window_size %q: expected width,height", c.Browser.WindowSize)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid browser.window_size width %q", w)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid browser.window_size height %q", h)
	}
	return width, height, nil
}

// ManifestPath returns the CSV manifest location. An absolute data.file wins over data.dir.
func (c *Config) ManifestPath() string {
	if filepath.IsAbs(c.Data.File) || c.Data.Dir == "" {
		return c.Data.File
	}
	return filepath.Join(c.Data.Dir, c.Data.File)
}

// EnsureDirs creates the data, logs and screenshots directories
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Data.Dir, c.Logs.Dir, c.Screenshots.Dir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
