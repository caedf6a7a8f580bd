package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/goalpanel/internal/logging"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = "goalpanel"
	envPrefix  = "GOALPANEL"

	SleepModeExec = "exec"
	SleepModeOnce = "once"

	minUpdateIntervalMS = 1000
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Network  NetworkConfig  `mapstructure:"network"`
	Time     TimeConfig     `mapstructure:"time"`
	Display  DisplayConfig  `mapstructure:"display"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
	Log      logging.Config `mapstructure:"log"`
}

type APIConfig struct {
	URL      string        `mapstructure:"url"`
	Token    string        `mapstructure:"token"`
	// TokenRef names a stored secret, such as "pass:goalpanel/api_token" or
	// "file:api_token". A literal Token wins over it.
	TokenRef string        `mapstructure:"token_ref"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Mock     bool          `mapstructure:"mock"`
}

type NetworkConfig struct {
	// ProbeAddress defaults to the host and port of the API URL.
	ProbeAddress string        `mapstructure:"probe_address"`
	JoinAttempts int           `mapstructure:"join_attempts"`
	JoinInterval time.Duration `mapstructure:"join_interval"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
}

type TimeConfig struct {
	OffsetSeconds int64         `mapstructure:"offset_seconds"`
	NTPServers    []string      `mapstructure:"ntp_servers"`
	SyncAttempts  int           `mapstructure:"sync_attempts"`
	SyncInterval  time.Duration `mapstructure:"sync_interval"`
	QueryTimeout  time.Duration `mapstructure:"query_timeout"`
}

type DisplayConfig struct {
	Rotation    int           `mapstructure:"rotation"`
	Width       int           `mapstructure:"width"`
	Height      int           `mapstructure:"height"`
	PageHeight  int           `mapstructure:"page_height"`
	PowerPin    int           `mapstructure:"power_pin"`
	GPIORoot    string        `mapstructure:"gpio_root"`
	PowerSettle time.Duration `mapstructure:"power_settle"`
	ErrorHold   time.Duration `mapstructure:"error_hold"`
	Preview     bool          `mapstructure:"preview"`
}

type ScheduleConfig struct {
	UpdateIntervalMS int64         `mapstructure:"update_interval_ms"`
	SleepMode        string        `mapstructure:"sleep_mode"`
	Settle           time.Duration `mapstructure:"settle"`
}

type CacheConfig struct {
	// Path of the retained region; empty keeps it in process memory.
	Path string `mapstructure:"path"`
}

type SecretsConfig struct {
	// Dir holds file backed secrets; empty means SecretsDir().
	Dir        string `mapstructure:"dir"`
	PassPrefix string `mapstructure:"pass_prefix"`
}

func Default() Config {
	return Config{
		API: APIConfig{Timeout: 10 * time.Second},
		Network: NetworkConfig{
			JoinAttempts: 40,
			JoinInterval: 500 * time.Millisecond,
			DialTimeout:  time.Second,
		},
		Time: TimeConfig{
			NTPServers:   []string{"pool.ntp.org", "time.nist.gov"},
			SyncAttempts: 10,
			SyncInterval: 500 * time.Millisecond,
			QueryTimeout: 2 * time.Second,
		},
		Display: DisplayConfig{
			Rotation:    1,
			Width:       240,
			Height:      416,
			PageHeight:  80,
			PowerPin:    8,
			GPIORoot:    "/sys/class/gpio",
			PowerSettle: 500 * time.Millisecond,
			ErrorHold:   3 * time.Second,
			Preview:     true,
		},
		Schedule: ScheduleConfig{
			UpdateIntervalMS: 3_600_000,
			SleepMode:        SleepModeExec,
			Settle:           100 * time.Millisecond,
		},
		Cache:   CacheConfig{Path: "/dev/shm/goalpanel/retained.bin"},
		Secrets: SecretsConfig{PassPrefix: "goalpanel"},
		Log:     logging.Config{Level: "info", Format: logging.FormatText, Output: "stderr"},
	}
}

// Load reads path, or config.toml from the standard directories when path is
// empty. A missing file in the standard directories is not an error.
func Load(path string) (Config, string, error) {
	return load(viper.New(), path, SearchPaths())
}

func SearchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, configDir))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", configDir))
	}
	return append(paths, filepath.Join("/etc", configDir))
}

// DefaultPath is where config init writes when no path is given.
func DefaultPath() string {
	return filepath.Join(SearchPaths()[0], configName+"."+configType)
}

// SecretsDir is the configured secrets directory, or "secrets" next to the
// default config file.
func (c Config) SecretsDir() string {
	if c.Secrets.Dir != "" {
		return c.Secrets.Dir
	}
	return filepath.Join(SearchPaths()[0], "secrets")
}

func load(v *viper.Viper, path string, searchPaths []string) (Config, string, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(configType)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		for _, dir := range searchPaths {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return Config{}, "", fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("decode config: %w", err)
	}

	return cfg, v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("api.url", d.API.URL)
	v.SetDefault("api.token", d.API.Token)
	v.SetDefault("api.token_ref", d.API.TokenRef)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.mock", d.API.Mock)

	v.SetDefault("network.probe_address", d.Network.ProbeAddress)
	v.SetDefault("network.join_attempts", d.Network.JoinAttempts)
	v.SetDefault("network.join_interval", d.Network.JoinInterval)
	v.SetDefault("network.dial_timeout", d.Network.DialTimeout)

	v.SetDefault("time.offset_seconds", d.Time.OffsetSeconds)
	v.SetDefault("time.ntp_servers", d.Time.NTPServers)
	v.SetDefault("time.sync_attempts", d.Time.SyncAttempts)
	v.SetDefault("time.sync_interval", d.Time.SyncInterval)
	v.SetDefault("time.query_timeout", d.Time.QueryTimeout)

	v.SetDefault("display.rotation", d.Display.Rotation)
	v.SetDefault("display.width", d.Display.Width)
	v.SetDefault("display.height", d.Display.Height)
	v.SetDefault("display.page_height", d.Display.PageHeight)
	v.SetDefault("display.power_pin", d.Display.PowerPin)
	v.SetDefault("display.gpio_root", d.Display.GPIORoot)
	v.SetDefault("display.power_settle", d.Display.PowerSettle)
	v.SetDefault("display.error_hold", d.Display.ErrorHold)
	v.SetDefault("display.preview", d.Display.Preview)

	v.SetDefault("schedule.update_interval_ms", d.Schedule.UpdateIntervalMS)
	v.SetDefault("schedule.sleep_mode", d.Schedule.SleepMode)
	v.SetDefault("schedule.settle", d.Schedule.Settle)

	v.SetDefault("cache.path", d.Cache.Path)

	v.SetDefault("secrets.dir", d.Secrets.Dir)
	v.SetDefault("secrets.pass_prefix", d.Secrets.PassPrefix)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
}

func (c Config) Validate() error {
	var problems []string

	if !c.API.Mock && strings.TrimSpace(c.API.URL) == "" {
		problems = append(problems, "api.url is required unless api.mock is set")
	}
	if c.Schedule.UpdateIntervalMS < minUpdateIntervalMS {
		problems = append(problems, fmt.Sprintf("schedule.update_interval_ms must be at least %d", minUpdateIntervalMS))
	}
	switch c.Schedule.SleepMode {
	case SleepModeExec, SleepModeOnce:
	default:
		problems = append(problems, fmt.Sprintf("schedule.sleep_mode %q must be exec or once", c.Schedule.SleepMode))
	}
	if c.Display.Rotation < 0 || c.Display.Rotation > 3 {
		problems = append(problems, "display.rotation must be between 0 and 3")
	}
	if c.Network.JoinAttempts <= 0 {
		problems = append(problems, "network.join_attempts must be positive")
	}
	if c.Time.SyncAttempts <= 0 {
		problems = append(problems, "time.sync_attempts must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// WakeInterval is the update interval truncated to whole seconds.
func (c Config) WakeInterval() time.Duration {
	return time.Duration(c.Schedule.UpdateIntervalMS/1000) * time.Second
}

func (c Config) TimezoneOffset() time.Duration {
	return time.Duration(c.Time.OffsetSeconds) * time.Second
}
