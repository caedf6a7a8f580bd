package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	configFileMode  = 0o600
	configDirMode   = 0o700
	tempFilePattern = ".config-*.toml.tmp"
)

var ErrConfigExists = errors.New("config file already exists")

// fileSchema is the on-disk layout; durations are written as strings so the
// file stays readable and viper decodes them back.
type fileSchema struct {
	API      apiSchema      `toml:"api"`
	Network  networkSchema  `toml:"network"`
	Time     timeSchema     `toml:"time"`
	Display  displaySchema  `toml:"display"`
	Schedule scheduleSchema `toml:"schedule"`
	Cache    cacheSchema    `toml:"cache"`
	Secrets  secretsSchema  `toml:"secrets"`
	Log      logSchema      `toml:"log"`
}

type apiSchema struct {
	URL     string `toml:"url"`
	Token    string `toml:"token"`
	TokenRef string `toml:"token_ref"`
	Timeout  string `toml:"timeout"`
	Mock     bool   `toml:"mock"`
}

type networkSchema struct {
	ProbeAddress string `toml:"probe_address"`
	JoinAttempts int    `toml:"join_attempts"`
	JoinInterval string `toml:"join_interval"`
	DialTimeout  string `toml:"dial_timeout"`
}

type timeSchema struct {
	OffsetSeconds int64    `toml:"offset_seconds"`
	NTPServers    []string `toml:"ntp_servers"`
	SyncAttempts  int      `toml:"sync_attempts"`
	SyncInterval  string   `toml:"sync_interval"`
	QueryTimeout  string   `toml:"query_timeout"`
}

type displaySchema struct {
	Rotation    int    `toml:"rotation"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	PageHeight  int    `toml:"page_height"`
	PowerPin    int    `toml:"power_pin"`
	GPIORoot    string `toml:"gpio_root"`
	PowerSettle string `toml:"power_settle"`
	ErrorHold   string `toml:"error_hold"`
	Preview     bool   `toml:"preview"`
}

type scheduleSchema struct {
	UpdateIntervalMS int64  `toml:"update_interval_ms"`
	SleepMode        string `toml:"sleep_mode"`
	Settle           string `toml:"settle"`
}

type cacheSchema struct {
	Path string `toml:"path"`
}

type secretsSchema struct {
	Dir        string `toml:"dir"`
	PassPrefix string `toml:"pass_prefix"`
}

type logSchema struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

func toSchema(c Config) fileSchema {
	return fileSchema{
		API: apiSchema{
			URL:      c.API.URL,
			Token:    c.API.Token,
			TokenRef: c.API.TokenRef,
			Timeout:  c.API.Timeout.String(),
			Mock:     c.API.Mock,
		},
		Network: networkSchema{
			ProbeAddress: c.Network.ProbeAddress,
			JoinAttempts: c.Network.JoinAttempts,
			JoinInterval: c.Network.JoinInterval.String(),
			DialTimeout:  c.Network.DialTimeout.String(),
		},
		Time: timeSchema{
			OffsetSeconds: c.Time.OffsetSeconds,
			NTPServers:    c.Time.NTPServers,
			SyncAttempts:  c.Time.SyncAttempts,
			SyncInterval:  c.Time.SyncInterval.String(),
			QueryTimeout:  c.Time.QueryTimeout.String(),
		},
		Display: displaySchema{
			Rotation:    c.Display.Rotation,
			Width:       c.Display.Width,
			Height:      c.Display.Height,
			PageHeight:  c.Display.PageHeight,
			PowerPin:    c.Display.PowerPin,
			GPIORoot:    c.Display.GPIORoot,
			PowerSettle: c.Display.PowerSettle.String(),
			ErrorHold:   c.Display.ErrorHold.String(),
			Preview:     c.Display.Preview,
		},
		Schedule: scheduleSchema{
			UpdateIntervalMS: c.Schedule.UpdateIntervalMS,
			SleepMode:        c.Schedule.SleepMode,
			Settle:           c.Schedule.Settle.String(),
		},
		Cache: cacheSchema{Path: c.Cache.Path},
		Secrets: secretsSchema{
			Dir:        c.Secrets.Dir,
			PassPrefix: c.Secrets.PassPrefix,
		},
		Log: logSchema{
			Level:  c.Log.Level,
			Format: c.Log.Format,
			Output: c.Log.Output,
		},
	}
}

// WriteDefault writes Default() to path. An existing file is kept unless
// force is set.
func WriteDefault(path string, force bool) error {
	if path == "" {
		path = DefaultPath()
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config file: %w", err)
		}
	}

	return writeTOMLFile(path, toSchema(Default()))
}

func writeTOMLFile(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}

	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	cleanup = false

	return nil
}
