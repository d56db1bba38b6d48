package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mckt-minecraft/worldtools/world"
	"github.com/mckt-minecraft/worldtools/world/region"
	"github.com/pelletier/go-toml"
)

// Config contains options for converting region files.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger
	// Air is the block state that empty blocks hold. Blocks with the
	// identifier of Air are not counted as blocks. If left as the zero value,
	// world.Air is used.
	Air world.BlockState
	// Workers is the number of files ConvertBatch converts at the same time.
	// If 0 or lower, files are converted one after another.
	Workers int
	// ProgressInterval is the minimum time between two progress lines while
	// loading or saving a region. If 0, one second is used.
	ProgressInterval time.Duration
}

// New creates a Converter using the fields of conf.
func (conf Config) New() *Converter {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Air.ID() == (world.Identifier{}) {
		conf.Air = world.Air
	}
	if conf.Workers <= 0 {
		conf.Workers = 1
	}
	if conf.ProgressInterval <= 0 {
		conf.ProgressInterval = time.Second
	}
	return &Converter{conf: conf, stats: &Stats{}}
}

func (conf Config) regionConfig() region.Config {
	return region.Config{Log: conf.Log, Air: conf.Air, ProgressInterval: conf.ProgressInterval}
}

// UserConfig is the user configuration of the conversion tool. It may be
// serialised to TOML and converted to a Config by calling UserConfig.Config().
type UserConfig struct {
	Log struct {
		// Level is the minimum level of log messages shown. One of "debug",
		// "info", "warn" and "error".
		Level string
		// ProgressInterval is the minimum time between two progress lines,
		// such as "1s" or "500ms".
		ProgressInterval string
	}
	Convert struct {
		// Workers is the number of region files converted at the same time
		// when converting a directory.
		Workers int
		// Air is the block state that empty blocks hold.
		Air string
	}
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Log.Level = "info"
	c.Log.ProgressInterval = "1s"
	c.Convert.Workers = 1
	c.Convert.Air = world.Air.String()
	return c
}

// LoadUserConfig reads the TOML configuration file at path. Fields missing
// from the file keep their default value. If the file does not exist yet, it
// is created holding DefaultConfig.
func LoadUserConfig(path string) (UserConfig, error) {
	c := DefaultConfig()
	contents, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return c, fmt.Errorf("read config: %w", err)
		}
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0777); err != nil {
				return c, fmt.Errorf("create config directory: %w", err)
			}
		}
		encoded, err := toml.Marshal(c)
		if err != nil {
			return c, fmt.Errorf("encode config: %w", err)
		}
		if err := os.WriteFile(path, encoded, 0644); err != nil {
			return c, fmt.Errorf("write config: %w", err)
		}
		return c, nil
	}
	if err := toml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// LogLevel parses the configured log level.
func (uc UserConfig) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(uc.Log.Level))); err != nil {
		return level, fmt.Errorf("parse log level: %w", err)
	}
	return level, nil
}

// Config converts a UserConfig to a Config, so that it may be used for
// creating a Converter. An error is returned if a field holds a malformed
// value.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	conf := Config{Log: log, Workers: uc.Convert.Workers}
	if s := strings.TrimSpace(uc.Convert.Air); s != "" {
		air, err := world.ParseBlockState(s)
		if err != nil {
			return conf, fmt.Errorf("parse air block state: %w", err)
		}
		conf.Air = air
	}
	if s := strings.TrimSpace(uc.Log.ProgressInterval); s != "" {
		interval, err := time.ParseDuration(s)
		if err != nil {
			return conf, fmt.Errorf("parse progress interval: %w", err)
		}
		conf.ProgressInterval = interval
	}
	return conf, nil
}
