// Package config resolves classbook settings from defaults, an optional
// YAML file, an optional .env file and CLASSBOOK_* environment variables,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/classbook/internal/engine"
	"github.com/roach88/classbook/internal/record"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "CLASSBOOK"

// DefaultDotEnv is the .env file read when LoadOptions.DotEnv is empty.
const DefaultDotEnv = ".env"

// Config is the resolved configuration.
type Config struct {
	// DB is the SQLite file of the Local Store.
	DB string `mapstructure:"db" validate:"required"`

	// Endpoint overrides the stored endpoint URL when non-empty.
	Endpoint string `mapstructure:"endpoint"`

	Remote RemoteConfig   `mapstructure:"remote"`
	Batch  engine.Batches `mapstructure:"batch"`
	Serve  ServeConfig    `mapstructure:"serve"`
}

// RemoteConfig tunes the HTTP client.
type RemoteConfig struct {
	// Timeout bounds one remote call. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ServeConfig configures the development server.
type ServeConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// LoadOptions says where to look besides the environment.
type LoadOptions struct {
	// File is a YAML config file. Empty skips it; a missing file is an
	// error.
	File string

	// DotEnv is a .env file. Empty means DefaultDotEnv; a missing file is
	// skipped.
	DotEnv string
}

func setDefaults(v *viper.Viper) {
	d := engine.DefaultBatches()
	v.SetDefault("db", "classbook.db")
	v.SetDefault("endpoint", "")
	v.SetDefault("remote.timeout", time.Duration(0))
	v.SetDefault("batch.create.size", d.Create.Size)
	v.SetDefault("batch.create.delay", d.Create.Delay)
	v.SetDefault("batch.update.size", d.Update.Size)
	v.SetDefault("batch.update.delay", d.Update.Delay)
	v.SetDefault("batch.delete.size", d.Delete.Size)
	v.SetDefault("batch.delete.delay", d.Delete.Delay)
	v.SetDefault("serve.addr", ":8089")
}

// Load resolves the configuration. Variables from the .env file are
// exported into the process environment unless already set there.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
	}

	// load .env if it exists (ignore if it does not)
	dotEnv := opts.DotEnv
	if dotEnv == "" {
		dotEnv = DefaultDotEnv
	}
	if _, err := os.Stat(dotEnv); err == nil {
		if err := godotenv.Load(dotEnv); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", dotEnv, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: stat %s: %w", dotEnv, err)
	}

	// batch.create.size <- CLASSBOOK_BATCH_CREATE_SIZE
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := record.Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
