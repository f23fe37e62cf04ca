// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"strings"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/kmodinfo/internal/sysfs"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/joomcode/errorx"
	"github.com/spf13/viper"
)

const EnvPrefix = "KMODINFO"

// Config holds the global configuration for the application.
type Config struct {
	Log        logx.LoggingConfig `yaml:"log" json:"log"`
	Paths      PathsConfig        `yaml:"paths" json:"paths"`
	Decompress DecompressConfig   `yaml:"decompress" json:"decompress"`
}

// PathsConfig represents the `paths` section. Overriding the roots allows inspecting a mounted
// image or a chroot instead of the running system.
type PathsConfig struct {
	ModuleRoot string `yaml:"moduleRoot" json:"moduleRoot"`
	SysfsRoot  string `yaml:"sysfsRoot" json:"sysfsRoot"`
	ProcRoot   string `yaml:"procRoot" json:"procRoot"`
}

// DecompressConfig represents the `decompress` section.
type DecompressConfig struct {
	// MaxSize caps the decompressed size of a module in bytes.
	MaxSize int64 `yaml:"maxSize" json:"maxSize"`
}

// Validate checks that every configured root is an absolute path.
func (p PathsConfig) Validate() error {
	for name, path := range map[string]string{
		"moduleRoot": p.ModuleRoot,
		"sysfsRoot":  p.SysfsRoot,
		"procRoot":   p.ProcRoot,
	} {
		if path != "" && !filepath.IsAbs(path) {
			return NewInvalidValueError("paths."+name, "paths.%s must be an absolute path: %s", name, path)
		}
	}
	return nil
}

func (d DecompressConfig) Validate() error {
	if d.MaxSize < 0 {
		return NewInvalidValueError("decompress.maxSize", "decompress.maxSize must not be negative: %d", d.MaxSize)
	}
	return nil
}

// Validate validates all configuration fields.
func (c Config) Validate() error {
	if err := c.Paths.Validate(); err != nil {
		return err
	}
	if err := c.Decompress.Validate(); err != nil {
		return err
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Log: logx.LoggingConfig{
			Level:          "Info",
			ConsoleLogging: true,
			FileLogging:    false,
		},
		Paths: PathsConfig{
			ModuleRoot: kernel.DefaultModuleRoot,
			SysfsRoot:  sysfs.DefaultSysRoot,
			ProcRoot:   sysfs.DefaultProcRoot,
		},
		Decompress: DecompressConfig{
			MaxSize: codec.DefaultMaxDecompressedSize,
		},
	}
}

var globalConfig = defaultConfig()

func init() {
	// console logging at the default level until Initialize loads the configured one
	_ = logx.Initialize(globalConfig.Log)
}

// Initialize loads the configuration from the specified file. Values missing from the file keep
// their defaults, and every key present in the file can be overridden by a KMODINFO_ prefixed
// environment variable, e.g. KMODINFO_PATHS_MODULEROOT.
//
// Parameters:
//   - path: The path to the configuration file.
//
// Returns:
//   - An error if the configuration cannot be loaded.
func Initialize(path string) error {
	if path != "" {
		cfg := defaultConfig()
		viper.Reset()
		viper.SetConfigFile(path)
		viper.SetEnvPrefix(EnvPrefix)
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err := viper.ReadInConfig()
		if err != nil {
			return NotFoundError.Wrap(err, "failed to read config file: %s", path).
				WithProperty(errorx.PropertyPayload(), path)
		}

		if err := viper.Unmarshal(&cfg); err != nil {
			return errorx.IllegalFormat.Wrap(err, "failed to parse configuration").
				WithProperty(errorx.PropertyPayload(), path)
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		globalConfig = cfg
	}

	return nil
}

// Get returns the loaded configuration.
//
// Returns:
//   - The global configuration.
func Get() Config {
	return globalConfig
}

func Set(c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	globalConfig = *c
	return nil
}

// Reset restores the built-in defaults.
func Reset() {
	globalConfig = defaultConfig()
}
