// Package conf loads the cocogo CLI settings.
//
// Settings come from, in increasing precedence: built-in defaults, the YAML
// file cocogo.yaml (searched in the working directory and
// $HOME/.config/cocogo), COCOGO_* environment variables and bound flags.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hupe1980/cocogo/resolver"
)

// Settings holds the CLI configuration.
type Settings struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`

	Database struct {
		Dialect string `mapstructure:"dialect" yaml:"dialect"` // sqlite or mysql
		DSN     string `mapstructure:"dsn" yaml:"dsn"`
		Table   string `mapstructure:"table" yaml:"table"`
	} `mapstructure:"database" yaml:"database"`

	Storage struct {
		Backend   string `mapstructure:"backend" yaml:"backend"` // s3 or minio
		Region    string `mapstructure:"region" yaml:"region"`
		Bucket    string `mapstructure:"bucket" yaml:"bucket"` // image bucket scanned by the resolver
		Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
		AccessKey string `mapstructure:"accesskey" yaml:"accesskey"`
		SecretKey string `mapstructure:"secretkey" yaml:"secretkey"`
		UseSSL    bool   `mapstructure:"usessl" yaml:"usessl"`
	} `mapstructure:"storage" yaml:"storage"`

	Resolver struct {
		Channels []resolver.Channel `mapstructure:"channels" yaml:"channels"`
		RPS      float64            `mapstructure:"rps" yaml:"rps"`
	} `mapstructure:"resolver" yaml:"resolver"`

	Download struct {
		Concurrency int     `mapstructure:"concurrency" yaml:"concurrency"`
		RPS         float64 `mapstructure:"rps" yaml:"rps"`
	} `mapstructure:"download" yaml:"download"`

	Metrics struct {
		Listen string `mapstructure:"listen" yaml:"listen"` // e.g. ":2112"; empty disables the endpoint
	} `mapstructure:"metrics" yaml:"metrics"`
}

// EnvPrefix prefixes environment variables, e.g. COCOGO_DATABASE_DSN.
const EnvPrefix = "COCOGO"

// New returns a viper instance with defaults, config search paths and
// environment bindings set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("cocogo")
	v.SetConfigType("yaml")

	for _, path := range defaultConfigPaths() {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaultConfig(v)
	return v
}

// Load reads the configuration into Settings. If file is set it is read
// instead of searching the default paths. A missing default config file is
// not an error.
func Load(v *viper.Viper, file string) (*Settings, error) {
	if file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}
	return settings, nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cocogo"))
	}
	return paths
}
