package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/tripdash/pkg/log"
)

const configFlagName = "config"

// addConfigFlag registers --config on fs and sets viper up to read the file,
// falling back to $HOME/.<name>/config.yaml, plus <NAME>_* environment variables.
func addConfigFlag(v *viper.Viper, name string, fs *pflag.FlagSet) *string {
	cfgFile := fs.StringP(configFlagName, "c", "", "Read configuration from the specified YAML file.")

	v.SetEnvPrefix(strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return cfgFile
}

// readConfig loads the config file. A missing default file is not an error.
func readConfig(v *viper.Viper, name, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+name))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}
	return nil
}

// watchConfig follows the config file and applies log level changes.
func watchConfig(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := v.GetString("log.level")
		log.Info("Configuration changed", "file", e.Name, "log.level", level)
		if level != "" {
			log.SetLevel(level)
		}
	})
	v.WatchConfig()
}
