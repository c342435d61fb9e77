package agent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/uptime-industries/fanctrl-agent/internal/thermal"
	"github.com/uptime-industries/fanctrl-agent/pkg/fancontroller"
	"github.com/uptime-industries/fanctrl-agent/pkg/watchdog"
)

const (
	configName = "fanctrl-agent"
	envPrefix  = "FANCTRL"
)

// keys without a default still have to be known to viper to be read from the environment
var optionalKeys = []string{
	"device.base_address",
	"device.nr_fans",
	"device.initial_pwm",
}

// InitConfig prepares v to read the config file and FANCTRL_ prefixed environment variables.
// Without cfgFile the file is searched in the working directory, the home directory and /etc/fanctrl/.
func InitConfig(v *viper.Viper, cfgFile string) error {
	v.SetConfigName(configName)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("couldn't detect home directory: %w", err)
		}
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath("/etc/fanctrl/")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range optionalKeys {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}

	setDefaultValues(v)
	return nil
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("device.path", "/dev/mem")
	v.SetDefault("device.size", 4096)
	v.SetDefault("device.simulated", false)

	v.SetDefault("thermal.sources", []string{})
	v.SetDefault("thermal.sinks", []string{})
	v.SetDefault("thermal.offset", fancontroller.DefaultOffset)
	v.SetDefault("thermal.slope", fancontroller.DefaultSlope)
	v.SetDefault("thermal.min_pwm", fancontroller.DefaultMinPWM)
	v.SetDefault("thermal.max_pwm", fancontroller.DefaultMaxPWM)
	v.SetDefault("thermal.failsafe_temperature", thermal.DefaultFailSafeTemperature)
	v.SetDefault("thermal.interval", time.Second)

	v.SetDefault("watchdog.path", watchdog.DefaultPath)
	v.SetDefault("watchdog.disarm_on_exit", true)

	v.SetDefault("listen.grpc", "unix:///tmp/fanctrl-agent.sock")
	v.SetDefault("listen.metrics", ":9666")
}

// LoadConfig reads the config file, if any, and decodes the configuration. A missing config file is
// not an error when the file was searched for.
func LoadConfig(v *viper.Viper) (FanControlAgentConfig, error) {
	var cfg FanControlAgentConfig
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode config: %w", err)
	}
	return cfg, nil
}
