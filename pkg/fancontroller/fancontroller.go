package fancontroller

import (
	"fmt"
)

const (
	// DefaultOffset and DefaultSlope put PWM 25 at ~50°C and PWM 255 at ~80°C (millidegrees Celsius).
	DefaultOffset = 46850
	DefaultSlope  = 130
	DefaultMinPWM = 25
	DefaultMaxPWM = 255
)

type FanController interface {
	GetFanSpeed(temperature int) uint8
}

// FanControllerConfig configures a single linear segment mapping temperature to PWM:
// pwm = (temperature - Offset) / Slope, clamped to [MinPWM, MaxPWM].
type FanControllerConfig struct {
	// Offset is the temperature (millidegrees Celsius) at which the raw curve crosses PWM 0
	Offset int `mapstructure:"offset"`
	// Slope is the temperature increase (millidegrees Celsius) per PWM step
	Slope int `mapstructure:"slope"`
	// MinPWM is the lowest PWM value ever returned
	MinPWM int `mapstructure:"min_pwm"`
	// MaxPWM is the highest PWM value ever returned
	MaxPWM int `mapstructure:"max_pwm"`
}

// DefaultConfig returns the reference curve.
func DefaultConfig() FanControllerConfig {
	return FanControllerConfig{
		Offset: DefaultOffset,
		Slope:  DefaultSlope,
		MinPWM: DefaultMinPWM,
		MaxPWM: DefaultMaxPWM,
	}
}

// fanControllerLinear maps temperatures onto PWM values with integer arithmetic
type fanControllerLinear struct {
	config FanControllerConfig
}

// NewLinearFanController creates a new linear fan controller
func NewLinearFanController(config FanControllerConfig) (FanController, error) {
	if config.Slope <= 0 {
		return nil, fmt.Errorf("slope must be positive")
	}
	if config.MinPWM > config.MaxPWM {
		return nil, fmt.Errorf("min pwm must not exceed max pwm")
	}
	if config.MinPWM < 0 || config.MaxPWM > 255 {
		return nil, fmt.Errorf("pwm must be between 0 and 255")
	}

	return &fanControllerLinear{
		config: config,
	}, nil
}

// GetFanSpeed returns the PWM value for a temperature in millidegrees Celsius.
// Go's integer division truncates toward zero, which is the rounding policy of the curve.
func (f *fanControllerLinear) GetFanSpeed(temperature int) uint8 {
	pwm := (temperature - f.config.Offset) / f.config.Slope

	if pwm > f.config.MaxPWM {
		pwm = f.config.MaxPWM
	}
	if pwm < f.config.MinPWM {
		pwm = f.config.MinPWM
	}
	return uint8(pwm)
}
