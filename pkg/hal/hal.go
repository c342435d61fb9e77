package hal

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptime-industries/fanctrl-agent/pkg/hal/mmio"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"go.uber.org/zap"
)

// Device abstracts a multi channel fan controller behind a capability queryable attribute surface.
type Device interface {
	// NrFans returns the number of fan channels
	NrFans() int
	// IsVisible reports whether (sensor type, attribute, channel) is exposed and with which mode
	IsVisible(t SensorType, kind AttributeKind, channel int) Mode
	// Attributes lists all visible attributes
	Attributes() []Attribute
	// Read reads an attribute; non visible attributes fail with ErrNotSupported
	Read(attr Attribute) (int64, error)
	// Write writes an attribute; non writable attributes fail with ErrNotSupported
	Write(attr Attribute, value int64) error
	// Close releases the device
	Close() error
}

// DeviceConfig describes the register window and the attach time properties of a fan controller.
type DeviceConfig struct {
	// Path is the memory device the registers are mapped from
	Path string `mapstructure:"path"`
	// BaseAddress is the physical address of register 0
	BaseAddress int64 `mapstructure:"base_address"`
	// Size of the register window in bytes
	Size int `mapstructure:"size"`
	// NrFans is the number of channels. Mandatory.
	NrFans *int `mapstructure:"nr_fans"`
	// InitialPWM is written to every channel at attach time, defaults to DefaultInitialPWM
	InitialPWM *int `mapstructure:"initial_pwm"`
	// Simulated replaces the register window with memory and simulated fans
	Simulated bool `mapstructure:"simulated"`
}

// Attach maps the register window described by cfg and initialises the fan controller.
// On failure every resource acquired so far is released.
func Attach(ctx context.Context, cfg DeviceConfig) (_ *FanController, err error) {
	logger := log.FromContext(ctx)

	if cfg.NrFans == nil {
		logger.Error("nr_fans missing in device configuration")
		return nil, fmt.Errorf("%w: nr_fans missing", ErrNoSuchDevice)
	}
	nrFans := *cfg.NrFans

	initialPWM := DefaultInitialPWM
	if cfg.InitialPWM == nil {
		logger.Warn("initial_pwm missing in device configuration, using default", zap.Int("initial_pwm", initialPWM))
	} else {
		initialPWM = *cfg.InitialPWM
	}
	if initialPWM < 0 || initialPWM > MaxPWM {
		return nil, fmt.Errorf("%w: initial_pwm %d not in [0, %d]", ErrInvalidArgument, initialPWM, MaxPWM)
	}

	var regs mmio.Block
	if cfg.Simulated {
		logger.Warn("Using simulated fan controller", zap.Int("nr_fans", nrFans))
		regs = newSimulatedBlock(nrFans)
	} else {
		var mapping *mmio.Mapping
		mapping, err = mmio.Map(cfg.Path, cfg.BaseAddress, cfg.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
		}
		defer func() {
			if err != nil {
				err = errors.Join(err, mapping.Close())
			}
		}()
		regs = mapping
	}

	fc, err := NewFanController(regs, nrFans, uint8(initialPWM))
	if err != nil {
		return nil, err
	}

	logger.Info("fan controller attached",
		zap.String("path", cfg.Path),
		zap.Int64("base_address", cfg.BaseAddress),
		zap.Int("nr_fans", nrFans),
		zap.Int("initial_pwm", initialPWM),
	)
	return fc, nil
}
