package hal

import (
	"fmt"
	"io"
	"sync"

	"github.com/uptime-industries/fanctrl-agent/pkg/hal/mmio"
)

const (
	// Register 0 holds the enable bitmap, bit i enables channel i.
	regEnable = 0
	// Registers 1..N hold the PWM duty cycle of each channel.
	regPwmBase = 1

	// MaxPWM is the largest duty cycle value.
	MaxPWM = 255
	// DefaultInitialPWM is applied to every channel at attach time unless configured otherwise.
	DefaultInitialPWM = 50
	// MaxFans is bounded by the width of the enable bitmap.
	MaxFans = 32

	// ReferenceClockHz is the clock the tachometer periods are counted in.
	ReferenceClockHz = 100_000_000
	// PulsesPerRevolution of the supported fans.
	PulsesPerRevolution = 2
	// PulsesPerMinute converts a tachometer period into RPM: 60 * 100MHz / 2.
	PulsesPerMinute = 60 * ReferenceClockHz / PulsesPerRevolution
)

// FanController drives a register block laid out as an enable bitmap followed by N PWM duty registers
// and N tachometer period registers.
type FanController struct {
	regs   mmio.Block
	nrFans int

	// enableMu serializes read-modify-write cycles of the shared enable register.
	enableMu sync.Mutex

	// mu pins the register window open for the duration of an access; Close takes it exclusively.
	mu     sync.RWMutex
	closed bool
	closer io.Closer
}

// fails if FanController does not implement Device
var _ Device = &FanController{}

// NewFanController takes ownership of regs and initialises all nrFans channels to initialPWM.
// Channels are enabled if and only if initialPWM is nonzero.
func NewFanController(regs mmio.Block, nrFans int, initialPWM uint8) (*FanController, error) {
	if nrFans < 1 || nrFans > MaxFans {
		return nil, fmt.Errorf("%w: nr_fans %d not in [1, %d]", ErrInvalidArgument, nrFans, MaxFans)
	}
	if need := 1 + 2*nrFans; regs.Len() < need {
		return nil, fmt.Errorf("%w: register window holds %d registers, %d fans need %d",
			ErrResourceUnavailable, regs.Len(), nrFans, need)
	}

	fc := &FanController{
		regs:   regs,
		nrFans: nrFans,
	}
	if c, ok := regs.(io.Closer); ok {
		fc.closer = c
	}
	fc.init(initialPWM)
	return fc, nil
}

func (fc *FanController) init(pwm uint8) {
	var enabled uint32
	if pwm != 0 {
		enabled = uint32(1)<<fc.nrFans - 1
	}
	fc.regs.Write(regEnable, enabled)
	for i := 0; i < fc.nrFans; i++ {
		fc.regs.Write(regPwmBase+uint32(i), uint32(pwm))

		channel := channelLabel(i)
		pwmDutyCycle.WithLabelValues(channel).Set(float64(pwm))
		pwmEnabled.WithLabelValues(channel).Set(float64(enabled >> i & 1))
	}
}

// NrFans returns the number of channels, fixed for the lifetime of the device.
func (fc *FanController) NrFans() int {
	return fc.nrFans
}

func (fc *FanController) tachBase() uint32 {
	return regPwmBase + uint32(fc.nrFans)
}

func (fc *FanController) checkChannel(channel int) error {
	if channel < 0 || channel >= fc.nrFans {
		return fmt.Errorf("%w: channel %d not in [0, %d)", ErrInvalidArgument, channel, fc.nrFans)
	}
	return nil
}

// ReadEnable returns the enable bit of a channel.
func (fc *FanController) ReadEnable(channel int) (bool, error) {
	if err := fc.checkChannel(channel); err != nil {
		return false, err
	}
	var reg uint32
	if err := fc.access(func() { reg = fc.regs.Read(regEnable) }); err != nil {
		return false, err
	}
	return reg>>channel&1 == 1, nil
}

// WriteEnable sets or clears the enable bit of a channel without touching the other channels.
func (fc *FanController) WriteEnable(channel int, enable bool) error {
	if err := fc.checkChannel(channel); err != nil {
		return err
	}

	err := fc.access(func() {
		fc.enableMu.Lock()
		defer fc.enableMu.Unlock()

		reg := fc.regs.Read(regEnable)
		if enable {
			reg |= 1 << channel
		} else {
			reg &^= 1 << channel
		}
		fc.regs.Write(regEnable, reg)
	})
	if err != nil {
		return err
	}

	if enable {
		pwmEnabled.WithLabelValues(channelLabel(channel)).Set(1)
	} else {
		pwmEnabled.WithLabelValues(channelLabel(channel)).Set(0)
	}
	return nil
}

// ReadPWM returns the duty cycle of a channel.
func (fc *FanController) ReadPWM(channel int) (uint8, error) {
	if err := fc.checkChannel(channel); err != nil {
		return 0, err
	}
	var reg uint32
	if err := fc.access(func() { reg = fc.regs.Read(regPwmBase + uint32(channel)) }); err != nil {
		return 0, err
	}
	return uint8(reg), nil
}

// WritePWM sets the duty cycle of a channel. value must be within [0, 255].
func (fc *FanController) WritePWM(channel int, value int64) error {
	if err := fc.checkChannel(channel); err != nil {
		return err
	}
	if value < 0 || value > MaxPWM {
		return fmt.Errorf("%w: pwm %d not in [0, %d]", ErrInvalidArgument, value, MaxPWM)
	}
	if err := fc.access(func() { fc.regs.Write(regPwmBase+uint32(channel), uint32(value)) }); err != nil {
		return err
	}
	pwmDutyCycle.WithLabelValues(channelLabel(channel)).Set(float64(value))
	return nil
}

// ReadTachPeriod returns the raw tachometer period of a channel in reference clock ticks.
func (fc *FanController) ReadTachPeriod(channel int) (uint32, error) {
	if err := fc.checkChannel(channel); err != nil {
		return 0, err
	}
	var period uint32
	if err := fc.access(func() { period = fc.regs.Read(fc.tachBase() + uint32(channel)) }); err != nil {
		return 0, err
	}
	return period, nil
}

// ReadRPM returns the speed of a channel. A zero period means no pulses were seen (stalled or absent
// fan) and reads as 0 RPM. The division truncates toward zero.
func (fc *FanController) ReadRPM(channel int) (uint32, error) {
	period, err := fc.ReadTachPeriod(channel)
	if err != nil {
		return 0, err
	}
	var rpm uint32
	if period != 0 {
		rpm = PulsesPerMinute / period
	}
	fanSpeed.WithLabelValues(channelLabel(channel)).Set(float64(rpm))
	return rpm, nil
}

// IsVisible answers whether an attribute is exposed and with which access mode.
func (fc *FanController) IsVisible(t SensorType, kind AttributeKind, channel int) Mode {
	attr, err := Lookup(t, kind, channel)
	if err != nil {
		return ModeNone
	}
	return fc.Visibility(attr)
}

// Visibility returns the access mode of attr on this device.
func (fc *FanController) Visibility(attr Attribute) Mode {
	if attr.Channel() < 0 || attr.Channel() >= fc.nrFans {
		return ModeNone
	}
	switch attr.(type) {
	case FanInput:
		return ModeRead
	case PWMInput, PWMEnable:
		return ModeReadWrite
	default:
		return ModeNone
	}
}

// Attributes lists every visible attribute, ordered by channel.
func (fc *FanController) Attributes() []Attribute {
	attrs := make([]Attribute, 0, 3*fc.nrFans)
	for i := 0; i < fc.nrFans; i++ {
		attrs = append(attrs, FanInput(i), PWMInput(i), PWMEnable(i))
	}
	return attrs
}

// Read reads a visible attribute.
func (fc *FanController) Read(attr Attribute) (int64, error) {
	if !fc.Visibility(attr).Readable() {
		return 0, fmt.Errorf("%w: %s", ErrNotSupported, attr.Name())
	}

	switch a := attr.(type) {
	case FanInput:
		rpm, err := fc.ReadRPM(a.Channel())
		return int64(rpm), err
	case PWMInput:
		pwm, err := fc.ReadPWM(a.Channel())
		return int64(pwm), err
	case PWMEnable:
		enabled, err := fc.ReadEnable(a.Channel())
		if enabled {
			return 1, err
		}
		return 0, err
	default:
		return 0, fmt.Errorf("%w: %s", ErrNotSupported, attr.Name())
	}
}

// Write writes a visible, writable attribute. Any nonzero value enables a channel.
func (fc *FanController) Write(attr Attribute, value int64) error {
	if !fc.Visibility(attr).Writable() {
		return fmt.Errorf("%w: %s is not writable", ErrNotSupported, attr.Name())
	}

	switch a := attr.(type) {
	case PWMInput:
		return fc.WritePWM(a.Channel(), value)
	case PWMEnable:
		return fc.WriteEnable(a.Channel(), value != 0)
	default:
		return fmt.Errorf("%w: %s is not writable", ErrNotSupported, attr.Name())
	}
}

// access runs fn while the register window is guaranteed to stay mapped. After Close every access
// fails with ErrNoSuchDevice.
func (fc *FanController) access(fn func()) error {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	if fc.closed {
		return fmt.Errorf("%w: fan controller closed", ErrNoSuchDevice)
	}
	fn()
	return nil
}

// Close waits for pending accesses and releases the register window. The fans keep running with the
// last written settings. Closing twice is a no-op.
func (fc *FanController) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.closed {
		return nil
	}
	fc.closed = true
	if fc.closer != nil {
		return fc.closer.Close()
	}
	return nil
}
