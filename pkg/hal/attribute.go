package hal

import (
	"fmt"
	"regexp"
	"strconv"
)

// SensorType is the hwmon sensor class of an attribute.
type SensorType uint8

const (
	SensorFan SensorType = iota
	SensorPWM
	SensorTemp
)

func (t SensorType) String() string {
	switch t {
	case SensorFan:
		return "fan"
	case SensorPWM:
		return "pwm"
	case SensorTemp:
		return "temp"
	default:
		return "unknown"
	}
}

// AttributeKind selects an attribute within a sensor type.
type AttributeKind uint8

const (
	AttrInput AttributeKind = iota
	AttrEnable
)

// Mode is the access mode an attribute is exposed with.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeRead
	ModeReadWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeReadWrite:
		return "rw"
	default:
		return "-"
	}
}

// Readable reports whether the mode allows reads.
func (m Mode) Readable() bool {
	return m != ModeNone
}

// Writable reports whether the mode allows writes.
func (m Mode) Writable() bool {
	return m == ModeReadWrite
}

// Attribute is one of the attributes exposed per fan channel: FanInput, PWMInput or PWMEnable.
type Attribute interface {
	// Channel returns the zero based channel index.
	Channel() int
	// Name returns the hwmon style attribute name, e.g. "pwm1_enable".
	Name() string
	attribute()
}

// FanInput is the tachometer derived speed of a channel in RPM. Read only.
type FanInput int

// PWMInput is the PWM duty cycle of a channel (0-255).
type PWMInput int

// PWMEnable is the enable bit of a channel.
type PWMEnable int

func (a FanInput) Channel() int  { return int(a) }
func (a PWMInput) Channel() int  { return int(a) }
func (a PWMEnable) Channel() int { return int(a) }

func (a FanInput) Name() string  { return fmt.Sprintf("fan%d_input", int(a)+1) }
func (a PWMInput) Name() string  { return fmt.Sprintf("pwm%d", int(a)+1) }
func (a PWMEnable) Name() string { return fmt.Sprintf("pwm%d_enable", int(a)+1) }

func (FanInput) attribute()  {}
func (PWMInput) attribute()  {}
func (PWMEnable) attribute() {}

// Lookup resolves a (sensor type, attribute kind, channel) triple into an Attribute.
func Lookup(t SensorType, kind AttributeKind, channel int) (Attribute, error) {
	switch {
	case t == SensorFan && kind == AttrInput:
		return FanInput(channel), nil
	case t == SensorPWM && kind == AttrInput:
		return PWMInput(channel), nil
	case t == SensorPWM && kind == AttrEnable:
		return PWMEnable(channel), nil
	default:
		return nil, fmt.Errorf("%w: %s attribute %d", ErrNotSupported, t, kind)
	}
}

var attributeNameRegex = regexp.MustCompile(`^(fan|pwm)([1-9][0-9]*)(_input|_enable)?$`)

// ParseAttribute parses a hwmon style attribute name ("fan1_input", "pwm2", "pwm2_enable").
func ParseAttribute(name string) (Attribute, error) {
	m := attributeNameRegex.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%w: attribute %q", ErrNotSupported, name)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %q", ErrNotSupported, name)
	}
	channel := n - 1

	switch m[1] + m[3] {
	case "fan_input":
		return FanInput(channel), nil
	case "pwm":
		return PWMInput(channel), nil
	case "pwm_enable":
		return PWMEnable(channel), nil
	default:
		return nil, fmt.Errorf("%w: attribute %q", ErrNotSupported, name)
	}
}
