package thermal

import (
	"fmt"

	"github.com/uptime-industries/fanctrl-agent/pkg/hal"
	"github.com/uptime-industries/fanctrl-agent/pkg/sysfs"
)

// Source yields temperatures in millidegrees Celsius.
type Source interface {
	ReadTemperature() (int, error)
	String() string
}

// Sink accepts PWM values (0-255).
type Sink interface {
	ReadPWM() (int, error)
	WritePWM(pwm int) error
	String() string
}

// FileSource reads a temperature from a sysfs file such as temp1_input or a thermal zone.
type FileSource struct {
	Path string
}

func (s FileSource) ReadTemperature() (int, error) {
	return sysfs.ReadInt(s.Path)
}

func (s FileSource) String() string {
	return s.Path
}

// FileSink drives a PWM through a sysfs file such as pwm1.
type FileSink struct {
	Path string
}

func (s FileSink) ReadPWM() (int, error) {
	return sysfs.ReadInt(s.Path)
}

func (s FileSink) WritePWM(pwm int) error {
	return sysfs.WriteInt(s.Path, pwm)
}

func (s FileSink) String() string {
	return s.Path
}

// DeviceSink drives a PWM channel of an attached fan controller.
type DeviceSink struct {
	Device hal.Device
	Attr   hal.PWMInput
}

func (s DeviceSink) ReadPWM() (int, error) {
	v, err := s.Device.Read(s.Attr)
	return int(v), err
}

func (s DeviceSink) WritePWM(pwm int) error {
	return s.Device.Write(s.Attr, int64(pwm))
}

func (s DeviceSink) String() string {
	return s.Attr.Name()
}

// OpenSources resolves temperature source handles, in order.
func OpenSources(handles []string) ([]Source, error) {
	sources := make([]Source, 0, len(handles))
	for _, handle := range handles {
		path, err := sysfs.ExpandPath(handle)
		if err != nil {
			return nil, fmt.Errorf("temperature source %q: %w", handle, err)
		}
		sources = append(sources, FileSource{Path: path})
	}
	return sources, nil
}

// OpenSinks resolves PWM sink handles, in order. When dev is set, hwmon style names such as "pwm1"
// address its channels; every other handle is a file.
func OpenSinks(handles []string, dev hal.Device) ([]Sink, error) {
	sinks := make([]Sink, 0, len(handles))
	for _, handle := range handles {
		if dev != nil {
			if attr, err := hal.ParseAttribute(handle); err == nil {
				pwm, ok := attr.(hal.PWMInput)
				if !ok || dev.IsVisible(hal.SensorPWM, hal.AttrInput, pwm.Channel()) != hal.ModeReadWrite {
					return nil, fmt.Errorf("pwm sink %q: %w", handle, hal.ErrNotSupported)
				}
				sinks = append(sinks, DeviceSink{Device: dev, Attr: pwm})
				continue
			}
		}

		path, err := sysfs.ExpandPath(handle)
		if err != nil {
			return nil, fmt.Errorf("pwm sink %q: %w", handle, err)
		}
		sinks = append(sinks, FileSink{Path: path})
	}
	return sinks, nil
}
