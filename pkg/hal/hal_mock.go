package hal

import (
	"github.com/stretchr/testify/mock"
)

// fails if DeviceMock does not implement Device
var _ Device = &DeviceMock{}

// DeviceMock implements a mock for the Device interface
type DeviceMock struct {
	mock.Mock
}

func (m *DeviceMock) NrFans() int {
	args := m.Called()
	return args.Int(0)
}

func (m *DeviceMock) IsVisible(t SensorType, kind AttributeKind, channel int) Mode {
	args := m.Called(t, kind, channel)
	return args.Get(0).(Mode)
}

func (m *DeviceMock) Attributes() []Attribute {
	args := m.Called()
	return args.Get(0).([]Attribute)
}

func (m *DeviceMock) Read(attr Attribute) (int64, error) {
	args := m.Called(attr)
	return args.Get(0).(int64), args.Error(1)
}

func (m *DeviceMock) Write(attr Attribute, value int64) error {
	args := m.Called(attr, value)
	return args.Error(0)
}

func (m *DeviceMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
