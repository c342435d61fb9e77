package thermal

import (
	"github.com/stretchr/testify/mock"
)

// fails if the mocks do not implement their interfaces
var (
	_ Source    = &SourceMock{}
	_ Sink      = &SinkMock{}
	_ Heartbeat = &HeartbeatMock{}
)

// SourceMock implements a mock for the Source interface
type SourceMock struct {
	mock.Mock
	Name string
}

func (m *SourceMock) ReadTemperature() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *SourceMock) String() string {
	return m.Name
}

// SinkMock implements a mock for the Sink interface
type SinkMock struct {
	mock.Mock
	Name string
}

func (m *SinkMock) ReadPWM() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *SinkMock) WritePWM(pwm int) error {
	args := m.Called(pwm)
	return args.Error(0)
}

func (m *SinkMock) String() string {
	return m.Name
}

// HeartbeatMock implements a mock for the Heartbeat interface
type HeartbeatMock struct {
	mock.Mock
}

func (m *HeartbeatMock) Kick() error {
	args := m.Called()
	return args.Error(0)
}
