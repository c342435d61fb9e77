package util

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockClock implements the Clock interface using the testify mock package.
type MockClock struct {
	mock.Mock
}

func (mc *MockClock) Now() time.Time {
	args := mc.Called()
	return args.Get(0).(time.Time)
}

// After returns the channel configured for d, either bidirectional or receive-only.
func (mc *MockClock) After(d time.Duration) <-chan time.Time {
	args := mc.Called(d)
	if ch, ok := args.Get(0).(chan time.Time); ok {
		return ch
	}
	return args.Get(0).(<-chan time.Time)
}
