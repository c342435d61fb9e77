package thermal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/fanctrl-agent/pkg/hal"
	"github.com/uptime-industries/fanctrl-agent/pkg/hal/mmio"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"github.com/uptime-industries/fanctrl-agent/pkg/util"
	"go.uber.org/zap/zaptest"
)

var errRead = errors.New("read failed")

func testContext(t *testing.T) context.Context {
	return log.IntoContext(context.Background(), zaptest.NewLogger(t))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Interval = time.Second
	return cfg
}

func newSource(name string, temperatures ...int) *SourceMock {
	s := &SourceMock{Name: name}
	for _, t := range temperatures {
		s.On("ReadTemperature").Return(t, nil).Once()
	}
	return s
}

func TestNew_Errors(t *testing.T) {
	source := &SourceMock{Name: "source"}
	sink := &SinkMock{Name: "sink"}

	_, err := New(testConfig(), nil, []Sink{sink})
	assert.ErrorIs(t, err, ErrNoSources)

	_, err = New(testConfig(), []Source{source}, nil)
	assert.ErrorIs(t, err, ErrNoSinks)

	cfg := testConfig()
	cfg.Interval = 0
	_, err = New(cfg, []Source{source}, []Sink{sink})
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Curve.Slope = 0
	_, err = New(cfg, []Source{source}, []Sink{sink})
	assert.Error(t, err)
}

func TestController_Initialize(t *testing.T) {
	ctx := testContext(t)

	t.Run("seeds from first sink", func(t *testing.T) {
		first := &SinkMock{Name: "first"}
		first.On("ReadPWM").Return(120, nil).Once()
		second := &SinkMock{Name: "second"}

		c, err := New(testConfig(), []Source{&SourceMock{Name: "source"}}, []Sink{first, second})
		require.NoError(t, err)
		assert.Equal(t, StateInitializing, c.State())

		c.Initialize(ctx)
		assert.Equal(t, 120, c.LastPWM())
		assert.Equal(t, StateRunning, c.State())
		assert.NoError(t, c.WaitForRunning(ctx))
		first.AssertExpectations(t)
		second.AssertNotCalled(t, "ReadPWM")
	})

	t.Run("unreadable sink seeds zero", func(t *testing.T) {
		sink := &SinkMock{Name: "sink"}
		sink.On("ReadPWM").Return(-1, errRead).Once()

		c, err := New(testConfig(), []Source{&SourceMock{Name: "source"}}, []Sink{sink})
		require.NoError(t, err)

		c.Initialize(ctx)
		assert.Equal(t, 0, c.LastPWM())
	})
}

func TestController_WaitForRunning_Cancelled(t *testing.T) {
	c, err := New(testConfig(), []Source{&SourceMock{Name: "source"}}, []Sink{&SinkMock{Name: "sink"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()
	assert.ErrorIs(t, c.WaitForRunning(ctx), context.Canceled)
}

func TestController_Step(t *testing.T) {
	ctx := testContext(t)

	source := newSource("source", 60000, 60000, 80000)
	sink := &SinkMock{Name: "sink"}
	sink.On("ReadPWM").Return(0, nil).Once()
	sink.On("WritePWM", 101).Return(nil).Once()
	sink.On("WritePWM", 255).Return(nil).Once()

	c, err := New(testConfig(), []Source{source}, []Sink{sink})
	require.NoError(t, err)
	c.Initialize(ctx)

	// (60000 - 46850) / 130 = 101
	pwm, changed := c.Step(ctx)
	assert.Equal(t, 101, pwm)
	assert.True(t, changed)

	// unchanged, no write
	pwm, changed = c.Step(ctx)
	assert.Equal(t, 101, pwm)
	assert.False(t, changed)

	pwm, changed = c.Step(ctx)
	assert.Equal(t, 255, pwm)
	assert.True(t, changed)
	assert.Equal(t, 255, c.LastPWM())

	source.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestController_Step_SeededValueIsNotRewritten(t *testing.T) {
	ctx := testContext(t)

	source := newSource("source", 20000)
	sink := &SinkMock{Name: "sink"}
	sink.On("ReadPWM").Return(25, nil).Once()

	c, err := New(testConfig(), []Source{source}, []Sink{sink})
	require.NoError(t, err)
	c.Initialize(ctx)

	pwm, changed := c.Step(ctx)
	assert.Equal(t, 25, pwm)
	assert.False(t, changed)
	sink.AssertNotCalled(t, "WritePWM", mock.Anything)
}

func TestController_Step_HottestSourceWins(t *testing.T) {
	ctx := testContext(t)

	sources := []Source{
		newSource("cpu", 50000),
		newSource("gpu", 72000),
		newSource("board", 30000),
	}
	sink := &SinkMock{Name: "sink"}
	sink.On("ReadPWM").Return(0, nil).Once()
	// (72000 - 46850) / 130 = 193
	sink.On("WritePWM", 193).Return(nil).Once()

	c, err := New(testConfig(), sources, []Sink{sink})
	require.NoError(t, err)
	c.Initialize(ctx)

	pwm, changed := c.Step(ctx)
	assert.Equal(t, 193, pwm)
	assert.True(t, changed)
	sink.AssertExpectations(t)
}

func TestController_Step_FailSafe(t *testing.T) {
	ctx := testContext(t)

	healthy := newSource("healthy", 40000)
	broken := &SourceMock{Name: "broken"}
	broken.On("ReadTemperature").Return(-1, errRead).Once()

	sink := &SinkMock{Name: "sink"}
	sink.On("ReadPWM").Return(25, nil).Once()
	sink.On("WritePWM", 255).Return(nil).Once()

	c, err := New(testConfig(), []Source{healthy, broken}, []Sink{sink})
	require.NoError(t, err)
	c.Initialize(ctx)

	pwm, changed := c.Step(ctx)
	assert.Equal(t, 255, pwm)
	assert.True(t, changed)
	sink.AssertExpectations(t)
}

func TestController_Step_SinkFailure(t *testing.T) {
	ctx := testContext(t)

	source := newSource("source", 60000, 60000)
	broken := &SinkMock{Name: "broken"}
	broken.On("ReadPWM").Return(0, nil).Once()
	broken.On("WritePWM", 101).Return(errRead).Once()
	healthy := &SinkMock{Name: "healthy"}
	healthy.On("WritePWM", 101).Return(nil).Once()

	c, err := New(testConfig(), []Source{source}, []Sink{broken, healthy})
	require.NoError(t, err)
	c.Initialize(ctx)

	// the remaining sinks are still written and the value counts as applied
	pwm, changed := c.Step(ctx)
	assert.Equal(t, 101, pwm)
	assert.True(t, changed)
	assert.Equal(t, 101, c.LastPWM())

	_, changed = c.Step(ctx)
	assert.False(t, changed)

	broken.AssertExpectations(t)
	healthy.AssertExpectations(t)
}

func TestController_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()

	source := newSource("source", 60000, 80000)
	sink := &SinkMock{Name: "sink"}
	sink.On("ReadPWM").Return(0, nil).Once()
	sink.On("WritePWM", 101).Return(nil).Once()
	sink.On("WritePWM", 255).Return(nil).Once()

	tick := make(chan time.Time, 1)
	tick <- time.Now()
	clock := &util.MockClock{}
	clock.On("After", time.Second).Return(tick).Once()
	clock.On("After", time.Second).Return(make(chan time.Time))

	heartbeat := &HeartbeatMock{}
	heartbeat.On("Kick").Return(errRead).Once()
	heartbeat.On("Kick").Return(nil).Run(func(mock.Arguments) { cancel() }).Once()

	c, err := New(testConfig(), []Source{source}, []Sink{sink}, WithClock(clock), WithHeartbeat(heartbeat))
	require.NoError(t, err)

	err = c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateRunning, c.State())
	assert.Equal(t, 255, c.LastPWM())

	source.AssertExpectations(t)
	sink.AssertExpectations(t)
	heartbeat.AssertExpectations(t)
}

func TestController_Files(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()

	temp := filepath.Join(dir, "temp1_input")
	pwm := filepath.Join(dir, "pwm1")
	require.NoError(t, os.WriteFile(temp, []byte("65000\n"), 0o644))
	require.NoError(t, os.WriteFile(pwm, []byte("0\n"), 0o644))

	sources, err := OpenSources([]string{temp})
	require.NoError(t, err)
	sinks, err := OpenSinks([]string{pwm}, nil)
	require.NoError(t, err)

	c, err := New(testConfig(), sources, sinks)
	require.NoError(t, err)
	c.Initialize(ctx)

	value, changed := c.Step(ctx)
	assert.True(t, changed)
	// (65000 - 46850) / 130 = 139
	assert.Equal(t, 139, value)

	data, err := os.ReadFile(pwm)
	require.NoError(t, err)
	assert.Equal(t, "139", strings.TrimSpace(string(data)))

	// a vanished source drives the fans to full speed
	require.NoError(t, os.Remove(temp))
	value, changed = c.Step(ctx)
	assert.True(t, changed)
	assert.Equal(t, 255, value)
}

func TestOpenSinks_Device(t *testing.T) {
	regs := mmio.NewMemory(1 + 2*2)
	dev, err := hal.NewFanController(regs, 2, 50)
	require.NoError(t, err)

	sinks, err := OpenSinks([]string{"pwm2"}, dev)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, "pwm2", sinks[0].String())

	value, err := sinks[0].ReadPWM()
	require.NoError(t, err)
	assert.Equal(t, 50, value)

	require.NoError(t, sinks[0].WritePWM(200))
	assert.Equal(t, uint32(200), regs.Read(2))
	assert.Equal(t, uint32(50), regs.Read(1))

	_, err = OpenSinks([]string{"pwm3"}, dev)
	assert.ErrorIs(t, err, hal.ErrNotSupported)

	_, err = OpenSinks([]string{"fan1_input"}, dev)
	assert.ErrorIs(t, err, hal.ErrNotSupported)

	// without a device every handle is a file
	sinks, err = OpenSinks([]string{"pwm1"}, nil)
	require.NoError(t, err)
	assert.IsType(t, FileSink{}, sinks[0])
}

func TestOpenSources_ExpandsHome(t *testing.T) {
	sources, err := OpenSources([]string{"/sys/class/thermal/thermal_zone0/temp", "~/temp"})
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "/sys/class/thermal/thermal_zone0/temp", sources[0].String())
	assert.False(t, strings.HasPrefix(sources[1].String(), "~"))
}
