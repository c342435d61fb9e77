// Package thermal closes the loop between temperature sources and PWM sinks.
package thermal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptime-industries/fanctrl-agent/pkg/fancontroller"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"github.com/uptime-industries/fanctrl-agent/pkg/util"
	"go.uber.org/zap"
)

const (
	// DefaultFailSafeTemperature replaces unreadable sources, it maps onto the maximum PWM.
	DefaultFailSafeTemperature = 100000
	// DefaultInterval between two iterations.
	DefaultInterval = time.Second
)

var (
	ErrNoSources = errors.New("at least one temperature source is required")
	ErrNoSinks   = errors.New("at least one pwm sink is required")
)

// Heartbeat is signalled once per iteration.
type Heartbeat interface {
	Kick() error
}

// Config configures the thermal control loop.
type Config struct {
	// Curve maps temperatures onto PWM values
	Curve fancontroller.FanControllerConfig `mapstructure:",squash"`
	// FailSafeTemperature is used for sources that cannot be read
	FailSafeTemperature int `mapstructure:"failsafe_temperature"`
	// Interval between two iterations
	Interval time.Duration `mapstructure:"interval"`
	// Sources are the temperature source handles
	Sources []string `mapstructure:"sources"`
	// Sinks are the PWM sink handles
	Sinks []string `mapstructure:"sinks"`
}

// DefaultConfig returns the reference configuration without sources and sinks.
func DefaultConfig() Config {
	return Config{
		Curve:               fancontroller.DefaultConfig(),
		FailSafeTemperature: DefaultFailSafeTemperature,
		Interval:            DefaultInterval,
	}
}

// Option customizes a Controller.
type Option func(*Controller)

// WithHeartbeat sets the liveness collaborator signalled every iteration.
func WithHeartbeat(h Heartbeat) Option {
	return func(c *Controller) {
		c.heartbeat = h
	}
}

// WithClock replaces the clock used to wait between iterations.
func WithClock(clock util.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// Controller polls all sources, derives a PWM value from the hottest one and writes it to all sinks
// whenever it changes. It owns its sources and sinks for its whole lifetime.
type Controller struct {
	sources []Source
	sinks   []Sink

	curve     fancontroller.FanController
	failSafe  int
	interval  time.Duration
	heartbeat Heartbeat
	clock     util.Clock

	state   *controllerState
	lastPWM int
}

// New creates a controller in the initializing state.
func New(cfg Config, sources []Source, sinks []Sink, opts ...Option) (*Controller, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if len(sinks) == 0 {
		return nil, ErrNoSinks
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	curve, err := fancontroller.NewLinearFanController(cfg.Curve)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		sources:  append([]Source(nil), sources...),
		sinks:    append([]Sink(nil), sinks...),
		curve:    curve,
		failSafe: cfg.FailSafeTemperature,
		interval: cfg.Interval,
		clock:    util.RealClock{},
		state:    newControllerState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state.State()
}

// WaitForRunning blocks until the controller has been initialized.
func (c *Controller) WaitForRunning(ctx context.Context) error {
	return c.state.WaitForRunning(ctx)
}

// LastPWM returns the value last written to the sinks (or seeded at initialization).
func (c *Controller) LastPWM() int {
	return c.lastPWM
}

// Initialize seeds the last written PWM value from the first sink; all fans are assumed to run at
// the same speed. An unreadable sink seeds 0, which forces a write in the first iteration.
func (c *Controller) Initialize(ctx context.Context) {
	pwm, err := c.sinks[0].ReadPWM()
	if err != nil {
		log.FromContext(ctx).Warn("Failed to read current pwm, assuming the worst",
			zap.Stringer("sink", c.sinks[0]), zap.Error(err))
		pwm = 0
	}
	c.lastPWM = pwm
	c.state.SetRunning()
}

// Step runs a single iteration and returns the computed PWM value and whether it was written.
func (c *Controller) Step(ctx context.Context) (int, bool) {
	logger := log.FromContext(ctx)

	temperature := 0
	for i, source := range c.sources {
		t, err := source.ReadTemperature()
		if err != nil {
			logger.Warn("Failed to read temperature, assuming the worst",
				zap.Stringer("source", source), zap.Int("failsafe", c.failSafe), zap.Error(err))
			sourceErrorsCounter.WithLabelValues(source.String()).Inc()
			t = c.failSafe
		}
		if i == 0 || t > temperature {
			temperature = t
		}
	}

	pwm := int(c.curve.GetFanSpeed(temperature))
	logger.Debug("Thermal iteration", zap.Int("temperature", temperature), zap.Int("pwm", pwm))
	temperatureMetric.Set(float64(temperature))
	targetPwmMetric.Set(float64(pwm))

	if pwm == c.lastPWM {
		return pwm, false
	}

	for _, sink := range c.sinks {
		if err := sink.WritePWM(pwm); err != nil {
			logger.Error("Failed to set pwm", zap.Stringer("sink", sink), zap.Int("pwm", pwm), zap.Error(err))
			sinkErrorsCounter.WithLabelValues(sink.String()).Inc()
		}
	}
	pwmWritesCounter.Inc()
	c.lastPWM = pwm
	return pwm, true
}

// Run initializes the controller and iterates until ctx is done. Cancellation is only observed
// while waiting between two iterations; the fans keep their last setting.
func (c *Controller) Run(ctx context.Context) error {
	logger := log.FromContext(ctx)

	c.Initialize(ctx)
	logger.Info("Starting thermal control loop",
		zap.Int("sources", len(c.sources)),
		zap.Int("sinks", len(c.sinks)),
		zap.Int("pwm", c.lastPWM),
		zap.Duration("interval", c.interval),
	)

	for {
		c.Step(ctx)

		if c.heartbeat != nil {
			if err := c.heartbeat.Kick(); err != nil {
				logger.Warn("Failed to signal watchdog", zap.Error(err))
			}
		}

		if err := util.Sleep(ctx, c.clock, c.interval); err != nil {
			return err
		}
	}
}
