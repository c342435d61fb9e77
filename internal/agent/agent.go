package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/uptime-industries/fanctrl-agent/internal/thermal"
	"github.com/uptime-industries/fanctrl-agent/pkg/hal"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"github.com/uptime-industries/fanctrl-agent/pkg/watchdog"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// upMetric is set while the agent owns the device
	upMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fanctrl_agent",
		Name:      "up",
		Help:      "Fan controller agent owns an attached device",
	})
)

type WatchdogConfig struct {
	// Path of the watchdog device, empty disables it
	Path string `mapstructure:"path"`
	// DisarmOnExit writes the magic close character on shutdown
	DisarmOnExit bool `mapstructure:"disarm_on_exit"`
}

type ListenConfig struct {
	// Grpc is the address of the attribute service, unix:// or tcp host:port
	Grpc string `mapstructure:"grpc"`
	// Metrics is the address of the prometheus endpoint
	Metrics string `mapstructure:"metrics"`
}

type FanControlAgentConfig struct {
	// Device describes the register window of the fan controller
	Device hal.DeviceConfig `mapstructure:"device"`
	// Thermal configures the in-process control loop; it only runs when sources are configured
	Thermal thermal.Config `mapstructure:"thermal"`
	// Watchdog is fed by the thermal control loop
	Watchdog WatchdogConfig `mapstructure:"watchdog"`
	// Listen holds the server addresses
	Listen ListenConfig `mapstructure:"listen"`
}

// FanControlAgent owns an attached fan controller and optionally closes the thermal loop over it.
type FanControlAgent interface {
	// Run blocks until the context is canceled or the thermal loop fails, then releases the watchdog
	Run(ctx context.Context) error
	// Close releases the device; every later device access fails
	Close() error
	// Device returns the attached fan controller
	Device() hal.Device
	// Thermal returns the thermal controller, nil when disabled
	Thermal() *thermal.Controller
}

type fanControlAgentImpl struct {
	opts     FanControlAgentConfig
	device   hal.Device
	thermal  *thermal.Controller
	watchdog *watchdog.Watchdog
}

// NewFanControlAgent attaches the device and prepares the thermal loop. On failure everything
// acquired so far is released.
func NewFanControlAgent(ctx context.Context, opts FanControlAgentConfig) (FanControlAgent, error) {
	device, err := hal.Attach(ctx, opts.Device)
	if err != nil {
		return nil, err
	}

	agent, err := newFanControlAgent(ctx, opts, device)
	if err != nil {
		return nil, errors.Join(err, device.Close())
	}
	return agent, nil
}

func newFanControlAgent(ctx context.Context, opts FanControlAgentConfig, device hal.Device) (*fanControlAgentImpl, error) {
	a := &fanControlAgentImpl{
		opts:   opts,
		device: device,
	}

	if len(opts.Thermal.Sources) == 0 {
		log.FromContext(ctx).Info("No temperature sources configured, thermal control disabled")
		return a, nil
	}

	sources, err := thermal.OpenSources(opts.Thermal.Sources)
	if err != nil {
		return nil, err
	}
	sinks, err := thermal.OpenSinks(opts.Thermal.Sinks, device)
	if err != nil {
		return nil, err
	}

	wd, err := watchdog.Open(opts.Watchdog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open watchdog: %w", err)
	}
	if !wd.Enabled() {
		log.FromContext(ctx).Info("Watchdog not available", zap.String("path", opts.Watchdog.Path))
	}

	controller, err := thermal.New(opts.Thermal, sources, sinks, thermal.WithHeartbeat(wd))
	if err != nil {
		return nil, errors.Join(err, wd.Close())
	}

	a.thermal = controller
	a.watchdog = wd
	return a, nil
}

func (a *fanControlAgentImpl) Device() hal.Device {
	return a.device
}

func (a *fanControlAgentImpl) Thermal() *thermal.Controller {
	return a.thermal
}

func (a *fanControlAgentImpl) Run(ctx context.Context) error {
	defer a.cleanup(ctx)

	log.FromContext(ctx).Info("Starting fan control agent", zap.Int("nr_fans", a.device.NrFans()))
	upMetric.Set(1)

	group, ctx := errgroup.WithContext(ctx)

	if a.thermal != nil {
		group.Go(func() error {
			log.FromContext(ctx).Info("Starting thermal controller")
			err := a.thermal.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.FromContext(ctx).Error("Thermal controller failed", zap.Error(err))
			}
			return err
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		return ctx.Err()
	})

	return group.Wait()
}

// cleanup releases the watchdog. The device stays attached until Close.
func (a *fanControlAgentImpl) cleanup(ctx context.Context) {
	log.FromContext(ctx).Info("Thermal control stopped, releasing watchdog")

	if a.watchdog != nil {
		if err := a.watchdog.Release(a.opts.Watchdog.DisarmOnExit); err != nil {
			log.FromContext(ctx).Error("Failed to release watchdog", zap.Error(err))
		}
	}
}

// Close releases the device. The fans keep their last setting.
func (a *fanControlAgentImpl) Close() error {
	upMetric.Set(0)
	return a.device.Close()
}
