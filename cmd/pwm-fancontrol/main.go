package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/uptime-industries/fanctrl-agent/internal/supervisor"
	"github.com/uptime-industries/fanctrl-agent/internal/thermal"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"github.com/uptime-industries/fanctrl-agent/pkg/watchdog"
	"go.uber.org/zap"
)

var errMissingFiles = errors.New("PWM and temp filenames are mandatory")

type options struct {
	daemon       bool
	verbose      bool
	pidFile      string
	temperatures []string
	pwms         []string
	watchdog     string
	disarm       bool
	thermal      thermal.Config
}

func newRootCmd() *cobra.Command {
	opts := options{thermal: thermal.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "pwm-fancontrol [-d] [-v] [-i pidfile] -t temperature -p pwm",
		Short: "pwm-fancontrol drives PWM fans from the hottest of a set of temperature sensors",
		Example: "pwm-fancontrol -d -i /run/fancontrol.pid " +
			"-t /sys/class/thermal/thermal_zone0/temp -p /sys/class/hwmon/hwmon0/pwm1",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(opts.temperatures) == 0 || len(opts.pwms) == 0 {
				return errMissingFiles
			}
			cmd.SilenceUsage = true
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.daemon, "daemon", "d", false, "Daemon mode, detach from the terminal")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose, log every iteration")
	flags.StringVarP(&opts.pidFile, "pidfile", "i", "", "Write process ID into pidfile")
	flags.StringArrayVarP(&opts.temperatures, "temperature", "t", nil, "Temperature input file, may be given more than once")
	flags.StringArrayVarP(&opts.pwms, "pwm", "p", nil, "PWM output file, may be given more than once")
	flags.StringVar(&opts.watchdog, "watchdog", watchdog.DefaultPath, "Watchdog device fed every iteration, empty disables it")
	flags.BoolVar(&opts.disarm, "disarm-on-exit", true, "Disarm the watchdog when stopped by SIGINT or SIGTERM")
	flags.DurationVar(&opts.thermal.Interval, "interval", opts.thermal.Interval, "Time between two iterations")
	return cmd
}

func run(baseCtx context.Context, opts options) error {
	sources, err := thermal.OpenSources(opts.temperatures)
	if err != nil {
		return err
	}
	sinks, err := thermal.OpenSinks(opts.pwms, nil)
	if err != nil {
		return err
	}

	if opts.daemon {
		parent, err := supervisor.Daemonize()
		if err != nil {
			return err
		}
		if parent {
			return nil
		}
	}

	zapLogger, err := log.New("pwm-fancontrol", opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()
	_ = zap.ReplaceGlobals(zapLogger.With(zap.String("scope", "global")))
	ctx, cancelCtx := context.WithCancel(log.IntoContext(baseCtx, zapLogger))
	defer cancelCtx()

	if opts.pidFile != "" {
		pidFile, err := supervisor.CreatePIDFile(opts.pidFile)
		if err != nil {
			log.FromContext(ctx).Error("Failed to create pid file", zap.Error(err))
			return err
		}
		defer func() {
			if err := pidFile.Close(); err != nil {
				log.FromContext(ctx).Warn("Failed to remove pid file", zap.Error(err))
			}
		}()
	}

	wd, err := watchdog.Open(opts.watchdog)
	if err != nil {
		log.FromContext(ctx).Warn("Failed to open watchdog, continuing without", zap.Error(err))
		wd, _ = watchdog.Open("")
	}

	controller, err := thermal.New(opts.thermal, sources, sinks, thermal.WithHeartbeat(wd))
	if err != nil {
		_ = wd.Close()
		return err
	}

	// SIGHUP is ignored, SIGINT and SIGTERM stop the loop
	signal.Ignore(syscall.SIGHUP)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-ctx.Done():
		case sig := <-sigs:
			log.FromContext(ctx).Info("Signal received, stopping", zap.Stringer("signal", sig))
			cancelCtx()
		}
	}()

	err = controller.Run(ctx)
	if releaseErr := wd.Release(opts.disarm); releaseErr != nil {
		log.FromContext(ctx).Error("Failed to release watchdog", zap.Error(releaseErr), zap.Bool("disarm", opts.disarm))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.FromContext(ctx).Info("Exiting")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
