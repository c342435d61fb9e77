package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptime-industries/fanctrl-agent/internal/agent"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	cfgFile string
	verbose bool
)

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is fanctrl-agent.yaml in ., $HOME or /etc/fanctrl/)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:          "fanctrl-agent",
	Short:        "fanctrl-agent attaches a memory mapped fan controller and serves its attributes over gRPC",
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func run(baseCtx context.Context) error {
	// setup logger
	zapLogger, err := log.New("fanctrl-agent", verbose)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()
	_ = zap.ReplaceGlobals(zapLogger.With(zap.String("scope", "global")))
	baseCtx = log.IntoContext(baseCtx, zapLogger)

	v := viper.New()
	if err := agent.InitConfig(v, cfgFile); err != nil {
		return err
	}
	cfg, err := agent.LoadConfig(v)
	if err != nil {
		return err
	}
	log.FromContext(baseCtx).Debug("Configuration loaded", zap.String("file", v.ConfigFileUsed()))

	ctx, cancelCtx := context.WithCancelCause(baseCtx)
	defer cancelCtx(context.Canceled)

	fanAgent, err := agent.NewFanControlAgent(ctx, cfg)
	if err != nil {
		log.FromContext(ctx).Error("Failed to create agent", zap.Error(err))
		return err
	}

	// setup stop signal handlers
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		// Wait for context cancel or signal
		select {
		case <-ctx.Done():
		case sig := <-sigs:
			// On signal, cancel context
			log.FromContext(ctx).Info("Signal received, shutting down", zap.Stringer("signal", sig))
			cancelCtx(context.Canceled)
		}
	}()

	// setup gRPC endpoint
	grpcListener, err := agent.Listen(cfg.Listen.Grpc)
	if err != nil {
		return errors.Join(fmt.Errorf("failed to listen on %s: %w", cfg.Listen.Grpc, err), fanAgent.Close())
	}

	group := errgroup.Group{}

	// Run agent and gRPC server, the device is released once both have stopped
	group.Go(func() error {
		if err := agent.Serve(ctx, fanAgent, grpcListener); err != nil {
			cancelCtx(err)
			return err
		}
		cancelCtx(context.Canceled)
		return nil
	})

	// setup prometheus endpoint
	promHandler := http.NewServeMux()
	promHandler.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.Listen.Metrics, Handler: promHandler, ReadHeaderTimeout: 5 * time.Second}
	group.Go(func() error {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.FromContext(ctx).Error("Failed to start prometheus server", zap.Error(err))
			cancelCtx(err)
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.FromContext(ctx).Error("Failed to shutdown prometheus server", zap.Error(err))
		}
		return nil
	})

	// Wait for all components to stop
	_ = group.Wait()
	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.FromContext(ctx).Error("Exiting", zap.Error(err))
		return err
	}
	log.FromContext(ctx).Info("Exiting")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
