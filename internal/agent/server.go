package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/uptime-industries/fanctrl-agent/api/fanctrlv1"
	"github.com/uptime-industries/fanctrl-agent/pkg/hal"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const unixPrefix = "unix://"

// Listen opens a listener for addr. "unix:///path" listens on a unix socket, replacing a stale
// socket file; everything else is a tcp address.
func Listen(addr string) (net.Listener, error) {
	if path, ok := strings.CutPrefix(addr, unixPrefix); ok {
		if path == "" {
			return nil, fmt.Errorf("invalid listen address %q", addr)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
		return net.Listen("unix", path)
	}
	return net.Listen("tcp", addr)
}

// NewGrpcServer creates a gRPC server exposing the attribute service of device. Requests are
// logged with the logger carried by ctx.
func NewGrpcServer(ctx context.Context, device hal.Device) *grpc.Server {
	logger := log.FromContext(ctx).With(zap.String("scope", "grpc"))
	server := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger)))
	fanctrlv1.RegisterAttributeServiceServer(server, NewGrpcServiceFor(device))
	return server
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(log.IntoContext(ctx, logger), req)
		if err != nil {
			logger.Warn("Request failed", zap.String("method", info.FullMethod), zap.Error(err))
		} else {
			logger.Debug("Request handled", zap.String("method", info.FullMethod))
		}
		return resp, err
	}
}

// Serve runs agent and serves its attribute service on lis until ctx is canceled or a component
// fails. The device is released only after the gRPC server has drained all in-flight requests.
func Serve(ctx context.Context, agent FanControlAgent, lis net.Listener) error {
	ctx, cancelCtx := context.WithCancelCause(ctx)
	defer cancelCtx(context.Canceled)

	server := NewGrpcServer(ctx, agent.Device())
	group := errgroup.Group{}

	group.Go(func() error {
		err := agent.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.FromContext(ctx).Error("Failed to run agent", zap.Error(err))
			cancelCtx(err)
			return err
		}
		return nil
	})

	group.Go(func() error {
		log.FromContext(ctx).Info("Starting gRPC server", zap.Stringer("addr", lis.Addr()))
		if err := server.Serve(lis); err != nil {
			log.FromContext(ctx).Error("Failed to serve gRPC", zap.Error(err))
			cancelCtx(err)
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		server.GracefulStop()
		return nil
	})

	err := group.Wait()
	if closeErr := agent.Close(); closeErr != nil {
		log.FromContext(ctx).Error("Failed to close fan controller", zap.Error(closeErr))
		err = errors.Join(err, closeErr)
	}
	return err
}
