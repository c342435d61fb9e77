package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptime-industries/fanctrl-agent/api/fanctrlv1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type grpcClientContextKey int

const (
	defaultGrpcClientContextKey     grpcClientContextKey = 0
	defaultGrpcClientConnContextKey grpcClientContextKey = 1
)

var (
	grpcAddr string
	timeout  time.Duration
)

func init() {
	rootCmd.PersistentFlags().
		StringVar(&grpcAddr, "addr", "unix:///tmp/fanctrl-agent.sock", "address of the fanctrl-agent gRPC server")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "timeout for gRPC requests")
}

func clientIntoContext(ctx context.Context, client fanctrlv1.AttributeServiceClient) context.Context {
	return context.WithValue(ctx, defaultGrpcClientContextKey, client)
}

func clientFromContext(ctx context.Context) fanctrlv1.AttributeServiceClient {
	client, ok := ctx.Value(defaultGrpcClientContextKey).(fanctrlv1.AttributeServiceClient)
	if !ok {
		panic("grpc client not found in context")
	}
	return client
}

// clientConn owns the connection and the request context of a single invocation
type clientConn struct {
	conn      *grpc.ClientConn
	cancelCtx context.CancelFunc
	sigs      chan os.Signal
	once      sync.Once
}

func (c *clientConn) Close() error {
	var err error
	c.once.Do(func() {
		signal.Stop(c.sigs)
		c.cancelCtx()
		err = c.conn.Close()
	})
	return err
}

func connIntoContext(ctx context.Context, conn *clientConn) context.Context {
	return context.WithValue(ctx, defaultGrpcClientConnContextKey, conn)
}

// closeConnFromContext releases the connection set up by PersistentPreRunE, if any.
func closeConnFromContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	conn, ok := ctx.Value(defaultGrpcClientConnContextKey).(*clientConn)
	if !ok {
		return nil
	}
	return conn.Close()
}

var rootCmd = &cobra.Command{
	Use:          "fanctl",
	Short:        "fanctl reads and writes the fan controller attributes served by fanctrl-agent",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		origCtx := cmd.Context()

		ctx, cancelCtx := context.WithTimeout(origCtx, timeout)

		// setup signal handler channels
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			// Wait for context cancel or signal
			select {
			case <-ctx.Done():
			case <-sigs:
				// On signal, cancel context
				cancelCtx()
			}
		}()

		conn, err := grpc.DialContext(ctx, grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			signal.Stop(sigs)
			cancelCtx()
			return fmt.Errorf("failed to dial grpc server: %w", err)
		}
		client := fanctrlv1.NewAttributeServiceClient(conn)

		ctx = connIntoContext(ctx, &clientConn{conn: conn, cancelCtx: cancelCtx, sigs: sigs})
		cmd.SetContext(clientIntoContext(ctx, client))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return closeConnFromContext(cmd.Context())
	},
}

func main() {
	cmd, err := rootCmd.ExecuteC()
	// PersistentPostRunE is skipped when a command fails
	if cmd != nil {
		if closeErr := closeConnFromContext(cmd.Context()); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		log.Fatal(err)
	}
}
