package agent

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/fanctrl-agent/api/fanctrlv1"
	"github.com/uptime-industries/fanctrl-agent/pkg/hal"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestListen_Unix(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "agent.sock")
	// stale socket files are replaced
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	listener, err := Listen("unix://" + path)
	require.NoError(t, err)
	defer listener.Close()

	assert.Equal(t, "unix", listener.Addr().Network())
	assert.Equal(t, path, listener.Addr().String())
}

func TestListen_TCP(t *testing.T) {
	t.Parallel()

	listener, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	assert.Equal(t, "tcp", listener.Addr().Network())
}

func TestListen_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Listen("unix://")
	assert.Error(t, err)
}

func TestServe_ReleasesDeviceAfterDrain(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(log.IntoContext(context.Background(), zaptest.NewLogger(t)))
	defer cancel()

	fanAgent, err := NewFanControlAgent(ctx, simulatedConfig(2))
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 16)
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, fanAgent, listener)
	}()

	conn, err := grpc.DialContext(ctx, "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()
	client := fanctrlv1.NewAttributeServiceClient(conn)

	// requests racing the shutdown either succeed or fail with a status, never crash the server
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
				_, err := client.Read(reqCtx, wrapperspb.String("pwm1"))
				reqCancel()
				if err != nil {
					assert.NotEqual(t, codes.OK, status.Code(err))
					return
				}
			}
		}()
	}

	value, err := client.Read(context.Background(), wrapperspb.String("pwm2"))
	require.NoError(t, err)
	assert.Equal(t, int64(50), value.GetValue())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
	wg.Wait()

	_, err = fanAgent.Device().Read(hal.PWMInput(0))
	assert.ErrorIs(t, err, hal.ErrNoSuchDevice)
}
