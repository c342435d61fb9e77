package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/fanctrl-agent/api/fanctrlv1"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type clientMock struct {
	mock.Mock
}

func (m *clientMock) List(_ context.Context, in *emptypb.Empty, _ ...grpc.CallOption) (*structpb.Struct, error) {
	args := m.Called(in)
	return args.Get(0).(*structpb.Struct), args.Error(1)
}

func (m *clientMock) Read(_ context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	args := m.Called(in.GetValue())
	return args.Get(0).(*wrapperspb.Int64Value), args.Error(1)
}

func (m *clientMock) Write(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	attribute, value, err := fanctrlv1.ParseWriteRequest(in)
	if err != nil {
		return nil, err
	}
	args := m.Called(attribute, value)
	return &emptypb.Empty{}, args.Error(0)
}

func runCmd(t *testing.T, cmd *cobra.Command, client fanctrlv1.AttributeServiceClient, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(clientIntoContext(context.Background(), client))
	require.NoError(t, cmd.RunE(cmd, args))
	return out.String()
}

func TestCmdList(t *testing.T) {
	resp, err := fanctrlv1.NewListResponse(1, []fanctrlv1.AttributeInfo{
		{Name: "fan1_input", Mode: "r"},
		{Name: "pwm1", Mode: "rw"},
	})
	require.NoError(t, err)

	client := &clientMock{}
	client.On("List", mock.Anything).Return(resp, nil)

	out := runCmd(t, cmdList, client)
	assert.Equal(t, "1 fan(s)\nfan1_input  r\npwm1        rw\n", out)
	client.AssertExpectations(t)
}

func TestCmdGet(t *testing.T) {
	client := &clientMock{}
	client.On("Read", "fan1_input").Return(wrapperspb.Int64(2400), nil)

	out := runCmd(t, cmdGet, client, "fan1_input")
	assert.Equal(t, "2400\n", out)
	client.AssertExpectations(t)
}

func TestCmdSet(t *testing.T) {
	client := &clientMock{}
	client.On("Write", "pwm1", int64(128)).Return(nil)

	runCmd(t, cmdSet, client, "pwm1", "128")
	client.AssertExpectations(t)

	cmdSet.SetContext(clientIntoContext(context.Background(), client))
	assert.Error(t, cmdSet.RunE(cmdSet, []string{"pwm1", "fast"}))
}
