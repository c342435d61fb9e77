package agent

import (
	"context"
	"errors"

	"github.com/uptime-industries/fanctrl-agent/api/fanctrlv1"
	"github.com/uptime-industries/fanctrl-agent/pkg/hal"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// agentGrpcService exposes the attribute surface of a device
type agentGrpcService struct {
	fanctrlv1.UnimplementedAttributeServiceServer

	Device hal.Device
}

// NewGrpcServiceFor creates a new gRPC service for a given device
func NewGrpcServiceFor(device hal.Device) *agentGrpcService {
	return &agentGrpcService{
		Device: device,
	}
}

// List returns all visible attributes and their access modes
func (service *agentGrpcService) List(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	attrs := service.Device.Attributes()
	infos := make([]fanctrlv1.AttributeInfo, 0, len(attrs))
	for _, attr := range attrs {
		mode := service.Device.IsVisible(sensorOf(attr))
		infos = append(infos, fanctrlv1.AttributeInfo{Name: attr.Name(), Mode: mode.String()})
	}
	resp, err := fanctrlv1.NewListResponse(service.Device.NrFans(), infos)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// Read reads a single attribute by its hwmon name
func (service *agentGrpcService) Read(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	attr, err := hal.ParseAttribute(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	value, err := service.Device.Read(attr)
	if err != nil {
		log.FromContext(ctx).Debug("Attribute read failed", zap.String("attribute", attr.Name()), zap.Error(err))
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(value), nil
}

// Write writes a single attribute by its hwmon name
func (service *agentGrpcService) Write(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	name, value, err := fanctrlv1.ParseWriteRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	attr, err := hal.ParseAttribute(name)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := service.Device.Write(attr, value); err != nil {
		return nil, toStatus(err)
	}
	log.FromContext(ctx).Info("Attribute written", zap.String("attribute", attr.Name()), zap.Int64("value", value))
	return &emptypb.Empty{}, nil
}

func sensorOf(attr hal.Attribute) (hal.SensorType, hal.AttributeKind, int) {
	switch attr.(type) {
	case hal.FanInput:
		return hal.SensorFan, hal.AttrInput, attr.Channel()
	case hal.PWMEnable:
		return hal.SensorPWM, hal.AttrEnable, attr.Channel()
	default:
		return hal.SensorPWM, hal.AttrInput, attr.Channel()
	}
}

// toStatus maps the device error taxonomy onto gRPC status codes.
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, hal.ErrInvalidArgument):
		code = codes.InvalidArgument
	case errors.Is(err, hal.ErrNotSupported):
		code = codes.Unimplemented
	case errors.Is(err, hal.ErrNoSuchDevice):
		code = codes.NotFound
	case errors.Is(err, hal.ErrResourceUnavailable):
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}
