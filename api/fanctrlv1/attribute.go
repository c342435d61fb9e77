// Package fanctrlv1 describes the gRPC attribute service of the fan controller agent. Requests and
// responses are protobuf well-known types so no generated message code is needed.
package fanctrlv1

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"
)

var ErrMalformed = errors.New("malformed message")

// AttributeInfo describes one visible attribute.
type AttributeInfo struct {
	Name string
	// Mode is "r" or "rw"
	Mode string
}

// NewListResponse encodes the visible attributes of a device, order preserved.
func NewListResponse(nrFans int, attrs []AttributeInfo) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(attrs))
	for _, attr := range attrs {
		list = append(list, map[string]interface{}{
			"name": attr.Name,
			"mode": attr.Mode,
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"nr_fans":    nrFans,
		"attributes": list,
	})
}

// ParseListResponse decodes a response built by NewListResponse.
func ParseListResponse(resp *structpb.Struct) (int, []AttributeInfo, error) {
	fields := resp.GetFields()
	nrFans, err := integer(fields["nr_fans"])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: nr_fans: %w", ErrMalformed, err)
	}

	values := fields["attributes"].GetListValue().GetValues()
	attrs := make([]AttributeInfo, 0, len(values))
	for _, v := range values {
		entry := v.GetStructValue().GetFields()
		name := entry["name"].GetStringValue()
		if name == "" {
			return 0, nil, fmt.Errorf("%w: attribute without name", ErrMalformed)
		}
		attrs = append(attrs, AttributeInfo{
			Name: name,
			Mode: entry["mode"].GetStringValue(),
		})
	}
	return int(nrFans), attrs, nil
}

// NewWriteRequest encodes a write of value to the named attribute.
func NewWriteRequest(attribute string, value int64) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"attribute": structpb.NewStringValue(attribute),
			"value":     structpb.NewNumberValue(float64(value)),
		},
	}
}

// ParseWriteRequest decodes a request built by NewWriteRequest.
func ParseWriteRequest(req *structpb.Struct) (string, int64, error) {
	fields := req.GetFields()
	attribute := fields["attribute"].GetStringValue()
	if attribute == "" {
		return "", 0, fmt.Errorf("%w: missing attribute", ErrMalformed)
	}
	value, err := integer(fields["value"])
	if err != nil {
		return "", 0, fmt.Errorf("%w: value: %w", ErrMalformed, err)
	}
	return attribute, value, nil
}

func integer(v *structpb.Value) (int64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.New("not a number")
	}
	if n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > 1<<53 {
		return 0, fmt.Errorf("%v is not an integer", n.NumberValue)
	}
	return int64(n.NumberValue), nil
}
