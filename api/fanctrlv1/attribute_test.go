package fanctrlv1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/fanctrl-agent/api/fanctrlv1"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestListResponse(t *testing.T) {
	t.Parallel()

	attrs := []fanctrlv1.AttributeInfo{
		{Name: "fan1_input", Mode: "r"},
		{Name: "pwm1", Mode: "rw"},
		{Name: "pwm1_enable", Mode: "rw"},
	}
	resp, err := fanctrlv1.NewListResponse(1, attrs)
	require.NoError(t, err)

	nrFans, decoded, err := fanctrlv1.ParseListResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, 1, nrFans)
	assert.Equal(t, attrs, decoded)
}

func TestParseListResponse_Malformed(t *testing.T) {
	t.Parallel()

	_, _, err := fanctrlv1.ParseListResponse(&structpb.Struct{})
	assert.ErrorIs(t, err, fanctrlv1.ErrMalformed)

	resp, err := structpb.NewStruct(map[string]interface{}{
		"nr_fans":    2,
		"attributes": []interface{}{map[string]interface{}{"mode": "r"}},
	})
	require.NoError(t, err)
	_, _, err = fanctrlv1.ParseListResponse(resp)
	assert.ErrorIs(t, err, fanctrlv1.ErrMalformed)
}

func TestWriteRequest(t *testing.T) {
	t.Parallel()

	attribute, value, err := fanctrlv1.ParseWriteRequest(fanctrlv1.NewWriteRequest("pwm2", 200))
	require.NoError(t, err)
	assert.Equal(t, "pwm2", attribute)
	assert.Equal(t, int64(200), value)

	attribute, value, err = fanctrlv1.ParseWriteRequest(fanctrlv1.NewWriteRequest("pwm1", -1))
	require.NoError(t, err)
	assert.Equal(t, "pwm1", attribute)
	assert.Equal(t, int64(-1), value)
}

func TestParseWriteRequest_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields map[string]*structpb.Value
	}{
		{
			name:   "missing attribute",
			fields: map[string]*structpb.Value{"value": structpb.NewNumberValue(1)},
		},
		{
			name:   "missing value",
			fields: map[string]*structpb.Value{"attribute": structpb.NewStringValue("pwm1")},
		},
		{
			name: "fractional value",
			fields: map[string]*structpb.Value{
				"attribute": structpb.NewStringValue("pwm1"),
				"value":     structpb.NewNumberValue(1.5),
			},
		},
		{
			name: "string value",
			fields: map[string]*structpb.Value{
				"attribute": structpb.NewStringValue("pwm1"),
				"value":     structpb.NewStringValue("1"),
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := fanctrlv1.ParseWriteRequest(&structpb.Struct{Fields: tt.fields})
			assert.ErrorIs(t, err, fanctrlv1.ErrMalformed)
		})
	}
}
