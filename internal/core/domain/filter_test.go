package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  *CaptureFilter
		wantErr error
	}{
		{name: "defaults", filter: NewCaptureFilter()},
		{name: "full rule", filter: NewCaptureFilter().WithSource("10.0.0.0/8", 1024).WithDestination("192.168.1.10", 443, 8443).WithProtocol(ProtocolTCP)},
		{name: "bad source", filter: NewCaptureFilter().WithSource("10.0.0"), wantErr: ErrInvalidAddress},
		{name: "bad port", filter: NewCaptureFilter().WithDestination("", 0), wantErr: ErrInvalidPort},
		{name: "bad protocol", filter: NewCaptureFilter().WithProtocol("sctp"), wantErr: ErrInvalidProtocol},
		{name: "missing operation", filter: &CaptureFilter{Direction: DirectionInbound}, wantErr: ErrInvalidOperation},
		{name: "missing direction", filter: &CaptureFilter{Operation: OperationExclude}, wantErr: ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCaptureFilter_JSONShape(t *testing.T) {
	f := CaptureFilter{
		SrcIP:     "10.0.0.1",
		DstPort:   []int{443},
		Protocol:  ProtocolTCP,
		Operation: OperationInclude,
		Direction: DirectionInbound,
	}

	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"src_ip":"10.0.0.1","dst_port":[443],"protocol":"tcp","operation":"Include","direction":"Inbound"}`, string(b))

	var back CaptureFilter
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, f, back)
}

func TestCaptureFilter_AcceptsExplicitNulls(t *testing.T) {
	raw := `{"src_ip":null,"dst_ip":"fe80::/10","src_port":null,"dst_port":[53],"protocol":null,"operation":"Exclude","direction":"Outbound"}`

	var f CaptureFilter
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	assert.Empty(t, f.SrcIP)
	assert.Equal(t, Protocol(""), f.Protocol)
	assert.NoError(t, f.Validate())
}

func TestBuildBPF(t *testing.T) {
	filters := []CaptureFilter{
		*NewCaptureFilter().WithSource("10.0.0.1").WithDestination("", 80, 443).WithProtocol(ProtocolTCP),
		*NewCaptureFilter().WithDestination("192.168.0.0/16").WithProtocol(ProtocolAll),
		*NewCaptureFilter(),
	}

	expr := BuildBPF(filters)

	assert.Equal(t, "(src host 10.0.0.1 and (dst port 80 or dst port 443) and tcp) or (dst net 192.168.0.0/16)", expr)
	assert.Empty(t, BuildBPF(nil))
}

func TestBuildBPF_Exclude(t *testing.T) {
	web := *NewCaptureFilter().WithDestination("", 443).WithProtocol(ProtocolTCP)
	ssh := *NewCaptureFilter().WithDestination("", 22).Excluding()
	dns := *NewCaptureFilter().WithDestination("", 53).WithProtocol(ProtocolUDP)

	assert.Equal(t, "((dst port 443) and tcp) and not ((dst port 22))", BuildBPF([]CaptureFilter{web, ssh}))
	assert.Equal(t, "(((dst port 443) and tcp) or ((dst port 53) and udp)) and not ((dst port 22))", BuildBPF([]CaptureFilter{web, ssh, dns}))
	assert.Equal(t, "not ((dst port 22))", BuildBPF([]CaptureFilter{ssh}))
}
