package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolPortRule_Validate(t *testing.T) {
	assert.NoError(t, (&ProtocolPortRule{Protocol: "http", Ports: []int{80, 8080}}).Validate())
	assert.ErrorIs(t, (&ProtocolPortRule{Ports: []int{80}}).Validate(), ErrEmptyRuleProtocol)
	assert.ErrorIs(t, (&ProtocolPortRule{Protocol: "http"}).Validate(), ErrEmptyRulePorts)
	assert.ErrorIs(t, (&ProtocolPortRule{Protocol: "http", Ports: []int{0}}).Validate(), ErrInvalidPort)
}

func TestProtocolPortRule_Normalize(t *testing.T) {
	r := ProtocolPortRule{Protocol: " HTTPS ", Ports: []int{8443, 443, 8443}}.Normalize()

	assert.Equal(t, "https", r.Protocol)
	assert.Equal(t, []int{443, 8443}, r.Ports)
}

func TestRuleSet_Lookup(t *testing.T) {
	set := RuleSet{Rules: []ProtocolPortRule{
		{Protocol: "dns", Ports: []int{53}},
		{Protocol: "https", Ports: []int{443, 8443}},
	}}

	r, ok := set.Find("HTTPS")
	assert.True(t, ok)
	assert.Equal(t, []int{443, 8443}, r.Ports)

	proto, ok := set.ProtocolForPort(53)
	assert.True(t, ok)
	assert.Equal(t, "dns", proto)

	_, ok = set.ProtocolForPort(22)
	assert.False(t, ok)
}
