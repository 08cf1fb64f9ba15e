package domain

import "testing"

func TestIsValidIPOrCIDR(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"10.0.0.1", true},
		{"192.168.1.0/24", true},
		{"::1", true},
		{"2001:db8::/32", true},
		{"256.1.1.1", false},
		{"10.0.0.1/33", false},
		{"host.example", false},
		{"", false},
	}

	for _, tt := range tests {
		if IsValidIPOrCIDR(tt.addr) != tt.valid {
			t.Errorf("IsValidIPOrCIDR(%s) = %v; want %v", tt.addr, IsValidIPOrCIDR(tt.addr), tt.valid)
		}
	}
}

func TestIsValidPort(t *testing.T) {
	tests := []struct {
		port  int
		valid bool
	}{
		{1, true},
		{443, true},
		{65535, true},
		{0, false},
		{65536, false},
		{-1, false},
	}

	for _, tt := range tests {
		if IsValidPort(tt.port) != tt.valid {
			t.Errorf("IsValidPort(%d) = %v; want %v", tt.port, IsValidPort(tt.port), tt.valid)
		}
	}
}

func TestIsValidInterface(t *testing.T) {
	tests := []struct {
		iface string
		valid bool
	}{
		{"eth0", true},
		{"enp3s0", true},
		{"eth0.100", true},
		{"very_long_interface_name_that_should_fail", false}, // > 15 chars
		{"; rm -rf /", false},
		{"", false},
	}

	for _, tt := range tests {
		if IsValidInterface(tt.iface) != tt.valid {
			t.Errorf("IsValidInterface(%s) = %v; want %v", tt.iface, IsValidInterface(tt.iface), tt.valid)
		}
	}
}
