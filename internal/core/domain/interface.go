package domain

import (
	"errors"
)

// Domain Errors for network interfaces.
var (
	ErrInvalidInterfaceName = errors.New("invalid interface name")
	ErrUnknownInterface     = errors.New("interface is not offered by the backend")
)

// NetworkInterfaces is the capture interface list and the current selection.
type NetworkInterfaces struct {
	Interfaces []string `json:"interfaces"`
	Selected   string   `json:"selected"`
}

// Has reports whether name is one of the offered interfaces.
func (n NetworkInterfaces) Has(name string) bool {
	for _, iface := range n.Interfaces {
		if iface == name {
			return true
		}
	}
	return false
}

// InterfaceSelection is the body that selects a capture interface.
type InterfaceSelection struct {
	Interface string `json:"interface"`
}

// Validate checks the interface name is safe to send.
func (s InterfaceSelection) Validate() error {
	if !IsValidInterface(s.Interface) {
		return ErrInvalidInterfaceName
	}
	return nil
}
