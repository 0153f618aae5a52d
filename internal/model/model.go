package model

import "time"

// Option is one name=value pair in the CUPS option grammar.
type Option struct {
	Name  string
	Value string
}

// Destination identifies a single print destination reachable over IPP.
type Destination struct {
	Name      string
	Instance  string
	URI       string
	Info      string
	Location  string
	MakeModel string
	IsDefault bool
}

// FullName returns "name/instance" when an instance is set.
func (d Destination) FullName() string {
	if d.Instance == "" {
		return d.Name
	}
	return d.Name + "/" + d.Instance
}

// Device is a discovered printer that has not been configured as a
// destination yet.
type Device struct {
	URI      string
	Info     string
	Make     string
	Class    string
	Location string
}

// SupplyStatus is the marker/supply snapshot read from a device.
type SupplyStatus struct {
	State     string
	Details   map[string]string
	UpdatedAt time.Time
}
