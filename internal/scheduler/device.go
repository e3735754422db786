package scheduler

import "sync/atomic"

// DeviceState holds the host signals jobs gate on: network reachability and
// a low-battery flag. The host feeds it; jobs only read it through
// constraint predicates.
type DeviceState struct {
	networkDown atomic.Bool
	batteryLow  atomic.Bool
}

// NewDeviceState starts optimistic: network up, battery fine. The host
// corrects it as real signals arrive.
func NewDeviceState() *DeviceState {
	return &DeviceState{}
}

func (d *DeviceState) SetNetworkAvailable(up bool) { d.networkDown.Store(!up) }
func (d *DeviceState) SetBatteryLow(low bool)      { d.batteryLow.Store(low) }

func (d *DeviceState) NetworkAvailable() bool { return !d.networkDown.Load() }
func (d *DeviceState) BatteryLow() bool       { return d.batteryLow.Load() }

// Constraint is a named precondition a job slot must satisfy. An unmet
// constraint skips the slot without consuming a retry.
type Constraint struct {
	Name string
	Met  func() bool
}

func RequireNetwork(d *DeviceState) Constraint {
	return Constraint{Name: "network_connected", Met: d.NetworkAvailable}
}

func RequireBatteryNotLow(d *DeviceState) Constraint {
	return Constraint{Name: "battery_not_low", Met: func() bool { return !d.BatteryLow() }}
}
