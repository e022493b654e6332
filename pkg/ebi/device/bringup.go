package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/wmbus.go/pkg/framework"
)

// MaxOutputPower is the output power used by Init.
const MaxOutputPower int8 = 0x0f

// ErrNotWirelessMBus indicates the module speaks another protocol.
var ErrNotWirelessMBus = errors.New("not a wireless M-Bus module")

// Init brings up the module for receiving telegrams in the specified mode.
// Only a failed device information query stops the bring-up. A reset without
// ready state counts as a failed step. Automated settings and save run only
// while no step has failed, the network is started regardless and the errors
// of all failed steps are aggregated.
func (d *Device) Init(ctx context.Context, mode Mode) error {
	info, err := d.DeviceInformation(ctx)
	if err != nil {
		return err
	}
	glog.Infof("device: protocol %s, module %s", info.ProtocolName(), info.ModuleName())
	if !info.IsWirelessMBus() {
		return &CommandError{Op: "device information", Err: ErrNotWirelessMBus}
	}

	var errs framework.AggregatedError
	step := func(name string, err error) {
		if err != nil {
			glog.Warningf("device: %s failed: %v", name, err)
		} else {
			glog.V(1).Infof("device: %s ok", name)
		}
		errs.Add(err)
	}
	state, err := d.Reset(ctx)
	if err == nil && state != StateReady {
		err = &CommandError{Op: "reset", Err: fmt.Errorf("device not ready, state 0x%02x", state)}
	}
	step("reset", err)

	ch := mode.Channel()
	step("output power", d.SetOutputPower(ctx, MaxOutputPower))
	step("operating channel "+ch.String(), d.SetOperatingChannel(ctx, ch))
	step("energy save", d.SetEnergySave(ctx, RxAlwaysOn, MCUAlwaysOn))
	if errs.Len() == 0 {
		step("automated settings", d.SetNetworkAutomatedSettings(ctx, AutomatedSettings{NetworkCreation: true}))
	}
	if errs.Len() == 0 {
		step("save settings", d.SaveSettings(ctx))
	}
	step("network start", d.NetworkStart(ctx))
	if err := errs.Aggregate(); err != nil {
		return err
	}
	glog.Infof("device: receiving in %s-mode on channel %s", mode, ch)
	return nil
}
