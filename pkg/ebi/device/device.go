// Package device implements the commands of Embit wireless M-Bus modules
// on top of the EBI transaction layer.
package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wmbus.go/pkg/ebi/comm"
)

// Sender is the transaction layer used by Device.
type Sender interface {
	Send(id byte, payload []byte, timeout time.Duration) *comm.Command
	SendExpect(id byte, payload []byte, followID byte, timeout time.Duration) (cmd, follow *comm.Command)
}

// CommandError wraps the failure of a command.
type CommandError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Retry resends a command which got no response.
type Retry struct {
	// Attempts is the total number of sends, values below 1 mean 1.
	Attempts int
	// Backoff is the delay between attempts.
	Backoff time.Duration
}

// Do runs send until it returns something other than a timeout.
func (r Retry) Do(ctx context.Context, send func() *comm.Command) (res comm.Result) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for n := 1; ; n++ {
		res = send().Wait(ctx)
		if res.Err != comm.ErrTimeout || n >= attempts {
			return
		}
		glog.V(2).Infof("no response, retry %d/%d", n, attempts-1)
		if r.Backoff > 0 {
			select {
			case <-ctx.Done():
				res.Err = ctx.Err()
				return
			case <-time.After(r.Backoff):
			}
		}
	}
}

// Device provides commands of an Embit module.
type Device struct {
	Sender  Sender
	Timeout time.Duration
	Retry   Retry
}

// New creates a Device.
func New(sender Sender) *Device {
	return &Device{Sender: sender, Timeout: comm.DefaultTimeout}
}

// Do sends a raw command and waits for the result.
func (d *Device) Do(ctx context.Context, id byte, payload []byte) comm.Result {
	return d.Retry.Do(ctx, func() *comm.Command {
		return d.Sender.Send(id, payload, d.Timeout)
	})
}

func (d *Device) exec(ctx context.Context, op string, id byte, payload ...byte) ([]byte, error) {
	res := d.Do(ctx, id, payload)
	if err := res.Error(); err != nil {
		return res.Payload, &CommandError{Op: op, Err: err}
	}
	return res.Payload, nil
}

func (d *Device) query(ctx context.Context, op string, id byte, size int) ([]byte, error) {
	data, err := d.exec(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if len(data) < size {
		return nil, &CommandError{Op: op, Err: fmt.Errorf("short response %x", data)}
	}
	return data, nil
}

// DeviceInfo is the response of device information command.
type DeviceInfo struct {
	Protocol byte
	Module   byte
	Raw      []byte
}

// ProtocolName returns the name of the protocol.
func (i *DeviceInfo) ProtocolName() string {
	if name, ok := Protocols[i.Protocol]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02x)", i.Protocol)
}

// ModuleName returns the name of the module type.
func (i *DeviceInfo) ModuleName() string {
	if name, ok := Modules[i.Module]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02x)", i.Module)
}

// IsWirelessMBus tells if the module speaks wireless M-Bus.
func (i *DeviceInfo) IsWirelessMBus() bool {
	return i.Protocol&ProtocolWirelessMBus != 0
}

// DeviceInformation queries the module type.
func (d *Device) DeviceInformation(ctx context.Context) (*DeviceInfo, error) {
	data, err := d.query(ctx, "device information", CmdDeviceInformation, 2)
	if err != nil {
		return nil, err
	}
	return &DeviceInfo{Protocol: data[0], Module: data[1], Raw: data}, nil
}

// DeviceState queries the state code.
func (d *Device) DeviceState(ctx context.Context) (byte, error) {
	data, err := d.query(ctx, "device state", CmdDeviceState, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// Reset resets the module and waits for the device state notification
// sent once the module is up again.
func (d *Device) Reset(ctx context.Context) (byte, error) {
	const op = "reset"
	reset, state := d.Sender.SendExpect(CmdReset, nil, CmdDeviceState, d.Timeout)
	if res := reset.Wait(ctx); res.Err != nil {
		return 0, &CommandError{Op: op, Err: res.Err}
	}
	res := state.Wait(ctx)
	if res.Err != nil {
		return 0, &CommandError{Op: op, Err: res.Err}
	}
	if len(res.Payload) == 0 {
		return 0, &CommandError{Op: op, Err: errors.New("empty device state")}
	}
	return res.Payload[0], nil
}

// FirmwareVersion queries the firmware version.
func (d *Device) FirmwareVersion(ctx context.Context) ([]byte, error) {
	return d.exec(ctx, "firmware version", CmdFirmwareVersion)
}

// RestoreFactoryDefaults restores the default settings.
func (d *Device) RestoreFactoryDefaults(ctx context.Context) error {
	_, err := d.exec(ctx, "restore settings", CmdRestoreSettings)
	return err
}

// SaveSettings persists current settings.
func (d *Device) SaveSettings(ctx context.Context) error {
	_, err := d.exec(ctx, "save settings", CmdSaveSettings)
	return err
}

// SerialPortConfig changes the UART configuration. Unsupported baud rates
// fall back to DefaultBaudRate.
func (d *Device) SerialPortConfig(ctx context.Context, baud int, flow FlowControl) error {
	code, ok := BaudRates[baud]
	if !ok {
		glog.Warningf("unsupported baud rate %d, use %d", baud, DefaultBaudRate)
		code = BaudRates[DefaultBaudRate]
	}
	_, err := d.exec(ctx, "serial port configuration", CmdUARTConfig, code, byte(flow))
	return err
}

// OutputPower queries the output power in dBm.
func (d *Device) OutputPower(ctx context.Context) (int8, error) {
	data, err := d.query(ctx, "output power", CmdOutputPower, 1)
	if err != nil {
		return 0, err
	}
	return int8(data[0]), nil
}

// SetOutputPower sets the output power in dBm.
func (d *Device) SetOutputPower(ctx context.Context, dBm int8) error {
	_, err := d.exec(ctx, "output power", CmdOutputPower, byte(dBm))
	return err
}

// OperatingChannel queries the channel.
func (d *Device) OperatingChannel(ctx context.Context) (Channel, error) {
	data, err := d.query(ctx, "operating channel", CmdOperatingChannel, 1)
	if err != nil {
		return 0, err
	}
	return Channel(data[0]), nil
}

// SetOperatingChannel sets the channel.
func (d *Device) SetOperatingChannel(ctx context.Context, ch Channel) error {
	if _, ok := Channels[ch]; !ok {
		return &CommandError{Op: "operating channel", Err: fmt.Errorf("unknown channel %d", ch)}
	}
	_, err := d.exec(ctx, "operating channel", CmdOperatingChannel, byte(ch))
	return err
}

// EnergySave queries the power policies.
func (d *Device) EnergySave(ctx context.Context) (RxPolicy, MCUPolicy, error) {
	data, err := d.query(ctx, "energy save", CmdEnergySave, 2)
	if err != nil {
		return 0, 0, err
	}
	return RxPolicy(data[0]), MCUPolicy(data[1]), nil
}

// SetEnergySave sets the power policies.
func (d *Device) SetEnergySave(ctx context.Context, rx RxPolicy, mcu MCUPolicy) error {
	_, err := d.exec(ctx, "energy save", CmdEnergySave, byte(rx), byte(mcu))
	return err
}

// PhysicalAddress queries the physical address.
func (d *Device) PhysicalAddress(ctx context.Context) ([]byte, error) {
	return d.exec(ctx, "physical address", CmdPhysicalAddress)
}

// SetPhysicalAddress sets the physical address.
func (d *Device) SetPhysicalAddress(ctx context.Context, addr []byte) error {
	_, err := d.exec(ctx, "physical address", CmdPhysicalAddress, addr...)
	return err
}

// NetworkAddress queries the network address.
func (d *Device) NetworkAddress(ctx context.Context) ([]byte, error) {
	return d.exec(ctx, "network address", CmdNetworkAddress)
}

// SetNetworkAddress sets the network address.
func (d *Device) SetNetworkAddress(ctx context.Context, addr []byte) error {
	_, err := d.exec(ctx, "network address", CmdNetworkAddress, addr...)
	return err
}

// NetworkRole queries the network role.
func (d *Device) NetworkRole(ctx context.Context) (NetworkRole, error) {
	data, err := d.query(ctx, "network role", CmdNetworkRole, 1)
	if err != nil {
		return 0, err
	}
	return NetworkRole(data[0]), nil
}

// SetNetworkRole sets the network role.
func (d *Device) SetNetworkRole(ctx context.Context, role NetworkRole) error {
	_, err := d.exec(ctx, "network role", CmdNetworkRole, byte(role))
	return err
}

// NetworkAutomatedSettings queries the automated settings.
func (d *Device) NetworkAutomatedSettings(ctx context.Context) (AutomatedSettings, error) {
	data, err := d.query(ctx, "network automated settings", CmdNetworkAutomatedSettings, 2)
	if err != nil {
		return AutomatedSettings{}, err
	}
	return ParseAutomatedSettings(data), nil
}

// SetNetworkAutomatedSettings sets the automated settings.
func (d *Device) SetNetworkAutomatedSettings(ctx context.Context, s AutomatedSettings) error {
	_, err := d.exec(ctx, "network automated settings", CmdNetworkAutomatedSettings, s.Bytes()...)
	return err
}

// NetworkPreferences queries the network preference.
func (d *Device) NetworkPreferences(ctx context.Context) (NetworkPreference, error) {
	data, err := d.query(ctx, "network preferences", CmdNetworkPreferences, 1)
	if err != nil {
		return 0, err
	}
	return NetworkPreference(data[0]), nil
}

// SetNetworkPreferences sets the network preference.
func (d *Device) SetNetworkPreferences(ctx context.Context, pref NetworkPreference) error {
	_, err := d.exec(ctx, "network preferences", CmdNetworkPreferences, byte(pref))
	return err
}

// SetNetworkSecurity configures network security.
func (d *Device) SetNetworkSecurity(ctx context.Context, s SecuritySettings) error {
	_, err := d.exec(ctx, "network security", CmdNetworkSecurity, s.Bytes()...)
	return err
}

// NetworkStop stops the network.
func (d *Device) NetworkStop(ctx context.Context) error {
	_, err := d.exec(ctx, "network stop", CmdNetworkStop)
	return err
}

// NetworkStart starts the network, telegrams are notified afterwards.
func (d *Device) NetworkStart(ctx context.Context) error {
	_, err := d.exec(ctx, "network start", CmdNetworkStart)
	return err
}

// SendData transmits a telegram.
func (d *Device) SendData(ctx context.Context, req *SendDataRequest) error {
	payload, err := req.Bytes()
	if err != nil {
		return &CommandError{Op: "send data", Err: err}
	}
	_, err = d.exec(ctx, "send data", CmdSendData, payload...)
	return err
}
