package device_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wmbus.go/pkg/ebi/comm"
	"github.com/robotalks/wmbus.go/pkg/ebi/device"
	"github.com/robotalks/wmbus.go/pkg/ebi/sim"
	"github.com/robotalks/wmbus.go/pkg/framework"
)

func newDevice(t *testing.T, m *sim.Module) *device.Device {
	client := comm.NewClient(comm.NewLink(m))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		m.Close()
		<-done
	})
	d := device.New(client)
	d.Timeout = 100 * time.Millisecond
	return d
}

func lastReceived(t *testing.T, m *sim.Module) comm.Frame {
	frames := m.Received()
	require.NotEmpty(t, frames)
	return frames[len(frames)-1]
}

func receivedIDs(m *sim.Module) (ids []byte) {
	for _, f := range m.Received() {
		ids = append(ids, f.ID)
	}
	return
}

func TestDeviceCommands(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		logic func(*testing.T, *sim.Module, *device.Device)
	}{
		{"device information", func(t *testing.T, m *sim.Module, d *device.Device) {
			info, err := d.DeviceInformation(ctx)
			require.NoError(t, err)
			require.True(t, info.IsWirelessMBus())
			require.Equal(t, "Wireless M-Bus", info.ProtocolName())
			m.Set(device.CmdDeviceInformation, 0x20, 0xee)
			info, err = d.DeviceInformation(ctx)
			require.NoError(t, err)
			require.False(t, info.IsWirelessMBus())
			require.Equal(t, "Unknown(0xee)", info.ModuleName())
		}},
		{"output power", func(t *testing.T, m *sim.Module, d *device.Device) {
			require.NoError(t, d.SetOutputPower(ctx, -3))
			require.Equal(t, comm.Frame{ID: device.CmdOutputPower, Payload: []byte{0xfd}}, lastReceived(t, m))
			power, err := d.OutputPower(ctx)
			require.NoError(t, err)
			require.Equal(t, int8(-3), power)
		}},
		{"operating channel", func(t *testing.T, m *sim.Module, d *device.Device) {
			require.NoError(t, d.SetOperatingChannel(ctx, device.ModeC.Channel()))
			ch, err := d.OperatingChannel(ctx)
			require.NoError(t, err)
			require.Equal(t, device.Channel(0x25), ch)
			require.Error(t, d.SetOperatingChannel(ctx, 0x08))
		}},
		{"automated settings", func(t *testing.T, m *sim.Module, d *device.Device) {
			require.NoError(t, d.SetNetworkAutomatedSettings(ctx, device.AutomatedSettings{NetworkCreation: true}))
			require.Equal(t, []byte{0x80, 0x00}, m.Setting(device.CmdNetworkAutomatedSettings))
			s, err := d.NetworkAutomatedSettings(ctx)
			require.NoError(t, err)
			require.True(t, s.NetworkCreation)
		}},
		{"serial port config", func(t *testing.T, m *sim.Module, d *device.Device) {
			require.NoError(t, d.SerialPortConfig(ctx, 115200, device.FlowControlDisabled))
			require.Equal(t, []byte{0x08, 0x00}, lastReceived(t, m).Payload)
			require.NoError(t, d.SerialPortConfig(ctx, 12345, device.FlowControlModem))
			require.Equal(t, []byte{0x04, 0x01}, lastReceived(t, m).Payload)
		}},
		{"rejected", func(t *testing.T, m *sim.Module, d *device.Device) {
			m.SetStatus(device.CmdEnergySave, comm.StatusParametersNotAccepted)
			err := d.SetEnergySave(ctx, device.RxAlwaysOn, device.MCUAlwaysOn)
			var cmdErr *device.CommandError
			require.True(t, errors.As(err, &cmdErr))
			require.Equal(t, "energy save", cmdErr.Op)
			var statusErr *comm.StatusError
			require.True(t, errors.As(err, &statusErr))
			require.Equal(t, comm.StatusParametersNotAccepted, statusErr.Status)
		}},
		{"no response", func(t *testing.T, m *sim.Module, d *device.Device) {
			m.Mute(device.CmdNetworkStop)
			require.True(t, errors.Is(d.NetworkStop(ctx), comm.ErrTimeout))
			require.NoError(t, d.NetworkStart(ctx))
		}},
		{"reset", func(t *testing.T, m *sim.Module, d *device.Device) {
			state, err := d.Reset(ctx)
			require.NoError(t, err)
			require.Equal(t, device.StateReady, state)
		}},
		{"send data", func(t *testing.T, m *sim.Module, d *device.Device) {
			ch := device.Channel(0x19)
			require.NoError(t, d.SendData(ctx, &device.SendDataRequest{Channel: &ch, Data: []byte{0xaa}}))
			require.Equal(t, []byte{0x80, 0x00, 0x19, 0xaa}, lastReceived(t, m).Payload)
		}},
		{"bootloader read", func(t *testing.T, m *sim.Module, d *device.Device) {
			data, err := d.BootloaderRead(ctx, []byte{0x00, 0x10})
			require.NoError(t, err)
			require.Empty(t, data)
			require.Equal(t, device.CmdBootloaderRead, lastReceived(t, m).ID)
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := sim.New()
			c.logic(t, m, newDevice(t, m))
		})
	}
}

func TestRetry(t *testing.T) {
	m := sim.New().Mute(device.CmdFirmwareVersion)
	d := newDevice(t, m)
	d.Timeout = 20 * time.Millisecond
	d.Retry = device.Retry{Attempts: 3, Backoff: time.Millisecond}
	_, err := d.FirmwareVersion(context.Background())
	require.True(t, errors.Is(err, comm.ErrTimeout))
	require.Len(t, m.Received(), 3)
}

func TestRetryStopsOnResponse(t *testing.T) {
	m := sim.New()
	d := newDevice(t, m)
	d.Retry = device.Retry{Attempts: 3}
	version, err := d.FirmwareVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, sim.DefaultFirmware, version)
	require.Len(t, m.Received(), 1)
}

func TestInit(t *testing.T) {
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		m := sim.New()
		d := newDevice(t, m)
		require.NoError(t, d.Init(ctx, device.ModeS))
		require.Equal(t, []byte{0x0f}, m.Setting(device.CmdOutputPower))
		require.Equal(t, []byte{0x18}, m.Setting(device.CmdOperatingChannel))
		require.Equal(t, []byte{0x80, 0x00}, m.Setting(device.CmdNetworkAutomatedSettings))
		require.Equal(t, []byte{
			device.CmdDeviceInformation,
			device.CmdReset,
			device.CmdOutputPower,
			device.CmdOperatingChannel,
			device.CmdEnergySave,
			device.CmdNetworkAutomatedSettings,
			device.CmdSaveSettings,
			device.CmdNetworkStart,
		}, receivedIDs(m))
	})
	t.Run("not wireless M-Bus", func(t *testing.T) {
		m := sim.New().Set(device.CmdDeviceInformation, 0x20, 0x20)
		err := newDevice(t, m).Init(ctx, device.ModeT)
		require.True(t, errors.Is(err, device.ErrNotWirelessMBus))
		require.Len(t, m.Received(), 1)
	})
	t.Run("not ready", func(t *testing.T) {
		m := sim.New().Set(device.CmdDeviceState, 0x00)
		err := newDevice(t, m).Init(ctx, device.ModeT)
		var agg *framework.AggregatedError
		require.True(t, errors.As(err, &agg))
		require.Len(t, agg.Errors, 1)
		require.Equal(t, []byte{0x0f}, m.Setting(device.CmdOutputPower))
		require.Equal(t, []byte{0x19}, m.Setting(device.CmdOperatingChannel))
		require.Equal(t, []byte{device.CmdDeviceInformation, device.CmdReset,
			device.CmdOutputPower, device.CmdOperatingChannel, device.CmdEnergySave,
			device.CmdNetworkStart}, receivedIDs(m))
	})
	t.Run("step failure skips save", func(t *testing.T) {
		m := sim.New().SetStatus(device.CmdOutputPower, comm.StatusBusy)
		err := newDevice(t, m).Init(ctx, device.ModeT)
		var agg *framework.AggregatedError
		require.True(t, errors.As(err, &agg))
		require.Len(t, agg.Errors, 1)
		require.Equal(t, []byte{device.CmdDeviceInformation, device.CmdReset,
			device.CmdOutputPower, device.CmdOperatingChannel, device.CmdEnergySave,
			device.CmdNetworkStart}, receivedIDs(m))
		require.Equal(t, []byte{0x00, 0x00}, m.Setting(device.CmdNetworkAutomatedSettings))
	})
	t.Run("automated settings failure skips save", func(t *testing.T) {
		m := sim.New().SetStatus(device.CmdNetworkAutomatedSettings, comm.StatusBusy)
		err := newDevice(t, m).Init(ctx, device.ModeC)
		var agg *framework.AggregatedError
		require.True(t, errors.As(err, &agg))
		require.Len(t, agg.Errors, 1)
		require.Equal(t, []byte{device.CmdDeviceInformation, device.CmdReset,
			device.CmdOutputPower, device.CmdOperatingChannel, device.CmdEnergySave,
			device.CmdNetworkAutomatedSettings, device.CmdNetworkStart}, receivedIDs(m))
	})
}
