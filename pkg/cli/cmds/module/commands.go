// Package module exposes module commands in the shell.
package module

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wmbus.go/pkg/cli/sh"
	"github.com/robotalks/wmbus.go/pkg/ebi/device"
)

func ctx() context.Context {
	return context.Background()
}

// query builds a command printing the result of a query.
func query(name string, aliases []string, help string, fn func(*device.Device) (interface{}, error)) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    help,
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			v, err := fn(sh.DeviceFrom(c))
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, v)
		}),
	}
}

// action builds a command without arguments.
func action(name, help string, fn func(*device.Device) error) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: help,
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sh.Check(c, fn(sh.DeviceFrom(c)))
		}),
	}
}

// getSet builds a command which queries without arguments and sets
// with one.
func getSet(name, help string, get func(*device.Device) (interface{}, error), set func(*device.Device, byte) error) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: help,
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			d := sh.DeviceFrom(c)
			if len(c.Args) == 0 {
				v, err := get(d)
				if err != nil {
					c.Err(err)
					return
				}
				sh.Print(c, v)
				return
			}
			val, err := sh.ParseByte(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("Invalid value: %v", err))
				return
			}
			sh.Check(c, set(d, val))
		}),
	}
}

var (
	// InfoCmd queries device information.
	InfoCmd = query("info", []string{"i"}, "device information", func(d *device.Device) (interface{}, error) {
		info, err := d.DeviceInformation(ctx())
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("%s %s", info.ProtocolName(), info.ModuleName()), nil
	})

	// StateCmd queries device state.
	StateCmd = query("state", nil, "device state", func(d *device.Device) (interface{}, error) {
		state, err := d.DeviceState(ctx())
		return fmt.Sprintf("0x%02x", state), err
	})

	// VersionCmd queries firmware version.
	VersionCmd = query("version", []string{"ver"}, "firmware version", func(d *device.Device) (interface{}, error) {
		return d.FirmwareVersion(ctx())
	})

	// ResetCmd resets the module.
	ResetCmd = query("reset", nil, "reset the module", func(d *device.Device) (interface{}, error) {
		state, err := d.Reset(ctx())
		return fmt.Sprintf("state 0x%02x", state), err
	})

	// PowerCmd queries or sets the output power.
	PowerCmd = getSet("power", "[DBM]", func(d *device.Device) (interface{}, error) {
		return d.OutputPower(ctx())
	}, func(d *device.Device, val byte) error {
		return d.SetOutputPower(ctx(), int8(val))
	})

	// ChannelCmd queries or sets the operating channel.
	ChannelCmd = getSet("channel", "[CHANNEL]", func(d *device.Device) (interface{}, error) {
		ch, err := d.OperatingChannel(ctx())
		return ch.String(), err
	}, func(d *device.Device, val byte) error {
		return d.SetOperatingChannel(ctx(), device.Channel(val))
	})

	// RoleCmd queries or sets the network role.
	RoleCmd = getSet("role", "[ROLE]", func(d *device.Device) (interface{}, error) {
		return d.NetworkRole(ctx())
	}, func(d *device.Device, val byte) error {
		return d.SetNetworkRole(ctx(), device.NetworkRole(val))
	})

	// PreferencesCmd queries or sets the network preferences.
	PreferencesCmd = getSet("preferences", "[PREFERENCE]", func(d *device.Device) (interface{}, error) {
		return d.NetworkPreferences(ctx())
	}, func(d *device.Device, val byte) error {
		return d.SetNetworkPreferences(ctx(), device.NetworkPreference(val))
	})

	// SaveCmd saves settings.
	SaveCmd = action("save", "save settings", func(d *device.Device) error {
		return d.SaveSettings(ctx())
	})

	// DefaultsCmd restores factory settings.
	DefaultsCmd = action("defaults", "restore factory settings", func(d *device.Device) error {
		return d.RestoreFactoryDefaults(ctx())
	})

	// StartCmd starts the network.
	StartCmd = action("start", "start network", func(d *device.Device) error {
		return d.NetworkStart(ctx())
	})

	// StopCmd stops the network.
	StopCmd = action("stop", "stop network", func(d *device.Device) error {
		return d.NetworkStop(ctx())
	})

	// ChannelsCmd lists known channels.
	ChannelsCmd = ishell.Cmd{
		Name: "channels",
		Help: "list channels",
		Func: func(c *ishell.Context) {
			chs := make([]int, 0, len(device.Channels))
			for ch := range device.Channels {
				chs = append(chs, int(ch))
			}
			sort.Ints(chs)
			for _, ch := range chs {
				c.Println(device.Channel(ch).String())
			}
		},
	}

	// EnergyCmd queries or sets energy save policies.
	EnergyCmd = ishell.Cmd{
		Name: "energy",
		Help: "[RX-POLICY MCU-POLICY]",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			d := sh.DeviceFrom(c)
			if len(c.Args) < 2 {
				rx, mcu, err := d.EnergySave(ctx())
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("rx=%d mcu=%d\n", rx, mcu)
				return
			}
			rx, err := sh.ParseByte(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("Invalid RX-POLICY: %v", err))
				return
			}
			mcu, err := sh.ParseByte(c.Args[1])
			if err != nil {
				c.Err(fmt.Errorf("Invalid MCU-POLICY: %v", err))
				return
			}
			sh.Check(c, d.SetEnergySave(ctx(), device.RxPolicy(rx), device.MCUPolicy(mcu)))
		}),
	}

	// UARTCmd changes the UART of the module.
	UARTCmd = ishell.Cmd{
		Name: "uart",
		Help: "BAUD [FLOW-CONTROL]",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("BAUD required"))
				return
			}
			baud, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("Invalid BAUD: %v", err))
				return
			}
			var flow byte
			if len(c.Args) > 1 {
				if flow, err = sh.ParseByte(c.Args[1]); err != nil {
					c.Err(fmt.Errorf("Invalid FLOW-CONTROL: %v", err))
					return
				}
			}
			sh.Check(c, sh.DeviceFrom(c).SerialPortConfig(ctx(), baud, device.FlowControl(flow)))
		}),
	}

	// AutoCmd queries or sets automated network creation.
	AutoCmd = ishell.Cmd{
		Name: "auto",
		Help: "[on|off]",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			d := sh.DeviceFrom(c)
			if len(c.Args) == 0 {
				s, err := d.NetworkAutomatedSettings(ctx())
				if err != nil {
					c.Err(err)
					return
				}
				sh.Print(c, s)
				return
			}
			sh.Check(c, d.SetNetworkAutomatedSettings(ctx(), device.AutomatedSettings{
				NetworkCreation: c.Args[0] == "on",
			}))
		}),
	}

	// SendCmd transmits a telegram.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "DATA-HEX",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			data, err := sh.ParseHex(c.Args...)
			if err != nil {
				c.Err(fmt.Errorf("Invalid DATA: %v", err))
				return
			}
			sh.Check(c, sh.DeviceFrom(c).SendData(ctx(), &device.SendDataRequest{Data: data}))
		}),
	}

	// InitCmd brings up the module for receiving.
	InitCmd = ishell.Cmd{
		Name: "init",
		Help: "[MODE]",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			mode := sh.ShellFrom(c).Config.Mode
			if len(c.Args) > 0 {
				mode = c.Args[0]
			}
			m, err := device.ParseMode(mode)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Check(c, sh.DeviceFrom(c).Init(ctx(), m))
		}),
	}
)

func init() {
	sh.AddCmds(
		&InfoCmd,
		&StateCmd,
		&VersionCmd,
		&ResetCmd,
		&PowerCmd,
		&ChannelCmd,
		&ChannelsCmd,
		&EnergyCmd,
		&UARTCmd,
		&RoleCmd,
		&PreferencesCmd,
		&AutoCmd,
		&SaveCmd,
		&DefaultsCmd,
		&StartCmd,
		&StopCmd,
		&SendCmd,
		&InitCmd,
	)
}
