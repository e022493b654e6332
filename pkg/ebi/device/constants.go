package device

// Command ids.
const (
	CmdDeviceInformation        byte = 0x01
	CmdDeviceState              byte = 0x04
	CmdReset                    byte = 0x05
	CmdFirmwareVersion          byte = 0x06
	CmdRestoreSettings          byte = 0x07
	CmdSaveSettings             byte = 0x08
	CmdUARTConfig               byte = 0x09
	CmdOutputPower              byte = 0x10
	CmdOperatingChannel         byte = 0x11
	CmdEnergySave               byte = 0x13
	CmdPhysicalAddress          byte = 0x20
	CmdNetworkAddress           byte = 0x21
	CmdNetworkRole              byte = 0x23
	CmdNetworkAutomatedSettings byte = 0x24
	CmdNetworkPreferences       byte = 0x25
	CmdNetworkSecurity          byte = 0x26
	CmdNetworkStop              byte = 0x30
	CmdNetworkStart             byte = 0x31
	CmdSendData                 byte = 0x50

	CmdBootloaderEnter       byte = 0x70
	CmdBootloaderSetOptions  byte = 0x71
	CmdBootloaderEraseMemory byte = 0x78
	CmdBootloaderWrite       byte = 0x7a
	CmdBootloaderRead        byte = 0x7b
	CmdBootloaderCommit      byte = 0x7f
)

// BaudRates maps baud rates to UART config codes.
var BaudRates = map[int]byte{
	1200:   0x01,
	2400:   0x02,
	4800:   0x03,
	9600:   0x04,
	19200:  0x05,
	38400:  0x06,
	57600:  0x07,
	115200: 0x08,
	230400: 0x09,
	460800: 0x0a,
	921600: 0x0b,
}

// DefaultBaudRate is used when an unsupported baud rate is requested.
const DefaultBaudRate = 9600

// FlowControl is the UART flow control mode.
type FlowControl byte

// Flow control modes.
const (
	FlowControlDisabled FlowControl = 0x00
	FlowControlModem    FlowControl = 0x01
	FlowControlP2P      FlowControl = 0x02
)

// RxPolicy controls the receiver while idle.
type RxPolicy byte

// Receiver policies.
const (
	RxAlwaysOn             RxPolicy = 0x00
	RxAlwaysOff            RxPolicy = 0x01
	// RxReceiveWindow opens a receive window after transmission.
	RxReceiveWindow        RxPolicy = 0x02
	// RxReceiveWindowWithEnd also notifies the end of the window with a
	// device state notification (code 0x51).
	RxReceiveWindowWithEnd RxPolicy = 0x03
)

// MCUPolicy controls the module MCU power.
type MCUPolicy byte

// MCU policies.
const (
	MCUAlwaysOn  MCUPolicy = 0x00
	MCUAlwaysOff MCUPolicy = 0x01
)

// NetworkRole is the wireless M-Bus role of the module.
type NetworkRole byte

// Network roles.
const (
	RoleMeter       NetworkRole = 0x00
	RoleOtherDevice NetworkRole = 0x01
)

// NetworkPreference controls joining.
type NetworkPreference byte

// Network preferences.
const (
	JoiningNotPermitted NetworkPreference = 0x00
	JoiningPermitted    NetworkPreference = 0x01
)

// ProtocolWirelessMBus is the protocol bit reported by wireless M-Bus modules.
const ProtocolWirelessMBus byte = 0x40

// StateReady is the device state after a successful reset.
const StateReady byte = 0x10

// Protocols maps device information protocol codes to names.
var Protocols = map[byte]string{
	0x00: "Unknown",
	0x01: "Proprietary",
	0x10: "802.15.4",
	0x20: "ZigBee",
	0x21: "ZigBee 2004 (1.0)",
	0x22: "ZigBee 2006",
	0x23: "ZigBee 2007",
	0x24: "ZigBee 2007-Pro",
	0x40: "Wireless M-Bus",
}

// Modules maps device information module codes to names.
var Modules = map[byte]string{
	0x00: "Unknown",
	0x10: "Reserved",
	0x20: "EMB-ZRF2xx",
	0x24: "EMB-ZRF231xx",
	0x26: "EMB-ZRF231PA",
	0x28: "EMB-ZRF212xx",
	0x29: "EMB-ZRF212B",
	0x30: "EMB-Z253x",
	0x34: "EMB-Z2530x",
	0x36: "EMB-Z2530PA",
	0x38: "EMB-Z2531x",
	0x3a: "EMB-Z2531PA-USB",
	0x3c: "EMB-Z2538x",
	0x3d: "EMB-Z2538PA",
	0x40: "EMB-WMBx",
	0x44: "EMB-WMB169x",
	0x45: "EMB-WMB169T",
	0x46: "EMB-WMB169PA",
	0x48: "EMB-WMB868x",
	0x49: "EMB-WMB868",
}
