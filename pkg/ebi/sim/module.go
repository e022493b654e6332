// Package sim emulates an Embit wireless M-Bus module on the serial side.
package sim

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/wmbus.go/pkg/ebi/comm"
	"github.com/robotalks/wmbus.go/pkg/ebi/device"
)

// Module is an emulated module, connect a comm.Link to it as io.ReadWriter.
type Module struct {
	lock     sync.Mutex
	cond     *sync.Cond
	parser   comm.Parser
	out      []byte
	closed   bool
	settings map[byte][]byte
	status   map[byte]comm.Status
	muted    map[byte]bool
	received []comm.Frame
}

// Defaults of a freshly powered module.
var (
	DefaultDeviceInfo = []byte{device.ProtocolWirelessMBus, 0x60}
	DefaultFirmware   = []byte{0x01, 0x02, 0x00, 0x05}
)

// ErrClosed is returned when the module is closed.
var ErrClosed = errors.New("module closed")

// New creates a Module.
func New() *Module {
	m := &Module{
		settings: map[byte][]byte{
			device.CmdDeviceInformation:        DefaultDeviceInfo,
			device.CmdDeviceState:              {device.StateReady},
			device.CmdFirmwareVersion:          DefaultFirmware,
			device.CmdOutputPower:              {0x00},
			device.CmdOperatingChannel:         {0x19},
			device.CmdEnergySave:               {0x00, 0x00},
			device.CmdPhysicalAddress:          {0x2d, 0x2c, 0x78, 0x56, 0x34, 0x12, 0x01, 0x07},
			device.CmdNetworkAddress:           {0x00, 0x00},
			device.CmdNetworkRole:              {byte(device.RoleOtherDevice)},
			device.CmdNetworkAutomatedSettings: {0x00, 0x00},
			device.CmdNetworkPreferences:       {byte(device.JoiningPermitted)},
		},
		status: make(map[byte]comm.Status),
		muted:  make(map[byte]bool),
	}
	m.parser.MinLength = comm.FrameOverhead
	m.cond = sync.NewCond(&m.lock)
	return m
}

// SetStatus makes the module answer the command with the status.
func (m *Module) SetStatus(id byte, status comm.Status) *Module {
	m.lock.Lock()
	m.status[id] = status
	m.lock.Unlock()
	return m
}

// Mute makes the module ignore the command.
func (m *Module) Mute(id byte) *Module {
	m.lock.Lock()
	m.muted[id] = true
	m.lock.Unlock()
	return m
}

// Set overrides a stored setting.
func (m *Module) Set(id byte, value ...byte) *Module {
	m.lock.Lock()
	m.settings[id] = value
	m.lock.Unlock()
	return m
}

// Setting returns the stored value of a setting.
func (m *Module) Setting(id byte) []byte {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]byte(nil), m.settings[id]...)
}

// Received returns the commands received so far.
func (m *Module) Received() []comm.Frame {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]comm.Frame(nil), m.received...)
}

// Emit sends a frame to the host.
func (m *Module) Emit(id byte, payload ...byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.emitLocked(id, payload)
}

// EmitTelegram sends a data received notification.
func (m *Module) EmitTelegram(options uint16, fields []byte) error {
	payload := make([]byte, 2, 2+len(fields))
	binary.BigEndian.PutUint16(payload, options)
	return m.Emit(comm.NotificationDataReceived, append(payload, fields...)...)
}

// Read implements io.Reader, it blocks until data is available.
func (m *Module) Read(p []byte) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for len(m.out) == 0 && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return 0, io.EOF
	}
	n := copy(p, m.out)
	m.out = m.out[n:]
	return n, nil
}

// Write implements io.Writer, the bytes are parsed as commands.
func (m *Module) Write(p []byte) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	for _, r := range m.parser.Feed(p) {
		if r.Err != nil {
			glog.Warningf("sim: %v", r.Err)
			continue
		}
		f, err := comm.DecodeFrame(r.Frame)
		if err != nil {
			glog.Warningf("sim: %v", err)
			continue
		}
		m.received = append(m.received, comm.Frame{ID: f.ID, Payload: append([]byte(nil), f.Payload...)})
		m.handleLocked(f)
	}
	return len(p), nil
}

// Close implements io.Closer.
func (m *Module) Close() error {
	m.lock.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.lock.Unlock()
	return nil
}

func (m *Module) handleLocked(f *comm.Frame) {
	if m.muted[f.ID] {
		glog.V(2).Infof("sim: ignore 0x%02x", f.ID)
		return
	}
	status := m.status[f.ID]
	rid := f.ID | comm.ResponseFlag
	switch {
	case f.ID == device.CmdReset:
		m.emitLocked(rid, []byte{byte(status)})
		if status == comm.StatusSuccess {
			m.emitLocked(device.CmdDeviceState|comm.ResponseFlag, m.settings[device.CmdDeviceState])
		}
	case len(f.Payload) > 0:
		if status == comm.StatusSuccess {
			if _, ok := m.settings[f.ID]; ok {
				m.settings[f.ID] = append([]byte(nil), f.Payload...)
			}
		}
		m.emitLocked(rid, []byte{byte(status)})
	default:
		value, ok := m.settings[f.ID]
		if !ok {
			value = []byte{byte(status)}
		}
		m.emitLocked(rid, value)
	}
}

func (m *Module) emitLocked(id byte, payload []byte) error {
	if m.closed {
		return ErrClosed
	}
	frame, err := comm.EncodeFrame(id, payload)
	if err != nil {
		return err
	}
	m.out = append(m.out, frame...)
	m.cond.Broadcast()
	return nil
}
