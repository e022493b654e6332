// Package link opens the byte stream connected to the module.
//
// Supported URLs:
//
//	serial:///dev/ttyUSB0?baud=9600   local serial port, also a plain device path
//	tcp://host:port                   raw TCP bridge, e.g. ser2net
//	ws://host/path                    websocket bridge with binary frames
//	sim://?telegrams=5s               emulated module
package link

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
	"golang.org/x/net/websocket"

	"github.com/robotalks/wmbus.go/pkg/ebi/sim"
)

// DefaultBaudRate of the module UART.
const DefaultBaudRate = 9600

// ReadTimeout bounds blocking reads on serial ports.
const ReadTimeout = 200 * time.Millisecond

// DialTimeout bounds connecting to bridges.
const DialTimeout = 5 * time.Second

// Opener opens a link from a parsed URL.
type Opener func(u *url.URL) (io.ReadWriteCloser, error)

// Openers maps URL schemes to Openers.
var Openers = map[string]Opener{
	"serial": OpenSerial,
	"tcp":    OpenTCP,
	"ws":     OpenWebsocket,
	"wss":    OpenWebsocket,
	"sim":    OpenSim,
}

// Open opens a link by URL.
func Open(linkURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "serial"
	}
	opener, ok := Openers[scheme]
	if !ok {
		return nil, fmt.Errorf("unknown link URL scheme: %q", u.Scheme)
	}
	glog.V(1).Infof("open link %s", linkURL)
	return opener(u)
}

// OpenSerial opens a local serial port.
func OpenSerial(u *url.URL) (io.ReadWriteCloser, error) {
	port := u.Path
	if port == "" {
		port = u.Opaque
	}
	if port == "" {
		return nil, fmt.Errorf("serial port is empty")
	}
	baud := DefaultBaudRate
	if val := u.Query().Get("baud"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid serial baud rate: %q", val)
		}
		baud = n
	}
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %q: %w", port, err)
	}
	if err := p.SetReadTimeout(ReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set serial read timeout: %w", err)
	}
	return p, nil
}

// Ports lists the serial ports.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// OpenTCP connects to a TCP bridge.
func OpenTCP(u *url.URL) (io.ReadWriteCloser, error) {
	return net.DialTimeout("tcp", u.Host, DialTimeout)
}

// OpenWebsocket connects to a websocket bridge.
func OpenWebsocket(u *url.URL) (io.ReadWriteCloser, error) {
	origin := "http://" + u.Host
	if u.Scheme == "wss" {
		origin = "https://" + u.Host
	}
	conn, err := websocket.Dial(u.String(), "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// OpenSim creates an emulated module, optionally emitting a demo
// telegram at the interval given by the telegrams parameter.
func OpenSim(u *url.URL) (io.ReadWriteCloser, error) {
	m := sim.New()
	if val := u.Query().Get("telegrams"); val != "" {
		interval, err := time.ParseDuration(val)
		if err != nil || interval <= 0 {
			return nil, fmt.Errorf("invalid telegram interval: %q", val)
		}
		go generate(m, interval)
	}
	return m, nil
}

// demoTelegram is a T-mode telegram with RSSI, L, C and address.
var demoTelegram = []byte{0xc4, 0x2e, 0x44, 0x2d, 0x2c, 0x78, 0x56, 0x34, 0x12, 0x01, 0x07, 0x7a, 0x01, 0x00}

func generate(m *sim.Module, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := m.EmitTelegram(0x8007, demoTelegram); err != nil {
			return
		}
	}
}
