// Package sh provides the interactive shell talking to a module.
package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wmbus.go/pkg/ebi/comm"
	"github.com/robotalks/wmbus.go/pkg/ebi/device"
	"github.com/robotalks/wmbus.go/pkg/ebi/link"
	"github.com/robotalks/wmbus.go/pkg/env"
	"github.com/robotalks/wmbus.go/pkg/wmbus/msgs"
	"github.com/robotalks/wmbus.go/pkg/wmbus/telegram"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is an opened link with the client running.
type Conn struct {
	Env    *env.Env
	Cancel func()

	done chan error
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&RawCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "output-json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// DeviceFrom gets the Device of the opened link.
func DeviceFrom(c *ishell.Context) *device.Device {
	return ShellFrom(c).Conn.Env.Device
}

// MustBeOpened wraps command func requires an opened link.
func MustBeOpened(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("link not opened"))
			return
		}
		fn(c)
	}
}

// Print prints a result in JSON or plain format.
func Print(c *ishell.Context, v interface{}) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	switch val := v.(type) {
	case nil:
		c.Println("OK")
	case []byte:
		c.Println(hex.EncodeToString(val))
	default:
		c.Printf("%v\n", val)
	}
}

// Check prints err or OK.
func Check(c *ishell.Context, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	Print(c, nil)
}

// ParseHex parses hex bytes, separated by spaces or not.
func ParseHex(args ...string) ([]byte, error) {
	return hex.DecodeString(strings.Join(args, ""))
}

// ParseByte parses a byte in decimal or 0x notation.
func ParseByte(s string) (byte, error) {
	val, err := strconv.ParseUint(s, 0, 8)
	return byte(val), err
}

// Open opens the link by URL and starts the client.
func (s *Shell) Open(linkURL string) error {
	conf := *s.Config
	conf.LinkURL = linkURL
	e, err := conf.NewEnv()
	if err != nil {
		return err
	}
	e.Client.Notifier = comm.HandleNotificationFunc(s.printTelegram)
	ctx, cancel := context.WithCancel(context.Background())
	conn := &Conn{Env: e, Cancel: cancel, done: make(chan error, 1)}
	go func() { conn.done <- e.Client.Run(ctx) }()
	s.Close()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", linkURL))
	return nil
}

// Close closes current link.
func (s *Shell) Close() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn.Env.Link.Close()
		<-s.Conn.done
		s.Conn = nil
		s.Shell.SetPrompt(unopenedPrompt)
	}
}

func (s *Shell) printTelegram(_ context.Context, frame *comm.Frame) {
	t, err := telegram.DecodeNotification(frame.Payload)
	if err != nil {
		s.Shell.Printf("invalid telegram %x: %v\n", frame.Payload, err)
		return
	}
	if s.OutputJSON {
		out, _ := json.Marshal(msgs.FromEvent(&telegram.Event{Telegram: t}))
		s.Shell.Println(string(out))
		return
	}
	s.Shell.Printf("telegram %s\n", t)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.LinkURL != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.LinkURL)
		}
		if err := s.Open(s.Config.LinkURL); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.LinkURL, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				Print(c, ports)
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a link.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			linkURL := s.Config.LinkURL
			if len(c.Args) > 0 {
				linkURL = c.Args[0]
			}
			Check(c, s.Open(linkURL))
		},
	}

	// CloseCmd closes current link.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// RawCmd sends a command with raw payload.
	RawCmd = ishell.Cmd{
		Name: "raw",
		Help: "ID [PAYLOAD-HEX]",
		Func: MustBeOpened(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ID required"))
				return
			}
			id, err := ParseByte(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("Invalid ID: %v", err))
				return
			}
			payload, err := ParseHex(c.Args[1:]...)
			if err != nil {
				c.Err(fmt.Errorf("Invalid PAYLOAD: %v", err))
				return
			}
			res := DeviceFrom(c).Do(context.Background(), id, payload)
			if err := res.Error(); err != nil {
				c.Err(err)
				return
			}
			c.Printf("0x%02x %s %x\n", res.ID, res.Status, res.Payload)
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoOpen(true).Run(flag.Args()...)
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}
