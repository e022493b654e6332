// Package env provides the common configuration of receiver binaries.
package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/denisbrodbeck/machineid"

	"github.com/robotalks/wmbus.go/pkg/ebi/comm"
	"github.com/robotalks/wmbus.go/pkg/ebi/device"
	"github.com/robotalks/wmbus.go/pkg/ebi/link"
)

// Config provides common options to setup a receiver.
type Config struct {
	// LinkURL specifies the link to the module, see package link.
	LinkURL string
	// Mode is the wireless M-Bus receive mode.
	Mode string
	// MQTTURL specifies the broker to publish telegrams,
	// e.g. mqtt://host:port/topic-prefix/
	MQTTURL string
	// JSON publishes telegrams as JSON instead of protobuf.
	JSON bool
	// DBPath is the sqlite telegram archive, disabled if empty.
	DBPath string
	// ReceiverID identifies this receiver in published topics.
	ReceiverID string
	Timeout    time.Duration
	Retries    int
}

// AppID salts the hashed machine id.
const AppID = "wmbus.go"

var defaultConfig = Config{
	LinkURL: "serial:///dev/ttyUSB0?baud=9600",
	Mode:    string(device.ModeT),
	Timeout: comm.DefaultTimeout,
	Retries: 1,
}

func init() {
	if val := os.Getenv("WMBUS_LINK"); val != "" {
		defaultConfig.LinkURL = val
	}
	if val := os.Getenv("WMBUS_MODE"); val != "" {
		defaultConfig.Mode = val
	}
	if val := os.Getenv("WMBUS_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("WMBUS_DB"); val != "" {
		defaultConfig.DBPath = val
	}
	if val := os.Getenv("WMBUS_RECEIVER_ID"); val != "" {
		defaultConfig.ReceiverID = val
	}
	if val, err := strconv.Atoi(os.Getenv("WMBUS_RETRIES")); err == nil {
		defaultConfig.Retries = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Link URL of the module (serial, tcp, ws or sim).")
	flag.StringVar(&defaultConfig.Mode, "mode", defaultConfig.Mode, "Receive mode: T, S or C.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL to publish telegrams.")
	flag.BoolVar(&defaultConfig.JSON, "json", defaultConfig.JSON, "Publish telegrams as JSON.")
	flag.StringVar(&defaultConfig.DBPath, "db", defaultConfig.DBPath, "Path of sqlite telegram archive.")
	flag.StringVar(&defaultConfig.ReceiverID, "receiver-id", defaultConfig.ReceiverID, "Receiver ID, defaults to machine ID.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Command response timeout.")
	flag.IntVar(&defaultConfig.Retries, "retries", defaultConfig.Retries, "Attempts of a command without response.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// MachineID retrieves the ID identifying the machine, hashed with AppID.
func MachineID() (string, error) {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		return "", err
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id, nil
}

// Receiver returns ReceiverID or the machine ID if not specified.
func (c *Config) Receiver() (string, error) {
	if c.ReceiverID != "" {
		return c.ReceiverID, nil
	}
	id, err := MachineID()
	if err != nil {
		return "", fmt.Errorf("receiver id not specified: %w", err)
	}
	return id, nil
}

// ReceiveMode validates Mode.
func (c *Config) ReceiveMode() (device.Mode, error) {
	return device.ParseMode(c.Mode)
}

// OpenLink opens the link to the module.
func (c *Config) OpenLink() (io.ReadWriteCloser, error) {
	return link.Open(c.LinkURL)
}

// Env is the established environment.
type Env struct {
	Config *Config
	Link   io.ReadWriteCloser
	Client *comm.Client
	Device *device.Device
}

// NewEnv opens the link and creates the client and device.
func (c *Config) NewEnv() (*Env, error) {
	rw, err := c.OpenLink()
	if err != nil {
		return nil, err
	}
	client := comm.NewClient(comm.NewLink(rw))
	client.Timeout = c.Timeout
	dev := device.New(client)
	dev.Timeout = c.Timeout
	dev.Retry = device.Retry{Attempts: c.Retries, Backoff: 100 * time.Millisecond}
	return &Env{Config: c, Link: rw, Client: client, Device: dev}, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}
