package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/wmbus.go/pkg/mqtt"
	"github.com/robotalks/wmbus.go/pkg/wmbus/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/wmbus/"
	filter  = "+/telegram/#"
)

func init() {
	if val := os.Getenv("WMBUS_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&filter, "filter", filter, "Topic filter relative to the prefix.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub(filter, mqtt.Handler(func(topic string, payload []byte) {
		m, err := msgs.Decode(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, m.String())
	}))
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
