package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/wmbus.go/pkg/bus"
	"github.com/robotalks/wmbus.go/pkg/env"
	"github.com/robotalks/wmbus.go/pkg/framework"
	"github.com/robotalks/wmbus.go/pkg/sink/logsink"
	"github.com/robotalks/wmbus.go/pkg/sink/mqtt"
	"github.com/robotalks/wmbus.go/pkg/sink/store"
	"github.com/robotalks/wmbus.go/pkg/wmbus"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	mode, err := conf.ReceiveMode()
	if err != nil {
		log.Fatalln(err)
	}
	receiver, err := conf.Receiver()
	if err != nil {
		log.Fatalln(err)
	}

	b := bus.New(bus.DefaultCapacity)
	defer b.Close()
	runner := framework.NewRunner().HandleSignals()
	runner.Go(b.Attach("log", logsink.Sink{}))

	if conf.DBPath != "" {
		s, err := store.Open(runner.Context, conf.DBPath)
		if err != nil {
			log.Fatalln(err)
		}
		defer s.Close()
		runner.Go(b.Attach("store", s))
	}
	if conf.MQTTURL != "" {
		pub, err := mqtt.NewPublisher(conf.MQTTURL, receiver)
		if err != nil {
			log.Fatalln(err)
		}
		pub.JSON = conf.JSON
		runner.Go(framework.NamedRun("mqtt", pub), b.Attach("mqtt", pub))
	}

	e := conf.MustNewEnv()
	e.Client.Notifier = wmbus.NewReceiver(receiver, b)
	runner.Go(framework.NamedRun("link", framework.CloseOnCancel(e.Link, e.Client)))
	runner.Go(framework.NamedRun("init", framework.RunFunc(func(ctx context.Context) error {
		glog.Infof("receiver %s: bring up %s-mode on %s", receiver, mode, conf.LinkURL)
		if err := e.Device.Init(ctx, mode); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	})))

	if err := runner.Wait(); err != nil {
		glog.Errorf("stopped: %v", err)
		glog.Flush()
		log.Fatalln(err)
	}
}
