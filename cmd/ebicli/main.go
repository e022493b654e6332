package main

import (
	"github.com/robotalks/wmbus.go/pkg/cli/sh"
	"github.com/robotalks/wmbus.go/pkg/env"

	_ "github.com/robotalks/wmbus.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
