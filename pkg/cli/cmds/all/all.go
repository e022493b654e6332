// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/wmbus.go/pkg/cli/cmds/module"
)
