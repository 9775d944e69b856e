package main

import (
	"github.com/panelglot/panelglot/cmd/panelglot/cmd"
)

func main() {
	cmd.Execute()
}
