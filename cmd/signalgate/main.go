package main

import (
	"os"

	"github.com/mtarnawa/signalgate/cmd/signalgate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
