package main

import (
	"os"

	"github.com/marmos91/dittosync/cmd/dittosync/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
