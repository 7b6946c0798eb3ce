package main

import (
	"os"

	"github.com/NeuralTrust/TrailTrigger/cmd/trailtrigger/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
