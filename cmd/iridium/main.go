package main

import (
	"os"

	"github.com/shine15/iridium-engine/cmd/iridium/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
