package main

import (
	"os"

	"SectorPulse/cmd/sectorctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
