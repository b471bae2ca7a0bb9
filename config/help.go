package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
GoCar - ride hailing backend and client simulators.

Usage:
  gocar --mode=backend   Run the HTTP/WebSocket backend
  gocar --mode=rider     Run the rider simulator against a backend
  gocar --mode=driver    Run the driver simulator against a backend

Configuration is read from config.yaml and environment variables.
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
