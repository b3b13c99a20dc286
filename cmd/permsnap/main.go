package main

import (
	"os"

	"github.com/ZanzyTHEbar/permsnap/cmd/permsnap/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
