package main

import (
	"os"

	"lifeline/cmd/lifeline/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
