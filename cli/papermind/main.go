package main

import (
	"os"

	papermindcmder "github.com/papercomputeco/papermind/cmd/papermind"
)

func main() {
	cmd := papermindcmder.NewPapermindCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
