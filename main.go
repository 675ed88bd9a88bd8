package main

import (
	"os"

	"github.com/abhisek/tunequiz/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
