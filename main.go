package main

import (
	"os"

	"github.com/ag0os/orchestra/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
