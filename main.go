package main

import (
	"os"

	"github.com/mmbarrys/navigara/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
