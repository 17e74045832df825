package main

import (
	"os"

	"github.com/skinmatch/backend/internal/delivery/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
