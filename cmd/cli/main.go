package main

import (
	"os"

	"github.com/techshop-dev/techshop/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
