package main

import (
	"os"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
