package main

import (
	"os"

	"github.com/edwardsmale/userscriptify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
