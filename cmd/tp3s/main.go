package main

import (
	"os"

	"github.com/example/tp3s/cmd/tp3s/internal/cli"
	"github.com/example/tp3s/cmd/tp3s/internal/ui"
)

func main() {
	if err := cli.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
