package main

import (
	"os"

	"github.com/dshills/archcheck/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
