package main

import (
	"os"

	"github.com/pdxmph/scheduler-tui/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
