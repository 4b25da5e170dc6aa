package main

import (
	"fmt"
	"os"

	"github.com/pders01/gamelib/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

func main() {
	if err := newRootCmd(&rootOptions{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.StatusErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
