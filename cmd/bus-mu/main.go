// Command bus-mu drives the N64 discrete-event actor core standalone.
package main

import (
	"fmt"
	"os"

	"github.com/phire/bus-mu-sub000/cmd/bus-mu/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
