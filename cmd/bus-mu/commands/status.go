package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phire/bus-mu-sub000/internal/n64"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Build the core and report its initial wiring, without running it",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	storage, err := n64.NewStorage(n64.Config{PIFImagePath: pifImage})
	if err != nil {
		return fmt.Errorf("bus-mu: building core: %w", err)
	}

	fmt.Printf("RDRAM: %d bytes\n", n64.RDRAMBytes)
	fmt.Printf("PIF image loaded: %v\n", pifImage != "")
	fmt.Printf("PIF boot state: %v\n", storage.PIF.State())

	interrupts, _ := storage.CPU.Interrupts()
	fmt.Printf("Interrupts delivered so far: %d\n", interrupts)

	return nil
}
