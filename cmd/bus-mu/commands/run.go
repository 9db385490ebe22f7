package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phire/bus-mu-sub000/internal/n64"
	"github.com/phire/bus-mu-sub000/internal/trace"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the N64 core's scheduler until it exits, goes idle, or is interrupted",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	storage, err := n64.NewStorage(n64.Config{PIFImagePath: pifImage})
	if err != nil {
		return fmt.Errorf("bus-mu: building core: %w", err)
	}

	var rec *trace.Recorder
	if traceDB != "" {
		rec, err = trace.NewRecorder(traceDB, pifImage)
		if err != nil {
			return fmt.Errorf("bus-mu: opening trace database: %w", err)
		}
		defer rec.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := storage.Scheduler()

	steps := 0
	for {
		if maxCycles > 0 && steps >= maxCycles {
			fmt.Printf("bus-mu: stopped after %d steps (--max-steps)\n", steps)
			break
		}

		select {
		case <-ctx.Done():
			fmt.Println("bus-mu: interrupted")
			return nil
		default:
		}

		result, ok := sched.Step()
		if !ok {
			fmt.Println("bus-mu: scheduler went idle")
			break
		}
		steps++

		if rec != nil {
			id := sched.LastDispatched()
			if err := rec.RecordDispatch(sched.Committed(id), id, result); err != nil {
				return fmt.Errorf("bus-mu: recording trace event: %w", err)
			}
		}

		if result.IsExit() {
			fmt.Printf("bus-mu: exit after %d steps: %s\n", steps, result.Reason())
			break
		}
	}

	printSummary(storage, steps)
	return nil
}

func printSummary(s *n64.Storage, steps int) {
	interrupts, lastSource := s.CPU.Interrupts()
	fmt.Printf("bus-mu: %d steps dispatched\n", steps)
	fmt.Printf("bus-mu: %d interrupts delivered (last from %s)\n", interrupts, lastSource)
	fmt.Printf("bus-mu: PIF boot state: %v\n", s.PIF.State())
}
