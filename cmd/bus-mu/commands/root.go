// Package commands implements the bus-mu CLI's subcommands.
package commands

import (
	"os"

	"github.com/btcsuite/btclog/v2"
	"github.com/spf13/cobra"

	"github.com/phire/bus-mu-sub000/internal/baselib/actor"
	"github.com/phire/bus-mu-sub000/internal/build"
	"github.com/phire/bus-mu-sub000/internal/n64"
)

var (
	// pifImage is the path to a 512-word, big-endian PIF boot image.
	pifImage string

	// traceDB, if non-empty, records every dispatched message to this
	// sqlite database via internal/trace.
	traceDB string

	// maxCycles bounds how many messages run/trace will dispatch before
	// stopping, zero meaning "until the engine exits or goes idle".
	maxCycles int

	// logDir, if non-empty, enables a rotating log file alongside the
	// console, matching the daemon's own dual-stream logging setup.
	logDir string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "bus-mu",
	Short: "bus-mu N64 core: discrete-event actor scheduler and CPU pipeline",
	Long: `bus-mu drives the N64 actor/message-passing core - CPU, bus
arbitration, PIF boot handshake, and RCP peripheral stubs - standalone,
outside of any host emulator shell.`,
}

// Execute runs the CLI, wiring up logging first.
func Execute() error {
	cobra.OnInitialize(setupLogging)
	return rootCmd.Execute()
}

// setupLogging wires a console btclog handler, plus a rotating file handler
// when --log-dir is set, into both the actor scheduler and the n64 domain's
// package-level loggers - the same dual-stream shape the teacher's daemon
// sets up for its own subsystems.
func setupLogging() {
	var handlers []btclog.Handler
	handlers = append(handlers, btclog.NewDefaultHandler(os.Stderr))

	if logDir != "" {
		rotator := build.NewRotatingLogWriter()
		if err := rotator.InitLogRotator(&build.LogRotatorConfig{
			LogDir:         logDir,
			MaxLogFiles:    build.DefaultMaxLogFiles,
			MaxLogFileSize: build.DefaultMaxLogFileSize,
		}); err == nil {
			handlers = append(handlers, btclog.NewDefaultHandler(rotator))
		}
	}

	combined := build.NewHandlerSet(handlers...)
	logger := btclog.NewSLogger(combined)

	actor.UseLogger(logger)
	n64.UseLogger(logger)
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&pifImage, "pif-image", "",
		"Path to a 512-word big-endian PIF boot image",
	)
	rootCmd.PersistentFlags().StringVar(
		&traceDB, "trace-db", "",
		"Path to a sqlite database to record dispatch events into (default: disabled)",
	)
	rootCmd.PersistentFlags().IntVar(
		&maxCycles, "max-steps", 0,
		"Stop after this many dispatched messages (0 means unbounded)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "log-dir", "",
		"Directory for a rotating log file (default: console only)",
	)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
}
