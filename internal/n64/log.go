package n64

import "github.com/btcsuite/btclog"

// log is the package-level logger for the n64 domain: the bus, the CPU
// actor, and every peripheral stub. It defaults to the no-op logger.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger for the n64 domain.
func UseLogger(logger btclog.Logger) {
	log = logger
}
