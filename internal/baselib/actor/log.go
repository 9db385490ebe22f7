package actor

import "github.com/btcsuite/btclog"

// log is the package-level logger for the actor framework. It defaults to
// the no-op logger so packages that never call UseLogger still link and
// run silently.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the package-wide logger used by the actor framework.
// Callers typically wire this up once at process startup, after building
// a btclog.Logger from the application's handler chain.
func UseLogger(logger btclog.Logger) {
	log = logger
}
