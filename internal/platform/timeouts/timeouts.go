// Package timeouts collects the durations drex uses at process and network
// boundaries.
package timeouts

import "time"

const (
	// GRPCDial bounds connecting to drexd and waiting for it to report
	// SERVING.
	GRPCDial = 2 * time.Second
	// GRPCRequest bounds one DiceService call made by a client.
	GRPCRequest = 2 * time.Second
	// Shutdown bounds graceful drain of in-flight calls before a hard stop.
	Shutdown = 5 * time.Second
)
