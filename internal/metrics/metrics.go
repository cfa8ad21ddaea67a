// Package metrics records ledger, import and parser activity.
package metrics

import "time"

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitHalfOpen
	CircuitOpen
)

// Parse outcomes.
const (
	ParseOK          = "ok"
	ParseError       = "error"
	ParseCircuitOpen = "circuit_open"
)

type Recorder interface {
	RecordFlush(success bool, duration time.Duration)
	RecordMerge(source string, inserted, duplicates int, duration time.Duration)
	RecordImportFile(mode string, success bool)
	RecordParse(outcome string, duration time.Duration)
	RecordCacheLookup(hit bool)
	RecordCircuitState(name string, state CircuitState)
	RecordRequest(route string, status int, duration time.Duration)
}

type NoOp struct{}

func (NoOp) RecordFlush(bool, time.Duration)             {}
func (NoOp) RecordMerge(string, int, int, time.Duration) {}
func (NoOp) RecordImportFile(string, bool)               {}
func (NoOp) RecordParse(string, time.Duration)           {}
func (NoOp) RecordCacheLookup(bool)                      {}
func (NoOp) RecordCircuitState(string, CircuitState)     {}
func (NoOp) RecordRequest(string, int, time.Duration)    {}
