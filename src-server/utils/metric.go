package utils

import "time"

type WorkflowOutcome struct {
	Op     string
	Result string
}

type Metric struct {
	DatabaseRead       chan float64
	DatabaseWrite      chan float64
	DiscordSendMessage chan float64
	WorkflowOutcome    chan WorkflowOutcome
}

func NewMetric() *Metric {
	return &Metric{
		DatabaseRead:       make(chan float64),
		DatabaseWrite:      make(chan float64),
		DiscordSendMessage: make(chan float64),
		WorkflowOutcome:    make(chan WorkflowOutcome, 16),
	}
}

// Non-blocking latency records so callers don't stall when the metric
// collectors aren't running (tests, shutdown).

func (m *Metric) RecordDatabaseRead(d time.Duration) {
	if m == nil {
		return
	}
	select {
	case m.DatabaseRead <- float64(d.Microseconds()):
	default:
	}
}

func (m *Metric) RecordDatabaseWrite(d time.Duration) {
	if m == nil {
		return
	}
	select {
	case m.DatabaseWrite <- float64(d.Microseconds()):
	default:
	}
}

func (m *Metric) RecordDiscordSendMessage(d time.Duration) {
	if m == nil {
		return
	}
	select {
	case m.DiscordSendMessage <- float64(d.Microseconds()):
	default:
	}
}

func (m *Metric) RecordWorkflowOutcome(op, result string) {
	if m == nil {
		return
	}
	select {
	case m.WorkflowOutcome <- WorkflowOutcome{Op: op, Result: result}:
	default:
	}
}
