package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	roundsPlayed   atomic.Uint64
	wins           atomic.Uint64
	losses         atomic.Uint64
	ticksProcessed atomic.Uint64
	fetchFailures  atomic.Uint64

	// Gauges
	connectedClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordRound counts a settled round.
func (m *Metrics) RecordRound() {
	m.roundsPlayed.Add(1)
}

// RecordWin counts a won round.
func (m *Metrics) RecordWin() {
	m.wins.Add(1)
}

// RecordLoss counts a lost round.
func (m *Metrics) RecordLoss() {
	m.losses.Add(1)
}

// RecordTick counts one simulation step.
func (m *Metrics) RecordTick() {
	m.ticksProcessed.Add(1)
}

// RecordFetchFailure counts a degraded price lookup.
func (m *Metrics) RecordFetchFailure() {
	m.fetchFailures.Add(1)
}

// IncrementClients increments connected presentation clients by 1.
func (m *Metrics) IncrementClients() {
	m.connectedClients.Add(1)
}

// DecrementClients decrements connected presentation clients by 1.
func (m *Metrics) DecrementClients() {
	m.connectedClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	RoundsPlayed     uint64    `json:"rounds_played"`
	Wins             uint64    `json:"wins"`
	Losses           uint64    `json:"losses"`
	TicksProcessed   uint64    `json:"ticks_processed"`
	FetchFailures    uint64    `json:"fetch_failures"`
	ConnectedClients int32     `json:"connected_clients"`
	Timestamp        time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RoundsPlayed:     m.roundsPlayed.Load(),
		Wins:             m.wins.Load(),
		Losses:           m.losses.Load(),
		TicksProcessed:   m.ticksProcessed.Load(),
		FetchFailures:    m.fetchFailures.Load(),
		ConnectedClients: m.connectedClients.Load(),
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.roundsPlayed.Store(0)
	m.wins.Store(0)
	m.losses.Store(0)
	m.ticksProcessed.Store(0)
	m.fetchFailures.Store(0)
	m.connectedClients.Store(0)
}
