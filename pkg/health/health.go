// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

// Package health tracks the observed availability of an upstream
// dependency. A Recorder counts failures and remembers when the last one
// happened; a success clears the unavailable flag but keeps the counters.
package health

import (
	"sync"
	"time"
)

// Metrics is a point-in-time view of one upstream's health.
type Metrics struct {
	Available     bool       `json:"available"`
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
}

// Recorder accumulates health observations. The zero value is ready to use
// and reports available. Safe for concurrent use.
type Recorder struct {
	mu            sync.Mutex
	failureCount  int64
	lastFailureAt time.Time
	failing       bool
}

// RecordFailure notes one failed upstream interaction.
func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failureCount++
	r.lastFailureAt = time.Now()
	r.failing = true
}

// RecordSuccess notes one successful upstream interaction.
func (r *Recorder) RecordSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = false
}

// Snapshot returns the current metrics.
func (r *Recorder) Snapshot() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := Metrics{
		Available:    !r.failing,
		FailureCount: r.failureCount,
	}
	if !r.lastFailureAt.IsZero() {
		at := r.lastFailureAt
		m.LastFailureAt = &at
	}
	return m
}
