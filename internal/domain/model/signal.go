// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// SignalRecord is one observed concern event for a scholar, as fetched by the
// data access layer. Values are treated as immutable once constructed.
type SignalRecord struct {
	ScholarID    uuid.UUID // unique person id
	ScholarName  string    // display name
	ScholarEmail string    // contact identifier, unique per scholar
	Cohort       string    // cohort label, e.g. "2026"
	SignalType   string    // free-form category, e.g. "attendance"
	Severity     int       // concern magnitude
	OccurredAt   time.Time // calendar date at midnight UTC
	Note         string    // free text
}

// ScholarScore is the aggregated risk for one scholar.
type ScholarScore struct {
	ScholarName  string
	ScholarEmail string
	Cohort       string
	Score        float64
	SignalCount  int
}

// SignalTypeSummary aggregates signals sharing a category label.
type SignalTypeSummary struct {
	SignalType  string
	Count       int
	AvgSeverity float64
}

// SignalTrend is one week of externally aggregated signal statistics.
type SignalTrend struct {
	WeekStart    time.Time
	SignalCount  int
	AvgSeverity  float64
	ScholarCount int
}

// Scholar is a tracked cohort member as stored by the repository.
type Scholar struct {
	ID       uuid.UUID
	FullName string
	Email    string
	Cohort   string
}
