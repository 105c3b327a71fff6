// Package datastore persists analysis runs and their labeled beats so a
// recording can be re-labeled later without repeating the preprocessing
// pass.
package datastore

import (
	"time"
)

// Run is one completed analysis of a record.
type Run struct {
	// ID is a UUID assigned at save time.
	ID string `gorm:"primaryKey"`
	// RecordID identifies the analyzed recording.
	RecordID string `gorm:"index"`
	// Detector is the QRS detector name used.
	Detector string
	// SampleRate is the analysis rate in Hz.
	SampleRate int
	// Stages lists the applied preprocessing stages, comma separated.
	Stages string
	// FilteredPath points at the cached filtered-signal artifact, empty
	// when artifact caching is disabled.
	FilteredPath string
	// BeatCount is the number of beats stored for this run.
	BeatCount int
	CreatedAt time.Time

	Beats []Beat `gorm:"foreignKey:RunID"`
}

// Beat is one labeled beat of a run.
type Beat struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index"`
	Location int
	Label    string `gorm:"size:1"`
}
