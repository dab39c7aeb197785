package ingest

import (
	"time"

	"trade-ledger-backend/internal/notification"
)

// DockingContext is the station the ship was last seen docked at.
type DockingContext struct {
	StationName   string
	StarSystem    string
	SystemAddress int64
	MarketID      int64
	DockedAt      time.Time
}

// CargoSnapshot is the last observed total of units in the hold.
type CargoSnapshot struct {
	Total int
}

// RunState is the context carried from event to event and from file to file
// within one run. Both fields are replaced, never mutated in place, so a copy
// taken before a file can be restored if that file's commit fails.
type RunState struct {
	Docking *DockingContext
	Cargo   *CargoSnapshot
}

// Tally counts what one file's events did to the ledger.
type Tally struct {
	Events        int
	Inserted      int
	Sold          int
	Delivered     int
	BulkDelivered int
	Notices       []notification.Notice
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID          string    `json:"runId"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	FilesSeen      int       `json:"filesSeen"`
	FilesSkipped   int       `json:"filesSkipped"`
	FilesProcessed int       `json:"filesProcessed"`
	FilesFailed    int       `json:"filesFailed"`
	Events         int       `json:"events"`
	Inserted       int       `json:"inserted"`
	Sold           int       `json:"sold"`
	Delivered      int       `json:"delivered"`
	BulkDelivered  int       `json:"bulkDelivered"`
}

func (s *Summary) add(t Tally) {
	s.Events += t.Events
	s.Inserted += t.Inserted
	s.Sold += t.Sold
	s.Delivered += t.Delivered
	s.BulkDelivered += t.BulkDelivered
}
