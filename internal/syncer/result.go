package syncer

import (
	"fmt"
	"time"
)

// Action is the write a sync decided on.
type Action string

const (
	// ActionCreate means no record existed and one was created.
	ActionCreate Action = "create"
	// ActionUpdate means the record pointed at a stale address.
	ActionUpdate Action = "update"
	// ActionNone means the record already matched the public address.
	ActionNone Action = "none"
)

// Result describes the outcome of one sync.
type Result struct {
	Provider   string
	Domain     string
	Host       string
	IP         string // discovered public address
	PreviousIP string // address of the existing record, empty if none
	Action     Action
	DryRun     bool // Action was decided but not written
	StartedAt  time.Time
	Duration   time.Duration
}

// Changed reports whether the sync wrote (or in dry-run would write) a record.
func (r *Result) Changed() bool {
	return r.Action == ActionCreate || r.Action == ActionUpdate
}

// String returns a human-readable summary.
func (r *Result) String() string {
	name := r.Host + "." + r.Domain
	prefix := ""
	if r.DryRun && r.Changed() {
		prefix = "[dry-run] "
	}

	switch r.Action {
	case ActionCreate:
		return fmt.Sprintf("%screated %s -> %s (%s)", prefix, name, r.IP, r.Provider)
	case ActionUpdate:
		return fmt.Sprintf("%supdated %s %s -> %s (%s)", prefix, name, r.PreviousIP, r.IP, r.Provider)
	default:
		return fmt.Sprintf("%s already points at %s (%s)", name, r.IP, r.Provider)
	}
}
