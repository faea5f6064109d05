package model

import "time"

// InstallRecord is the persisted journal entry of an install request.
type InstallRecord struct {
	ID          string
	Destination string
	State       StateKind
	Progress    int
	Reason      string
	Warnings    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
