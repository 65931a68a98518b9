// Package store persists verification snapshots keyed by user. Every backend
// follows the same contract: Load returns sentinel.ErrNotFound for unknown
// users, Save is last write wins, and ListByStatus returns entries ordered by
// user ID.
package store

import (
	"slices"
	"strings"

	"realtyvest/internal/verification/models"
	id "realtyvest/pkg/domain"
)

// Entry pairs a user with their persisted record.
type Entry struct {
	UserID   id.UserID
	Snapshot models.Snapshot
}

func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.UserID.String(), b.UserID.String())
	})
}

func statusSet(statuses []models.Status) map[models.Status]bool {
	set := make(map[models.Status]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}
