package domain

import (
	"strconv"
	"time"
)

// Dialog is one conversation in the account's dialog list. AccessHash is
// only meaningful for supergroups and broadcast channels.
type Dialog struct {
	Kind       DialogKind
	ID         int64
	AccessHash int64
	Title      string
}

// Group reports whether the dialog is a group the reaper may clean up.
func (d Dialog) Group() bool {
	return d.Kind == DialogKindBasic || d.Kind == DialogKindSupergroup
}

// ChatID is the Bot API style identifier of the dialog.
func (d Dialog) ChatID() string {
	id := strconv.FormatInt(d.ID, 10)
	switch d.Kind {
	case DialogKindBasic:
		return "-" + id
	case DialogKindSupergroup, DialogKindBroadcast:
		return "-100" + id
	default:
		return id
	}
}

// Message is the subset of a message the reaper inspects.
type Message struct {
	ID       int
	Date     time.Time
	Outgoing bool
	Service  bool
	HasText  bool
	HasMedia bool
}

// Deletable excludes service entries (joins, pins, title changes) and
// anything with neither text nor media.
func (m Message) Deletable() bool {
	return !m.Service && (m.HasText || m.HasMedia)
}

// GroupResult is the outcome for one group.
type GroupResult struct {
	ChatID  string `json:"chat_id"`
	Title   string `json:"title"`
	Recent  int    `json:"recent"`
	Search  int    `json:"search"`
	Expired int    `json:"expired"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`

	FailedBatches int `json:"failed_batches"`
}

// Report summarizes one reaper run.
type Report struct {
	RunID         string        `json:"run_id"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Cutoff        time.Time     `json:"cutoff"`
	Groups        []GroupResult `json:"groups"`
	Deleted       int           `json:"deleted"`
	Failed        int           `json:"failed"`
	FailedBatches int           `json:"failed_batches"`
}
