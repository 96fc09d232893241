package app

import "github.com/kiranshivaraju/clarus/pkg/models"

// View is the screen the front-end is on.
type View string

const (
	ViewAuth      View = "auth"
	ViewDashboard View = "dashboard"
	ViewJob       View = "job"
)

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	View              View                       `json:"view"`
	Authenticated     bool                       `json:"authenticated"`
	Jobs              []models.Job               `json:"jobs"`
	CurrentJob        *models.Job                `json:"current_job"`
	JobError          string                     `json:"job_error,omitempty"`
	Subscription      *models.SubscriptionStatus `json:"subscription"`
	SubscriptionError string                     `json:"subscription_error,omitempty"`
	Error             string                     `json:"error,omitempty"`
	Polling           bool                       `json:"polling"`
}

// Observer is notified with a fresh snapshot after every state change.
// It runs without the controller lock held and may call Snapshot.
type Observer func(Snapshot)
