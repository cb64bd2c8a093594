package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category classifies a work item as a project or a job.
type Category string

// SourceChannel records how the work request reached the business.
type SourceChannel string

// Priority is the scheduling priority of a work item.
type Priority string

// Status is the derived lifecycle state of a work item. It is never stored;
// it is computed from the initiation and completion timestamps.
type Status string

// Confirmation tracks customer sign-off, independent of lifecycle status.
type Confirmation string

// MaterialStatus tracks ordered material for items that require it.
// The empty string means no material status is set.
type MaterialStatus string

// Category constants
const (
	CategoryProject Category = "project"
	CategoryJob     Category = "job"
)

// SourceChannel constants
const (
	SourceCall     SourceChannel = "call"
	SourceText     SourceChannel = "text"
	SourceEmail    SourceChannel = "email"
	SourceInPerson SourceChannel = "in-person"
)

// Priority constants
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Status constants
const (
	StatusNotInitiated Status = "not-initiated"
	StatusInProgress   Status = "in-progress"
	StatusCompleted    Status = "completed"
)

// Confirmation constants
const (
	ConfirmationAwaiting  Confirmation = "awaiting"
	ConfirmationConfirmed Confirmation = "confirmed"
)

// MaterialStatus constants
const (
	MaterialOrdered     MaterialStatus = "ordered"
	MaterialNotShipped  MaterialStatus = "yet-to-be-shipped"
	MaterialInTransit   MaterialStatus = "in-transit"
	MaterialReceived    MaterialStatus = "received"
	MaterialStatusUnset MaterialStatus = ""
)

// WorkItem is a project or job record managed by the dashboard.
type WorkItem struct {
	ID            string        `json:"id"`
	Category      Category      `json:"category"`
	SourceChannel SourceChannel `json:"source_channel"`
	Priority      Priority      `json:"priority"`
	Confirmation  Confirmation  `json:"confirmation"`

	Title       string `json:"title"`
	Site        string `json:"site"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"` // points of contact

	RequiresMaterial    bool           `json:"requires_material"`
	MaterialStatus      MaterialStatus `json:"material_status,omitempty"`
	MaterialDescription string         `json:"material_description,omitempty"`

	QuotedPrice    *float64 `json:"quoted_price,omitempty"`
	ConfirmedPrice *float64 `json:"confirmed_price,omitempty"`
	PONumber       string   `json:"po_number,omitempty"`

	// Documents holds storage URLs of uploaded attachments, in upload order.
	Documents []string `json:"documents"`

	CreatedBy      string     `json:"created_by"`
	CreatedByName  string     `json:"created_by_name"`
	CreatedByEmail string     `json:"created_by_email"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Status derives the lifecycle state from the two optional timestamps.
// Completed wins over in-progress; an item with neither date is not initiated.
func (w *WorkItem) Status() Status {
	switch {
	case w.CompletedAt != nil:
		return StatusCompleted
	case w.StartedAt != nil:
		return StatusInProgress
	default:
		return StatusNotInitiated
	}
}

// MarshalJSON emits the derived status alongside the stored fields. There is
// no matching unmarshal: a status sent by a client has nowhere to land.
func (w WorkItem) MarshalJSON() ([]byte, error) {
	type alias WorkItem
	return json.Marshal(struct {
		alias
		Status Status `json:"status"`
	}{alias(w), w.Status()})
}

// EffectivePrice returns the confirmed price if present, otherwise the quoted
// price, otherwise zero.
func (w *WorkItem) EffectivePrice() float64 {
	if w.ConfirmedPrice != nil {
		return *w.ConfirmedPrice
	}
	if w.QuotedPrice != nil {
		return *w.QuotedPrice
	}
	return 0
}

// HasPrice reports whether either a quoted or a confirmed price is set.
func (w *WorkItem) HasPrice() bool {
	return w.QuotedPrice != nil || w.ConfirmedPrice != nil
}

// CompletionDays returns the whole-day duration between initiation and
// completion. The second return is false when either timestamp is missing.
func (w *WorkItem) CompletionDays() (float64, bool) {
	if w.StartedAt == nil || w.CompletedAt == nil {
		return 0, false
	}
	return w.CompletedAt.Sub(*w.StartedAt).Hours() / 24, true
}

// PriorityRank maps a priority to its sort rank (urgent highest).
// Unknown priorities rank below low.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryProject || c == CategoryJob
}

// Valid reports whether s is a known source channel.
func (s SourceChannel) Valid() bool {
	switch s {
	case SourceCall, SourceText, SourceEmail, SourceInPerson:
		return true
	}
	return false
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Valid reports whether c is a known confirmation state.
func (c Confirmation) Valid() bool {
	return c == ConfirmationAwaiting || c == ConfirmationConfirmed
}

// Valid reports whether m is a known material status. The unset value is not
// valid here; callers decide separately whether unset is allowed.
func (m MaterialStatus) Valid() bool {
	switch m {
	case MaterialOrdered, MaterialNotShipped, MaterialInTransit, MaterialReceived:
		return true
	}
	return false
}

// Normalize trims free-text fields and clears state that must not persist:
// material fields when the item tracks no material, and an empty purchase
// order number.
func (w *WorkItem) Normalize() {
	w.Title = strings.TrimSpace(w.Title)
	w.Site = strings.TrimSpace(w.Site)
	w.PONumber = strings.TrimSpace(w.PONumber)
	if !w.RequiresMaterial {
		w.MaterialStatus = MaterialStatusUnset
		w.MaterialDescription = ""
	}
	if w.Documents == nil {
		w.Documents = []string{}
	}
}

// Validate checks the record invariants against the given reference time.
// All failures wrap ErrValidation.
func (w *WorkItem) Validate(now time.Time) error {
	if w.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if w.Site == "" {
		return fmt.Errorf("%w: site is required", ErrValidation)
	}
	if !w.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, w.Category)
	}
	if !w.SourceChannel.Valid() {
		return fmt.Errorf("%w: unknown source channel %q", ErrValidation, w.SourceChannel)
	}
	if !w.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, w.Priority)
	}
	if !w.Confirmation.Valid() {
		return fmt.Errorf("%w: unknown confirmation state %q", ErrValidation, w.Confirmation)
	}

	if w.RequiresMaterial {
		if w.MaterialStatus == MaterialStatusUnset {
			return fmt.Errorf("%w: material status is required when material is tracked", ErrValidation)
		}
		if !w.MaterialStatus.Valid() {
			return fmt.Errorf("%w: unknown material status %q", ErrValidation, w.MaterialStatus)
		}
	} else if w.MaterialStatus != MaterialStatusUnset || w.MaterialDescription != "" {
		return fmt.Errorf("%w: material fields must be cleared when no material is tracked", ErrValidation)
	}

	if w.QuotedPrice != nil && *w.QuotedPrice < 0 {
		return fmt.Errorf("%w: quoted price must not be negative", ErrValidation)
	}
	if w.ConfirmedPrice != nil && *w.ConfirmedPrice < 0 {
		return fmt.Errorf("%w: confirmed price must not be negative", ErrValidation)
	}
	if w.PONumber != "" && w.Confirmation != ConfirmationConfirmed {
		return fmt.Errorf("%w: purchase order number requires confirmed work", ErrValidation)
	}

	if w.CompletedAt != nil && w.StartedAt == nil {
		return fmt.Errorf("%w: completion date requires an initiation date", ErrValidation)
	}
	if w.CompletedAt != nil && w.StartedAt != nil && w.CompletedAt.Before(*w.StartedAt) {
		return fmt.Errorf("%w: completion date must not precede the initiation date", ErrValidation)
	}
	if w.StartedAt != nil && w.StartedAt.After(now) {
		return fmt.Errorf("%w: initiation date must not be in the future", ErrValidation)
	}
	if w.CompletedAt != nil && w.CompletedAt.After(now) {
		return fmt.Errorf("%w: completion date must not be in the future", ErrValidation)
	}

	return nil
}

// AllStatuses lists the derived lifecycle states in display order.
func AllStatuses() []Status {
	return []Status{StatusNotInitiated, StatusInProgress, StatusCompleted}
}

// AllCategories lists the categories in display order.
func AllCategories() []Category {
	return []Category{CategoryProject, CategoryJob}
}

// AllPriorities lists the priorities from most to least urgent.
func AllPriorities() []Priority {
	return []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}
}

// AllConfirmations lists the confirmation states in display order.
func AllConfirmations() []Confirmation {
	return []Confirmation{ConfirmationAwaiting, ConfirmationConfirmed}
}
