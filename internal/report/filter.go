package report

import (
	"slices"
	"strings"

	"github.com/fieldline/workdesk/internal/models"
)

// Filter is a work-item filter configuration. Dimensions combine with
// logical AND; within a multi-select dimension membership is logical OR. An
// empty set leaves its dimension unconstrained.
type Filter struct {
	Statuses         []models.Status         `json:"statuses,omitempty"`
	Categories       []models.Category       `json:"categories,omitempty"`
	CreatorUIDs      []string                `json:"creator_uids,omitempty"`
	MaterialStatuses []models.MaterialStatus `json:"material_statuses,omitempty"`
	Priorities       []models.Priority       `json:"priorities,omitempty"`

	// Tri-state flags: nil means unconstrained.
	RequiresMaterial *bool `json:"requires_material,omitempty"`
	HasDocuments     *bool `json:"has_documents,omitempty"`
	HasPrice         *bool `json:"has_price,omitempty"`

	// Query is a case-insensitive substring match across title, description,
	// site, notes and material description. SearchCreator additionally
	// matches the creator's name and email; it is set only for privileged
	// callers.
	Query         string `json:"query,omitempty"`
	SearchCreator bool   `json:"-"`

	// Range constrains the creation timestamp, inclusive on both ends.
	Range *DateRange `json:"range,omitempty"`
}

// Apply returns the items satisfying every configured criterion. The input
// is never mutated; the result is a fresh slice and may be empty. An empty
// configuration returns a copy of the input.
func (f Filter) Apply(items []models.WorkItem) []models.WorkItem {
	out := make([]models.WorkItem, 0, len(items))
	for _, item := range items {
		if f.matches(&item) {
			out = append(out, item)
		}
	}
	return out
}

func (f Filter) matches(w *models.WorkItem) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, w.Status()) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, w.Category) {
		return false
	}
	if len(f.CreatorUIDs) > 0 && !slices.Contains(f.CreatorUIDs, w.CreatedBy) {
		return false
	}
	if len(f.MaterialStatuses) > 0 && !slices.Contains(f.MaterialStatuses, w.MaterialStatus) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, w.Priority) {
		return false
	}

	if f.RequiresMaterial != nil && w.RequiresMaterial != *f.RequiresMaterial {
		return false
	}
	if f.HasDocuments != nil && (len(w.Documents) > 0) != *f.HasDocuments {
		return false
	}
	if f.HasPrice != nil && w.HasPrice() != *f.HasPrice {
		return false
	}

	if f.Range != nil && !f.Range.Contains(w.CreatedAt) {
		return false
	}

	if q := strings.TrimSpace(f.Query); q != "" && !f.matchesQuery(w, q) {
		return false
	}

	return true
}

func (f Filter) matchesQuery(w *models.WorkItem, query string) bool {
	q := strings.ToLower(query)
	fields := []string{w.Title, w.Description, w.Site, w.Notes, w.MaterialDescription}
	if f.SearchCreator {
		fields = append(fields, w.CreatedByName, w.CreatedByEmail)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// SelectByID returns the items whose ids appear in the given list,
// preserving the input collection's order. Unknown ids are ignored.
func SelectByID(items []models.WorkItem, ids []string) []models.WorkItem {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]models.WorkItem, 0, len(ids))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}
