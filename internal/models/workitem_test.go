package models

import (
	"errors"
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(f float64) *float64 { return &f }

func TestWorkItemStatus(t *testing.T) {
	started := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	completed := time.Date(2025, 3, 5, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item WorkItem
		want Status
	}{
		{
			name: "no dates means not initiated",
			item: WorkItem{},
			want: StatusNotInitiated,
		},
		{
			name: "initiation date only means in progress",
			item: WorkItem{StartedAt: timePtr(started)},
			want: StatusInProgress,
		},
		{
			name: "completion date means completed",
			item: WorkItem{StartedAt: timePtr(started), CompletedAt: timePtr(completed)},
			want: StatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorkItemEffectivePrice(t *testing.T) {
	tests := []struct {
		name string
		item WorkItem
		want float64
	}{
		{
			name: "confirmed price wins over quoted",
			item: WorkItem{QuotedPrice: floatPtr(50), ConfirmedPrice: floatPtr(80)},
			want: 80,
		},
		{
			name: "quoted price used when no confirmed price",
			item: WorkItem{QuotedPrice: floatPtr(100)},
			want: 100,
		},
		{
			name: "no prices means zero",
			item: WorkItem{},
			want: 0,
		},
		{
			name: "confirmed zero still wins",
			item: WorkItem{QuotedPrice: floatPtr(100), ConfirmedPrice: floatPtr(0)},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.EffectivePrice(); got != tt.want {
				t.Errorf("EffectivePrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func validItem() WorkItem {
	return WorkItem{
		ID:            "wi-1",
		Category:      CategoryJob,
		SourceChannel: SourceCall,
		Priority:      PriorityMedium,
		Confirmation:  ConfirmationAwaiting,
		Title:         "Fence repair",
		Site:          "12 Oak Street",
	}
}

func TestWorkItemValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*WorkItem)
		wantErr bool
	}{
		{
			name:    "valid item passes",
			mutate:  func(w *WorkItem) {},
			wantErr: false,
		},
		{
			name:    "missing title",
			mutate:  func(w *WorkItem) { w.Title = "" },
			wantErr: true,
		},
		{
			name:    "missing site",
			mutate:  func(w *WorkItem) { w.Site = "" },
			wantErr: true,
		},
		{
			name:    "unknown category",
			mutate:  func(w *WorkItem) { w.Category = "errand" },
			wantErr: true,
		},
		{
			name:    "material required without status",
			mutate:  func(w *WorkItem) { w.RequiresMaterial = true },
			wantErr: true,
		},
		{
			name: "material status set without material flag",
			mutate: func(w *WorkItem) {
				w.RequiresMaterial = false
				w.MaterialStatus = MaterialOrdered
			},
			wantErr: true,
		},
		{
			name: "material tracked with status passes",
			mutate: func(w *WorkItem) {
				w.RequiresMaterial = true
				w.MaterialStatus = MaterialInTransit
				w.MaterialDescription = "30 fence posts"
			},
			wantErr: false,
		},
		{
			name:    "negative quoted price",
			mutate:  func(w *WorkItem) { w.QuotedPrice = floatPtr(-10) },
			wantErr: true,
		},
		{
			name: "po number without confirmation",
			mutate: func(w *WorkItem) {
				w.PONumber = "PO-1042"
			},
			wantErr: true,
		},
		{
			name: "po number with confirmation passes",
			mutate: func(w *WorkItem) {
				w.Confirmation = ConfirmationConfirmed
				w.PONumber = "PO-1042"
			},
			wantErr: false,
		},
		{
			name: "completion without initiation",
			mutate: func(w *WorkItem) {
				w.CompletedAt = timePtr(now.AddDate(0, 0, -1))
			},
			wantErr: true,
		},
		{
			name: "completion before initiation",
			mutate: func(w *WorkItem) {
				w.StartedAt = timePtr(now.AddDate(0, 0, -1))
				w.CompletedAt = timePtr(now.AddDate(0, 0, -2))
			},
			wantErr: true,
		},
		{
			name: "initiation in the future",
			mutate: func(w *WorkItem) {
				w.StartedAt = timePtr(now.AddDate(0, 0, 1))
			},
			wantErr: true,
		},
		{
			name: "completed item within bounds passes",
			mutate: func(w *WorkItem) {
				w.StartedAt = timePtr(now.AddDate(0, 0, -10))
				w.CompletedAt = timePtr(now.AddDate(0, 0, -2))
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(&item)
			err := item.Validate(now)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestWorkItemNormalize(t *testing.T) {
	item := validItem()
	item.Title = "  Fence repair  "
	item.PONumber = "   "
	item.RequiresMaterial = false
	item.MaterialStatus = MaterialOrdered
	item.MaterialDescription = "posts"

	item.Normalize()

	if item.Title != "Fence repair" {
		t.Errorf("Normalize() title = %q", item.Title)
	}
	if item.PONumber != "" {
		t.Errorf("Normalize() did not drop blank po number")
	}
	if item.MaterialStatus != MaterialStatusUnset || item.MaterialDescription != "" {
		t.Errorf("Normalize() did not clear material fields")
	}
	if item.Documents == nil {
		t.Errorf("Normalize() left documents nil")
	}
}

func TestCompletionDays(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)

	item := WorkItem{StartedAt: &start, CompletedAt: &end}
	days, ok := item.CompletionDays()
	if !ok || days != 10 {
		t.Errorf("CompletionDays() = %v, %v, want 10, true", days, ok)
	}

	open := WorkItem{StartedAt: &start}
	if _, ok := open.CompletionDays(); ok {
		t.Errorf("CompletionDays() on open item reported ok")
	}
}
