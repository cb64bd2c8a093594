package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkItemRepository handles work item database operations
type WorkItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkItemRepository creates a new work item repository
func NewWorkItemRepository(db *sql.DB, logger *zap.Logger) *WorkItemRepository {
	return &WorkItemRepository{
		db:     db,
		logger: logger,
	}
}

const workItemColumns = `
	id, category, source_channel, priority, confirmation, title, site,
	description, notes, requires_material, material_status,
	material_description, quoted_price, confirmed_price, po_number,
	documents, created_by, created_by_name, created_by_email,
	created_at, updated_at, started_at, completed_at
`

// Create inserts a new work item, assigning its id and timestamps
func (r *WorkItemRepository) Create(tx *sql.Tx, item *models.WorkItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if item.Documents == nil {
		item.Documents = []string{}
	}

	documents, err := json.Marshal(item.Documents)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	query := `
		INSERT INTO work_items (` + workItemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		item.ID,
		item.Category,
		item.SourceChannel,
		item.Priority,
		item.Confirmation,
		item.Title,
		item.Site,
		item.Description,
		item.Notes,
		item.RequiresMaterial,
		item.MaterialStatus,
		item.MaterialDescription,
		item.QuotedPrice,
		item.ConfirmedPrice,
		item.PONumber,
		string(documents),
		item.CreatedBy,
		item.CreatedByName,
		item.CreatedByEmail,
		item.CreatedAt,
		item.UpdatedAt,
		item.StartedAt,
		item.CompletedAt,
	}

	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to create work item", zap.Error(err))
		return fmt.Errorf("failed to create work item: %w", err)
	}

	return nil
}

// GetByID retrieves a work item by ID. Returns (nil, nil) when absent.
func (r *WorkItemRepository) GetByID(id string) (*models.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = ?`

	item, err := scanWorkItem(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get work item by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}

	return item, nil
}

// Update replaces a work item's mutable fields, preserving its identity and
// creation audit columns
func (r *WorkItemRepository) Update(tx *sql.Tx, item *models.WorkItem) error {
	item.UpdatedAt = time.Now().UTC()
	if item.Documents == nil {
		item.Documents = []string{}
	}

	documents, err := json.Marshal(item.Documents)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	query := `
		UPDATE work_items SET
			category = ?, source_channel = ?, priority = ?, confirmation = ?,
			title = ?, site = ?, description = ?, notes = ?,
			requires_material = ?, material_status = ?, material_description = ?,
			quoted_price = ?, confirmed_price = ?, po_number = ?, documents = ?,
			updated_at = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`

	args := []interface{}{
		item.Category,
		item.SourceChannel,
		item.Priority,
		item.Confirmation,
		item.Title,
		item.Site,
		item.Description,
		item.Notes,
		item.RequiresMaterial,
		item.MaterialStatus,
		item.MaterialDescription,
		item.QuotedPrice,
		item.ConfirmedPrice,
		item.PONumber,
		string(documents),
		item.UpdatedAt,
		item.StartedAt,
		item.CompletedAt,
		item.ID,
	}

	var result sql.Result
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to update work item", zap.String("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update work item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes a work item
func (r *WorkItemRepository) Delete(tx *sql.Tx, id string) error {
	query := `DELETE FROM work_items WHERE id = ?`

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, id)
	} else {
		result, err = r.db.Exec(query, id)
	}

	if err != nil {
		r.logger.Error("Failed to delete work item", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete work item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// List retrieves work items with pagination, newest first
func (r *WorkItemRepository) List(limit, offset int) ([]*models.WorkItem, error) {
	query := `
		SELECT ` + workItemColumns + `
		FROM work_items
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list work items", zap.Error(err))
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	var items []*models.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// ListAll retrieves the full collection newest first. The report engine
// filters and sorts the snapshot in memory.
func (r *WorkItemRepository) ListAll() ([]models.WorkItem, error) {
	query := `
		SELECT ` + workItemColumns + `
		FROM work_items
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list work items", zap.Error(err))
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	items := []models.WorkItem{}
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// Count returns the number of stored work items
func (r *WorkItemRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM work_items`).Scan(&count); err != nil {
		r.logger.Error("Failed to count work items", zap.Error(err))
		return 0, fmt.Errorf("failed to count work items: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanWorkItem reads one work item row. Shared between the single-row and
// list queries; sql.ErrNoRows passes through untouched.
func scanWorkItem(s rowScanner) (*models.WorkItem, error) {
	var item models.WorkItem
	var quotedPrice, confirmedPrice sql.NullFloat64
	var startedAt, completedAt sql.NullTime
	var documents string

	err := s.Scan(
		&item.ID,
		&item.Category,
		&item.SourceChannel,
		&item.Priority,
		&item.Confirmation,
		&item.Title,
		&item.Site,
		&item.Description,
		&item.Notes,
		&item.RequiresMaterial,
		&item.MaterialStatus,
		&item.MaterialDescription,
		&quotedPrice,
		&confirmedPrice,
		&item.PONumber,
		&documents,
		&item.CreatedBy,
		&item.CreatedByName,
		&item.CreatedByEmail,
		&item.CreatedAt,
		&item.UpdatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if quotedPrice.Valid {
		item.QuotedPrice = &quotedPrice.Float64
	}
	if confirmedPrice.Valid {
		item.ConfirmedPrice = &confirmedPrice.Float64
	}
	if startedAt.Valid {
		t := startedAt.Time
		item.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		item.CompletedAt = &t
	}

	item.Documents = []string{}
	if documents != "" && documents != "null" {
		if err := json.Unmarshal([]byte(documents), &item.Documents); err != nil {
			return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
		}
	}
	if item.Documents == nil {
		item.Documents = []string{}
	}

	return &item, nil
}
