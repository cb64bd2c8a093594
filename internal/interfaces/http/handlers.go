package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/fieldline/workdesk/internal/auth"
	"github.com/fieldline/workdesk/internal/models"
	"github.com/fieldline/workdesk/internal/report"
	"github.com/fieldline/workdesk/internal/repository"
	"github.com/fieldline/workdesk/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 25 << 20

// Handlers contains all HTTP request handlers
type Handlers struct {
	auth       *auth.Service
	workItems  *repository.WorkItemRepository
	generator  *report.Generator
	dispatcher *report.Dispatcher
	intake     *storage.Intake
	store      storage.ObjectStore
	logger     *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	authService *auth.Service,
	workItems *repository.WorkItemRepository,
	generator *report.Generator,
	dispatcher *report.Dispatcher,
	intake *storage.Intake,
	store storage.ObjectStore,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		auth:       authService,
		workItems:  workItems,
		generator:  generator,
		dispatcher: dispatcher,
		intake:     intake,
		store:      store,
		logger:     logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LoginRequest carries dashboard credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the opaque session token and its owner
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse represents an account in API responses
type UserResponse struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// ListWorkItemsResponse is one page of the filtered collection. Total counts
// the whole filtered set, not the page.
type ListWorkItemsResponse struct {
	Items []models.WorkItem `json:"items"`
	Total int               `json:"total"`
}

// UploadDocumentResponse returns the stored document and the updated item
type UploadDocumentResponse struct {
	Document storage.StoredDocument `json:"document"`
	Item     models.WorkItem        `json:"item"`
}

// ReportRequest carries generator options plus the delivery directive
type ReportRequest struct {
	report.Options
	Delivery  string `json:"delivery,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

// EmailDeliveryResponse reports a dispatched report email
type EmailDeliveryResponse struct {
	DeliveredTo string   `json:"delivered_to"`
	Artifacts   []string `json:"artifacts"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	session, user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, Response{Success: false, Error: err.Error()})
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "login failed"})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: LoginResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
			User: UserResponse{
				UID:   user.UID,
				Email: user.Email,
				Name:  user.Name,
				Role:  string(user.Role),
			},
		},
	})
}

// Logout handles POST /api/auth/logout. Unknown tokens succeed.
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(auth.BearerToken(c)); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "logout failed"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListWorkItems handles GET /api/workitems: filter, sort and paginate the
// collection in one pass.
func (h *Handlers) ListWorkItems(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		h.respondError(c, err, "failed to list work items")
		return
	}
	limit, offset := pagination(c)

	items, err := h.workItems.ListAll()
	if err != nil {
		h.respondError(c, err, "failed to list work items")
		return
	}

	data, err := h.generator.Build(items, report.Options{
		Filter: filter,
		Sort:   report.SortMode(c.Query("sort")),
	}, time.Now().UTC())
	if err != nil {
		h.respondError(c, err, "failed to list work items")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ListWorkItemsResponse{
			Items: paginate(data.Items, limit, offset),
			Total: len(data.Items),
		},
	})
}

// CreateWorkItem handles POST /api/workitems. Identity and audit fields are
// server-assigned; whatever the client sent for them is discarded.
func (h *Handlers) CreateWorkItem(c *gin.Context) {
	var item models.WorkItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	actor, ok := auth.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to resolve session"})
		return
	}

	now := time.Now().UTC()
	item.ID = ""
	item.CreatedBy = actor.UID
	item.CreatedByName = actor.Name
	item.CreatedByEmail = actor.Email
	item.CreatedAt = now
	item.UpdatedAt = now

	item.Normalize()
	if err := item.Validate(now); err != nil {
		h.respondError(c, err, "failed to create work item")
		return
	}

	if err := h.workItems.Create(nil, &item); err != nil {
		h.respondError(c, err, "failed to create work item")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: item})
}

// GetWorkItem handles GET /api/workitems/:id
func (h *Handlers) GetWorkItem(c *gin.Context) {
	item, err := h.workItems.GetByID(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to get work item")
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "work item not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: item})
}

// UpdateWorkItem handles PUT /api/workitems/:id: a full-record replace that
// preserves identity and audit fields from the stored record.
func (h *Handlers) UpdateWorkItem(c *gin.Context) {
	existing, err := h.workItems.GetByID(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to update work item")
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "work item not found"})
		return
	}

	var item models.WorkItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	item.ID = existing.ID
	item.CreatedBy = existing.CreatedBy
	item.CreatedByName = existing.CreatedByName
	item.CreatedByEmail = existing.CreatedByEmail
	item.CreatedAt = existing.CreatedAt

	item.Normalize()
	if err := item.Validate(time.Now().UTC()); err != nil {
		h.respondError(c, err, "failed to update work item")
		return
	}

	if err := h.workItems.Update(nil, &item); err != nil {
		h.respondError(c, err, "failed to update work item")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: item})
}

// DeleteWorkItem handles DELETE /api/workitems/:id. The record is removed
// first; stored documents are cleaned up best-effort afterwards.
func (h *Handlers) DeleteWorkItem(c *gin.Context) {
	id := c.Param("id")

	existing, err := h.workItems.GetByID(id)
	if err != nil {
		h.respondError(c, err, "failed to delete work item")
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "work item not found"})
		return
	}

	if err := h.workItems.Delete(nil, id); err != nil {
		h.respondError(c, err, "failed to delete work item")
		return
	}

	h.removeDocuments(existing.Documents)

	c.JSON(http.StatusOK, Response{Success: true})
}

// UploadDocument handles POST /api/workitems/:id/documents: multipart file
// through intake into storage, then the URL is appended to the item.
func (h *Handlers) UploadDocument(c *gin.Context) {
	existing, err := h.workItems.GetByID(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to upload document")
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "work item not found"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "multipart field \"file\" is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("file exceeds the %d MB upload limit", maxUploadBytes>>20),
		})
		return
	}

	reader, err := file.Open()
	if err != nil {
		h.respondError(c, err, "failed to upload document")
		return
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		h.respondError(c, err, "failed to upload document")
		return
	}

	actor, ok := auth.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to resolve session"})
		return
	}

	doc, err := h.intake.Process(actor.UID, file.Filename, content, time.Now().UTC())
	if err != nil {
		h.respondError(c, err, "failed to upload document")
		return
	}

	existing.Documents = append(existing.Documents, doc.URL)
	if err := h.workItems.Update(nil, existing); err != nil {
		// The blob is already on disk and stays there.
		h.logger.Warn("Stored document orphaned by failed item update",
			zap.String("key", doc.Key),
			zap.Error(err))
		h.respondError(c, err, "failed to upload document")
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    UploadDocumentResponse{Document: *doc, Item: *existing},
	})
}

// SummarizeWorkItems handles GET /api/workitems/summary: aggregates over
// the same filter params the list endpoint takes.
func (h *Handlers) SummarizeWorkItems(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		h.respondError(c, err, "failed to summarize work items")
		return
	}

	items, err := h.workItems.ListAll()
	if err != nil {
		h.respondError(c, err, "failed to summarize work items")
		return
	}

	data, err := h.generator.Build(items, report.Options{Filter: filter}, time.Now().UTC())
	if err != nil {
		h.respondError(c, err, "failed to summarize work items")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: data.Summary})
}

// GenerateReport handles POST /api/reports. Download delivery streams the
// artifact back, email delivery dispatches it and reports the outcome.
func (h *Handlers) GenerateReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	mode, err := report.ParseDeliveryMode(req.Delivery)
	if err != nil {
		h.respondError(c, err, "failed to generate report")
		return
	}
	if mode == report.DeliveryDownload && len(req.Formats) > 1 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "download delivery supports a single format, use email for both",
		})
		return
	}

	items, err := h.workItems.ListAll()
	if err != nil {
		h.respondError(c, err, "failed to generate report")
		return
	}

	data, artifacts, err := h.generator.Generate(items, req.Options, time.Now().UTC())
	if err != nil {
		h.respondError(c, err, "failed to generate report")
		return
	}

	if mode == report.DeliveryEmail {
		if err := h.dispatcher.Email(c.Request.Context(), req.Recipient, data, artifacts); err != nil {
			h.respondError(c, err, "failed to deliver report")
			return
		}
		names := make([]string, len(artifacts))
		for i, a := range artifacts {
			names[i] = a.Filename
		}
		c.JSON(http.StatusOK, Response{
			Success: true,
			Data:    EmailDeliveryResponse{DeliveredTo: req.Recipient, Artifacts: names},
		})
		return
	}

	artifact := artifacts[0]
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType(), artifact.Content)
}

// respondError maps domain errors onto status codes: validation 400, not
// found 404, anything else 500 with the detail kept out of the response.
func (h *Handlers) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: msg})
	}
}

// removeDocuments deletes stored blobs and their previews. Failures are
// logged, not surfaced; the records referencing them are already gone.
func (h *Handlers) removeDocuments(urls []string) {
	for _, url := range urls {
		key, ok := storage.KeyFromURL(url)
		if !ok {
			continue
		}
		if err := h.store.Remove(key); err != nil {
			h.logger.Warn("Failed to remove stored document", zap.String("key", key), zap.Error(err))
		}
		if err := h.store.Remove(key + ".thumb.png"); err != nil {
			h.logger.Warn("Failed to remove document preview", zap.String("key", key), zap.Error(err))
		}
	}
}

// filterFromQuery translates list query params into a report filter. Enum
// params reject unknown values rather than silently matching nothing.
func filterFromQuery(c *gin.Context) (report.Filter, error) {
	var filter report.Filter

	for _, raw := range c.QueryArray("status") {
		status := models.Status(raw)
		if !slices.Contains(models.AllStatuses(), status) {
			return filter, fmt.Errorf("%w: unknown status %q", models.ErrValidation, raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	for _, raw := range c.QueryArray("category") {
		category := models.Category(raw)
		if !category.Valid() {
			return filter, fmt.Errorf("%w: unknown category %q", models.ErrValidation, raw)
		}
		filter.Categories = append(filter.Categories, category)
	}

	for _, raw := range c.QueryArray("priority") {
		priority := models.Priority(raw)
		if !priority.Valid() {
			return filter, fmt.Errorf("%w: unknown priority %q", models.ErrValidation, raw)
		}
		filter.Priorities = append(filter.Priorities, priority)
	}

	for _, raw := range c.QueryArray("material_status") {
		status := models.MaterialStatus(raw)
		if !status.Valid() {
			return filter, fmt.Errorf("%w: unknown material status %q", models.ErrValidation, raw)
		}
		filter.MaterialStatuses = append(filter.MaterialStatuses, status)
	}

	filter.CreatorUIDs = append(filter.CreatorUIDs, c.QueryArray("user")...)

	var err error
	if filter.RequiresMaterial, err = boolParam(c, "requires_material"); err != nil {
		return filter, err
	}
	if filter.HasDocuments, err = boolParam(c, "has_documents"); err != nil {
		return filter, err
	}
	if filter.HasPrice, err = boolParam(c, "has_price"); err != nil {
		return filter, err
	}

	// Every caller here passed the admin gate, so creator search is open.
	filter.Query = c.Query("q")
	filter.SearchCreator = true

	var rng report.DateRange
	hasRange := false
	if raw := c.Query("from"); raw != "" {
		if rng.Start, err = dateParam(raw, false); err != nil {
			return filter, err
		}
		hasRange = true
	}
	if raw := c.Query("to"); raw != "" {
		if rng.End, err = dateParam(raw, true); err != nil {
			return filter, err
		}
		hasRange = true
	}
	if hasRange {
		if rng.End.IsZero() {
			rng.End = time.Now().UTC()
		}
		filter.Range = &rng
	}

	return filter, nil
}

// boolParam parses an optional tri-state flag; absent means unconstrained
func boolParam(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", models.ErrValidation, name)
	}
	return &value, nil
}

// dateParam accepts YYYY-MM-DD or RFC3339. A date-only upper bound covers
// its whole day.
func dateParam(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			return t.Add(24*time.Hour - time.Nanosecond), nil
		}
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD or RFC3339", models.ErrValidation, raw)
}

// pagination reads limit and offset with sane bounds
func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// paginate slices one page out of the filtered collection
func paginate(items []models.WorkItem, limit, offset int) []models.WorkItem {
	if offset >= len(items) {
		return []models.WorkItem{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
