package storage

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fieldline/workdesk/internal/models"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

const (
	// maxImageEdge bounds either dimension of a stored photo. Site photos
	// from phones arrive at full sensor resolution and would fill the disk.
	maxImageEdge = 1600

	// thumbEdge bounds the rendered PDF preview.
	thumbEdge = 480

	jpegQuality = 85
)

// StoredDocument describes one upload after processing.
type StoredDocument struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	Size         int    `json:"size"`
	PageCount    int    `json:"page_count,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Intake runs uploads through type-specific processing before storage.
// JPEG and PNG files are downscaled when oversized, PDFs are probed for a
// page count and a first-page preview image, everything else is stored
// unchanged.
type Intake struct {
	store  ObjectStore
	logger *zap.Logger
}

// NewIntake creates an upload intake in front of the given store
func NewIntake(store ObjectStore, logger *zap.Logger) *Intake {
	return &Intake{
		store:  store,
		logger: logger,
	}
}

// Process stores one upload on behalf of uid and returns where it landed.
// Processing failures fall back to storing the original bytes; only storage
// itself failing is an error.
func (i *Intake) Process(uid, filename string, content []byte, now time.Time) (*StoredDocument, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: upload has no owner", models.ErrValidation)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty upload %q", models.ErrValidation, filename)
	}

	key := ObjectKey(uid, filename, now)
	doc := &StoredDocument{
		Key: key,
		URL: URLPath(key),
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		shrunk, err := i.shrinkImage(content, filename)
		if err != nil {
			i.logger.Warn("Failed to process image, storing original",
				zap.String("filename", filename),
				zap.Error(err))
		} else {
			content = shrunk
		}
	case ".pdf":
		i.probePDF(doc, content)
	}

	if err := i.store.Save(key, content); err != nil {
		return nil, err
	}
	doc.Size = len(content)

	i.logger.Info("Upload stored",
		zap.String("uid", uid),
		zap.String("key", key),
		zap.Int("size", doc.Size),
		zap.Int("pages", doc.PageCount))

	return doc, nil
}

// shrinkImage re-encodes an image when either edge exceeds maxImageEdge.
// Images already within bounds pass through byte for byte.
func (i *Intake) shrinkImage(content []byte, filename string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxImageEdge && bounds.Dy() <= maxImageEdge {
		return content, nil
	}

	resized := imaging.Fit(img, maxImageEdge, maxImageEdge, imaging.Lanczos)

	format := imaging.JPEG
	if strings.EqualFold(filepath.Ext(filename), ".png") {
		format = imaging.PNG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	i.logger.Debug("Image downscaled",
		zap.String("filename", filename),
		zap.Int("original_bytes", len(content)),
		zap.Int("stored_bytes", buf.Len()))

	return buf.Bytes(), nil
}

// probePDF fills in the page count and stores a first-page preview. A PDF
// that cannot be parsed is stored anyway, without metadata.
func (i *Intake) probePDF(doc *StoredDocument, content []byte) {
	pdf, err := fitz.NewFromMemory(content)
	if err != nil {
		i.logger.Warn("Failed to open PDF for probing", zap.Error(err))
		return
	}
	defer pdf.Close()

	doc.PageCount = pdf.NumPage()
	if doc.PageCount == 0 {
		return
	}

	page, err := pdf.Image(0)
	if err != nil {
		i.logger.Warn("Failed to render PDF preview", zap.Error(err))
		return
	}

	thumb := imaging.Fit(page, thumbEdge, thumbEdge, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		i.logger.Warn("Failed to encode PDF preview", zap.Error(err))
		return
	}

	thumbKey := doc.Key + ".thumb.png"
	if err := i.store.Save(thumbKey, buf.Bytes()); err != nil {
		i.logger.Warn("Failed to store PDF preview",
			zap.String("key", thumbKey),
			zap.Error(err))
		return
	}
	doc.ThumbnailURL = URLPath(thumbKey)
}
