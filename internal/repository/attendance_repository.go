package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
)

// AttendanceRepository persists class-day attendance documents.
type AttendanceRepository struct {
	store docstore.Store
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(store docstore.Store) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

// FindByID returns the record or nil when no document exists.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	doc, err := r.store.Get(ctx, CollectionAttendance, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var rec models.AttendanceRecord
	if err := doc.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode attendance %s: %w", id, err)
	}
	rec.ID = doc.ID
	return &rec, nil
}

// ListByDate returns every class-day document for date.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	docs, err := r.store.Find(ctx, docstore.Collection(CollectionAttendance).Where(docstore.Eq("DATE", date)))
	if err != nil {
		return nil, err
	}
	records, err := decodeAll(docs, func(rec *models.AttendanceRecord, id string) { rec.ID = id })
	if err != nil {
		return nil, fmt.Errorf("decode attendance for %s: %w", date, err)
	}
	return records, nil
}

// Merge overlays fields onto the document, creating it when missing.
func (r *AttendanceRepository) Merge(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := r.store.Set(ctx, CollectionAttendance, id, fields, docstore.Merge()); err != nil {
		return fmt.Errorf("merge attendance %s: %w", id, err)
	}
	return nil
}

// Delete removes a document by id.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, CollectionAttendance, id); err != nil {
		return fmt.Errorf("delete attendance %s: %w", id, err)
	}
	return nil
}
