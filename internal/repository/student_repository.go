package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
)

// StudentRepository reads and writes roster entries.
type StudentRepository struct {
	store docstore.Store
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(store docstore.Store) *StudentRepository {
	return &StudentRepository{store: store}
}

// Find runs a roster query against the students collection.
func (r *StudentRepository) Find(ctx context.Context, q docstore.Query) ([]models.Student, error) {
	q.Collection = CollectionStudents
	docs, err := r.store.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	students, err := decodeAll(docs, func(s *models.Student, id string) { s.ID = id })
	if err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}
	return students, nil
}

// Create inserts one student under a fresh id.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = r.store.NewID()
	}
	if err := r.store.Set(ctx, CollectionStudents, student.ID, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Replace deletes staleIDs and inserts fresh in one batch.
func (r *StudentRepository) Replace(ctx context.Context, staleIDs []string, fresh []models.Student) error {
	err := r.store.RunBatch(ctx, func(b docstore.Batch) error {
		for _, id := range staleIDs {
			b.Delete(CollectionStudents, id)
		}
		for i := range fresh {
			if fresh[i].ID == "" {
				fresh[i].ID = r.store.NewID()
			}
			b.Set(CollectionStudents, fresh[i].ID, fresh[i])
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace roster: %w", err)
	}
	return nil
}
