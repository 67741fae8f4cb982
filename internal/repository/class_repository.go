package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
)

// ClassRepository manages section documents.
type ClassRepository struct {
	store docstore.Store
}

// NewClassRepository constructs the repository.
func NewClassRepository(store docstore.Store) *ClassRepository {
	return &ClassRepository{store: store}
}

// ListByDept returns classes for dept, optionally limited to one year.
func (r *ClassRepository) ListByDept(ctx context.Context, dept string, year *int) ([]models.ClassDoc, error) {
	q := docstore.Collection(CollectionClasses).Where(docstore.Eq("dept", dept))
	if year != nil {
		q = q.Where(docstore.Eq("year", *year))
	}
	return r.find(ctx, q)
}

// FindBySection returns classes in dept with the given section.
func (r *ClassRepository) FindBySection(ctx context.Context, dept, section string) ([]models.ClassDoc, error) {
	return r.find(ctx, docstore.Collection(CollectionClasses).Where(docstore.Eq("dept", dept), docstore.Eq("section", section)))
}

// ListByMentor returns classes whose mentorEmails contain email.
func (r *ClassRepository) ListByMentor(ctx context.Context, email string) ([]models.ClassDoc, error) {
	return r.find(ctx, docstore.Collection(CollectionClasses).Where(docstore.ArrayContains("mentorEmails", email)))
}

// Create inserts a class under a fresh id.
func (r *ClassRepository) Create(ctx context.Context, class *models.ClassDoc) error {
	if class.ID == "" {
		class.ID = r.store.NewID()
	}
	if err := r.store.Set(ctx, CollectionClasses, class.ID, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

func (r *ClassRepository) find(ctx context.Context, q docstore.Query) ([]models.ClassDoc, error) {
	docs, err := r.store.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	classes, err := decodeAll(docs, func(c *models.ClassDoc, id string) { c.ID = id })
	if err != nil {
		return nil, fmt.Errorf("decode classes: %w", err)
	}
	return classes, nil
}
