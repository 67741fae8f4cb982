package repository

import (
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
)

// Collection names in the document store.
const (
	CollectionClasses    = "classes"
	CollectionStudents   = "students"
	CollectionAttendance = "attendance"
	CollectionSettings   = "settings"
)

func decodeAll[T any](docs []docstore.Document, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := doc.Decode(&item); err != nil {
			return nil, err
		}
		if setID != nil {
			setID(&item, doc.ID)
		}
		out = append(out, item)
	}
	return out, nil
}
