package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

func TestClassServiceCreate(t *testing.T) {
	env := newTestEnv(t, ist(7, 0))
	ctx := context.Background()

	class, err := env.classes.Create(ctx, dto.CreateClassRequest{
		Year:    2,
		Section: "a1",
		Mentors: []dto.MentorInput{{Name: "Dr. Rao", Email: "Rao@College.test"}, {Name: "", Email: ""}},
	})
	require.NoError(t, err)
	assert.Equal(t, "A1", class.Section)
	assert.Equal(t, models.ClassStatusActive, class.Status)
	assert.Equal(t, []string{"rao@college.test"}, class.MentorEmails)
	require.Len(t, class.Mentors, 1)

	stored := env.get(t, repository.CollectionClasses, class.ID)
	assert.Equal(t, "CSE", stored["dept"])
	assert.Equal(t, float64(2), stored["year"])
	assert.Equal(t, "active", stored["status"])
}

func TestClassServiceCreateValidation(t *testing.T) {
	env := newTestEnv(t, ist(7, 0))
	ctx := context.Background()
	_, err := env.classes.Create(ctx, dto.CreateClassRequest{Year: 1, Section: "A", Mentors: []dto.MentorInput{{Name: "M", Email: "m@college.test"}}})
	require.NoError(t, err)

	cases := []struct {
		name string
		req  dto.CreateClassRequest
		want error
	}{
		{"bad section", dto.CreateClassRequest{Year: 1, Section: "1A"}, appErrors.ErrValidation},
		{"year out of range", dto.CreateClassRequest{Year: 5, Section: "B"}, appErrors.ErrValidation},
		{"duplicate section", dto.CreateClassRequest{Year: 1, Section: "a"}, appErrors.ErrConflict},
		{"duplicate mentor emails", dto.CreateClassRequest{Year: 1, Section: "B", Mentors: []dto.MentorInput{
			{Name: "X", Email: "x@college.test"}, {Name: "Y", Email: "X@college.test"},
		}}, appErrors.ErrValidation},
		{"mentor already used in year", dto.CreateClassRequest{Year: 1, Section: "B", Mentors: []dto.MentorInput{{Name: "M", Email: "m@college.test"}}}, appErrors.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.classes.Create(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), err.Error())
		})
	}

	// The same section and mentor are fine in another year.
	_, err = env.classes.Create(ctx, dto.CreateClassRequest{Year: 2, Section: "A", Mentors: []dto.MentorInput{{Name: "M", Email: "m@college.test"}}})
	require.NoError(t, err)
}

func TestClassServiceListAndMine(t *testing.T) {
	env := newTestEnv(t, ist(7, 0))
	ctx := context.Background()
	for _, req := range []dto.CreateClassRequest{
		{Year: 2, Section: "B1"},
		{Year: 2, Section: "A", Mentors: []dto.MentorInput{{Name: "R", Email: "r@college.test"}}},
		{Year: 1, Section: "B", Mentors: []dto.MentorInput{{Name: "R", Email: "r@college.test"}}},
		{Year: 2, Section: "B"},
	} {
		_, err := env.classes.Create(ctx, req)
		require.NoError(t, err)
	}

	all, err := env.classes.List(ctx, nil)
	require.NoError(t, err)
	var order []string
	for _, c := range all {
		order = append(order, c.Section)
	}
	assert.Equal(t, []string{"B", "A", "B", "B1"}, order)

	second, err := env.classes.List(ctx, intPtr(2))
	require.NoError(t, err)
	assert.Len(t, second, 3)

	mine, err := env.classes.Mine(ctx, " R@college.test ")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestClassServiceMeta(t *testing.T) {
	env := newTestEnv(t, ist(7, 0))
	ctx := context.Background()

	meta, err := env.classes.Meta(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, meta)

	env.put(t, repository.CollectionClasses, "c3", map[string]interface{}{"dept": "CSE", "section": "C", "year": "3"})
	env.put(t, repository.CollectionClasses, "other", map[string]interface{}{"dept": "ECE", "section": "C", "year": 1})
	meta, err = env.classes.Meta(ctx, "c")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "C", meta.Section)
	assert.Equal(t, 3, *meta.Year)
}

type memoryCache struct {
	items   map[string]interface{}
	deleted []string
}

func (m *memoryCache) Get(ctx context.Context, bucket, field string, dest interface{}) error {
	v, ok := m.items[bucket+"/"+field]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*models.ClassMeta)) = *(v.(*models.ClassMeta))
	return nil
}

func (m *memoryCache) Set(ctx context.Context, bucket, field string, value interface{}, ttl time.Duration) error {
	m.items[bucket+"/"+field] = value
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, bucket string, fields ...string) error {
	for _, f := range fields {
		m.deleted = append(m.deleted, bucket+"/"+f)
		delete(m.items, bucket+"/"+f)
	}
	return nil
}

func TestClassServiceMetaUsesCache(t *testing.T) {
	env := newTestEnv(t, ist(7, 0))
	ctx := context.Background()
	backing := &memoryCache{items: map[string]interface{}{}}
	env.classes.cache = NewCacheService(backing, env.metrics, time.Minute, nil, true)

	env.put(t, repository.CollectionClasses, "d", map[string]interface{}{"dept": "CSE", "section": "D", "year": 4})
	_, err := env.classes.Meta(ctx, "D")
	require.NoError(t, err)
	assert.Contains(t, backing.items, "classmeta:CSE/D")

	// Served from cache even after the class disappears.
	require.NoError(t, env.store.Delete(ctx, repository.CollectionClasses, "d"))
	meta, err := env.classes.Meta(ctx, "D")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 4, *meta.Year)

	_, err = env.classes.Create(ctx, dto.CreateClassRequest{Year: 1, Section: "D"})
	require.NoError(t, err)
	assert.Equal(t, []string{"classmeta:CSE/D"}, backing.deleted)
	assert.NotContains(t, backing.items, "classmeta:CSE/D")
}
