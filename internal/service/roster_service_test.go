package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/internal/repository"
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

func rolls(students []models.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.RollNo)
	}
	return out
}

func TestRosterResolveStrategyOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("canonical key wins", func(t *testing.T) {
		env := newTestEnv(t, ist(7, 0))
		env.seedStudent(t, "a", "23CS1", "CSE-A-Y2", 2)
		env.seedStudent(t, "b", "23CS9", "CSE-A", 2)

		students, err := env.roster.Resolve(ctx, identityFor("CSE-A", intPtr(2)))
		require.NoError(t, err)
		assert.Equal(t, []string{"23CS1"}, rolls(students))
	})

	t.Run("legacy key with matching year", func(t *testing.T) {
		env := newTestEnv(t, ist(7, 0))
		env.seedStudent(t, "a", "23CS1", "CSE-A", 2)
		env.seedStudent(t, "b", "22CS1", "CSE-A", 3)

		students, err := env.roster.Resolve(ctx, identityFor("CSE-A", intPtr(2)))
		require.NoError(t, err)
		assert.Equal(t, []string{"23CS1"}, rolls(students))
	})

	t.Run("legacy key with year stored as text", func(t *testing.T) {
		env := newTestEnv(t, ist(7, 0))
		env.seedStudent(t, "a", "23CS1", "CSE-A", 2)
		env.seedStudent(t, "b", "23CS2", "CSE-A", "2")
		env.seedStudent(t, "c", "22CS1", "CSE-A", "3")

		students, err := env.roster.Resolve(ctx, identityFor("CSE-A", intPtr(2)))
		require.NoError(t, err)
		assert.Equal(t, []string{"23CS1", "23CS2"}, rolls(students))
	})

	t.Run("raw display label", func(t *testing.T) {
		env := newTestEnv(t, ist(7, 0))
		env.put(t, repository.CollectionStudents, "a", map[string]interface{}{"NAME": " Asha ", "ROLLNO": "23cs5", "CLASS": "CSE-A (Year 2)"})

		students, err := env.roster.Resolve(ctx, identityFor("CSE-A (Year 2)", nil))
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, "23CS5", students[0].RollNo)
		assert.Equal(t, "Asha", students[0].Name)
		assert.Equal(t, "CSE-A-Y2", students[0].ClassCanon)
	})

	t.Run("empty roster is not an error", func(t *testing.T) {
		env := newTestEnv(t, ist(7, 0))
		students, err := env.roster.Resolve(ctx, identityFor("CSE-Z", intPtr(1)))
		require.NoError(t, err)
		assert.Empty(t, students)
	})
}

func TestRosterResolveDeduplicatesByRoll(t *testing.T) {
	env := newTestEnv(t, ist(7, 0))
	env.seedStudent(t, "a", "23cs1", "CSE-A-Y2", 2)
	env.seedStudent(t, "b", "23CS1 ", "CSE-A-Y2", 2)
	env.seedStudent(t, "c", "23CS2", "CSE-A-Y2", 2)

	students, err := env.roster.Resolve(context.Background(), identityFor("CSE-A", intPtr(2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"23CS1", "23CS2"}, rolls(students))
	assert.Equal(t, "a", students[0].ID)
}

type flakyStudentRepo struct {
	calls int
	errOn map[int]error
	data  map[int][]models.Student
}

func (r *flakyStudentRepo) Find(ctx context.Context, q docstore.Query) ([]models.Student, error) {
	r.calls++
	if err := r.errOn[r.calls]; err != nil {
		return nil, err
	}
	return r.data[r.calls], nil
}

func (r *flakyStudentRepo) Create(ctx context.Context, student *models.Student) error { return nil }

func (r *flakyStudentRepo) Replace(ctx context.Context, staleIDs []string, fresh []models.Student) error {
	return nil
}

func TestRosterResolveSwallowsIntermediateErrors(t *testing.T) {
	repo := &flakyStudentRepo{
		errOn: map[int]error{1: errors.New("timeout")},
		data:  map[int][]models.Student{2: {{ID: "x", RollNo: "23CS1"}}},
	}
	svc := NewRosterService(repo, nil, nil, nil)

	students, err := svc.Resolve(context.Background(), identityFor("CSE-A", intPtr(2)))
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestRosterResolveReportsFinalError(t *testing.T) {
	repo := &flakyStudentRepo{errOn: map[int]error{4: errors.New("unavailable")}}
	svc := NewRosterService(repo, nil, nil, nil)

	_, err := svc.Resolve(context.Background(), identityFor("CSE-A", intPtr(2)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBackendUnavailable))
	assert.Equal(t, 4, repo.calls)
}

func TestRosterReplaceRemovesEveryVariant(t *testing.T) {
	env := newTestEnv(t, ist(7, 0))
	env.seedStudent(t, "yearful", "23CS1", "CSE-A-Y2", 2)
	env.seedStudent(t, "legacy-same-year", "23CS2", "CSE-A", 2)
	env.seedStudent(t, "legacy-no-year", "23CS3", "CSE-A", nil)
	env.seedStudent(t, "legacy-string-year", "23CS4", "CSE-A", "2")
	env.seedStudent(t, "legacy-other-year", "22CS1", "CSE-A", 3)
	env.put(t, repository.CollectionStudents, "display", map[string]interface{}{"ROLLNO": "23CS5", "CLASS": "CSE-A (Year 2)"})

	req := dto.ReplaceRosterRequest{Students: []dto.StudentInput{
		{Name: "Asha", RollNo: "23cs10", Email: "asha@college.test"},
		{Name: "Asha again", RollNo: "23CS10", Email: "asha2@college.test"},
		{Name: "Ravi", RollNo: "23CS11", Email: "ravi@college.test"},
	}}
	fresh, err := env.roster.Replace(context.Background(), identityFor("CSE-A", intPtr(2)), req, "mentor@college.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"23CS10", "23CS11"}, rolls(fresh))

	for _, id := range []string{"yearful", "legacy-same-year", "legacy-no-year", "legacy-string-year", "display"} {
		assert.False(t, env.exists(repository.CollectionStudents, id), id)
	}
	assert.True(t, env.exists(repository.CollectionStudents, "legacy-other-year"))

	students, err := env.roster.Resolve(context.Background(), identityFor("CSE-A", intPtr(2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"23CS10", "23CS11"}, rolls(students))
	assert.Equal(t, "CSE-A (Year 2)", students[0].Class)
	assert.Equal(t, "mentor@college.test", students[0].Mentor)
}

func TestRosterReplaceValidatesStudents(t *testing.T) {
	env := newTestEnv(t, ist(7, 0))
	req := dto.ReplaceRosterRequest{Students: []dto.StudentInput{{Name: "Asha", RollNo: "23CS1", Email: "not-an-email"}}}

	_, err := env.roster.Replace(context.Background(), identityFor("CSE-A", intPtr(2)), req, "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestRosterAddStudentRejectsDuplicateRoll(t *testing.T) {
	env := newTestEnv(t, ist(7, 0))
	env.seedStudent(t, "a", "23CS1", "CSE-A-Y2", 2)
	identity := identityFor("CSE-A", intPtr(2))

	_, err := env.roster.AddStudent(context.Background(), identity, dto.StudentInput{Name: "Dup", RollNo: " 23cs1", Email: "dup@college.test"}, "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	added, err := env.roster.AddStudent(context.Background(), identity, dto.StudentInput{Name: "New", RollNo: "23cs2", Email: "new@college.test"}, "")
	require.NoError(t, err)
	assert.Equal(t, "23CS2", added.RollNo)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "CSE-A-Y2", added.ClassCanon)
}

func TestRosterAddStudentFailsWhenRosterUnreadable(t *testing.T) {
	repo := &flakyStudentRepo{
		errOn: map[int]error{1: errors.New("timeout")},
		data:  map[int][]models.Student{2: {{ID: "x", RollNo: "23CS9"}}},
	}
	svc := NewRosterService(repo, nil, nil, nil)

	_, err := svc.AddStudent(context.Background(), identityFor("CSE-A", intPtr(2)), dto.StudentInput{Name: "New", RollNo: "23CS1", Email: "new@college.test"}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBackendUnavailable))
	assert.Equal(t, 1, repo.calls)
}

func TestNaturalLess(t *testing.T) {
	assert.True(t, NaturalLess("23CS2", "23CS10"))
	assert.False(t, NaturalLess("23CS10", "23CS2"))
	assert.True(t, NaturalLess("22CS99", "23CS1"))
	assert.True(t, NaturalLess("23cs1", "23CS01A"))
	assert.False(t, NaturalLess("A", "A"))
}
