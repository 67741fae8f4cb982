package service

import (
	"context"
	"strings"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

// Sheet joins the resolved roster with the day's marks.
func (s *AttendanceService) Sheet(ctx context.Context, identity models.ClassIdentity, date string) (*dto.AttendanceSheet, error) {
	if identity.Canon == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is required")
	}
	students, err := s.roster.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	rec, source, err := s.Resolve(ctx, identity, date)
	if err != nil {
		return nil, err
	}
	return buildSheet(identity, date, students, rec, source, s.evaluate(date, rec)), nil
}

// ToggleMark flips one student's status and saves the whole sheet.
func (s *AttendanceService) ToggleMark(ctx context.Context, identity models.ClassIdentity, req dto.ToggleMarkRequest, actor string) (*dto.AttendanceSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid mark payload")
	}
	return s.mutate(ctx, identity, req.Date, actor, func(students []models.Student, marks map[string]models.Mark) error {
		roll := models.NormalizeRoll(req.RollNo)
		if !inRoster(students, roll) {
			return appErrors.Clone(appErrors.ErrValidation, "student "+roll+" is not on this roster")
		}
		marks[roll] = marks[roll].Toggle(models.MarkStatus(strings.ToLower(req.Status)))
		return nil
	})
}

// BulkMark sets every student to one status. When everyone already has it,
// the marks are cleared instead; "clear" always unmarks.
func (s *AttendanceService) BulkMark(ctx context.Context, identity models.ClassIdentity, req dto.BulkMarkRequest, actor string) (*dto.AttendanceSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid bulk payload")
	}
	status := strings.ToLower(req.Status)
	return s.mutate(ctx, identity, req.Date, actor, func(students []models.Student, marks map[string]models.Mark) error {
		target := models.MarkFor(models.MarkStatus(status))
		if status != dto.BulkStatusClear && allHave(marks, models.MarkStatus(status)) {
			target = models.Mark{}
		}
		for roll := range marks {
			marks[roll] = target
		}
		return nil
	})
}

func (s *AttendanceService) mutate(
	ctx context.Context,
	identity models.ClassIdentity,
	date, actor string,
	apply func([]models.Student, map[string]models.Mark) error,
) (*dto.AttendanceSheet, error) {
	if identity.Canon == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is required")
	}
	existing, _, err := s.checkEditable(ctx, identity, date)
	if err != nil {
		return nil, err
	}
	students, err := s.roster.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no students on this roster")
	}

	marks := make(map[string]models.Mark, len(students))
	for _, st := range students {
		marks[models.NormalizeRoll(st.RollNo)] = existing.MarkFor(st.RollNo).Exclusive()
	}
	if err := apply(students, marks); err != nil {
		return nil, err
	}

	saved, err := s.persist(ctx, identity, date, marks, actor, existing)
	if err != nil {
		return nil, err
	}
	return buildSheet(identity, date, students, saved, SourceCanon, s.evaluate(date, saved)), nil
}

func buildSheet(identity models.ClassIdentity, date string, students []models.Student, rec *models.AttendanceRecord, source string, window models.EditWindow) *dto.AttendanceSheet {
	sorted := append([]models.Student(nil), students...)
	SortByRoll(sorted)

	sheet := &dto.AttendanceSheet{
		Class:  identity,
		Date:   date,
		Source: source,
		Window: window,
		Rows:   make([]dto.SheetRow, 0, len(sorted)),
	}
	if rec != nil {
		sheet.RecordID = rec.ID
	}
	marks := make(map[string]models.Mark, len(sorted))
	for _, st := range sorted {
		m := rec.MarkFor(st.RollNo).Exclusive()
		marks[models.NormalizeRoll(st.RollNo)] = m
		sheet.Rows = append(sheet.Rows, dto.SheetRow{
			ID:      st.ID,
			Name:    st.Name,
			RollNo:  st.RollNo,
			Email:   st.Email,
			Class:   st.Class,
			Present: m.Present,
			Absent:  m.Absent,
			Late:    m.Late,
		})
	}
	sheet.Counts = models.CountMarks(marks)
	return sheet
}

func inRoster(students []models.Student, roll string) bool {
	for _, st := range students {
		if models.NormalizeRoll(st.RollNo) == roll {
			return true
		}
	}
	return false
}

func allHave(marks map[string]models.Mark, status models.MarkStatus) bool {
	for _, m := range marks {
		if m.Status() != status {
			return false
		}
	}
	return len(marks) > 0
}
