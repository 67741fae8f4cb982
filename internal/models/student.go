package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Student is a roster entry in the students collection.
type Student struct {
	ID         string    `json:"-"`
	Name       string    `json:"NAME"`
	RollNo     string    `json:"ROLLNO"`
	Email      string    `json:"EMAIL"`
	Class      string    `json:"CLASS"`
	ClassCanon string    `json:"CLASS_CANON"`
	Year       *FlexYear `json:"year"`
	Mentor     string    `json:"mentor,omitempty"`
}

// NormalizeRoll is the roster comparison key for roll numbers.
func NormalizeRoll(roll string) string {
	return strings.ToUpper(strings.TrimSpace(roll))
}

// Normalize trims identity fields and uppercases the roll number.
func (s Student) Normalize() Student {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.RollNo = NormalizeRoll(s.RollNo)
	s.Class = strings.TrimSpace(s.Class)
	s.ClassCanon = strings.TrimSpace(s.ClassCanon)
	return s
}

// FlexYear decodes a year that older documents stored as a string.
type FlexYear int

// UnmarshalJSON accepts 3, "3" and "".
func (y *FlexYear) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		v, err := strconv.Atoi(n.String())
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				*y = 0
				return nil
			}
			v = int(f)
		}
		*y = FlexYear(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*y = 0
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*y = 0
		return nil
	}
	*y = FlexYear(v)
	return nil
}

// Int returns the year when it is positive.
func (y *FlexYear) Int() *int {
	if y == nil || *y <= 0 {
		return nil
	}
	v := int(*y)
	return &v
}

// YearOf wraps an optional year for storage.
func YearOf(year *int) *FlexYear {
	if year == nil || *year <= 0 {
		return nil
	}
	y := FlexYear(*year)
	return &y
}
