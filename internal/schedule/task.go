package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the bucket key format, e.g. 2024-06-01.
const DateLayout = "2006-01-02"

// Task is one scheduled activity on a calendar day.
type Task struct {
	ID          string   `json:"id" bson:"id"`
	Title       string   `json:"title" bson:"title"`
	StartTime   string   `json:"startTime" bson:"startTime"`
	EndTime     string   `json:"endTime" bson:"endTime"`
	Category    Category `json:"category" bson:"category"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Date        string   `json:"date" bson:"date"`
	Completed   bool     `json:"completed" bson:"completed"`
}

// Draft holds the user-editable fields of a task.
type Draft struct {
	Title       string
	StartTime   string
	EndTime     string
	Category    Category
	Description string
	// Date is optional; empty means the day the draft is submitted for.
	Date string
}

// EmptyDraft returns the cleared form state.
func EmptyDraft() Draft {
	return Draft{Category: Work}
}

// DraftFrom copies a task's editable fields into a draft.
func DraftFrom(t Task) Draft {
	return Draft{
		Title:       t.Title,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
	}
}

// Validation failures
var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidTime      = errors.New("invalid time")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrInvalidDate      = errors.New("invalid date")
	ErrTaskNotFound     = errors.New("task not found")
	ErrNotEditing       = errors.New("no task is being edited")
)

// ValidationError is a user-correctable problem with a draft.
type ValidationError struct {
	Title   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks required fields, the HH:MM format and start < end.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" || d.StartTime == "" || d.EndTime == "" {
		return &ValidationError{
			Title:   "Missing Information",
			Message: "Please fill in all required fields.",
			Err:     ErrMissingFields,
		}
	}
	if !ValidClock(d.StartTime) || !ValidClock(d.EndTime) {
		return &ValidationError{
			Title:   "Invalid Time",
			Message: "Times must use the 24-hour HH:MM format.",
			Err:     ErrInvalidTime,
		}
	}
	// zero-padded HH:MM compares correctly as a string
	if d.StartTime >= d.EndTime {
		return &ValidationError{
			Title:   "Invalid Time Range",
			Message: "End time must be after start time.",
			Err:     ErrInvalidTimeRange,
		}
	}
	if d.Date != "" {
		if _, err := ParseDate(d.Date); err != nil {
			return &ValidationError{
				Title:   "Invalid Date",
				Message: "Dates must use the YYYY-MM-DD format.",
				Err:     ErrInvalidDate,
			}
		}
	}
	return nil
}

// ValidClock reports whether s is a zero-padded 24-hour HH:MM time.
func ValidClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return false
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return false
	}
	return true
}

// Hour returns the hour component of an HH:MM time, or -1 when malformed.
func Hour(clock string) int {
	i := strings.IndexByte(clock, ':')
	if i < 0 {
		return -1
	}
	h, err := strconv.Atoi(clock[:i])
	if err != nil {
		return -1
	}
	return h
}

// ParseDate parses a YYYY-MM-DD bucket key.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// DateKey formats t as a bucket key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
