package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength    = 120
	MaxCategoryLength = 80
	MaxEmailLength    = 120

	isoDateLayout     = "2006-01-02"
	displayDateLayout = "02 Jan"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Transaction is a single income or expense record owned by one user.
	Transaction struct {
		ID        int64
		UserID    int64
		Title     string
		IsExpense bool
		Amount    Money
		Category  string // optional
		Date      Date
	}

	// Goal is a savings target. Saved may exceed Target.
	Goal struct {
		ID     int64
		UserID int64
		Title  string
		Target Money
		Saved  Money
		Date   Date
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(isoDateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// ISO formats the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format(isoDateLayout)
}

// Display formats the date as day and abbreviated month, e.g. "07 Mar".
func (d Date) Display() string {
	return d.Format(displayDateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "dateAdded", Msg: "date cannot be zero"}
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return ErrMissingOwner
	}
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Category) > MaxCategoryLength {
		return &ValidationError{Field: "category", Msg: "category too long (max 80 characters)"}
	}
	return t.Date.Validate()
}

func (g Goal) Validate() error {
	if g.UserID <= 0 {
		return ErrMissingOwner
	}
	if err := validateTitle(g.Title); err != nil {
		return err
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Saved.Cents < 0 {
		return &ValidationError{Field: "saving", Msg: "saved amount cannot be negative"}
	}
	return g.Date.Validate()
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return &ValidationError{Field: "title", Msg: "title too long (max 120 characters)"}
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
