package services

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultQuantity is used when a form or import row leaves quantity blank.
const DefaultQuantity = 1

// BookInput carries the editable fields of a book, as submitted by a form,
// the CSV importer or a seed file.
type BookInput struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	ISBN        string `yaml:"isbn"`
	Category    string `yaml:"category"`
	Quantity    int    `yaml:"quantity"`
	Description string `yaml:"description"`
}

// MemberInput carries the editable fields of a member.
type MemberInput struct {
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
	Address string `yaml:"address"`
}

// IssueInput requests a loan. Days of zero selects the default loan period.
type IssueInput struct {
	BookID   uint
	MemberID uint
	Days     int
}

// normalizeText applies NFKC so that full-width digits and compatibility
// characters pasted into forms compare equal to their plain forms.
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

func (in *BookInput) normalize() {
	in.Title = normalizeText(in.Title)
	in.Author = normalizeText(in.Author)
	in.ISBN = normalizeText(in.ISBN)
	in.Category = normalizeText(in.Category)
	in.Description = strings.TrimSpace(in.Description)
}

// Validate checks required fields and column limits.
func (in BookInput) Validate() error {
	if err := required("title", in.Title, 200); err != nil {
		return err
	}
	if err := required("author", in.Author, 200); err != nil {
		return err
	}
	if err := required("isbn", in.ISBN, 20); err != nil {
		return err
	}
	if err := required("category", in.Category, 50); err != nil {
		return err
	}
	if in.Quantity < 0 {
		return NewValidationError("quantity must not be negative")
	}
	return nil
}

func (in *MemberInput) normalize() {
	in.Name = normalizeText(in.Name)
	in.Email = normalizeText(in.Email)
	in.Phone = normalizeText(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
}

func (in MemberInput) Validate() error {
	if err := required("name", in.Name, 100); err != nil {
		return err
	}
	if err := required("email", in.Email, 100); err != nil {
		return err
	}
	if !strings.Contains(in.Email, "@") {
		return NewValidationError("email %q is not a valid address", in.Email)
	}
	if err := required("phone", in.Phone, 20); err != nil {
		return err
	}
	return nil
}

// Validate checks the loan request against the allowed loan period.
func (in IssueInput) Validate(maxDays int) error {
	if in.BookID == 0 {
		return NewValidationError("book_id is required")
	}
	if in.MemberID == 0 {
		return NewValidationError("member_id is required")
	}
	if in.Days < 1 || in.Days > maxDays {
		return NewValidationError("days must be between 1 and %d", maxDays)
	}
	return nil
}

func required(field, value string, maxLen int) error {
	if value == "" {
		return NewValidationError("%s is required", field)
	}
	if utf8.RuneCountInString(value) > maxLen {
		return NewValidationError("%s must be at most %d characters", field, maxLen)
	}
	return nil
}

// ParseInt parses an integer form field. An empty value yields fallback;
// anything that is not an integer is a ValidationFailure.
func ParseInt(field, raw string, fallback int) (int, error) {
	raw = normalizeText(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewValidationError("%s must be a whole number", field)
	}
	return n, nil
}

// ParseID parses a positive identifier form field.
func ParseID(field, raw string) (uint, error) {
	raw = normalizeText(raw)
	if raw == "" {
		return 0, NewValidationError("%s is required", field)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, NewValidationError("%s must be a positive whole number", field)
	}
	return uint(n), nil
}
