package models

import (
	"strings"

	"github.com/asaskevich/govalidator"
)

const (
	MinGrade = 1
	MaxGrade = 12
)

// ValidateGrades checks a non-empty grade set within 1..12.
func ValidateGrades(grades []int) error {
	if len(grades) == 0 {
		return Invalid("grades", "at least one grade is required")
	}
	for _, g := range grades {
		if g < MinGrade || g > MaxGrade {
			return Invalid("grades", "grade %d outside %d-%d", g, MinGrade, MaxGrade)
		}
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ExternalID) == "" {
		return Invalid("externalId", "required")
	}
	if !govalidator.IsEmail(u.Email) {
		return Invalid("email", "%q is not an email address", u.Email)
	}
	if strings.TrimSpace(u.Name) == "" {
		return Invalid("name", "required")
	}
	return nil
}

func (c AgentConfiguration) Validate() error {
	if strings.TrimSpace(c.AgentType) == "" {
		return Invalid("agentType", "required")
	}
	if err := ValidateGrades(c.Grades); err != nil {
		return err
	}
	if !c.ContentSource.Valid() {
		return Invalid("contentSource", "must be %q or %q", ContentSourcePrebook, ContentSourceExternal)
	}
	return nil
}

func (p AgentConfigPatch) Validate() error {
	if p.AgentType != nil && strings.TrimSpace(*p.AgentType) == "" {
		return Invalid("agentType", "must not be empty")
	}
	if p.Grades != nil {
		if err := ValidateGrades(*p.Grades); err != nil {
			return err
		}
	}
	if p.ContentSource != nil && !p.ContentSource.Valid() {
		return Invalid("contentSource", "must be %q or %q", ContentSourcePrebook, ContentSourceExternal)
	}
	return nil
}

func (m ChatMessage) Validate() error {
	if !m.Role.Valid() {
		return Invalid("role", "unknown role %q", m.Role)
	}
	if strings.TrimSpace(m.Content) == "" {
		return Invalid("content", "required")
	}
	return nil
}

func (t NCERTTextbook) Validate() error {
	if t.Class < MinGrade || t.Class > MaxGrade {
		return Invalid("class", "class %d outside %d-%d", t.Class, MinGrade, MaxGrade)
	}
	if t.Subject == "" || t.BookTitle == "" || t.Language == "" {
		return Invalid("textbook", "subject, bookTitle and language are required")
	}
	if !govalidator.IsURL(t.PDFURL) {
		return Invalid("pdfUrl", "%q is not a URL", t.PDFURL)
	}
	return nil
}
