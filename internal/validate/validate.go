package validate

import (
	"regexp"
	"strings"

	"inovacode-contact-api/internal/model"
)

// Default field limits. Some deployments lower name/subject to 100 and
// message to 1000 via NewValidator.
const (
	DefaultMaxName    = 255
	DefaultMaxEmail   = 255
	DefaultMaxSubject = 255
	DefaultMaxMessage = 5000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors is an ordered list of field-level validation failures
type FieldErrors []model.FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Validator checks raw submissions against field constraints. It has no
// side effects and no dependencies.
type Validator struct {
	maxName    int
	maxEmail   int
	maxSubject int
	maxMessage int
}

// NewValidator creates a Validator with the given limits. Zero or negative
// limits fall back to the defaults.
func NewValidator(maxName, maxEmail, maxSubject, maxMessage int) *Validator {
	if maxName <= 0 {
		maxName = DefaultMaxName
	}
	if maxEmail <= 0 {
		maxEmail = DefaultMaxEmail
	}
	if maxSubject <= 0 {
		maxSubject = DefaultMaxSubject
	}
	if maxMessage <= 0 {
		maxMessage = DefaultMaxMessage
	}
	return &Validator{
		maxName:    maxName,
		maxEmail:   maxEmail,
		maxSubject: maxSubject,
		maxMessage: maxMessage,
	}
}

// Default returns a Validator with the default limits
func Default() *Validator {
	return NewValidator(0, 0, 0, 0)
}

// Validate checks a raw submission and returns the normalized form, or an
// ordered list of field errors. All-or-nothing: a submission with any
// invalid field produces no Submission. Name, subject and message are
// trimmed; email is trimmed and lowercased.
func (v *Validator) Validate(req model.SubmissionRequest) (*model.Submission, FieldErrors) {
	var errs FieldErrors

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		errs = append(errs, model.FieldError{Field: "name", Message: "Nome é obrigatório"})
	case len([]rune(name)) > v.maxName:
		errs = append(errs, model.FieldError{Field: "name", Message: "Nome muito longo"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case email == "":
		errs = append(errs, model.FieldError{Field: "email", Message: "Email é obrigatório"})
	case len(email) > v.maxEmail:
		errs = append(errs, model.FieldError{Field: "email", Message: "Email muito longo"})
	case !emailPattern.MatchString(email):
		errs = append(errs, model.FieldError{Field: "email", Message: "Por favor, insira um email válido"})
	}

	// Subject is optional; when present it must satisfy its limits.
	subject := strings.TrimSpace(req.Subject)
	if subject != "" && len([]rune(subject)) > v.maxSubject {
		errs = append(errs, model.FieldError{Field: "subject", Message: "Assunto muito longo"})
	}

	message := strings.TrimSpace(req.Message)
	switch {
	case message == "":
		errs = append(errs, model.FieldError{Field: "message", Message: "Mensagem é obrigatória"})
	case len([]rune(message)) > v.maxMessage:
		errs = append(errs, model.FieldError{Field: "message", Message: "Mensagem muito longa"})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &model.Submission{
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
	}, nil
}
