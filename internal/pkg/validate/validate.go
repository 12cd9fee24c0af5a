package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-video-intake/internal/domain"
	"github.com/go-video-intake/internal/pkg/emailcheck"
	"github.com/go-video-intake/internal/pkg/youtube"
)

// Field names as they appear in the submitted JSON body.
const (
	FieldURL      = "url"
	FieldEmail    = "email"
	FieldHoneypot = "_honeypot"
)

// Validator wraps a go-playground validator with the intake-specific tags
// registered: youtube_url and not_disposable.
type Validator struct {
	v *validator.Validate
}

// Result is the schema-level outcome for a submission.
type Result struct {
	// Errors maps field name to a user-facing message; honeypot failures are not included.
	Errors map[string]string
	// HoneypotFilled is set when the hidden field carried any value.
	HoneypotFilled bool
}

// OK reports whether no user-facing field failed.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// New builds a Validator. Custom tags are registered once here, before first use.
func New(blocklist *emailcheck.Blocklist) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("youtube_url", func(fl validator.FieldLevel) bool {
		return youtube.LooksLikeVideoLink(fl.Field().String())
	})
	_ = v.RegisterValidation("not_disposable", func(fl validator.FieldLevel) bool {
		return !blocklist.IsDisposable(fl.Field().String())
	})
	return &Validator{v: v}
}

// Submission validates the schema of req and returns per-field messages.
func (val *Validator) Submission(req *domain.SubmissionRequest) Result {
	res := Result{Errors: map[string]string{}}
	err := val.v.Struct(req)
	if err == nil {
		return res
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		res.Errors[FieldURL] = err.Error()
		return res
	}
	for _, fe := range ve {
		if fe.Field() == FieldHoneypot {
			res.HoneypotFilled = true
			continue
		}
		if _, seen := res.Errors[fe.Field()]; !seen {
			res.Errors[fe.Field()] = message(fe)
		}
	}
	return res
}

// FieldErrors flattens a field→message map in a stable order (url before email).
func FieldErrors(errs map[string]string) []domain.FieldError {
	out := make([]domain.FieldError, 0, len(errs))
	for _, f := range []string{FieldURL, FieldEmail} {
		if msg, ok := errs[f]; ok {
			out = append(out, domain.FieldError{Field: f, Message: msg})
		}
	}
	for f, msg := range errs {
		if f != FieldURL && f != FieldEmail {
			out = append(out, domain.FieldError{Field: f, Message: msg})
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case FieldURL:
		switch fe.Tag() {
		case "required", "url":
			return "Please provide a valid URL"
		case "youtube_url":
			return "Please provide a valid YouTube link"
		case "max":
			return "URL exceeds the maximum length"
		}
	case FieldEmail:
		switch fe.Tag() {
		case "required", "email":
			return "Please provide a valid email address"
		case "max":
			return "Email address is too long"
		case "not_disposable":
			return "Please use a regular email provider"
		}
	}
	return "field '" + fe.Field() + "' failed '" + fe.Tag() + "'"
}
