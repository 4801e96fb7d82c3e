package dto

import (
	"net/url"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var idempotencyKeyRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,100}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("proof_ref", validateProofRef)
	}
}

// validateProofRef accepts an empty value or an http/https URL pointing at
// supporting evidence.
func validateProofRef(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// ValidIdempotencyKey reports whether a client-supplied Idempotency-Key
// header value is acceptable: 1-100 chars of alphanumerics, underscore,
// dash and dot.
func ValidIdempotencyKey(key string) bool {
	return idempotencyKeyRe.MatchString(key)
}
