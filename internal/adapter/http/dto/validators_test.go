package dto

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

func TestValidIdempotencyKey(t *testing.T) {
	valid := []string{"order-001", "a", "retry.2024_06.a-b", strings.Repeat("k", 100)}
	for _, k := range valid {
		assert.True(t, ValidIdempotencyKey(k), "expected %q to be valid", k)
	}

	invalid := []string{"", "has space", "emoji-é", "slash/inside", strings.Repeat("k", 101)}
	for _, k := range invalid {
		assert.False(t, ValidIdempotencyKey(k), "expected %q to be invalid", k)
	}
}

func TestProofRefValidation(t *testing.T) {
	type payload struct {
		ProofRef string `json:"proof_ref" binding:"omitempty,proof_ref"`
	}

	cases := []struct {
		ref string
		ok  bool
	}{
		{"", true},
		{"https://registry.example.org/evidence/42", true},
		{"http://registry.example.org/evidence/42", true},
		{"ftp://registry.example.org/evidence", false},
		{"not a url", false},
		{"javascript:alert(1)", false},
	}

	for _, tc := range cases {
		err := binding.Validator.ValidateStruct(&payload{ProofRef: tc.ref})
		if tc.ok {
			assert.NoError(t, err, "proof_ref %q", tc.ref)
		} else {
			assert.Error(t, err, "proof_ref %q", tc.ref)
		}
	}
}
