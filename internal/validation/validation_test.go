package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"valid_simple", "user@example.com", true},
		{"valid_subdomain", "user@mail.example.com", true},
		{"valid_plus", "user+tag@example.com", true},
		{"valid_dot", "user.name@example.com", true},
		{"invalid_no_at", "userexample.com", false},
		{"invalid_no_domain", "user@", false},
		{"invalid_no_user", "@example.com", false},
		{"invalid_double_at", "user@@example.com", false},
		{"invalid_spaces", "user @example.com", false},
		{"invalid_no_tld", "user@example", false},
		{"too_long", "a" + string(make([]byte, 250)) + "@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidEmail(tt.email), "Email: %s", tt.email)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "oliver@example.com", NormalizeEmail("  Oliver@Example.COM "))
}

func TestErrors(t *testing.T) {
	t.Run("empty errors are not an error", func(t *testing.T) {
		errs := Errors{}
		assert.False(t, errs.Any())
		assert.NoError(t, errs.Err())
	})

	t.Run("collects messages per field", func(t *testing.T) {
		errs := Errors{}
		errs.Add("title", MsgBlank)
		errs.Add("title", TooLong(125))
		errs.Add("description", MsgBlank)

		assert.True(t, errs.Any())
		assert.Len(t, errs["title"], 2)

		err := errs.Err()
		var target Errors
		assert.True(t, errors.As(err, &target))
		assert.Equal(t,
			"validation failed: Description can't be blank, Title can't be blank, Title is too long (maximum is 125 characters)",
			err.Error())
	})
}

func TestFullMessage(t *testing.T) {
	assert.Equal(t, "Name has already been taken", FullMessage("name", MsgTaken))
	assert.Equal(t, "Password confirmation can't be blank", FullMessage("password_confirmation", MsgBlank))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("  \t\n"))
	assert.False(t, IsBlank(" a "))
}

func TestCharCount(t *testing.T) {
	assert.Equal(t, 5, CharCount("héllo"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "ab\ncd", SanitizeString("a\x00b\ncd\x07"))
}
