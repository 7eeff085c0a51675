package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"standard address", "alice@denim.com", "a****@*****.com"},
		{"single char local part", "a@shop.co", "a@****.co"},
		{"subdomain", "bob@mail.denim.io", "b**@****.*****.io"},
		{"not an email", "not-an-email", "[invalid-email]"},
		{"two at signs", "a@b@c.com", "[invalid-email]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizedEmail(tt.email))
		})
	}
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("email", "a@b.com", "production").Value.String())
	assert.Equal(t, "a@b.com", RedactedAttr("email", "a@b.com", "development").Value.String())
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("email=a@b.com"))
	assert.True(t, SanitizeQueryString("Session=abc"))
	assert.True(t, SanitizeQueryString("password=hunter2"))
	assert.False(t, SanitizeQueryString("page=2&sort=desc"))
	assert.False(t, SanitizeQueryString(""))
}

func TestEscapeForDisplay(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", EscapeForDisplay("<script>alert(1)</script>"))
	assert.Equal(t, "Ada", EscapeForDisplay("  Ada "))
	assert.Equal(t, "O&#39;Brien", EscapeForDisplay("O'Brien"))
}
