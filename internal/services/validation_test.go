package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct_LoginRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        LoginRequest
		wantFields map[string]string
	}{
		{
			name: "valid",
			req:  LoginRequest{Email: "ana@denim.com", Password: "secret"},
		},
		{
			name:       "missing both",
			req:        LoginRequest{},
			wantFields: map[string]string{"email": "this field is required", "password": "this field is required"},
		},
		{
			name:       "malformed email",
			req:        LoginRequest{Email: "not-an-email", Password: "secret"},
			wantFields: map[string]string{"email": "must be a valid email address"},
		},
		{
			name:       "password too long",
			req:        LoginRequest{Email: "ana@denim.com", Password: strings.Repeat("x", 129)},
			wantFields: map[string]string{"password": "must have a maximum of 128 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := validateStruct(tt.req)
			require.NoError(t, err)

			got := make(map[string]string, len(fields))
			for _, f := range fields {
				got[f.Field] = f.Message
			}
			if len(tt.wantFields) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}
