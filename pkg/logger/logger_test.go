package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "a****@*******.com"},
		{"a@x.com", "a@*.com"},
		{"not-an-email", "[invalid-email]"},
		{"a@b@c", "[invalid-email]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizedEmail(tt.in), tt.in)
	}
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "123456", RedactedAttr("code", "123456", "development").Value.String())
	assert.Equal(t, "[REDACTED]", RedactedAttr("code", "123456", "production").Value.String())
	assert.Equal(t, "[REDACTED]", RedactedAttr("code", "123456", "staging").Value.String())
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("token=abc"))
	assert.True(t, SanitizeQueryString("activation_CODE=1"))
	assert.False(t, SanitizeQueryString("page=2&limit=10"))
	assert.False(t, SanitizeQueryString(""))
}

func TestAuditLogger_LogAuthAttempt(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	al.LogAuthAttempt(ctx, AuditEvent{
		EventType:     "login",
		Email:         "alice@example.com",
		Success:       false,
		FailureReason: "invalid_credential",
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "auth", record["audit_type"])
	assert.Equal(t, "login", record["event_type"])
	assert.Equal(t, "203.0.113.7", record["ip_address"])
	assert.Equal(t, "a****@*******.com", record["email"])
	assert.Equal(t, "invalid_credential", record["failure_reason"])
	assert.NotContains(t, buf.String(), "alice@example.com")
}

func TestAuditLogger_LogPasswordChange(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogPasswordChange(context.Background(), "u1", true)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "password_change", record["event_type"])
	assert.Equal(t, "u1", record["user_id"])
	_, hasIP := record["ip_address"]
	assert.False(t, hasIP)
}
