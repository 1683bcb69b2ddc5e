package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerifyEmail(t *testing.T) {
	subject, text, html, err := Render(TemplateVerifyEmail, map[string]any{"Name": "Jane", "Code": "123456"})
	require.NoError(t, err)
	assert.NotEmpty(t, subject)
	assert.Contains(t, text, "123456")
	assert.Contains(t, html, "123456")
	assert.Contains(t, text, "Jane")
}

func TestRenderPasswordReset(t *testing.T) {
	_, text, html, err := Render(TemplatePasswordReset, map[string]any{"Name": "Jane", "Code": "654321"})
	require.NoError(t, err)
	assert.Contains(t, text, "654321")
	assert.Contains(t, html, "654321")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("no_such_template", nil)
	assert.Error(t, err)
}
