package mailer

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
)

// Template names used by EmailJob.
const (
	TemplateVerifyEmail   = "verify_email"
	TemplatePasswordReset = "password_reset"
)

type rendered struct {
	subject string
	text    string
	html    string
}

var templates = map[string]rendered{
	TemplateVerifyEmail: {
		subject: "Verify your email address",
		text:    "Hi {{.Name}},\n\nYour verification code is {{.Code}}. It expires in 10 minutes.\n\nIf you did not create an account, you can ignore this email.\n",
		html: `<p>Hi {{.Name}},</p>
<p>Your verification code is <strong style="font-size:1.4em;letter-spacing:2px">{{.Code}}</strong>. It expires in 10 minutes.</p>
<p>If you did not create an account, you can ignore this email.</p>`,
	},
	TemplatePasswordReset: {
		subject: "Reset your password",
		text:    "Hi {{.Name}},\n\nYour password reset code is {{.Code}}. It expires in 10 minutes.\n\nIf you did not request a reset, you can ignore this email.\n",
		html: `<p>Hi {{.Name}},</p>
<p>Your password reset code is <strong style="font-size:1.4em;letter-spacing:2px">{{.Code}}</strong>. It expires in 10 minutes.</p>
<p>If you did not request a reset, you can ignore this email.</p>`,
	},
}

// Render produces subject, text and HTML bodies for a named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	t, ok := templates[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}

	tt, err := texttpl.New(name).Parse(t.text)
	if err != nil {
		return "", "", "", err
	}
	var tb bytes.Buffer
	if err := tt.Execute(&tb, data); err != nil {
		return "", "", "", err
	}

	ht, err := htmpl.New(name).Parse(t.html)
	if err != nil {
		return "", "", "", err
	}
	var hb bytes.Buffer
	if err := ht.Execute(&hb, data); err != nil {
		return "", "", "", err
	}

	return t.subject, tb.String(), hb.String(), nil
}
