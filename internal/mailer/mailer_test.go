package mailer

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
)

func renderTemplate(t *testing.T, file string, data any) (string, string) {
	t.Helper()

	tmpl, err := template.ParseFS(FS, "templates/"+file)
	if err != nil {
		t.Fatalf("parse %s: %v", file, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		t.Fatalf("render subject: %v", err)
	}
	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		t.Fatalf("render body: %v", err)
	}
	return subject.String(), body.String()
}

func TestUserInvitationTemplate(t *testing.T) {
	subject, body := renderTemplate(t, UserWelcomeTemplate, struct {
		Username      string
		ActivationURL string
	}{
		Username:      "이선주",
		ActivationURL: "https://jazzlink.kr/confirm?token=abc",
	})

	if subject == "" {
		t.Fatal("subject is empty")
	}
	if !strings.Contains(body, "이선주") {
		t.Fatal("body missing username")
	}
	if !strings.Contains(body, "https://jazzlink.kr/confirm?token=abc") {
		t.Fatal("body missing activation URL")
	}
}

func TestResetPasswordTemplate(t *testing.T) {
	_, body := renderTemplate(t, ResetPasswordTemplate, struct {
		Username string
		ResetURL string
	}{
		Username: "김철수",
		ResetURL: "https://jazzlink.kr/reset?token=xyz",
	})

	if !strings.Contains(body, "https://jazzlink.kr/reset?token=xyz") {
		t.Fatal("body missing reset URL")
	}
}
