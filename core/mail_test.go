package core

import (
	"net/mail"
	"strings"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func TestRenderEmailTemplates(t *testing.T) {
	conf := &Config{
		Debug:           true,
		FrontendBaseURL: "http://localhost:3000",
	}
	ParseEmailTemplates(conf, nopLogger{})

	msg := &EmailMessage{
		To:           []mail.Address{{Name: "Amani", Address: "amani@test.cd"}},
		Subject:      "Welcome to Shule",
		TemplateName: "welcome",
		TemplateData: struct {
			Name string
			Role string
		}{"Amani", "STUDENT"},
	}
	if err := msg.Render(conf); err != nil {
		t.Fatalf("Render(): %v", err)
	}

	for _, want := range []string{"Amani", "STUDENT", conf.FrontendBaseURL} {
		if !strings.Contains(msg.TextContent, want) {
			t.Errorf("TextContent missing %q:\n%s", want, msg.TextContent)
		}
		if !strings.Contains(msg.HTMLContent, want) {
			t.Errorf("HTMLContent missing %q:\n%s", want, msg.HTMLContent)
		}
	}
	if !msg.HasContent() || !msg.HasRecipients() {
		t.Error("rendered message has no content or recipients")
	}
}

func TestRenderEmailMessage_plainBody(t *testing.T) {
	msg := &EmailMessage{
		To:      []mail.Address{{Address: "amani@test.cd"}},
		Subject: "Heads up",
		BodyStr: "school closes early today",
	}
	if err := msg.Render(&Config{}); err != nil {
		t.Fatalf("Render(): %v", err)
	}
	if msg.TextContent != msg.BodyStr {
		t.Errorf("TextContent = %q, want %q", msg.TextContent, msg.BodyStr)
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		in    string
		lower bool
		want  string
	}{
		{in: "  Amani ", want: "Amani"},
		{in: " AMANI@Test.CD ", lower: true, want: "amani@test.cd"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := CleanString(tt.in, tt.lower); got != tt.want {
			t.Errorf("CleanString(%q, %v) = %q, want %q", tt.in, tt.lower, got, tt.want)
		}
	}
}
