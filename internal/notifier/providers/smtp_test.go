package providers

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestBuildMessage(t *testing.T) {
	date := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("bot@example.com", "me@example.com", "3 leads found", "<p>hi</p>", "hi\nthere", "b42", date))

	for _, want := range []string{
		"From: bot@example.com\r\n",
		"To: me@example.com\r\n",
		"Subject: 3 leads found\r\n",
		"Date: Mon, 02 Mar 2026 09:00:00 +0000\r\n",
		"boundary=\"b42\"",
		"--b42\r\nContent-Type: text/plain",
		"hi\r\nthere\r\n",
		"--b42\r\nContent-Type: text/html",
		"--b42--\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildMessageEncodesSubject(t *testing.T) {
	msg := string(buildMessage("a", "b", "Leads → posted", "", "", "x", time.Now()))
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Errorf("non-ASCII subject should be Q-encoded:\n%s", msg)
	}
}

func TestSend(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "bot@example.com")
	var gotAddr string
	var gotAuth smtp.Auth
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth = addr, a
		return nil
	}
	if err := s.Send("me@example.com", "s", "h", "p"); err != nil {
		t.Fatal(err)
	}
	if gotAddr != "smtp.example.com:587" || gotAuth != nil {
		t.Fatalf("addr=%s auth=%v", gotAddr, gotAuth)
	}

	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	if err := s.Send("me@example.com", "s", "h", "p"); err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
