package mailer

import (
	"context"
	"net/http"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/aurumworks/jewelstore-backend/pkg/config"
)

type fakeSendClient struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, email)
	status := f.status
	if status == 0 {
		status = http.StatusAccepted
	}
	return &rest.Response{StatusCode: status}, nil
}

func TestSend(t *testing.T) {
	fake := &fakeSendClient{}
	m := &Mailer{client: fake, fromName: "Jewelstore", fromAddr: "billing@jewelstore.test"}

	err := m.Send(context.Background(), Message{
		ToName:    "Ada",
		ToAddress: "ada@example.com",
		Subject:   "Invoice from Jewelstore",
		PlainBody: "Pay here: https://pay.example/link",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(fake.sent))
	}
	email := fake.sent[0]
	if email.Subject != "Invoice from Jewelstore" {
		t.Fatalf("unexpected subject %q", email.Subject)
	}
	if email.From.Address != "billing@jewelstore.test" {
		t.Fatalf("unexpected from address %q", email.From.Address)
	}
}

func TestSendRejectsMissingRecipient(t *testing.T) {
	m := &Mailer{client: &fakeSendClient{}, fromAddr: "billing@jewelstore.test"}
	if err := m.Send(context.Background(), Message{Subject: "x"}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
}

func TestSendSurfacesRejection(t *testing.T) {
	m := &Mailer{client: &fakeSendClient{status: http.StatusUnauthorized}, fromAddr: "billing@jewelstore.test"}
	err := m.Send(context.Background(), Message{ToAddress: "ada@example.com"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(config.SendgridConfig{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := New(config.SendgridConfig{APIKey: "SG.x"}); err == nil {
		t.Fatal("expected error for missing from email")
	}
	if _, err := New(config.SendgridConfig{APIKey: "SG.x", DefaultFrom: "a@b.c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
