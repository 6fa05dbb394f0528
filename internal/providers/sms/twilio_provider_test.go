package sms

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/config"
)

func twilioConfig() config.TwilioConfig {
	return config.TwilioConfig{
		AccountSID:  "AC123",
		AuthToken:   "secret",
		PhoneNumber: "+15550001111",
	}
}

func TestTwilioProviderSendsMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotForm map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, token, _ := r.BasicAuth()
		gotAuth = token
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"sid":"SM1","status":"queued"}`)
	}))
	defer server.Close()

	provider, err := NewTwilioProvider(twilioConfig(), zerolog.New(io.Discard), WithTwilioBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewTwilioProvider: %v", err)
	}

	raw, err := provider.Send(context.Background(), &Payload{
		MessageID: "msg-1",
		To:        "5551234567",
		Body:      "hello",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if raw.ID != "SM1" || raw.Status != "queued" || raw.Code != http.StatusCreated {
		t.Fatalf("unexpected response %+v", raw)
	}
	if gotPath != "/Accounts/AC123/Messages.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "secret" {
		t.Fatalf("expected auth token in basic auth, got %q", gotAuth)
	}
	if got := gotForm["From"]; len(got) != 1 || got[0] != "+15550001111" {
		t.Fatalf("expected default from number, got %v", gotForm)
	}
}

func TestTwilioProviderSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"code":21211,"message":"invalid 'To' phone number"}`)
	}))
	defer server.Close()

	provider, err := NewTwilioProvider(twilioConfig(), zerolog.New(io.Discard), WithTwilioBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewTwilioProvider: %v", err)
	}

	raw, err := provider.Send(context.Background(), &Payload{MessageID: "msg-1", To: "bad"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "21211") {
		t.Fatalf("expected twilio error code in message, got %v", err)
	}
	if raw == nil || raw.Code != http.StatusBadRequest {
		t.Fatalf("expected raw response with status code, got %+v", raw)
	}
}

func TestTwilioProviderRequiresRecipient(t *testing.T) {
	provider, err := NewTwilioProvider(twilioConfig(), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("NewTwilioProvider: %v", err)
	}
	if _, err := provider.Send(context.Background(), &Payload{MessageID: "msg-1"}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
}

func TestNewTwilioProviderValidatesConfig(t *testing.T) {
	cfg := twilioConfig()
	cfg.AuthToken = ""
	if _, err := NewTwilioProvider(cfg, zerolog.New(io.Discard)); err == nil {
		t.Fatal("expected error for missing auth token")
	}
}
