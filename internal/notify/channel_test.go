package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smeazy/invoicing-backend/pkg/config"
)

func testSMSConfig(baseURL string) config.SMSConfig {
	return config.SMSConfig{
		Enabled:  true,
		BaseURL:  baseURL,
		Username: "sandbox",
		APIKey:   "test-key",
		Timeout:  2 * time.Second,
	}
}

func TestChannelSend(t *testing.T) {
	var gotPath, gotAPIKey, gotTo, gotMessage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apiKey")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotTo = r.PostFormValue("to")
		gotMessage = r.PostFormValue("message")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"SMSMessageData":{"Recipients":[{"number":"+254700000001","status":"Success","messageId":"ATXid_1"}]}}`))
	}))
	defer server.Close()

	channel, err := NewAfricasTalkingChannel(testSMSConfig(server.URL))
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}

	result, err := channel.Send(context.Background(), "+254700000001", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotPath != "/version1/messaging" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Fatalf("apiKey header = %q", gotAPIKey)
	}
	if gotTo != "+254700000001" || gotMessage != "hello" {
		t.Fatalf("form = to:%q message:%q", gotTo, gotMessage)
	}
	if result.Status != "Success" || result.MessageID != "ATXid_1" {
		t.Fatalf("result = %+v", result)
	}
}

func TestChannelSendGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	channel, err := NewAfricasTalkingChannel(testSMSConfig(server.URL))
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}

	if _, err := channel.Send(context.Background(), "+254700000001", "hello"); err == nil {
		t.Fatal("expected gateway error")
	}
}

func TestChannelSendNoRecipients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"SMSMessageData":{"Recipients":[]}}`))
	}))
	defer server.Close()

	channel, err := NewAfricasTalkingChannel(testSMSConfig(server.URL))
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}

	if _, err := channel.Send(context.Background(), "+254700000001", "hello"); err == nil {
		t.Fatal("expected error for empty recipients")
	}
}

func TestNewChannelRequiresCredentials(t *testing.T) {
	cfg := testSMSConfig("https://api.example.com")
	cfg.APIKey = ""
	if _, err := NewAfricasTalkingChannel(cfg); err == nil {
		t.Fatal("expected error for missing api key")
	}

	cfg = testSMSConfig("https://api.example.com")
	cfg.Username = ""
	if _, err := NewAfricasTalkingChannel(cfg); err == nil {
		t.Fatal("expected error for missing username")
	}
}
