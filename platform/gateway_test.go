package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(srv *httptest.Server) *GatewayClient {
	return &GatewayClient{
		baseURL: srv.URL,
		token:   "t0ken",
		client:  srv.Client(),
	}
}

func TestGatewaySend(t *testing.T) {
	sentAt := time.Date(2024, 6, 20, 7, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer t0ken" {
			t.Errorf("missing bearer token, got %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["channel_id"] != "c1" || body["text"] != "hello" {
			t.Errorf("unexpected payload: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "msg-9", "sent_at": sentAt})
	}))
	defer srv.Close()

	msg, err := testClient(srv).Send(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ID != "msg-9" || msg.ChannelID != "c1" || !msg.SentAt.Equal(sentAt) {
		t.Errorf("unexpected message handle: %+v", msg)
	}
}

func TestGatewaySendSynthesizesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	msg, err := testClient(srv).Send(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected a synthesized message id when the gateway omits one")
	}
	if msg.SentAt.IsZero() {
		t.Error("expected SentAt to default to now")
	}
}

func TestGatewaySendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := testClient(srv).Send(context.Background(), "c1", "hello"); err == nil {
		t.Fatal("expected an error on non-2xx status")
	}
}

func TestGatewayRemoveReaction(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv).RemoveReaction(context.Background(), "c1", "m1", Markers[0], 42)
	if err != nil {
		t.Fatalf("RemoveReaction: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/reactions" {
		t.Errorf("unexpected request: %s %s", gotMethod, gotPath)
	}
}

func TestIsMarker(t *testing.T) {
	for _, m := range Markers {
		if !IsMarker(m) {
			t.Errorf("IsMarker(%q) = false", m)
		}
	}
	if IsMarker("👍") {
		t.Error("thumbs up is not a check-in marker")
	}
}
