package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/garimpolabs/garimpo/models"
)

func sampleEvent() *Event {
	return NewCompletedEvent(&models.ScrapingResult{
		Request: models.ScrapingRequest{ProductName: "cafeteira"},
		Summary: models.Summary{TotalProducts: 4, SitesSearched: 2},
	})
}

func TestDeliver(t *testing.T) {
	var gotBody []byte
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Garimpo-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Deliver(context.Background(), srv.URL, "topsecret", sampleEvent())
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	var ev Event
	if err := json.Unmarshal(gotBody, &ev); err != nil {
		t.Fatalf("body not valid JSON: %v", err)
	}
	if ev.Type != "search.completed" || ev.Product != "cafeteira" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Summary == nil || ev.Summary.TotalProducts != 4 {
		t.Errorf("summary = %+v", ev.Summary)
	}

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Errorf("signature = %s, want %s", gotSig, want)
	}
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Garimpo-Signature")
	}))
	defer srv.Close()

	if err := Deliver(context.Background(), srv.URL, "", sampleEvent()); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if gotSig != "" {
		t.Errorf("unexpected signature header %q", gotSig)
	}
}

func TestDeliver_EndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := Deliver(context.Background(), srv.URL, "", sampleEvent())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want status 502 failure", err)
	}
}
