package ics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))
	defer srv.Close()

	f := NewFetcher(2*time.Second, 0)
	res, err := f.Fetch(context.Background(), Source{Code: "JLS", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Body) == 0 {
		t.Fatal("empty body")
	}
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d", res.Status)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(2*time.Second, 2)
	_, err := f.Fetch(context.Background(), Source{Code: "JLS", URL: srv.URL})
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", fe.Status)
	}
}

func TestFetchRetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))
	defer srv.Close()

	f := NewFetcher(2*time.Second, 1)
	res, err := f.Fetch(context.Background(), Source{Code: "JLS", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch after retry: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d", res.Status)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("server saw %d calls, want 2", got)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	f := NewFetcher(1*time.Second, 0)
	_, err := f.Fetch(context.Background(), Source{Code: "X", URL: "http://127.0.0.1:1/x.ics"})
	if err == nil {
		t.Fatal("expected connection error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
}

func TestFetchEmptyURL(t *testing.T) {
	f := NewFetcher(time.Second, 0)
	if _, err := f.Fetch(context.Background(), Source{Code: "X"}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://download.hebcal.com/v4/TOKEN/hebcal.ics", "https://download.hebcal.com/...(redacted)"},
		{"https://jls.pausd.org/fs/calendar-manager/events.ics?calendar_ids[]=7", "https://jls.pausd.org/...(redacted)"},
		{"not a url", "ics://...(redacted)"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
