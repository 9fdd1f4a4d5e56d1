package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDo_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"user not found"}`))
	}))
	defer srv.Close()

	c := New("tok")
	c.BaseURL = srv.URL
	_, err := c.Get(context.Background(), "/users/9", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "user not found" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestDo_DecodesAndReturnsRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":4,"body":"hi"}`))
	}))
	defer srv.Close()

	c := New("tok")
	c.BaseURL = srv.URL
	var m Message
	raw, err := c.Post(context.Background(), "/users/2/messages", map[string]string{"body": "hi"}, &m)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if m.ID != 4 || m.Body != "hi" {
		t.Fatalf("decoded %+v", m)
	}
	if string(raw) != `{"id":4,"body":"hi"}` {
		t.Fatalf("raw = %s", raw)
	}
}
