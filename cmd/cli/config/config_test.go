package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestTokenLifecycle(t *testing.T) {
	t.Setenv("COURIER_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))

	if _, err := LoadToken(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("LoadToken before save: got %v, want ErrNotLoggedIn", err)
	}

	if err := SaveToken("abc.def.ghi"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	tok, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if tok != "abc.def.ghi" {
		t.Fatalf("token = %q", tok)
	}

	removed, err := DeleteToken()
	if err != nil || !removed {
		t.Fatalf("DeleteToken = %v, %v", removed, err)
	}
	removed, err = DeleteToken()
	if err != nil || removed {
		t.Fatalf("second DeleteToken = %v, %v", removed, err)
	}
}

func TestAPIURL(t *testing.T) {
	t.Setenv("COURIER_API_URL", "")
	if got := APIURL(); got != defaultAPIURL {
		t.Fatalf("default APIURL = %q", got)
	}
	t.Setenv("COURIER_API_URL", "https://chat.example/")
	if got := APIURL(); got != "https://chat.example" {
		t.Fatalf("APIURL = %q", got)
	}
}
