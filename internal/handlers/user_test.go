package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserHandler_ListUsers_ExcludesCaller(t *testing.T) {
	_, mock, users, _ := newMockRepos(t)

	mock.ExpectQuery(`SELECT id, username, created_at FROM users WHERE id <> \$1 ORDER BY id`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at"}).AddRow(2, "bob", time.Now()))

	h := &UserHandler{Users: users}
	rr := httptest.NewRecorder()
	h.ListUsers(rr, asUser(httptest.NewRequest("GET", "/users", nil), 1))

	if rr.Code != http.StatusOK {
		t.Fatalf("ListUsers status: got %d, want 200", rr.Code)
	}
	var out []struct {
		ID int64 `json:"id"`
	}
	json.NewDecoder(rr.Body).Decode(&out)
	if len(out) != 1 || out[0].ID != 2 {
		t.Errorf("unexpected list: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_GetUser(t *testing.T) {
	_, mock, users, _ := newMockRepos(t)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at"}).AddRow(2, "bob", time.Now()))
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at"}))

	h := &UserHandler{Users: users}

	rr := httptest.NewRecorder()
	h.GetUser(rr, requestWithChiURLParams("GET", "/users/2", nil, map[string]string{"id": "2"}))
	if rr.Code != http.StatusOK {
		t.Errorf("GetUser status: got %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetUser(rr, requestWithChiURLParams("GET", "/users/9", nil, map[string]string{"id": "9"}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("GetUser missing: got %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetUser(rr, requestWithChiURLParams("GET", "/users/-1", nil, map[string]string{"id": "-1"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("GetUser bad id: got %d, want 400", rr.Code)
	}
}
