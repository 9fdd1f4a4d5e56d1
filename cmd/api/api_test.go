package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crucial707/courier/internal/config"
	"github.com/crucial707/courier/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func (c *apiClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c *apiClient) login(username, password string) {
	c.t.Helper()
	status, data := c.do("POST", "/auth/login", map[string]string{"username": username, "password": password})
	require.Equal(c.t, http.StatusOK, status, string(data))
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(data, &out))
	require.NotEmpty(c.t, out.Token)
	c.token = out.Token
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	cfg := config.Config{
		DBDriver:          "sqlite",
		DBPath:            ":memory:",
		JWTSecret:         "test-secret-for-integration",
		JWTExpireHours:    1,
		AuthRatePerMinute: 600,
	}

	conn, err := db.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn, db.SQLite))

	h, err := newRouter(conn, cfg, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// TestAPI_AliceBobConversation walks two users through register, login, send,
// inbox, reply, conversations and thread against a real SQLite database.
func TestAPI_AliceBobConversation(t *testing.T) {
	srv := newTestServer(t)
	alice := &apiClient{t: t, base: srv.URL}
	bob := &apiClient{t: t, base: srv.URL}

	status, _ := alice.do("POST", "/auth/register", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusCreated, status)
	status, data := bob.do("POST", "/auth/register", map[string]string{"username": "bob", "password": "pw2"})
	require.Equal(t, http.StatusCreated, status)
	var bobUser struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &bobUser))

	status, _ = alice.do("POST", "/auth/register", map[string]string{"username": "alice", "password": "again"})
	assert.Equal(t, http.StatusConflict, status)

	alice.login("alice", "pw1")
	bob.login("bob", "pw2")

	// alice only sees bob in the directory
	status, data = alice.do("GET", "/users", nil)
	require.Equal(t, http.StatusOK, status)
	var users []struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	status, data = alice.do("POST", fmt.Sprintf("/users/%d/messages", bobUser.ID), map[string]string{"body": "hi"})
	require.Equal(t, http.StatusCreated, status, string(data))

	status, data = bob.do("GET", "/messages", nil)
	require.Equal(t, http.StatusOK, status)
	var inbox []struct {
		ID             int64  `json:"id"`
		Body           string `json:"body"`
		SenderUsername string `json:"sender_username"`
	}
	require.NoError(t, json.Unmarshal(data, &inbox))
	require.Len(t, inbox, 1)
	assert.Equal(t, "hi", inbox[0].Body)
	assert.Equal(t, "alice", inbox[0].SenderUsername)

	status, _ = bob.do("POST", fmt.Sprintf("/messages/%d/reply", inbox[0].ID), map[string]string{"body": "hey"})
	require.Equal(t, http.StatusCreated, status)

	var aliceID int64
	for _, c := range []*apiClient{alice, bob} {
		status, data = c.do("GET", "/conversations", nil)
		require.Equal(t, http.StatusOK, status)
		var partners []struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(data, &partners))
		require.Len(t, partners, 1)
		if c == bob {
			aliceID = partners[0].ID
		}
	}

	threadBodies := func(c *apiClient, otherID int64, wantOther string) []string {
		t.Helper()
		status, data := c.do("GET", fmt.Sprintf("/conversations/%d", otherID), nil)
		require.Equal(t, http.StatusOK, status)
		var thread struct {
			Other    struct{ Username string } `json:"other"`
			Messages []struct{ Body string }   `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(data, &thread))
		assert.Equal(t, wantOther, thread.Other.Username)
		var bodies []string
		for _, m := range thread.Messages {
			bodies = append(bodies, m.Body)
		}
		return bodies
	}

	threads := [2][]string{
		threadBodies(alice, bobUser.ID, "bob"),
		threadBodies(bob, aliceID, "alice"),
	}
	assert.Equal(t, []string{"hi", "hey"}, threads[0])
	assert.Equal(t, threads[0], threads[1], "both sides see the same thread")
}

func TestAPI_AuthRequiredAndLogout(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}

	status, _ := c.do("GET", "/messages", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do("POST", "/auth/register", map[string]string{"username": "carol", "password": "pw"})
	require.Equal(t, http.StatusCreated, status)
	c.login("carol", "pw")

	status, data := c.do("GET", "/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `"username":"carol"`)

	status, data = c.do("GET", "/me/activity", nil)
	require.Equal(t, http.StatusOK, status)
	var activity []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(data, &activity))
	require.Len(t, activity, 2)
	assert.Equal(t, "login", activity[0].Action)
	assert.Equal(t, "register", activity[1].Action)

	status, _ = c.do("POST", "/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = c.do("GET", "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_LoginFailuresLookAlike(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}

	status, _ := c.do("POST", "/auth/register", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusCreated, status)

	s1, wrongPw := c.do("POST", "/auth/login", map[string]string{"username": "alice", "password": "wrong"})
	s2, unknown := c.do("POST", "/auth/login", map[string]string{"username": "nobody", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, s1)
	assert.Equal(t, http.StatusUnauthorized, s2)
	assert.Equal(t, string(wrongPw), string(unknown))
}

func TestAPI_SendToMissingUser(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}

	c.do("POST", "/auth/register", map[string]string{"username": "alice", "password": "pw1"})
	c.login("alice", "pw1")

	status, _ := c.do("POST", "/users/999/messages", map[string]string{"body": "hello?"})
	assert.Equal(t, http.StatusNotFound, status)

	status, data := c.do("GET", "/messages", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}

	status, body := c.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))

	status, _ = c.do("GET", "/ready", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = c.do("GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "courier_http_requests_total")
}
