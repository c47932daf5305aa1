package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/daily-diet/internal/auth"
	"github.com/sakif/daily-diet/internal/config"
	"github.com/sakif/daily-diet/internal/model"
	sqliteRepo "github.com/sakif/daily-diet/internal/repository/sqlite"
)

// These tests drive the full stack (router, middleware, services, SQLite)
// through httptest, one fresh in-memory database per test.

func newTestServer(t *testing.T, opts ...func(*config.Config)) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.DBPath = sqliteRepo.MemoryPath
	for _, o := range opts {
		o(&cfg)
	}

	srv, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts
}

type client struct {
	t      *testing.T
	base   string
	cookie *http.Cookie
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()

	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// register creates a user and returns a client holding its session cookie.
func register(t *testing.T, base, email string) *client {
	t.Helper()
	c := &client{t: t, base: base}

	resp := c.do(http.MethodPost, "/users", map[string]string{"name": "Will", "email": email})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, ck := range resp.Cookies() {
		if ck.Name == auth.CookieName {
			c.cookie = ck
		}
	}
	require.NotNil(t, c.cookie, "registration must set the session cookie")
	return c
}

func (c *client) createMeal(name string, onDiet bool, date time.Time) model.Meal {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/meals", map[string]any{
		"name":        name,
		"description": name + " description",
		"isOnDiet":    onDiet,
		"date":        date.Format(time.RFC3339),
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	return decode[struct {
		Meal model.Meal `json:"meal"`
	}](c.t, resp).Meal
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	c := &client{t: t, base: ts.URL}

	resp := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)
	c := register(t, ts.URL, "fakeEmail@mail.com")

	assert.Equal(t, "/", c.cookie.Path)
	assert.True(t, c.cookie.HttpOnly)

	me := c.do(http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, me.StatusCode)
	user := decode[model.User](t, me)
	assert.Equal(t, "fakeemail@mail.com", user.Email)
	assert.Equal(t, "Will", user.Name)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts.URL, "will@mail.com")

	anon := &client{t: t, base: ts.URL}
	resp := anon.do(http.MethodPost, "/users", map[string]string{"name": "Will", "email": "will@mail.com"})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegister_InvalidEmail(t *testing.T) {
	ts := newTestServer(t)
	anon := &client{t: t, base: ts.URL}

	resp := anon.do(http.MethodPost, "/users", map[string]string{"name": "Will", "email": "nope"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMeals_RequireSession(t *testing.T) {
	ts := newTestServer(t)
	anon := &client{t: t, base: ts.URL}

	for _, path := range []string{"/meals", "/meals/metrics", "/meals/abc", "/users/me"} {
		resp := anon.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	forged := &client{t: t, base: ts.URL, cookie: &http.Cookie{Name: auth.CookieName, Value: "forged"}}
	resp := forged.do(http.MethodGet, "/meals", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeals_CreateAndList(t *testing.T) {
	ts := newTestServer(t)
	c := register(t, ts.URL, "will@mail.com")

	now := time.Now().UTC().Truncate(time.Second)
	c.createMeal("Almoço 2", true, now.Add(48*time.Hour))
	c.createMeal("Almoço", true, now)

	resp := c.do(http.MethodGet, "/meals", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[struct {
		Meals []model.Meal `json:"meals"`
	}](t, resp).Meals
	require.Len(t, list, 2)
	assert.Equal(t, "Almoço", list[0].Name)
	assert.Equal(t, "Almoço 2", list[1].Name)
}

func TestMeals_ShowUpdateDelete(t *testing.T) {
	ts := newTestServer(t)
	c := register(t, ts.URL, "will@mail.com")
	meal := c.createMeal("Almoço", true, time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC))

	show := c.do(http.MethodGet, "/meals/"+meal.ID, nil)
	require.Equal(t, http.StatusOK, show.StatusCode)
	got := decode[struct {
		Meal model.Meal `json:"meal"`
	}](t, show).Meal
	assert.Equal(t, meal.ID, got.ID)
	assert.True(t, got.Date.Equal(time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)))

	update := c.do(http.MethodPut, "/meals/"+meal.ID, map[string]any{
		"name":        "Jantar",
		"description": "pizza",
		"isOnDiet":    false,
		"date":        "2024-04-01T20:00:00Z",
	})
	require.Equal(t, http.StatusOK, update.StatusCode)
	updated := decode[struct {
		Meal model.Meal `json:"meal"`
	}](t, update).Meal
	assert.Equal(t, "Jantar", updated.Name)
	assert.False(t, updated.IsOnDiet)

	del := c.do(http.MethodDelete, "/meals/"+meal.ID, nil)
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	gone := c.do(http.MethodGet, "/meals/"+meal.ID, nil)
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func TestMeals_OtherUserCannotTouch(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts.URL, "alice@mail.com")
	bob := register(t, ts.URL, "bob@mail.com")
	meal := alice.createMeal("Almoço", true, time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/meals/"+meal.ID, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodPut, "/meals/"+meal.ID, map[string]any{
		"name": "x", "description": "", "isOnDiet": true, "date": "2024-04-01T12:00:00Z",
	}).StatusCode)
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodDelete, "/meals/"+meal.ID, nil).StatusCode)

	// Still there for its owner.
	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/meals/"+meal.ID, nil).StatusCode)
}

func TestMeals_Metrics(t *testing.T) {
	ts := newTestServer(t)
	c := register(t, ts.URL, "will@mail.com")

	at := func(hour, min int) time.Time { return time.Date(2024, 4, 1, hour, min, 0, 0, time.UTC) }
	c.createMeal("Almoço 1", true, at(9, 30))
	c.createMeal("Almoço 2", false, at(13, 0))
	c.createMeal("Lanche", true, at(18, 0))
	c.createMeal("Jantar", true, at(20, 0))
	c.createMeal("Ceia", true, at(22, 0))

	resp := c.do(http.MethodGet, "/meals/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"totalMeals":5,"totalMealsOnDiet":4,"totalMealsOffDiet":1,"bestSequenceOnDietSequence":3}`,
		string(body))
}

func TestMeals_MetricsEmpty(t *testing.T) {
	ts := newTestServer(t)
	c := register(t, ts.URL, "will@mail.com")

	resp := c.do(http.MethodGet, "/meals/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.Metrics{}, decode[model.Metrics](t, resp))
}

func TestCORS_Preflight(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.CORSOrigins = []string{"http://localhost:3000"}
	})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/meals", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DisabledByDefault(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
