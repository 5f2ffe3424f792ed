package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/datastore"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/scheduler"
	"github.com/aleister1102/releasewatch/internal/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeScheduler struct {
	mu        sync.Mutex
	triggered []models.EntityKind
	pending   map[models.EntityKind]bool
	running   bool
}

func (f *fakeScheduler) Trigger(kind models.EntityKind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending[kind] {
		return false, nil
	}
	f.triggered = append(f.triggered, kind)
	return true, nil
}

func (f *fakeScheduler) IsRunning() bool {
	return f.running
}

func (f *fakeScheduler) Triggered() []models.EntityKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.EntityKind(nil), f.triggered...)
}

type fakeSites struct {
	sites []string
	err   error
	token string
}

func (f *fakeSites) ListSites(_ context.Context, token string) ([]string, error) {
	f.token = token
	return f.sites, f.err
}

type testEnv struct {
	server    *Server
	provider  *config.Provider
	state     *datastore.StateStore
	archive   *datastore.StatsArchive
	users     *users.Store
	scheduler *fakeScheduler
	history   *scheduler.HistoryDB
	sites     *fakeSites
	hub       *Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := config.NewDefaultGlobalConfig()
	cfg.GitHub.Repos = []string{"acme/widget", "acme/gadget", "acme/new"}
	cfg.Plausible.Sites = []string{"example.com"}
	cfg.StorageConfig = config.StorageConfig{
		StateFile:        filepath.Join(dir, "last_checks.json"),
		CacheDir:         filepath.Join(dir, "cache"),
		StatsArchiveDir:  filepath.Join(dir, "stats"),
		CompressionCodec: "snappy",
	}
	cfg.WebConfig.SessionSecret = "test-secret"

	provider, err := config.NewProvider(cfg, "", zerolog.Nop())
	require.NoError(t, err)
	state, err := datastore.NewStateStore(cfg.StorageConfig, zerolog.Nop())
	require.NoError(t, err)
	archive, err := datastore.NewStatsArchive(cfg.StorageConfig, zerolog.Nop())
	require.NoError(t, err)
	userStore, err := users.NewStore(filepath.Join(dir, "users.json"), zerolog.Nop(), users.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	history, err := scheduler.NewHistoryDB(filepath.Join(dir, "history.db"), 0, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	env := &testEnv{
		provider:  provider,
		state:     state,
		archive:   archive,
		users:     userStore,
		scheduler: &fakeScheduler{pending: map[models.EntityKind]bool{}, running: true},
		history:   history,
		sites:     &fakeSites{sites: []string{"example.com", "example.org"}},
		hub:       NewHub(zerolog.Nop()),
	}

	server, err := NewServer(cfg.WebConfig, Deps{
		Config:    provider,
		State:     state,
		Users:     userStore,
		Scheduler: env.scheduler,
		History:   history,
		Archive:   archive,
		Sites:     env.sites,
		Hub:       env.hub,
		Cache:     NewPageCache(context.Background(), config.RedisConfig{}, zerolog.Nop()),
	}, zerolog.Nop())
	require.NoError(t, err)
	env.server = server
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusFound, rec.Code)
	cookie := findCookie(rec, sessionCookie)
	require.NotNil(t, cookie, "login sets the session cookie")
	return cookie
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid credentials", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/login", url.Values{"username": {"admin"}, "password": {"admin"}})
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		cookie := findCookie(rec, sessionCookie)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/login", url.Values{"username": {"admin"}, "password": {"nope"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, findCookie(rec, sessionCookie))
		assert.Contains(t, parseHTML(t, rec).Find("p.error").Text(), "Invalid username or password")
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/login", url.Values{"username": {"admin"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/", nil, &http.Cookie{Name: sessionCookie, Value: "forged"})
	assert.Equal(t, http.StatusFound, rec.Code)

	// a session for a deleted user no longer grants access
	_, err := env.users.Add("temp", "pw")
	require.NoError(t, err)
	cookie := env.login(t, "temp", "pw")
	require.NoError(t, env.users.Delete("temp"))
	rec = env.do(t, http.MethodGet, "/", nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "admin", "admin")

	rec := env.do(t, http.MethodGet, "/logout", nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cleared := findCookie(rec, sessionCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.state.SetMarker(models.KindRelease, "acme/widget", "2024-01-01T00:00:00Z"))
	require.NoError(t, env.state.SetMarker(models.KindRelease, "acme/gadget", "2024-03-01T10:00:00Z"))
	_, _, err := env.state.CommitRelease(models.ReleasePayload{
		Repo:        "acme/gadget",
		Tag:         "v2.0.0",
		Body:        "## Changes\n\n* **faster** builds",
		PublishedAt: "2024-03-01T10:00:00Z",
	})
	require.NoError(t, err)

	_, err = env.history.RecordCycleStart(context.Background(), models.CycleSummary{ID: "c1", Group: models.KindRelease, Trigger: models.TriggerTimer})
	require.NoError(t, err)

	cookie := env.login(t, "admin", "admin")
	rec := env.do(t, http.MethodGet, "/", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)

	var order []string
	doc.Find("#repos tr.repo").Each(func(_ int, sel *goquery.Selection) {
		order = append(order, sel.AttrOr("data-repo", ""))
	})
	assert.Equal(t, []string{"acme/gadget", "acme/widget", "acme/new"}, order)

	gadget := doc.Find(`#repos tr.repo[data-repo="acme/gadget"]`)
	assert.Equal(t, "01.03.2024 11:00", strings.TrimSpace(gadget.Find("td.published").Text()), "shown in Europe/Berlin")
	assert.Contains(t, gadget.Text(), "v2.0.0")
	assert.Contains(t, gadget.Text(), "Changes faster builds")
	assert.Equal(t, "/releases/acme-gadget", gadget.Find("a").AttrOr("href", ""))
	assert.Contains(t, doc.Find(`#repos tr.repo[data-repo="acme/new"]`).Text(), "never")

	assert.Equal(t, 1, doc.Find(`#sites tr.site[data-site="example.com"]`).Length())
	assert.Equal(t, 1, doc.Find("#history tr.cycle").Length())
	assert.Equal(t, 1, doc.Find(`a[href="/users"]`).Length(), "admin sees the users link")
}

func TestConfigSave(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "admin", "admin")
	before := env.provider.Current().Config()
	before.GitHub.Token = "keep-me"
	require.NoError(t, env.provider.Update(before))

	rec := env.do(t, http.MethodPost, "/config", url.Values{
		"github_repos":   {" foo/bar , ,baz/qux "},
		"github_token":   {""},
		"check_interval": {"not-a-number"},
		"ntfy_base_url":  {"https://ntfy.example.com"},
	}, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.NotNil(t, findCookie(rec, flashCookie))

	cfg := env.provider.Current().Config()
	assert.Equal(t, []string{"foo/bar", "baz/qux"}, cfg.GitHub.Repos)
	assert.Equal(t, 3600, cfg.General.CheckInterval)
	assert.Equal(t, "keep-me", cfg.GitHub.Token, "blank secret keeps the stored one")
	assert.Equal(t, "github", cfg.GitHub.NtfyTopic)
	assert.Equal(t, "https://ntfy.example.com", cfg.Ntfy.BaseURL)
	assert.Empty(t, cfg.Plausible.Sites)
}

func TestConfigSave_InvalidKeepsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "admin", "admin")

	rec := env.do(t, http.MethodPost, "/config", url.Values{
		"github_repos":   {"no-owner"},
		"check_interval": {"60"},
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, parseHTML(t, rec).Find("#config-error").Text())
	assert.Len(t, env.provider.Current().ReleaseSources(), 3)
}

func TestConfigForm_DiscoverSites(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "admin", "admin")

	rec := env.do(t, http.MethodGet, "/config?discover=1", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, parseHTML(t, rec).Find("#available-sites").Text(), "example.org")
}

func TestParseInterval(t *testing.T) {
	assert.Equal(t, 120, parseInterval("120"))
	assert.Equal(t, 3600, parseInterval("abc"))
	assert.Equal(t, 3600, parseInterval("0"))
	assert.Equal(t, 3600, parseInterval(""))
}

func TestRunCheck(t *testing.T) {
	tests := []struct {
		name  string
		group string
		want  []models.EntityKind
	}{
		{"default group", "", []models.EntityKind{models.KindRelease}},
		{"github", "github", []models.EntityKind{models.KindRelease}},
		{"plausible", "plausible", []models.EntityKind{models.KindStats}},
		{"all", "all", []models.EntityKind{models.KindRelease, models.KindStats}},
		{"unknown", "gitlab", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			cookie := env.login(t, "admin", "admin")

			form := url.Values{}
			if tt.group != "" {
				form.Set("group", tt.group)
			}
			rec := env.do(t, http.MethodPost, "/run-check", form, cookie)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.want, env.scheduler.Triggered())
		})
	}
}

func TestUsersPage(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", "admin")

	rec := env.do(t, http.MethodPost, "/users", url.Values{"action": {"add"}, "username": {"alice"}, "password": {"pw"}}, admin)
	assert.Equal(t, http.StatusFound, rec.Code)
	_, err := env.users.Get("alice")
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/users", url.Values{"action": {"delete"}, "username": {"admin"}}, admin)
	assert.Equal(t, http.StatusFound, rec.Code)
	_, err = env.users.Get("admin")
	assert.NoError(t, err, "admin survives a delete request")

	rec = env.do(t, http.MethodGet, "/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Equal(t, 2, doc.Find("#users tr.user").Length())
	assert.Equal(t, 0, doc.Find(`tr.user[data-username="admin"] input[value="delete"]`).Length())

	alice := env.login(t, "alice", "pw")
	rec = env.do(t, http.MethodGet, "/users", nil, alice)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodPost, "/users", url.Values{"action": {"delete"}, "username": {"alice"}}, alice)
	assert.Equal(t, http.StatusFound, rec.Code)
	_, err = env.users.Get("alice")
	assert.NoError(t, err, "non-admin cannot manage users")
}

func TestReleasePages(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.state.CommitRelease(models.ReleasePayload{
		Repo:        "acme/widget",
		Tag:         "v1.2.0",
		Name:        "Widget 1.2",
		Body:        "**bold** change\n\n<script>alert(1)</script>",
		PublishedAt: "2024-02-01T12:00:00Z",
		HTMLURL:     "https://github.com/acme/widget/releases/tag/v1.2.0",
		Assets: []models.Asset{
			{Name: "widget.tar.gz", Size: 2048, DownloadURL: "https://example.com/w.tgz", DownloadCount: 5},
			{Name: "widget.zip", Size: 10, DownloadURL: "https://example.com/w.zip", DownloadCount: 7},
		},
	})
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/releases/acme-widget", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Equal(t, "acme/widget v1.2.0", strings.TrimSpace(doc.Find("#release-title").Text()))
	body := doc.Find("#release-body")
	assert.Equal(t, "bold", body.Find("strong").Text())
	assert.Equal(t, 0, body.Find("script").Length(), "changelog html is sanitized")
	assert.Equal(t, 2, doc.Find("#assets tr.asset").Length())
	assert.Equal(t, "12", doc.Find("#total-downloads").Text())

	rec = env.do(t, http.MethodGet, "/releases/acme-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, parseHTML(t, rec).Find("#error-message").Text(), "acme/missing")

	rec = env.do(t, http.MethodGet, "/releases", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	index := parseHTML(t, rec)
	assert.Equal(t, 1, index.Find(`#releases tr.release[data-repo="acme/widget"]`).Length())
	assert.Equal(t, "/releases/acme-widget", index.Find("#releases a").AttrOr("href", ""))
}

func TestAPIStatus(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.state.SetMarker(models.KindRelease, "acme/widget", "2024-01-01T00:00:00Z"))
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	summary := models.CycleSummary{ID: "c1", Group: models.KindRelease, Trigger: models.TriggerTimer, StartedAt: started}
	id, err := env.history.RecordCycleStart(context.Background(), summary)
	require.NoError(t, err)
	summary.Status = models.CycleStatusCompleted
	summary.FinishedAt = started.Add(time.Second)
	require.NoError(t, env.history.UpdateCycleCompletion(context.Background(), id, summary))
	cookie := env.login(t, "admin", "admin")

	rec := env.do(t, http.MethodGet, "/api/status", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"scheduler_running":true`)
	assert.Contains(t, rec.Body.String(), `"last_completed":{"github":"2024-05-01T`)
	assert.Contains(t, rec.Body.String(), `"plausible":null`)
	assert.Contains(t, rec.Body.String(), `"slug":"acme-widget"`)
	assert.Contains(t, rec.Body.String(), `"marker":"2024-01-01T00:00:00Z"`)
}

func TestAPIStats(t *testing.T) {
	env := newTestEnv(t)
	for _, day := range []string{"2024-01-01", "2024-01-02"} {
		require.NoError(t, env.archive.Append(models.StatsArchiveRecord{Site: "example.com", Day: day, Visitors: 3, FetchedAt: int64(len(day))}))
	}
	cookie := env.login(t, "admin", "admin")

	rec := env.do(t, http.MethodGet, "/api/stats/example.com?limit=1", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = env.do(t, http.MethodGet, "/api/stats/example.com?limit=-3", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/stats/unknown.org", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"page_cache":false`)
	assert.Contains(t, rec.Body.String(), `"goroutines"`)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestDashboard_CorruptStateShowsDefaults(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.provider.Current().Config().StorageConfig.StateFile, []byte("{not json"), 0o644))
	cookie := env.login(t, "admin", "admin")

	rec := env.do(t, http.MethodGet, "/", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Equal(t, 3, doc.Find("#repos tr.repo").Length())
	assert.Contains(t, doc.Find(`#repos tr.repo[data-repo="acme/widget"]`).Text(), "never")

	rec = env.do(t, http.MethodGet, "/api/status", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}
