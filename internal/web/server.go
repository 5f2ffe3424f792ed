package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/scheduler"
	"github.com/aleister1102/releasewatch/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ConfigProvider exposes the active configuration and accepts replacements
type ConfigProvider interface {
	Current() *config.Snapshot
	Update(cfg *config.GlobalConfig) error
}

// StateReader is the read side of the state store used by the pages
type StateReader interface {
	Snapshot() (models.StateRecord, error)
	GetCachedRelease(key string) (*models.ReleasePayload, error)
	GetCachedStats(site string) (*models.StatsSnapshot, error)
	CachedReleases() ([]models.ReleasePayload, error)
}

// UserStore manages operator accounts
type UserStore interface {
	Authenticate(username, password string) (users.User, error)
	Get(username string) (users.User, error)
	List() ([]users.User, error)
	Add(username, password string) (users.User, error)
	Delete(username string) error
	ChangePassword(username, password string) error
}

// CheckRunner queues manual cycles
type CheckRunner interface {
	Trigger(kind models.EntityKind) (bool, error)
	IsRunning() bool
}

// HistoryReader lists recorded cycles
type HistoryReader interface {
	RecentCycles(ctx context.Context, group string, limit int) ([]scheduler.HistoryEntry, error)
	LastCompleted(ctx context.Context, group string) (*time.Time, error)
}

// StatsHistory lists archived stats snapshots of a site
type StatsHistory interface {
	History(site string, limit int) ([]models.StatsArchiveRecord, error)
}

// SiteLister lists the sites visible to a Plausible token
type SiteLister interface {
	ListSites(ctx context.Context, token string) ([]string, error)
}

// Deps bundles what the web layer reads and drives. History, Archive, Sites
// and Cache are optional.
type Deps struct {
	Config    ConfigProvider
	State     StateReader
	Users     UserStore
	Scheduler CheckRunner
	History   HistoryReader
	Archive   StatsHistory
	Sites     SiteLister
	Hub       *Hub
	Cache     *PageCache
}

// Server is the operator and public web interface
type Server struct {
	cfg       config.WebConfig
	config    ConfigProvider
	state     StateReader
	users     UserStore
	scheduler CheckRunner
	history   HistoryReader
	archive   StatsHistory
	sites     SiteLister
	hub       *Hub
	cache     *PageCache
	sessions  *SessionManager
	markdown  *MarkdownRenderer
	router    *gin.Engine
	logger    zerolog.Logger
}

// NewServer builds the router and parses the templates
func NewServer(cfg config.WebConfig, deps Deps, logger zerolog.Logger) (*Server, error) {
	if deps.Config == nil || deps.State == nil || deps.Users == nil || deps.Scheduler == nil {
		return nil, errors.New("web server requires config, state, users and scheduler")
	}
	webLogger := logger.With().Str("component", "WebServer").Logger()

	sessions, generated, err := NewSessionManager(cfg.SessionSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}
	if generated {
		webLogger.Warn().Msg("No session secret configured, using a random one; sessions end on restart")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		cfg:       cfg,
		config:    deps.Config,
		state:     deps.State,
		users:     deps.Users,
		scheduler: deps.Scheduler,
		history:   deps.History,
		archive:   deps.Archive,
		sites:     deps.Sites,
		hub:       deps.Hub,
		cache:     deps.Cache,
		sessions:  sessions,
		markdown:  NewMarkdownRenderer(),
		router:    router,
		logger:    webLogger,
	}

	router.Use(recovery(webLogger), accessLog(webLogger))
	if err := s.loadTemplates(); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

func (s *Server) loadTemplates() error {
	funcs := templateFuncs()
	if s.cfg.TemplatesDir != "" {
		s.router.SetFuncMap(funcs)
		s.router.LoadHTMLGlob(filepath.Join(s.cfg.TemplatesDir, "*.html"))
		return nil
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return err
	}
	s.router.SetHTMLTemplate(tmpl)
	return nil
}

func (s *Server) routes() {
	r := s.router

	r.GET("/healthz", s.handleHealth)
	r.GET("/login", s.handleLoginForm)
	r.POST("/login", s.handleLogin)

	// Public release pages
	r.GET("/releases", s.handleReleaseIndex)
	r.GET("/releases/:slug", s.handleReleasePage)

	auth := r.Group("/", s.requireAuth())
	{
		auth.GET("/", s.handleDashboard)
		auth.GET("/logout", s.handleLogout)
		auth.GET("/config", s.handleConfigForm)
		auth.POST("/config", s.handleConfigSave)
		auth.POST("/run-check", s.handleRunCheck)
		auth.GET("/users", s.requireAdmin(), s.handleUsers)
		auth.POST("/users", s.requireAdmin(), s.handleUsersAction)
		auth.GET("/ws/events", s.handleEvents)
	}

	api := r.Group("/api", s.requireAuth())
	{
		api.GET("/status", s.handleAPIStatus)
		api.GET("/stats/:site", s.handleAPIStats)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("Web interface listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("Shutting down web interface")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(s.sessions.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// render adds the common page data and writes the template
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["user"] = userFrom(c)
	data["flash"] = popFlash(c)
	c.HTML(status, name, data)
}
