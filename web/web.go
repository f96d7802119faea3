// Package web assembles the blogpanel HTTP server: sessions, templates,
// static assets, controllers and the background jobs.
package web

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mhsanaei/blogpanel/caching"
	"github.com/mhsanaei/blogpanel/config"
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/util/common"
	"github.com/mhsanaei/blogpanel/util/random"
	"github.com/mhsanaei/blogpanel/web/cache"
	"github.com/mhsanaei/blogpanel/web/controller"
	"github.com/mhsanaei/blogpanel/web/form"
	"github.com/mhsanaei/blogpanel/web/job"
	"github.com/mhsanaei/blogpanel/web/locale"
	"github.com/mhsanaei/blogpanel/web/middleware"
	"github.com/mhsanaei/blogpanel/web/mq"
	"github.com/mhsanaei/blogpanel/web/service"
	"github.com/mhsanaei/blogpanel/web/session"
	"github.com/mhsanaei/blogpanel/web/storage"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

const (
	sessionName       = "blogpanel"
	dashboardCacheTTL = 2 * time.Minute
)

var startTime = time.Now()

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// InitLocalizer loads the embedded translations for the configured locales.
func InitLocalizer(locales []config.Locale) error {
	return locale.InitLocalizer(i18nFS, "translation", locales)
}

// Server is one blogpanel instance with its controllers, services and
// scheduled jobs.
type Server struct {
	cfg *config.Config
	db  *gorm.DB

	httpServer *http.Server
	listener   net.Listener
	engine     *gin.Engine

	redis     *cache.Redis
	publisher mq.Backend
	storage   storage.ObjectStorage

	userService      *service.UserService
	auditService     *service.AuditLogService
	dashboardService *service.DashboardService
	fileService      *service.FileService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server for cfg backed by db.
func NewServer(cfg *config.Config, db *gorm.DB) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{cfg: cfg, db: db, ctx: ctx, cancel: cancel}
}

// initServices connects the outer backends and builds the services.
func (s *Server) initServices() error {
	objects, err := storage.New(s.ctx, s.cfg.Storage)
	if err != nil {
		return err
	}
	s.storage = objects

	publisher, err := mq.New(s.cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	s.publisher = publisher

	s.userService = &service.UserService{}
	s.auditService = service.NewAuditLogService(publisher)
	s.dashboardService = service.NewDashboardService(s.db, caching.NewCache(dashboardCacheTTL))
	s.fileService = service.NewFileService(objects)
	return nil
}

func (s *Server) sessionStore() (sessions.Store, error) {
	secret := s.cfg.Secret
	if secret == "" {
		logger.Warning("no session secret configured, sessions will not survive a restart")
		secret = random.Seq(32)
	}

	var store sessions.Store
	switch s.cfg.SessionStore {
	case config.SessionStoreRedis:
		r, err := cache.Connect(s.ctx, s.cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		s.redis = r
		store = cache.NewRedisStore(r.Client, []byte(secret))
	default:
		store = cookie.NewStore([]byte(secret))
	}
	store.Options(sessions.Options{
		Path:     s.cfg.BasePath,
		MaxAge:   s.cfg.SessionMaxAge * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func (s *Server) funcMap() template.FuncMap {
	return template.FuncMap{
		"i18n":        locale.I18n,
		"formatBytes": common.FormatBytes,
		"roleLabel":   func(r model.Role) string { return r.Label() },
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
	}
}

// getHtmlFiles lists the templates under web/html. Used in debug mode only.
func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses the embedded templates, one directory at a time.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			newT, err := t.ParseFS(htmlFS, path+"/*.html")
			if err != nil {
				// ignore folders without matches
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	if s.cfg.Domain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(s.cfg.Domain))
	}

	basePath := s.cfg.BasePath
	assetsPath := basePath + "assets"
	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{basePath + "files/"}),
	))

	store, err := s.sessionStore()
	if err != nil {
		return nil, err
	}
	engine.Use(sessions.Sessions(sessionName, store))
	engine.Use(func(c *gin.Context) {
		c.Set(session.BasePathKey, basePath)
	})

	funcMap := s.funcMap()
	engine.SetFuncMap(funcMap)
	if config.IsDebug() {
		files, err := s.getHtmlFiles()
		if err != nil {
			return nil, err
		}
		engine.LoadHTMLFiles(files...)
		engine.StaticFS(assetsPath, http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := s.getHtmlTemplate(funcMap)
		if err != nil {
			return nil, err
		}
		engine.SetHTMLTemplate(tpl)
		engine.StaticFS(assetsPath, http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	engine.Use(
		middleware.RequestCounter(assetsPath, s.dashboardService.CountRequest),
		locale.LocalizerMiddleware(),
		middleware.UnitOfWork(s.db),
		middleware.LoadUser(s.userService),
		middleware.AuditMiddleware(s.db, s.auditService),
	)

	deps := controller.Deps{
		BasePath:         basePath,
		FormOptions:      form.Options{Roles: model.Roles, Locales: s.cfg.Locales},
		UserService:      s.userService,
		AuditService:     s.auditService,
		DashboardService: s.dashboardService,
		FileService:      s.fileService,
	}
	limiter := middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig(s.cfg.LoginAttemptsPerMinute))

	g := engine.Group(basePath)
	controller.NewIndexController(g, deps, limiter)
	controller.NewPostController(g, deps)
	controller.NewCommentController(g, deps)
	controller.NewFileController(g, deps)
	controller.NewAdminController(g, deps)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// Handler builds the services and the router without listening. Start
// calls it; tests drive the returned handler directly.
func (s *Server) Handler() (http.Handler, error) {
	if s.engine != nil {
		return s.engine, nil
	}
	if err := s.initServices(); err != nil {
		return nil, err
	}
	engine, err := s.initRouter()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return engine, nil
}

func (s *Server) startTask() {
	dashboardJob := job.NewDashboardStatsJob(s.dashboardService)
	dashboardJob.Run()
	if _, err := s.cron.AddJob("@every 1m", dashboardJob); err != nil {
		logger.Warning("add dashboard stats job failed:", err)
	}
	if _, err := s.cron.AddJob("@daily", job.NewAuditCleanupJob(s.db, s.auditService, s.cfg.AuditRetentionDays)); err != nil {
		logger.Warning("add audit cleanup job failed:", err)
	}
	if _, err := s.cron.AddJob("@daily", job.NewClearLogsJob()); err != nil {
		logger.Warning("add clear logs job failed:", err)
	}
}

// Start builds the handler, listens on the configured address and starts
// the scheduled jobs.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	s.cron = cron.New(cron.WithLocation(time.Local), cron.WithSeconds())
	s.cron.Start()

	listenAddr := net.JoinHostPort(s.cfg.Listen, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	if s.cfg.CertFile != "" || s.cfg.KeyFile != "" {
		if cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile); err == nil {
			listener = tls.NewListener(listener, &tls.Config{Certificates: []tls.Certificate{cert}})
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts the server down and releases the outer backends.
func (s *Server) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	var errs []error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, s.httpServer.Shutdown(ctx))
		cancel()
	} else if s.listener != nil {
		errs = append(errs, s.listener.Close())
	}
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	s.cancel()
	return errors.Join(errs...)
}

func (s *Server) GetCtx() context.Context { return s.ctx }

func (s *Server) GetCron() *cron.Cron { return s.cron }
