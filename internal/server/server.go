package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	catalogdomain "github.com/smallbiznis/coursehub/internal/catalog/domain"
	"github.com/smallbiznis/coursehub/internal/config"
	contentdomain "github.com/smallbiznis/coursehub/internal/content/domain"
	identitydomain "github.com/smallbiznis/coursehub/internal/identity/domain"
	"github.com/smallbiznis/coursehub/internal/identity/session"
	"github.com/smallbiznis/coursehub/internal/observability"
	obsmiddleware "github.com/smallbiznis/coursehub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/coursehub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/coursehub/internal/observability/tracing"
	"github.com/smallbiznis/coursehub/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	catalogCfg *config.CatalogConfigHolder
	log        *zap.Logger

	identity identitydomain.Service
	store    identitydomain.Store
	sessions *session.Manager
	catalog  catalogdomain.Service
	content  contentdomain.Service
	limiter  ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	CatalogCfg *config.CatalogConfigHolder
	Log        *zap.Logger

	Identity identitydomain.Service
	Store    identitydomain.Store
	Sessions *session.Manager
	Catalog  catalogdomain.Service
	Content  contentdomain.Service
	Limiter  ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		catalogCfg: p.CatalogCfg,
		log:        p.Log.Named("http.server"),
		identity:   p.Identity,
		store:      p.Store,
		sessions:   p.Sessions,
		catalog:    p.Catalog,
		content:    p.Content,
		limiter:    p.Limiter,
	}

	svc.registerAuthRoutes()
	svc.registerCourseRoutes()
	svc.registerLessonRoutes()
	svc.registerPaymentRoutes()
	svc.registerProfileRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	r := s.engine.Group("/", s.SessionMiddleware())

	r.POST("/login", s.Throttle("login"), s.Login)
	r.POST("/register", s.Throttle("register"), s.Register)
	r.POST("/logout", s.Logout)
}

func (s *Server) registerCourseRoutes() {
	r := s.engine.Group("/courses", s.SessionMiddleware())

	r.GET("", s.ListCourses)
	r.GET("/:id", s.GetCourse)

	admin := r.Group("", s.RequireAdmin())
	admin.POST("", s.CreateCourse)
	admin.GET("/:id/edit", s.GetCourseForm)
	admin.PUT("/:id", s.UpdateCourse)
	admin.DELETE("/:id", s.DeleteCourse)
}

func (s *Server) registerLessonRoutes() {
	r := s.engine.Group("/lessons", s.SessionMiddleware())

	r.GET("/:id", s.RequireAuth(), s.GetLesson)

	admin := r.Group("", s.RequireAdmin())
	admin.POST("", s.CreateLesson)
	admin.PUT("/:id", s.UpdateLesson)
	admin.DELETE("/:id", s.DeleteLesson)
}

func (s *Server) registerPaymentRoutes() {
	r := s.engine.Group("/payments", s.SessionMiddleware(), s.RequireAuth())

	r.GET("/pay/:id", s.Checkout)
	r.POST("/pay/:id", s.Pay)
}

func (s *Server) registerProfileRoutes() {
	r := s.engine.Group("/profile", s.SessionMiddleware(), s.RequireAuth())

	r.GET("", s.Profile)
	r.GET("/transactions", s.Transactions)
}
