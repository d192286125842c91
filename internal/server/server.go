package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/metrobox/forestry-pots/internal/catalog/domain"
	"github.com/metrobox/forestry-pots/internal/config"
	downloaddomain "github.com/metrobox/forestry-pots/internal/download/domain"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	"github.com/metrobox/forestry-pots/internal/observability/metrics"
	refdatadomain "github.com/metrobox/forestry-pots/internal/refdata/domain"
	rfpdomain "github.com/metrobox/forestry-pots/internal/rfp/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module wires the HTTP surface.
var Module = fx.Module("server",
	fx.Provide(NewEngine, NewServer),
	fx.Invoke(RegisterRoutes, RunHTTP),
)

type Server struct {
	cfg config.Config
	log *zap.Logger
	db  *gorm.DB

	identitySvc identitydomain.Service
	catalogSvc  catalogdomain.Service
	rfpSvc      rfpdomain.Service
	refdataSvc  refdatadomain.Service
	downloadSvc downloaddomain.Service

	loginLimiter *throttle
}

type ServerParam struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
	DB  *gorm.DB

	IdentitySvc identitydomain.Service
	CatalogSvc  catalogdomain.Service
	RfpSvc      rfpdomain.Service
	RefdataSvc  refdatadomain.Service
	DownloadSvc downloaddomain.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg: p.Cfg,
		log: p.Log.Named("server"),
		db:  p.DB,

		identitySvc: p.IdentitySvc,
		catalogSvc:  p.CatalogSvc,
		rfpSvc:      p.RfpSvc,
		refdataSvc:  p.RefdataSvc,
		downloadSvc: p.DownloadSvc,

		loginLimiter: newThrottle(
			p.Cfg.HTTP.LoginRateLimit,
			time.Duration(p.Cfg.HTTP.LoginRateWindowMS)*time.Millisecond,
		),
	}
}

type EngineParam struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

func NewEngine(p EngineParam) *gin.Engine {
	if p.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(p.Log))
	engine.Use(metrics.GinMiddleware(p.HTTPMetrics))
	return engine
}

func RegisterRoutes(engine *gin.Engine, s *Server) {
	engine.GET("/healthz", s.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")

	api.POST("/auth/login", s.Login)
	api.POST("/access-requests", s.SubmitAccessRequest)

	authed := api.Group("")
	authed.Use(s.AuthRequired())
	{
		authed.GET("/auth/me", s.Me)

		authed.GET("/products", s.ListProducts)
		authed.GET("/products/:productId", s.GetProduct)
		authed.GET("/files/:productId/:fileType/download", s.DownloadFile)

		authed.POST("/rfps", s.CreateRfp)
		authed.GET("/rfps", s.ListRfps)
		authed.GET("/rfps/:rfpId", s.GetRfp)

		authed.GET("/reference/:kind", s.ListReferenceOptions)
	}

	admin := api.Group("/admin")
	admin.Use(s.AuthRequired(), s.AdminRequired())
	{
		admin.POST("/products", s.CreateProduct)
		admin.PUT("/products/:productId", s.UpdateProduct)
		admin.DELETE("/products/:productId", s.DeleteProduct)

		admin.GET("/users", s.ListUsers)
		admin.POST("/users", s.CreateUser)
		admin.PUT("/users/:userId", s.UpdateUser)
		admin.DELETE("/users/:userId", s.DeleteUser)

		admin.GET("/access-requests", s.ListAccessRequests)
		admin.POST("/access-requests/:requestId/approve", s.ApproveAccessRequest)
		admin.POST("/access-requests/:requestId/reject", s.RejectAccessRequest)

		admin.PUT("/rfps/:rfpId/status", s.UpdateRfpStatus)

		admin.POST("/reference/:kind", s.AddReferenceOption)
		admin.DELETE("/reference/options/:optionId", s.RemoveReferenceOption)

		admin.GET("/access-logs", s.ListAccessLogs)
		admin.GET("/watermarks/:watermarkId", s.GetWatermark)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener on the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
