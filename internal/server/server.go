package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wingmate/wingmate/internal/clock"
	"github.com/wingmate/wingmate/internal/config"
	creditdomain "github.com/wingmate/wingmate/internal/credit/domain"
	"github.com/wingmate/wingmate/internal/gate"
	"github.com/wingmate/wingmate/internal/generator"
	"github.com/wingmate/wingmate/internal/identity"
	paymentdomain "github.com/wingmate/wingmate/internal/payment/domain"
	usagedomain "github.com/wingmate/wingmate/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Params struct {
	fx.In

	Engine    *gin.Engine
	Config    config.Config
	Sessions  *identity.Sessions
	Usage     usagedomain.Service
	Credits   creditdomain.Service
	Gate      *gate.Gate
	Generator generator.Service
	Payments  paymentdomain.Service
	GenID     *snowflake.Node
	Clock     clock.Clock
	Log       *zap.Logger
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	sessions  *identity.Sessions
	usageSvc  usagedomain.Service
	creditSvc creditdomain.Service
	gate      *gate.Gate
	genSvc    generator.Service
	paySvc    paymentdomain.Service
	genID     *snowflake.Node
	clk       clock.Clock
	log       *zap.Logger
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:    p.Engine,
		cfg:       p.Config,
		sessions:  p.Sessions,
		usageSvc:  p.Usage,
		creditSvc: p.Credits,
		gate:      p.Gate,
		genSvc:    p.Generator,
		paySvc:    p.Payments,
		genID:     p.GenID,
		clk:       p.Clock,
		log:       p.Log.Named("server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api", s.DeviceMiddleware())

	api.POST("/generate", s.Generate)
	api.GET("/usage", s.UsageSummary)
	api.GET("/history", s.History)

	api.POST("/signin", s.SignIn)
	api.POST("/signout", s.SignOut)

	api.POST("/checkout", s.CreateCheckout)
	api.GET("/payment/confirm", s.ConfirmPayment)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(
		NewEngine,
		NewServer,
	),
	fx.Invoke(run),
)
