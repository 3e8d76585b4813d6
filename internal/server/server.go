package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gymcore/internal/auth"
	"gymcore/internal/booking"
	"gymcore/internal/clock"
	"gymcore/internal/config"
	"gymcore/internal/email"
	"gymcore/internal/entitlement"
	"gymcore/internal/membership"
	"gymcore/internal/plan"
	"gymcore/internal/usage"
	"gymcore/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Deps are the long-lived resources the HTTP layer is built on.
type Deps struct {
	DB    *sqlx.DB
	Usage usage.Repository
	Email *email.Service
	Clock clock.Clock
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	limiter *RateLimiter
}

func New(cfg *config.Config, deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Usage == nil {
		deps.Usage = usage.NewRepository(deps.DB)
	}

	userRepo := user.NewRepository(deps.DB)
	planRepo := plan.NewRepository(deps.DB)
	bookingRepo := booking.NewRepository(deps.DB)

	userService := user.NewService(userRepo, cfg.JWTSecret)
	planService := plan.NewService(planRepo)
	var (
		membershipNotifier membership.Notifier
		bookingNotifier    booking.Notifier
	)
	if deps.Email != nil {
		membershipNotifier = deps.Email
		bookingNotifier = deps.Email
	}

	membershipService := membership.NewService(userRepo, planRepo, deps.Clock, membershipNotifier)
	entitlementService := entitlement.NewService(membershipService, planRepo, deps.Usage, deps.Clock)
	bookingService := booking.NewService(bookingRepo, userRepo, entitlementService, bookingNotifier, deps.Clock)

	userHandler := user.NewHandler(userService)
	planHandler := plan.NewHandler(planService)
	membershipHandler := membership.NewHandler(membershipService)
	entitlementHandler := entitlement.NewHandler(entitlementService)
	bookingHandler := booking.NewHandler(bookingService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, visitorTTL)
	public := router.Group("/")
	public.Use(RateLimitMiddleware(limiter))
	{
		public.POST("/auth/register", userHandler.Register)
		public.POST("/auth/login", userHandler.Login)
		public.POST("/auth/refresh", userHandler.RefreshToken)
		public.GET("/plans", planHandler.ListPlans)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
	}

	member := router.Group("/")
	member.Use(authMiddleware, auth.RequireRole(user.RoleMember))
	{
		member.GET("/membership", membershipHandler.GetMembership)
		member.POST("/membership/select", membershipHandler.SelectPlan)
		member.POST("/membership/renew", membershipHandler.Renew)

		member.GET("/usage", entitlementHandler.GetUsage)
		member.POST("/usage/guest-pass", entitlementHandler.UseGuestPass)
		member.POST("/usage/massage", entitlementHandler.UseMassage)

		member.POST("/sessions", bookingHandler.BookSession)
		member.GET("/sessions", bookingHandler.ListMySessions)
		member.POST("/sessions/:bookingID/cancel", bookingHandler.CancelSession)
	}

	trainer := router.Group("/trainer")
	trainer.Use(authMiddleware, auth.RequireRole(user.RoleTrainer))
	{
		trainer.GET("/sessions", bookingHandler.ListTrainerSessions)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(user.RoleAdmin))
	{
		admin.GET("/plans", planHandler.ListAllPlans)
		admin.POST("/plans", planHandler.CreatePlan)
		admin.PUT("/plans/:planID", planHandler.UpdatePlan)
		admin.DELETE("/plans/:planID", planHandler.DeletePlan)

		admin.GET("/memberships/pending", membershipHandler.ListPending)
		admin.POST("/memberships/:userID/approve", membershipHandler.Approve)
		admin.POST("/memberships/:userID/reject", membershipHandler.Reject)

		admin.GET("/usage", entitlementHandler.ListMonthlyUsage)
		admin.POST("/users", userHandler.CreateUser)
		admin.GET("/test-email", TestEmail(deps.Email))
	}

	return &Server{
		router:  router,
		limiter: limiter,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
