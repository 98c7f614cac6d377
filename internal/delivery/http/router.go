package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/rider-seeker-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	KYC     *handler.KYCHandler
	Ride    *handler.RideHandler
	Feed    *handler.FeedHandler
	Swipe   *handler.SwipeHandler
	Match   *handler.MatchHandler
	Rating  *handler.RatingHandler
	Payment *handler.PaymentHandler
}

type Options struct {
	// UploadsDir is served under /uploads when set. Only the local storage
	// backend needs it.
	UploadsDir string
	// ReviewToken guards the internal KYC review endpoint. Empty disables it.
	ReviewToken string
	Logger      zerolog.Logger
}

type Router struct {
	handlers       Handlers
	authMiddleware *middleware.AuthMiddleware
	opts           Options
}

func NewRouter(handlers Handlers, authMiddleware *middleware.AuthMiddleware, opts Options) *Router {
	return &Router{
		handlers:       handlers,
		authMiddleware: authMiddleware,
		opts:           opts,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(r.opts.Logger),
		middleware.RequestLogger(r.opts.Logger),
		middleware.Metrics(),
	)
	h := r.handlers

	// Health check (supports both GET and HEAD)
	router.GET("/health", h.Health.Health)
	router.HEAD("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.opts.UploadsDir != "" {
		router.StaticFS("/uploads", http.Dir(r.opts.UploadsDir))
	}

	requireRider := r.authMiddleware.RequireRole(domain.RoleRider)
	requireSeeker := r.authMiddleware.RequireRole(domain.RoleSeeker)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/send-code", h.Auth.SendCode)
			auth.POST("/verify", h.Auth.Verify)
			auth.GET("/me", r.authMiddleware.RequireAuth(), h.Auth.Me)
		}

		// Provider callbacks, authenticated by signature
		v1.POST("/webhooks/stripe", h.Payment.StripeWebhook)

		internal := v1.Group("/internal", middleware.RequireServiceToken(r.opts.ReviewToken))
		{
			internal.POST("/kyc/:user_id/review", h.KYC.Review)
		}

		// Protected routes
		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			profile := protected.Group("/profile")
			{
				profile.GET("/me", h.Profile.GetMyProfile)
				profile.PUT("/me", h.Profile.UpdateMyProfile)
				profile.POST("/complete-onboarding", h.Profile.CompleteOnboarding)
				profile.POST("/generate-bio", h.Profile.GenerateBio)
				profile.POST("/me/photos", h.Profile.UploadPhoto)
				profile.DELETE("/me/photos", h.Profile.DeletePhoto)
				profile.GET("/:user_id", h.Profile.GetProfileByUserID)
			}

			protected.POST("/kyc/document", requireRider, h.KYC.SubmitDocument)

			rides := protected.Group("/rides")
			{
				rides.POST("", requireRider, h.Ride.CreateRide)
				rides.GET("/mine", requireRider, h.Ride.ListMyRides)
				rides.GET("/:id", h.Ride.GetRide)
				rides.PATCH("/:id/status", requireRider, h.Ride.UpdateStatus)
				rides.POST("/:id/cancel", requireRider, h.Ride.CancelRide)
				rides.POST("/:id/start", requireRider, h.Ride.StartRide)
				rides.POST("/:id/complete", requireRider, h.Ride.CompleteRide)
			}

			feed := protected.Group("/feed")
			{
				feed.GET("/nearby", h.Feed.GetNearbyRides)
				feed.GET("/next", requireSeeker, h.Feed.GetNextRide)
				feed.POST("/reset-passes", requireSeeker, h.Feed.ResetPasses)
			}

			protected.POST("/swipes", requireSeeker, h.Swipe.CreateSwipe)

			matches := protected.Group("/matches")
			{
				matches.GET("", h.Match.ListMatches)
				matches.GET("/:id", h.Match.GetMatch)
				matches.POST("/:id/respond", requireRider, h.Match.RespondToMatch)
				matches.POST("/:id/ratings", h.Rating.SubmitRating)
				matches.GET("/:id/ratings", h.Rating.ListRatings)
				matches.GET("/:id/fare", h.Payment.GetFare)
				matches.POST("/:id/payment-intent", requireSeeker, h.Payment.CreatePaymentIntent)
			}

			payments := protected.Group("/payments")
			{
				payments.GET("/:id", h.Payment.GetPayment)
				payments.POST("/:id/confirm", requireSeeker, h.Payment.ConfirmPayment)
			}
		}
	}

	return router
}
