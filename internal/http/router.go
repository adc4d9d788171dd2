package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/campusgate/admissions-api/internal/auth"
	"github.com/campusgate/admissions-api/internal/config"
	"github.com/campusgate/admissions-api/internal/httputil"
	"github.com/campusgate/admissions-api/internal/logging"
	"github.com/campusgate/admissions-api/internal/signup"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	studentSignup *signup.Handler,
	partnerSignup *signup.Handler,
	authHandler *auth.Handler,
	authMiddleware *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		log.Println("Swagger UI disabled (production mode)")
	}

	// Student signup and login (public)
	r.Route("/auth", func(r chi.Router) {
		r.Route("/signup", func(r chi.Router) {
			r.Post("/request-otp", studentSignup.RequestOTP)
			r.Post("/verify-otp", studentSignup.VerifyOTP)
			r.Post("/complete", studentSignup.CompleteSignup)
			r.Post("/resend-otp", studentSignup.ResendOTP)
		})
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	// Referral-portal signup (public): same state machine, partner role
	r.Route("/partner/signup", func(r chi.Router) {
		r.Post("/request-otp", partnerSignup.RequestOTP)
		r.Post("/verify-otp", partnerSignup.VerifyOTP)
		r.Post("/complete", partnerSignup.CompleteSignup)
		r.Post("/resend-otp", partnerSignup.ResendOTP)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Get("/me", authHandler.Me)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} httputil.Envelope
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondSuccess(w, "api is running", nil, http.StatusOK)
}
