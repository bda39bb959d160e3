package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"quizforge-backend/internal/handlers"
	"quizforge-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	topicHandler *handlers.TopicHandler,
	quizHandler *handlers.QuizHandler,
	questionHandler *handlers.QuestionHandler,
	attemptHandler *handlers.AttemptHandler,
	userHandler *handlers.UserHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/verify-email", authHandler.VerifyEmail)
			r.Post("/resend-verification", authHandler.ResendVerification)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Topic Routes ────
		r.Route("/topics", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", topicHandler.List)
			r.Get("/{id}", topicHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", topicHandler.Create)
				r.Put("/{id}", topicHandler.Update)
				r.Delete("/{id}", topicHandler.Delete)
			})
		})

		// ──── Quiz Routes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", quizHandler.List)
			r.Get("/{id}", quizHandler.Get)
			r.Get("/{id}/questions", questionHandler.ListByQuiz)

			// Attempts
			r.Post("/{id}/attempts", attemptHandler.Start)
			r.Get("/{id}/attempts", attemptHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", quizHandler.Create)
				r.Put("/{id}", quizHandler.Update)
				r.Delete("/{id}", quizHandler.Delete)
				r.Post("/{id}/questions", questionHandler.Create)
			})
		})

		// ──── Question Routes (admin) ────
		r.Route("/questions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireAdmin)
			r.Put("/{id}", questionHandler.Update)
			r.Delete("/{id}", questionHandler.Delete)
			r.Post("/{id}/options", questionHandler.AddOption)
			r.Put("/{id}/options/{optionID}", questionHandler.UpdateOption)
			r.Delete("/{id}/options/{optionID}", questionHandler.DeleteOption)
		})

		// ──── Attempt Routes ────
		r.Route("/attempts", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/{id}/answers", attemptHandler.SubmitAnswer)
			r.Post("/{id}/complete", attemptHandler.Complete)
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireAdmin)
			r.Get("/", userHandler.List)
		})
	})

	return r
}
