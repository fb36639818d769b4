package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/blogit/internal/api/handlers"
	"github.com/hugh/blogit/internal/api/middleware"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/categories"
	"github.com/hugh/blogit/internal/posts"
	"github.com/hugh/blogit/internal/testutil"
	"github.com/hugh/blogit/internal/votes"
)

const testVoteThreshold = 1

// setupRouter wires every BlogIt handler onto a chi router the way the
// server does, minus the global middleware.
func setupRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	t.Helper()
	tc := testutil.NewTestContext(t)

	verifier := auth.NewVerifier(tc.DB, 0, time.Minute)
	authService := auth.NewService(tc.DB, tc.Encryptor, tc.Logger).WithVerifier(verifier)

	sessionHandler := handlers.NewSessionHandler(authService, tc.Logger)
	userHandler := handlers.NewUserHandler(authService, tc.Logger)
	postHandler := handlers.NewPostHandler(posts.NewFilter(tc.DB, 5, 100), posts.NewService(tc.DB, tc.Logger), tc.Logger)
	voteHandler := handlers.NewVoteHandler(votes.NewTally(tc.DB, testVoteThreshold, tc.Logger), tc.Logger)
	categoryHandler := handlers.NewCategoryHandler(categories.NewService(tc.DB, tc.Logger), tc.Logger)

	r := chi.NewRouter()
	r.Post("/api/sessions", sessionHandler.Create)
	r.Post("/api/users", userHandler.Create)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(verifier, tc.Logger))
		r.Get("/api/users/me", userHandler.Me)
		r.Get("/api/posts", postHandler.List)
		r.Post("/api/posts", postHandler.Create)
		r.Put("/api/posts/bulk_update", postHandler.BulkUpdate)
		r.Delete("/api/posts/bulk_destroy", postHandler.BulkDestroy)
		r.Get("/api/posts/{id}", postHandler.Get)
		r.Put("/api/posts/{id}", postHandler.Update)
		r.Patch("/api/posts/{id}", postHandler.Update)
		r.Delete("/api/posts/{id}", postHandler.Delete)
		r.Post("/api/posts/{id}/votes", voteHandler.Create)
		r.Get("/api/categories", categoryHandler.List)
		r.Post("/api/categories", categoryHandler.Create)
	})

	return r, tc
}

func serve(r *chi.Mux, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
