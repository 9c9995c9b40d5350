// Package api implements the Story Spoiler compatible HTTP API of the twin.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storyspoiler/storyspoiler/internal/twin/store"
	"github.com/storyspoiler/storyspoiler/pkg/twincore"
)

// Response messages of the Story Spoiler API. The suite asserts the first
// five verbatim; the rest are used by the twin for its own error paths.
const (
	MsgCreated        = "Successfully created!"
	MsgEdited         = "Successfully edited"
	MsgDeleted        = "Deleted successfully!"
	MsgDeleteFailed   = "Unable to delete this story spoiler!"
	MsgNoSpoilers     = "No spoilers..."
	MsgCreateFailed   = "Unable to create new story spoiler!"
	MsgEditFailed     = "Unable to edit this story spoiler!"
	MsgInvalidLogin   = "Invalid username or password!"
	MsgUnauthorized   = "Unauthorized"
	MsgInvalidRequest = "Invalid request body"
)

// Handler holds all API handler state.
type Handler struct {
	store  *store.MemoryStore
	tokens *TokenManager
	mw     *twincore.Middleware
}

// NewHandler creates a new API handler.
func NewHandler(s *store.MemoryStore, tokens *TokenManager, mw *twincore.Middleware) *Handler {
	return &Handler{store: s, tokens: tokens, mw: mw}
}

// Routes mounts the Story Spoiler API routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(h.mw.FaultInjection)

		r.Post("/User/Authentication", h.Authenticate)

		r.Route("/Story", func(r chi.Router) {
			r.Use(h.bearerAuth)

			r.Post("/Create", h.CreateStory)
			r.Put("/Edit/{id}", h.EditStory)
			r.Get("/All", h.ListStories)
			r.Delete("/Delete/{id}", h.DeleteStory)
		})
	})
}

type ctxKey struct{}

// userFrom returns the username the bearer token was issued to.
func userFrom(ctx context.Context) string {
	u, _ := ctx.Value(ctxKey{}).(string)
	return u
}

// bearerAuth rejects requests without a valid access token.
func (h *Handler) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			twincore.Message(w, http.StatusUnauthorized, MsgUnauthorized)
			return
		}

		username, err := h.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			twincore.Message(w, http.StatusUnauthorized, MsgUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, username)))
	})
}
