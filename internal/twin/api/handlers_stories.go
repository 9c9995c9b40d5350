package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storyspoiler/storyspoiler/internal/twin/store"
	"github.com/storyspoiler/storyspoiler/pkg/twincore"
)

type storyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

func (req storyRequest) valid() bool {
	return strings.TrimSpace(req.Title) != "" && strings.TrimSpace(req.Description) != ""
}

type createResponse struct {
	StoryID string      `json:"storyId"`
	Msg     string      `json:"msg"`
	Story   store.Story `json:"story"`
}

// decodeStory reads a story object body. Arrays, patch documents and
// malformed JSON are rejected.
func decodeStory(r *http.Request) (storyRequest, bool) {
	var req storyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return storyRequest{}, false
	}
	return req, true
}

// CreateStory handles POST /api/Story/Create.
func (h *Handler) CreateStory(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStory(r)
	if !ok || !req.valid() {
		twincore.Message(w, http.StatusBadRequest, MsgCreateFailed)
		return
	}

	now := time.Now().UTC()
	st := store.Story{
		ID:          h.store.Stories.NextID(),
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Owner:       userFrom(r.Context()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	h.store.Stories.Set(st)

	twincore.JSON(w, http.StatusCreated, createResponse{
		StoryID: st.ID,
		Msg:     MsgCreated,
		Story:   st,
	})
}

// EditStory handles PUT /api/Story/Edit/{id}.
func (h *Handler) EditStory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.Stories.Get(id); !ok {
		twincore.Message(w, http.StatusBadRequest, MsgNoSpoilers)
		return
	}

	req, ok := decodeStory(r)
	if !ok || !req.valid() {
		twincore.Message(w, http.StatusBadRequest, MsgEditFailed)
		return
	}

	updated := h.store.Stories.Update(id, func(st store.Story) store.Story {
		st.Title = req.Title
		st.Description = req.Description
		st.URL = req.URL
		st.UpdatedAt = time.Now().UTC()
		return st
	})
	if !updated {
		// Deleted between the lookup and the update.
		twincore.Message(w, http.StatusBadRequest, MsgNoSpoilers)
		return
	}

	twincore.Message(w, http.StatusOK, MsgEdited)
}

// ListStories handles GET /api/Story/All.
func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, h.store.Stories.List())
}

// DeleteStory handles DELETE /api/Story/Delete/{id}.
func (h *Handler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	if !h.store.Stories.Delete(chi.URLParam(r, "id")) {
		twincore.Message(w, http.StatusBadRequest, MsgDeleteFailed)
		return
	}
	twincore.Message(w, http.StatusOK, MsgDeleted)
}
