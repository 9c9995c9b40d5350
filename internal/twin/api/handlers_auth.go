package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/storyspoiler/storyspoiler/pkg/twincore"
)

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"accessToken"`
}

// Authenticate handles POST /api/User/Authentication.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twincore.Message(w, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		twincore.Message(w, http.StatusBadRequest, MsgInvalidLogin)
		return
	}

	u, ok := h.store.User(req.Username)
	if !ok || u.Password != req.Password {
		twincore.Message(w, http.StatusUnauthorized, MsgInvalidLogin)
		return
	}

	token, err := h.tokens.Issue(u.Username)
	if err != nil {
		twincore.Message(w, http.StatusInternalServerError, err.Error())
		return
	}

	twincore.JSON(w, http.StatusOK, authResponse{
		Username:    u.Username,
		Email:       u.Email,
		AccessToken: token,
	})
}
