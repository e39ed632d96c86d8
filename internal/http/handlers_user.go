package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
)

type updateProfileRequest struct {
	FullName string `json:"full_name"`
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		user, err := s.repo.GetUserByID(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(user))

	case http.MethodPut:
		var req updateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
		name := strings.TrimSpace(req.FullName)
		if len(name) > 200 {
			writeDomainError(w, &core.ValidationError{Field: "full_name", Reason: "too long (max 200 characters)"})
			return
		}
		user, err := s.repo.UpdateUserProfile(r.Context(), userID, name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(user))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
