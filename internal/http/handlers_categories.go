package http

import (
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		categories, err := s.repo.ListCategories(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)

	case http.MethodPost:
		var req categoryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
		if err := (core.Category{Name: req.Name}).Validate(); err != nil {
			writeDomainError(w, err)
			return
		}
		created, err := s.repo.CreateCategory(r.Context(), userID, strings.TrimSpace(req.Name))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		s.InvalidateUser(userID)
		writeJSON(w, http.StatusCreated, created)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/categories/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	userID := userIDFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		cat, err := s.repo.GetCategory(r.Context(), userID, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cat)

	case http.MethodPut:
		var req categoryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
		if err := (core.Category{Name: req.Name}).Validate(); err != nil {
			writeDomainError(w, err)
			return
		}
		updated, err := s.repo.UpdateCategory(r.Context(), userID, id, strings.TrimSpace(req.Name))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		s.InvalidateUser(userID)
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.repo.DeleteCategory(r.Context(), userID, id); err != nil {
			writeDomainError(w, err)
			return
		}
		s.InvalidateUser(userID)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
