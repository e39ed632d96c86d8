package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type paginationMeta struct {
	TotalCount  int `json:"total_count"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalPages  int `json:"total_pages"`
}

type listEnvelope struct {
	Data       any            `json:"data"`
	Pagination paginationMeta `json:"pagination"`
}

type createTransactionRequest struct {
	Date       core.Date            `json:"date"`
	Amount     core.Money           `json:"amount"`
	Type       core.TransactionType `json:"type"`
	CategoryID int64                `json:"category_id"`
	Category   string               `json:"category,omitempty"`
	Merchant   string               `json:"merchant"`
	Notes      string               `json:"notes,omitempty"`
	Currency   string               `json:"currency,omitempty"`
	ReceiptURL string               `json:"receipt_url,omitempty"`
}

type updateTransactionRequest struct {
	Date       *core.Date            `json:"date,omitempty"`
	Amount     *core.Money           `json:"amount,omitempty"`
	Type       *core.TransactionType `json:"type,omitempty"`
	CategoryID *int64                `json:"category_id,omitempty"`
	Merchant   *string               `json:"merchant,omitempty"`
	Notes      *string               `json:"notes,omitempty"`
	Currency   *string               `json:"currency,omitempty"`
	ReceiptURL *string               `json:"receipt_url,omitempty"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	page, err := s.txs.List(r.Context(), userID, filter, parsePageParams(r.URL.Query()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listEnvelope{
		Data: page.Items,
		Pagination: paginationMeta{
			TotalCount:  page.TotalCount,
			CurrentPage: page.Page,
			PerPage:     page.PerPage,
			TotalPages:  page.TotalPages,
		},
	})
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.CategoryID == 0 {
		writeDomainError(w, &core.ValidationError{Field: "category_id", Reason: "required"})
		return
	}
	if strings.TrimSpace(req.Merchant) == "" {
		writeDomainError(w, &core.ValidationError{Field: "merchant", Reason: "required"})
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	created, err := s.txs.Create(r.Context(), userID, core.Transaction{
		Date:       req.Date,
		Amount:     req.Amount,
		Type:       req.Type,
		CategoryID: req.CategoryID,
		Category:   req.Category,
		Merchant:   req.Merchant,
		Notes:      req.Notes,
		Currency:   currency,
		ReceiptURL: req.ReceiptURL,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	userID := userIDFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		tx, err := s.txs.Get(r.Context(), userID, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)

	case http.MethodPut:
		var req updateTransactionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
		updated, err := s.txs.Update(r.Context(), userID, id, storage.TransactionPatch{
			Date:       req.Date,
			Amount:     req.Amount,
			Type:       req.Type,
			CategoryID: req.CategoryID,
			Merchant:   req.Merchant,
			Notes:      req.Notes,
			Currency:   req.Currency,
			ReceiptURL: req.ReceiptURL,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.txs.Delete(r.Context(), userID, id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
