package web

import (
	"net/http"
	"strconv"

	"github.com/robinvdvleuten/financetree/ledger"
	"github.com/robinvdvleuten/financetree/summary"
)

// handleGetSummary returns the per-branch roll-up of the subtree at ?path=.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	path, err := pathParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rng, err := rangeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.RLock()
	report, err := s.book.AggregateSubtree(r.Context(), path, rng)
	s.mu.RUnlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, report)
}

// handleGetRows returns the dated statement of the subtree at ?path=.
func (s *Server) handleGetRows(w http.ResponseWriter, r *http.Request) {
	path, err := pathParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rng, err := rangeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.RLock()
	statement, err := s.book.Statement(r.Context(), path, rng)
	s.mu.RUnlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, statement)
}

// MonthlyResponse is the body of /api/monthly.
type MonthlyResponse struct {
	Months []summary.Month `json:"months"`
	Total  summary.Flow    `json:"total"`
}

func (s *Server) handleGetMonthly(w http.ResponseWriter, r *http.Request) {
	path, err := pathParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rng, err := rangeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.RLock()
	months, total, err := s.book.Monthly(r.Context(), path, rng)
	s.mu.RUnlock()
	if err != nil {
		writeError(w, err)
		return
	}
	if months == nil {
		months = []summary.Month{}
	}
	writeJSONResponse(w, MonthlyResponse{Months: months, Total: total})
}

type recordRequest struct {
	Path        string `json:"path"`
	Date        string `json:"date"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// handlePostRow records a row. Amount is in minor units.
func (s *Server) handlePostRow(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	path, err := parsePath(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, errBadRequest(err.Error()))
		return
	}

	s.mu.Lock()
	row, err := s.book.Record(r.Context(), path, ledger.Entry{
		Date:        date,
		Amount:      req.Amount,
		Description: req.Description,
	})
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcast("change")
	writeJSONStatus(w, http.StatusCreated, row)
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, errBadRequest("invalid row id "+strconv.Quote(r.PathValue("id"))))
		return
	}

	s.mu.Lock()
	err = s.book.Unrecord(r.Context(), id)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcast("change")
	w.WriteHeader(http.StatusNoContent)
}
