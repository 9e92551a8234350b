package web

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/robinvdvleuten/financetree/branch"
	"github.com/robinvdvleuten/financetree/errors"
	"github.com/robinvdvleuten/financetree/ledger"
)

func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// badRequest marks errors caused by the request itself rather than the book.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func errBadRequest(msg string) error {
	return &badRequest{msg: msg}
}

var jsonErrors = errors.NewJSONFormatter()

// writeError maps err to a status code and writes its JSON form.
func writeError(w http.ResponseWriter, err error) {
	var bad *badRequest
	if stderrors.As(err, &bad) {
		writeJSONStatus(w, http.StatusBadRequest, errors.ErrorJSON{Kind: "bad_request", Message: bad.msg})
		return
	}

	status := http.StatusInternalServerError
	switch branch.KindOf(err) {
	case branch.KindInvalidName:
		status = http.StatusBadRequest
	case branch.KindNotFound:
		status = http.StatusNotFound
	case branch.KindAlreadyExists:
		status = http.StatusConflict
	default:
		if stderrors.Is(err, ledger.ErrRowNotFound) {
			status = http.StatusNotFound
		}
	}
	writeJSONStatus(w, status, jsonErrors.ToJSON(err))
}

// pathParam parses the "path" query parameter, defaulting to the root.
func pathParam(r *http.Request) (branch.Path, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("path"))
	if raw == "" {
		return branch.RootPath(), nil
	}
	p, err := branch.Parse(raw)
	if err != nil {
		return branch.Path{}, errBadRequest(err.Error())
	}
	return p, nil
}

// rangeParam reads the optional "from" and "to" query parameters.
func rangeParam(r *http.Request) (ledger.DateRange, error) {
	var (
		rng ledger.DateRange
		err error
	)
	q := r.URL.Query()
	if from := q.Get("from"); from != "" {
		if rng.From, err = ledger.ParseDate(from); err != nil {
			return rng, errBadRequest(err.Error())
		}
	}
	if to := q.Get("to"); to != "" {
		if rng.To, err = ledger.ParseDate(to); err != nil {
			return rng, errBadRequest(err.Error())
		}
	}
	if err := rng.Validate(); err != nil {
		return rng, errBadRequest(err.Error())
	}
	return rng, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadRequest("invalid request body: " + err.Error())
	}
	return nil
}
