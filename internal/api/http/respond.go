package http

import (
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-admin/internal/adminapi"
	"github.com/mind-engage/mindengage-admin/internal/course"
	"github.com/mind-engage/mindengage-admin/internal/wizard"
)

func writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w nethttp.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeValidation reports user-correctable problems.
func writeValidation(w nethttp.ResponseWriter, errs []string, extra map[string]any) {
	body := map[string]any{"errors": errs}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, nethttp.StatusUnprocessableEntity, body)
}

// writeWizardErr maps wizard and form-tree errors onto HTTP statuses.
func writeWizardErr(w nethttp.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrNotFound), errors.Is(err, wizard.ErrClosed):
		writeErr(w, nethttp.StatusNotFound, "no open wizard")
	case errors.Is(err, wizard.ErrSubmitInFlight), errors.Is(err, wizard.ErrStaleItem):
		writeErr(w, nethttp.StatusConflict, err.Error())
	case errors.Is(err, course.ErrIndexOutOfRange),
		errors.Is(err, course.ErrBadPath),
		errors.Is(err, course.ErrUnknownField),
		errors.Is(err, course.ErrUnknownKind),
		errors.Is(err, course.ErrNotQuiz),
		errors.Is(err, wizard.ErrNotFinalStep),
		errors.Is(err, wizard.ErrLastStep),
		errors.Is(err, wizard.ErrFirstStep):
		writeErr(w, nethttp.StatusBadRequest, err.Error())
	default:
		writeErr(w, nethttp.StatusInternalServerError, err.Error())
	}
}

// writeUpstreamErr passes upstream 4xx answers through and turns everything
// else (5xx, transport failures) into 502.
func writeUpstreamErr(w nethttp.ResponseWriter, err error) {
	var ae *adminapi.APIError
	if errors.As(err, &ae) && ae.Status >= 400 && ae.Status < 500 {
		msg := ae.Msg
		if msg == "" {
			msg = nethttp.StatusText(ae.Status)
		}
		writeJSON(w, ae.Status, map[string]any{"error": msg, "code": ae.Code})
		return
	}
	writeErr(w, nethttp.StatusBadGateway, err.Error())
}

func decodeJSON(r *nethttp.Request, v any) error {
	dec := json.NewDecoder(nethttp.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("bad json: %w", err)
	}
	return nil
}

// intParam reads a non-negative integer URL parameter.
func intParam(r *nethttp.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

type pageQuery struct {
	Page  int `json:"page" validate:"gte=1"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

// readPage parses ?page and ?limit, defaulting to 1 and 10.
func readPage(r *nethttp.Request) (pageQuery, error) {
	q := pageQuery{Page: 1, Limit: 10}
	for name, dst := range map[string]*int{"page": &q.Page, "limit": &q.Limit} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%s must be an integer", name)
		}
		*dst = n
	}
	return q, nil
}

func confirmed(r *nethttp.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return v
}
