package http

import (
	"context"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-admin/internal/adminapi"
	"github.com/mind-engage/mindengage-admin/internal/export"
	"github.com/mind-engage/mindengage-admin/internal/platform/logger"
	"github.com/mind-engage/mindengage-admin/internal/validation"
)

type SubjectAPI interface {
	ListSubjects(ctx context.Context, page, limit int) (adminapi.Page[adminapi.Subject], error)
	GetSubject(ctx context.Context, id int64) (adminapi.Subject, error)
	UpsertSubject(ctx context.Context, req adminapi.SubjectRequest) (adminapi.Subject, error)
	UpdateSubject(ctx context.Context, id int64, req adminapi.SubjectRequest) (adminapi.Subject, error)
	DeleteSubject(ctx context.Context, id int64) error
}

// exportPageLimit and maxExportPages bound how much an export pulls.
const (
	exportPageLimit = 100
	maxExportPages  = 50
)

func subjectID(r *nethttp.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /subjects?page=&limit=
func ListSubjectsHandler(api SubjectAPI, v *validation.Validator) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		pq, err := readPage(r)
		if err != nil {
			writeErr(w, nethttp.StatusBadRequest, err.Error())
			return
		}
		if errs := v.Struct(pq); errs != nil {
			writeValidation(w, errs, nil)
			return
		}
		page, err := api.ListSubjects(r.Context(), pq.Page, pq.Limit)
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		if page.Data == nil {
			page.Data = []adminapi.Subject{}
		}
		writeJSON(w, nethttp.StatusOK, page)
	}
}

// GET /subjects/{id}
func GetSubjectHandler(api SubjectAPI) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id, ok := subjectID(r)
		if !ok {
			writeErr(w, nethttp.StatusBadRequest, "bad subject id")
			return
		}
		s, err := api.GetSubject(r.Context(), id)
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, s)
	}
}

func readSubject(w nethttp.ResponseWriter, r *nethttp.Request, v *validation.Validator) (adminapi.SubjectRequest, bool) {
	var req adminapi.SubjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, nethttp.StatusBadRequest, err.Error())
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if errs := v.Struct(req); errs != nil {
		writeValidation(w, errs, nil)
		return req, false
	}
	return req, true
}

// POST /subjects creates, or updates when the body carries an id.
func CreateSubjectHandler(api SubjectAPI, v *validation.Validator, log *logger.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		req, ok := readSubject(w, r, v)
		if !ok {
			return
		}
		s, err := api.UpsertSubject(r.Context(), req)
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		log.Info("subject saved", "subject_id", s.ID, "name", s.Name)
		status := nethttp.StatusCreated
		if req.ID != 0 {
			status = nethttp.StatusOK
		}
		writeJSON(w, status, s)
	}
}

// PUT /subjects/{id}
func UpdateSubjectHandler(api SubjectAPI, v *validation.Validator) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id, ok := subjectID(r)
		if !ok {
			writeErr(w, nethttp.StatusBadRequest, "bad subject id")
			return
		}
		req, ok := readSubject(w, r, v)
		if !ok {
			return
		}
		s, err := api.UpdateSubject(r.Context(), id, req)
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, s)
	}
}

// DELETE /subjects/{id}?confirm=true
func DeleteSubjectHandler(api SubjectAPI, log *logger.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id, ok := subjectID(r)
		if !ok {
			writeErr(w, nethttp.StatusBadRequest, "bad subject id")
			return
		}
		if !confirmed(r) {
			writeJSON(w, nethttp.StatusPreconditionRequired, map[string]string{
				"error":   "confirmation required",
				"confirm": "Bạn có chắc chắn muốn xóa môn học này không?",
			})
			return
		}
		if err := api.DeleteSubject(r.Context(), id); err != nil {
			writeUpstreamErr(w, err)
			return
		}
		log.Info("subject deleted", "subject_id", id)
		w.WriteHeader(nethttp.StatusNoContent)
	}
}

// GET /subjects/export walks every page.
func ExportSubjectsHandler(api SubjectAPI) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		all, err := collectPages(r.Context(), func(ctx context.Context, page int) (adminapi.Page[adminapi.Subject], error) {
			return api.ListSubjects(ctx, page, exportPageLimit)
		})
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		writeWorkbook(w, "subjects.xlsx", func(w io.Writer) error {
			return export.WriteSubjects(w, all)
		})
	}
}

// collectPages fetches pages until the upstream says there are no more.
func collectPages[T any](ctx context.Context, fetch func(ctx context.Context, page int) (adminapi.Page[T], error)) ([]T, error) {
	var all []T
	for page := 1; page <= maxExportPages; page++ {
		p, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Data...)
		if !p.HasMorePages || len(p.Data) == 0 {
			break
		}
	}
	return all, nil
}
