package http

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-admin/internal/adminapi"
	"github.com/mind-engage/mindengage-admin/internal/course"
	"github.com/mind-engage/mindengage-admin/internal/export"
	"github.com/mind-engage/mindengage-admin/internal/platform/logger"
)

// Handlers only; routes are mounted in router.go.

type CourseAPI interface {
	ListCourses(ctx context.Context) ([]adminapi.CourseDTO, error)
	GetCourse(ctx context.Context, id string) (adminapi.CourseDTO, error)
	DeleteCourse(ctx context.Context, id string) error
}

type courseSummary struct {
	CourseID     adminapi.ID `json:"course_id"`
	CourseName   string      `json:"courseName"`
	Subject      string      `json:"subject,omitempty"`
	Author       string      `json:"author,omitempty"`
	Price        string      `json:"price,omitempty"`
	Thumbnail    string      `json:"thumbnail,omitempty"`
	ChapterCount int         `json:"chapter_count"`
	LessonCount  int         `json:"lesson_count"`
}

// GET /courses?q=
func ListCoursesHandler(api CourseAPI) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		courses, err := api.ListCourses(r.Context())
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
		out := make([]courseSummary, 0, len(courses))
		for _, c := range courses {
			if q != "" && !strings.Contains(strings.ToLower(c.CourseName), q) {
				continue
			}
			out = append(out, courseSummary{
				CourseID:     c.CourseID,
				CourseName:   c.CourseName,
				Subject:      c.Subject,
				Author:       c.Author,
				Price:        c.Price,
				Thumbnail:    c.Thumbnail,
				ChapterCount: len(c.Chapters),
				LessonCount:  c.LessonCount(),
			})
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{"courses": out, "total": len(out)})
	}
}

// GET /courses/{id} returns the upstream record and the same course as a
// form tree, with quiz selections rebuilt from the stored answer labels.
func GetCourseHandler(api CourseAPI) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		c, err := api.GetCourse(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, struct {
			Course adminapi.CourseDTO `json:"course"`
			Tree   *course.Course     `json:"tree"`
		}{c, c.ToCourse()})
	}
}

// DELETE /courses/{id}?confirm=true
func DeleteCourseHandler(api CourseAPI, log *logger.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id := chi.URLParam(r, "id")
		if !confirmed(r) {
			writeJSON(w, nethttp.StatusPreconditionRequired, map[string]string{
				"error":   "confirmation required",
				"confirm": "Bạn có chắc chắn muốn xóa khóa học này không?",
			})
			return
		}
		if err := api.DeleteCourse(r.Context(), id); err != nil {
			writeUpstreamErr(w, err)
			return
		}
		log.Info("course deleted", "course_id", id)
		w.WriteHeader(nethttp.StatusNoContent)
	}
}

// GET /courses/export
func ExportCoursesHandler(api CourseAPI) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		courses, err := api.ListCourses(r.Context())
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		writeWorkbook(w, "courses.xlsx", func(w io.Writer) error {
			return export.WriteCourses(w, courses)
		})
	}
}

// writeWorkbook renders the whole file before answering so a failed export
// still gets a JSON error.
func writeWorkbook(w nethttp.ResponseWriter, name string, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		writeErr(w, nethttp.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(nethttp.StatusOK)
	_, _ = buf.WriteTo(w)
}
