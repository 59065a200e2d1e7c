package http

import (
	"context"
	"errors"
	nethttp "net/http"

	"github.com/mind-engage/mindengage-admin/internal/adminapi"
	authmw "github.com/mind-engage/mindengage-admin/internal/auth/middleware"
	"github.com/mind-engage/mindengage-admin/internal/course"
	"github.com/mind-engage/mindengage-admin/internal/platform/logger"
	"github.com/mind-engage/mindengage-admin/internal/wizard"
)

// Handlers only; routes are mounted in router.go.
//
// Every wizard belongs to the signed-in subject; there is at most one open
// wizard per subject.

// CourseCreator publishes a finished course.
type CourseCreator interface {
	CreateCourse(ctx context.Context, c *course.Course) (adminapi.CourseDTO, error)
}

func openWizard(store wizard.Store, r *nethttp.Request) (*wizard.Wizard, error) {
	return store.Get(authmw.SubjectFromContext(r.Context()))
}

// POST /wizard. A new wizard reports its messages in the best match for
// Accept-Language (Vietnamese when nothing matches).
func OpenWizardHandler(store wizard.Store, log *logger.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		owner := authmw.SubjectFromContext(r.Context())
		lang := course.MatchLanguage(r.Header.Get("Accept-Language"))
		wz, created := store.Open(owner, wizard.WithValidator(course.NewValidator(lang)))
		status := nethttp.StatusOK
		if created {
			status = nethttp.StatusCreated
			log.Info("wizard opened", "owner", owner, "wizard", wz.ID(), "lang", lang.String(), "open", store.Len())
		}
		writeJSON(w, status, wz.State())
	}
}

// GET /wizard
func GetWizardHandler(store wizard.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		wz, err := openWizard(store, r)
		if err != nil {
			writeWizardErr(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, wz.State())
	}
}

// DELETE /wizard drops all input and closes the session.
func CancelWizardHandler(store wizard.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		wz, err := openWizard(store, r)
		if err != nil {
			writeWizardErr(w, err)
			return
		}
		if err := wz.Cancel(); err != nil {
			writeWizardErr(w, err)
			return
		}
		store.Close(authmw.SubjectFromContext(r.Context()), wz)
		w.WriteHeader(nethttp.StatusNoContent)
	}
}

// mutate runs one edit against the caller's wizard and answers with the
// new state.
func mutate(store wizard.Store, status int, fn func(wz *wizard.Wizard, r *nethttp.Request) error) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		wz, err := openWizard(store, r)
		if err != nil {
			writeWizardErr(w, err)
			return
		}
		if err := fn(wz, r); err != nil {
			var bad badRequest
			if errors.As(err, &bad) {
				writeErr(w, nethttp.StatusBadRequest, bad.Error())
				return
			}
			writeWizardErr(w, err)
			return
		}
		writeJSON(w, status, wz.State())
	}
}

type badRequest struct{ error }

type fieldEdit struct {
	course.Path
	Field    string `json:"field"`
	Value    string `json:"value"`
	ExpectID string `json:"expect_id"`
}

// PATCH /wizard/fields
//
//	{"field":"courseName","value":"Go"}
//	{"chapter":0,"value":"Mở đầu","expect_id":"..."}
//	{"chapter":0,"lesson":1,"option":2,"value":"42"}
func SetFieldHandler(store wizard.Store) nethttp.HandlerFunc {
	return mutate(store, nethttp.StatusOK, func(wz *wizard.Wizard, r *nethttp.Request) error {
		var req fieldEdit
		if err := decodeJSON(r, &req); err != nil {
			return badRequest{err}
		}
		_, err := wz.SetField(req.Path, req.Field, req.Value, req.ExpectID)
		return err
	})
}

// POST /wizard/chapters
func AddChapterHandler(store wizard.Store) nethttp.HandlerFunc {
	return mutate(store, nethttp.StatusCreated, func(wz *wizard.Wizard, _ *nethttp.Request) error {
		_, err := wz.AddChapter()
		return err
	})
}

// DELETE /wizard/chapters/{ci}?expect_id=
func RemoveChapterHandler(store wizard.Store) nethttp.HandlerFunc {
	return mutate(store, nethttp.StatusOK, func(wz *wizard.Wizard, r *nethttp.Request) error {
		ci, err := intParam(r, "ci")
		if err != nil {
			return badRequest{err}
		}
		_, err = wz.RemoveChapter(ci, r.URL.Query().Get("expect_id"))
		return err
	})
}

// POST /wizard/chapters/{ci}/lessons  {"type":"video"|"quiz","expect_id":"..."}
func AddLessonHandler(store wizard.Store) nethttp.HandlerFunc {
	return mutate(store, nethttp.StatusCreated, func(wz *wizard.Wizard, r *nethttp.Request) error {
		ci, err := intParam(r, "ci")
		if err != nil {
			return badRequest{err}
		}
		var req struct {
			Type     course.LessonKind `json:"type"`
			ExpectID string            `json:"expect_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			return badRequest{err}
		}
		_, err = wz.AddLesson(ci, req.Type, req.ExpectID)
		return err
	})
}

// DELETE /wizard/chapters/{ci}/lessons/{li}?expect_id=
func RemoveLessonHandler(store wizard.Store) nethttp.HandlerFunc {
	return mutate(store, nethttp.StatusOK, func(wz *wizard.Wizard, r *nethttp.Request) error {
		ci, li, err := lessonParams(r)
		if err != nil {
			return badRequest{err}
		}
		_, err = wz.RemoveLesson(ci, li, r.URL.Query().Get("expect_id"))
		return err
	})
}

// PUT /wizard/chapters/{ci}/lessons/{li}/explanation  {"text":"...","expect_id":"..."}
func SetExplanationHandler(store wizard.Store) nethttp.HandlerFunc {
	return mutate(store, nethttp.StatusOK, func(wz *wizard.Wizard, r *nethttp.Request) error {
		ci, li, err := lessonParams(r)
		if err != nil {
			return badRequest{err}
		}
		var req struct {
			Text     string `json:"text"`
			ExpectID string `json:"expect_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			return badRequest{err}
		}
		_, err = wz.SetExplanation(ci, li, req.Text, req.ExpectID)
		return err
	})
}

// POST /wizard/chapters/{ci}/lessons/{li}/options/{oi}/toggle?expect_id=
func ToggleCorrectHandler(store wizard.Store) nethttp.HandlerFunc {
	return mutate(store, nethttp.StatusOK, func(wz *wizard.Wizard, r *nethttp.Request) error {
		ci, li, err := lessonParams(r)
		if err != nil {
			return badRequest{err}
		}
		oi, err := intParam(r, "oi")
		if err != nil {
			return badRequest{err}
		}
		_, err = wz.ToggleCorrect(ci, li, oi, r.URL.Query().Get("expect_id"))
		return err
	})
}

func lessonParams(r *nethttp.Request) (int, int, error) {
	ci, err := intParam(r, "ci")
	if err != nil {
		return 0, 0, err
	}
	li, err := intParam(r, "li")
	if err != nil {
		return 0, 0, err
	}
	return ci, li, nil
}

// POST /wizard/next
func NextStepHandler(store wizard.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		wz, err := openWizard(store, r)
		if err != nil {
			writeWizardErr(w, err)
			return
		}
		errs, err := wz.Next()
		if err != nil {
			writeWizardErr(w, err)
			return
		}
		if len(errs) > 0 {
			writeValidation(w, errs, map[string]any{"state": wz.State()})
			return
		}
		writeJSON(w, nethttp.StatusOK, wz.State())
	}
}

// POST /wizard/back
func BackStepHandler(store wizard.Store) nethttp.HandlerFunc {
	return mutate(store, nethttp.StatusOK, func(wz *wizard.Wizard, _ *nethttp.Request) error {
		return wz.Back()
	})
}

// POST /wizard/submit sends the course upstream. On success the wizard is
// closed and the created course returned; on failure the input is kept.
func SubmitWizardHandler(store wizard.Store, api CourseCreator, log *logger.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		owner := authmw.SubjectFromContext(r.Context())
		wz, err := store.Get(owner)
		if err != nil {
			writeWizardErr(w, err)
			return
		}
		var created adminapi.CourseDTO
		errs, err := wz.Submit(r.Context(), func(ctx context.Context, c *course.Course) error {
			dto, err := api.CreateCourse(ctx, c)
			if err != nil {
				return err
			}
			created = dto
			return nil
		})
		switch {
		case len(errs) > 0:
			writeValidation(w, errs, map[string]any{"state": wz.State()})
		case errors.Is(err, wizard.ErrSubmitFailed):
			log.Warn("course submit failed", "owner", owner, "wizard", wz.ID(), "error", err)
			msg := "Tạo khóa học thất bại"
			var ae *adminapi.APIError
			if errors.As(err, &ae) && ae.Msg != "" {
				msg = ae.Msg
			}
			writeJSON(w, nethttp.StatusBadGateway, map[string]any{"error": msg, "state": wz.State()})
		case err != nil:
			writeWizardErr(w, err)
		default:
			store.Close(owner, wz)
			log.Info("course created", "owner", owner, "course_id", created.CourseID, "name", created.CourseName)
			writeJSON(w, nethttp.StatusCreated, map[string]any{"course": created})
		}
	}
}
