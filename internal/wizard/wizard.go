package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-admin/internal/course"
)

var (
	ErrNotFinalStep   = errors.New("wizard: submit is only allowed on the last step")
	ErrLastStep       = errors.New("wizard: already on the last step")
	ErrFirstStep      = errors.New("wizard: already on the first step")
	ErrSubmitInFlight = errors.New("wizard: a submit is already in flight")
	ErrStaleItem      = errors.New("wizard: addressed item has moved")
	ErrSubmitFailed   = errors.New("wizard: submit failed")
	ErrClosed         = errors.New("wizard: session is closed")
)

// SubmitFunc receives the finished course. A nil error closes the wizard.
type SubmitFunc func(ctx context.Context, c *course.Course) error

// State is a point-in-time copy of a wizard. Course is an immutable snapshot
// and may be shared freely.
type State struct {
	ID         string         `json:"id"`
	Owner      string         `json:"owner"`
	Step       course.Step    `json:"step"`
	Course     *course.Course `json:"course"`
	Errors     []string       `json:"errors"`
	Submitting bool           `json:"submitting"`
	Closed     bool           `json:"closed"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Wizard drives one course-creation session through steps 1 to 3.
type Wizard struct {
	mu         sync.Mutex
	id         string
	owner      string
	step       course.Step
	c          *course.Course
	errs       []string
	submitting bool
	closed     bool
	updated    time.Time
	v          *course.Validator
}

type Option func(*Wizard)

// WithValidator replaces the default Vietnamese validator.
func WithValidator(v *course.Validator) Option { return func(w *Wizard) { w.v = v } }

// New opens a wizard on step 1 with an empty course.
func New(owner string, opts ...Option) *Wizard {
	w := &Wizard{
		id:    uuid.NewString(),
		owner: owner,
	}
	for _, o := range opts {
		o(w)
	}
	if w.v == nil {
		w.v = course.NewValidator(course.DefaultLanguage)
	}
	w.resetLocked()
	return w
}

func (w *Wizard) ID() string { return w.id }

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Wizard) stateLocked() State {
	errs := make([]string, len(w.errs))
	copy(errs, w.errs)
	return State{
		ID:         w.id,
		Owner:      w.owner,
		Step:       w.step,
		Course:     w.c,
		Errors:     errs,
		Submitting: w.submitting,
		Closed:     w.closed,
		UpdatedAt:  w.updated,
	}
}

// Closed reports whether the session ended through Cancel or a successful
// Submit. A closed wizard rejects every further call with ErrClosed.
func (w *Wizard) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// busyLocked reports why the wizard cannot take a call right now.
func (w *Wizard) busyLocked() error {
	switch {
	case w.closed:
		return ErrClosed
	case w.submitting:
		return ErrSubmitInFlight
	}
	return nil
}

func (w *Wizard) resetLocked() {
	w.step = course.StepInfo
	w.c = course.New()
	w.errs = []string{}
	w.updated = time.Now()
}

// Next validates the current step. On failure the wizard stays put and the
// messages are returned (and kept in State.Errors); on success errors are
// cleared and the wizard advances.
func (w *Wizard) Next() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.busyLocked(); err != nil {
		return nil, err
	}
	if w.step == course.StepPublish {
		return nil, ErrLastStep
	}
	w.updated = time.Now()
	if errs := w.v.Step(w.c, w.step); len(errs) > 0 {
		w.errs = errs
		return errs, nil
	}
	w.errs = []string{}
	w.step++
	return nil, nil
}

// Back moves one step backwards without validating.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.busyLocked(); err != nil {
		return err
	}
	if w.step == course.StepInfo {
		return ErrFirstStep
	}
	w.step--
	w.errs = []string{}
	w.updated = time.Now()
	return nil
}

// Cancel drops all input, returns to step 1 and closes the session.
func (w *Wizard) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.busyLocked(); err != nil {
		return err
	}
	w.resetLocked()
	w.closed = true
	return nil
}

// Submit re-checks every step and hands the course to fn. Edits made after
// an earlier step was passed can invalidate it; the wizard then moves back
// to the first failing step and returns its messages. The lock is not held
// while fn runs; concurrent submits and edits fail with ErrSubmitInFlight
// until it returns. When fn fails the input is kept so the caller can retry.
// Success closes the wizard.
func (w *Wizard) Submit(ctx context.Context, fn SubmitFunc) ([]string, error) {
	w.mu.Lock()
	if err := w.busyLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.step != course.StepPublish {
		w.mu.Unlock()
		return nil, ErrNotFinalStep
	}
	for step := course.StepInfo; step <= course.StepPublish; step++ {
		if errs := w.v.Step(w.c, step); len(errs) > 0 {
			w.step = step
			w.errs = errs
			w.updated = time.Now()
			w.mu.Unlock()
			return errs, nil
		}
	}
	w.submitting = true
	snapshot := w.c
	w.mu.Unlock()

	err := fn(ctx, snapshot)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	w.updated = time.Now()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	w.resetLocked()
	w.closed = true
	return nil, nil
}

// apply swaps in the snapshot produced by fn.
func (w *Wizard) apply(fn func(*course.Course) (*course.Course, error)) (*course.Course, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.busyLocked(); err != nil {
		return nil, err
	}
	next, err := fn(w.c)
	if err != nil {
		return nil, err
	}
	w.c = next
	w.updated = time.Now()
	return next, nil
}

// SetField edits one field addressed by p. expectID, when set, must match
// the id of the chapter (depth 1) or lesson (depth 2 and 3) at p.
func (w *Wizard) SetField(p course.Path, field, value, expectID string) (*course.Course, error) {
	return w.apply(func(c *course.Course) (*course.Course, error) {
		if err := checkPath(c, p, expectID); err != nil {
			return nil, err
		}
		return course.Update(c, p, field, value)
	})
}

func (w *Wizard) AddChapter() (*course.Course, error) {
	return w.apply(func(c *course.Course) (*course.Course, error) {
		return course.AddChapter(c), nil
	})
}

func (w *Wizard) RemoveChapter(ci int, expectID string) (*course.Course, error) {
	return w.apply(func(c *course.Course) (*course.Course, error) {
		if err := checkPath(c, course.AtChapter(ci), expectID); err != nil {
			return nil, err
		}
		return course.RemoveChapter(c, ci)
	})
}

func (w *Wizard) AddLesson(ci int, kind course.LessonKind, expectID string) (*course.Course, error) {
	return w.apply(func(c *course.Course) (*course.Course, error) {
		if err := checkPath(c, course.AtChapter(ci), expectID); err != nil {
			return nil, err
		}
		return course.AddLesson(c, ci, kind)
	})
}

func (w *Wizard) RemoveLesson(ci, li int, expectID string) (*course.Course, error) {
	return w.apply(func(c *course.Course) (*course.Course, error) {
		if err := checkPath(c, course.AtLesson(ci, li), expectID); err != nil {
			return nil, err
		}
		return course.RemoveLesson(c, ci, li)
	})
}

func (w *Wizard) SetExplanation(ci, li int, text, expectID string) (*course.Course, error) {
	return w.apply(func(c *course.Course) (*course.Course, error) {
		if err := checkPath(c, course.AtLesson(ci, li), expectID); err != nil {
			return nil, err
		}
		return course.SetExplanation(c, ci, li, text)
	})
}

func (w *Wizard) ToggleCorrect(ci, li, oi int, expectID string) (*course.Course, error) {
	return w.apply(func(c *course.Course) (*course.Course, error) {
		if err := checkPath(c, course.AtLesson(ci, li), expectID); err != nil {
			return nil, err
		}
		return course.ToggleCorrect(c, ci, li, oi)
	})
}

// checkPath compares expectID with the id at p. Range errors are left to
// the course operations.
func checkPath(c *course.Course, p course.Path, expectID string) error {
	if expectID == "" || p.Chapter == nil {
		return nil
	}
	var got string
	if p.Lesson == nil {
		ch := c.ChapterAt(*p.Chapter)
		if ch == nil {
			return nil
		}
		got = ch.ID
	} else {
		l := c.LessonAt(*p.Chapter, *p.Lesson)
		if l == nil {
			return nil
		}
		got = l.LessonID()
	}
	if got != expectID {
		return fmt.Errorf("%w: want %s, found %s", ErrStaleItem, expectID, got)
	}
	return nil
}
