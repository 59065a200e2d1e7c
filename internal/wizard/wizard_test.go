package wizard_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"golang.org/x/text/language"

	"github.com/mind-engage/mindengage-admin/internal/course"
	"github.com/mind-engage/mindengage-admin/internal/wizard"
)

/* ---------------- helpers ---------------- */

// must panics on error, which fails the running test.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func fillInfo(t *testing.T, w *wizard.Wizard) {
	t.Helper()
	for f, v := range map[string]string{"name": "Go", "subject": "1", "description": "Nhập môn"} {
		must(w.SetField(course.AtCourse(), f, v, ""))
	}
}

func fillChapters(t *testing.T, w *wizard.Wizard) {
	t.Helper()
	must(w.AddChapter())
	must(w.SetField(course.AtChapter(0), "", "Chương 1", ""))
	must(w.AddLesson(0, course.KindQuiz, ""))
	must(w.SetField(course.AtLesson(0, 0), "", "1 + 1 = ?", ""))
	for i, o := range []string{"2", "3", "2.0", "11"} {
		must(w.SetField(course.AtOption(0, 0, i), "", o, ""))
	}
	must(w.ToggleCorrect(0, 0, 0, ""))
	must(w.ToggleCorrect(0, 0, 2, ""))
}

func fillPublish(t *testing.T, w *wizard.Wizard) {
	t.Helper()
	must(w.SetField(course.AtCourse(), "author", "Lan", ""))
	must(w.SetField(course.AtCourse(), "price", "0", ""))
}

// toFinalStep walks a fresh wizard to step 3 with valid input.
func toFinalStep(t *testing.T, w *wizard.Wizard) {
	t.Helper()
	fillInfo(t, w)
	if errs := must(w.Next()); len(errs) != 0 {
		t.Fatalf("step 1: %q", errs)
	}
	fillChapters(t, w)
	if errs := must(w.Next()); len(errs) != 0 {
		t.Fatalf("step 2: %q", errs)
	}
	fillPublish(t, w)
}

/* ---------------- tests ---------------- */

func TestNext_GatesOnValidation(t *testing.T) {
	w := wizard.New("u1")
	errs := must(w.Next())
	if len(errs) != 3 {
		t.Fatalf("errs = %q", errs)
	}
	st := w.State()
	if st.Step != course.StepInfo || !slices.Equal(st.Errors, errs) {
		t.Fatalf("state = %+v", st)
	}

	fillInfo(t, w)
	if errs := must(w.Next()); len(errs) != 0 {
		t.Fatalf("errs = %q", errs)
	}
	st = w.State()
	if st.Step != course.StepChapters || len(st.Errors) != 0 {
		t.Fatalf("state = %+v", st)
	}
}

func TestBack_DoesNotValidate(t *testing.T) {
	w := wizard.New("u1")
	if err := w.Back(); !errors.Is(err, wizard.ErrFirstStep) {
		t.Fatalf("Back on step 1: %v", err)
	}
	fillInfo(t, w)
	must(w.Next())
	// wipe a step 1 field; going back must still work
	must(w.SetField(course.AtCourse(), "name", "", ""))
	if err := w.Back(); err != nil {
		t.Fatal(err)
	}
	if st := w.State(); st.Step != course.StepInfo {
		t.Fatalf("step = %d", st.Step)
	}
}

func TestNext_OnLastStep(t *testing.T) {
	w := wizard.New("u1")
	toFinalStep(t, w)
	if _, err := w.Next(); !errors.Is(err, wizard.ErrLastStep) {
		t.Fatalf("err = %v", err)
	}
}

func TestCancel_Resets(t *testing.T) {
	w := wizard.New("u1")
	fillInfo(t, w)
	must(w.Next())
	if err := w.Cancel(); err != nil {
		t.Fatal(err)
	}
	st := w.State()
	if st.Step != course.StepInfo || st.Course.Name != "" || len(st.Course.Chapters) != 0 || !st.Closed {
		t.Fatalf("state after cancel = %+v", st)
	}
	if _, err := w.AddChapter(); !errors.Is(err, wizard.ErrClosed) {
		t.Fatalf("edit after cancel: %v", err)
	}
	if err := w.Cancel(); !errors.Is(err, wizard.ErrClosed) {
		t.Fatalf("second cancel: %v", err)
	}
}

func TestSubmit_OnlyFromFinalStep(t *testing.T) {
	w := wizard.New("u1")
	called := false
	_, err := w.Submit(context.Background(), func(context.Context, *course.Course) error {
		called = true
		return nil
	})
	if !errors.Is(err, wizard.ErrNotFinalStep) || called {
		t.Fatalf("err = %v called = %v", err, called)
	}
}

func TestSubmit_ValidatesPublishStep(t *testing.T) {
	w := wizard.New("u1")
	toFinalStep(t, w)
	must(w.SetField(course.AtCourse(), "price", " ", ""))
	errs, err := w.Submit(context.Background(), func(context.Context, *course.Course) error {
		t.Fatal("callback must not run")
		return nil
	})
	if err != nil || !slices.Equal(errs, []string{"Giá khóa học không được để trống"}) {
		t.Fatalf("errs = %q err = %v", errs, err)
	}
}

func TestSubmit_EndToEnd(t *testing.T) {
	w := wizard.New("u1")
	toFinalStep(t, w)

	var got *course.Course
	errs, err := w.Submit(context.Background(), func(_ context.Context, c *course.Course) error {
		got = c
		return nil
	})
	if err != nil || len(errs) != 0 {
		t.Fatalf("errs = %q err = %v", errs, err)
	}
	q, ok := got.LessonAt(0, 0).(*course.QuizLesson)
	if !ok {
		t.Fatalf("lesson = %T", got.LessonAt(0, 0))
	}
	if q.CorrectLabel != "A, C" || !slices.Equal(q.CorrectSelections, []bool{true, false, true, false}) {
		t.Fatalf("quiz = %+v", q)
	}
	if st := w.State(); st.Step != course.StepInfo || len(st.Course.Chapters) != 0 || !st.Closed {
		t.Fatalf("wizard not reset: %+v", st)
	}
	if _, err := w.Submit(context.Background(), func(context.Context, *course.Course) error { return nil }); !errors.Is(err, wizard.ErrClosed) {
		t.Fatalf("second submit: %v", err)
	}
}

// Step 1 and 2 input can be wiped after those steps were passed; submit
// must catch it and send the user back to the first broken step.
func TestSubmit_RechecksEarlierSteps(t *testing.T) {
	w := wizard.New("u1")
	toFinalStep(t, w)
	must(w.SetField(course.AtCourse(), "name", "", ""))
	must(w.RemoveChapter(0, ""))

	errs, err := w.Submit(context.Background(), func(context.Context, *course.Course) error {
		t.Fatal("callback must not run")
		return nil
	})
	if err != nil || !slices.Equal(errs, []string{"Tên khóa học không được để trống"}) {
		t.Fatalf("errs = %q err = %v", errs, err)
	}
	st := w.State()
	if st.Step != course.StepInfo || !slices.Equal(st.Errors, errs) || st.Closed || st.Submitting {
		t.Fatalf("state = %+v", st)
	}

	// fixing step 1 alone is not enough; step 2 is next
	must(w.SetField(course.AtCourse(), "name", "Go", ""))
	must(w.Next())
	if errs := must(w.Next()); !slices.Equal(errs, []string{"Vui lòng thêm ít nhất một chương"}) {
		t.Fatalf("step 2 errs = %q", errs)
	}

	// a step 2 break found at submit lands on step 2
	fillChapters(t, w)
	must(w.Next())
	must(w.SetField(course.AtChapter(0), "", " ", ""))
	errs = must(w.Submit(context.Background(), func(context.Context, *course.Course) error {
		t.Fatal("callback must not run")
		return nil
	}))
	if len(errs) == 0 || w.State().Step != course.StepChapters {
		t.Fatalf("errs = %q step = %d", errs, w.State().Step)
	}
}

func TestSubmit_FailureKeepsInput(t *testing.T) {
	w := wizard.New("u1")
	toFinalStep(t, w)
	upstream := errors.New("502 from upstream")
	_, err := w.Submit(context.Background(), func(context.Context, *course.Course) error { return upstream })
	if !errors.Is(err, wizard.ErrSubmitFailed) || !errors.Is(err, upstream) {
		t.Fatalf("err = %v", err)
	}
	st := w.State()
	if st.Step != course.StepPublish || st.Course.Name != "Go" || st.Submitting {
		t.Fatalf("state after failure = %+v", st)
	}
	// retry succeeds
	if _, err := w.Submit(context.Background(), func(context.Context, *course.Course) error { return nil }); err != nil {
		t.Fatal(err)
	}
}

func TestSubmit_SingleInFlight(t *testing.T) {
	w := wizard.New("u1")
	toFinalStep(t, w)

	entered := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = w.Submit(context.Background(), func(context.Context, *course.Course) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	if _, err := w.Submit(context.Background(), func(context.Context, *course.Course) error { return nil }); !errors.Is(err, wizard.ErrSubmitInFlight) {
		t.Errorf("second submit err = %v", err)
	}
	if _, err := w.AddChapter(); !errors.Is(err, wizard.ErrSubmitInFlight) {
		t.Errorf("edit during submit err = %v", err)
	}
	if err := w.Cancel(); !errors.Is(err, wizard.ErrSubmitInFlight) {
		t.Errorf("cancel during submit err = %v", err)
	}
	if !w.State().Submitting {
		t.Error("state should report submitting")
	}
	close(release)
	wg.Wait()
	if w.State().Submitting {
		t.Error("submitting flag not cleared")
	}
}

func TestExpectID_DetectsMovedItems(t *testing.T) {
	w := wizard.New("u1")
	must(w.AddChapter())
	c := must(w.AddChapter())
	second := c.Chapters[1].ID

	must(w.RemoveChapter(0, c.Chapters[0].ID))
	// index 1 no longer exists, index 0 now holds the old second chapter
	if _, err := w.SetField(course.AtChapter(0), "", "x", second); err != nil {
		t.Fatalf("matching id: %v", err)
	}
	c = must(w.AddChapter())
	if _, err := w.RemoveChapter(1, second); !errors.Is(err, wizard.ErrStaleItem) {
		t.Fatalf("stale id err = %v", err)
	}
	if len(w.State().Course.Chapters) != len(c.Chapters) {
		t.Fatal("a rejected edit must not change the course")
	}
}

func TestStore_OnePerOwner(t *testing.T) {
	s := wizard.NewInMemoryStore()
	a, created := s.Open("u1")
	if !created {
		t.Fatal("first open should create")
	}
	b, created := s.Open("u1")
	if created || a != b {
		t.Fatal("second open should resume the same wizard")
	}
	s.Open("u2")
	if s.Len() != 2 {
		t.Fatalf("len = %d", s.Len())
	}
	s.Close("u1", a)
	if _, err := s.Get("u1"); !errors.Is(err, wizard.ErrNotFound) {
		t.Fatalf("get after close: %v", err)
	}
	if got, err := s.Get("u2"); err != nil || got.State().Owner != "u2" {
		t.Fatalf("get u2: %v", err)
	}
}

// A wizard that finished must not be handed out again, and forgetting it
// late must not drop the owner's next wizard.
func TestStore_FinishedWizardIsReplaced(t *testing.T) {
	s := wizard.NewInMemoryStore()
	old, _ := s.Open("u1")
	toFinalStep(t, old)
	must(old.Submit(context.Background(), func(context.Context, *course.Course) error { return nil }))

	if _, err := s.Get("u1"); !errors.Is(err, wizard.ErrNotFound) {
		t.Fatalf("get finished wizard: %v", err)
	}
	fresh, created := s.Open("u1")
	if !created || fresh == old {
		t.Fatal("open after submit should start a new wizard")
	}
	if _, err := old.AddChapter(); !errors.Is(err, wizard.ErrClosed) {
		t.Fatalf("edit on finished wizard: %v", err)
	}

	s.Close("u1", old)
	if got, err := s.Get("u1"); err != nil || got != fresh {
		t.Fatalf("late close dropped the new wizard: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
	s.Close("u1", fresh)
	if s.Len() != 0 {
		t.Fatalf("len after close = %d", s.Len())
	}
}

func TestStore_OpenOptions(t *testing.T) {
	s := wizard.NewInMemoryStore()
	en := course.NewValidator(language.English)
	w, _ := s.Open("u1", wizard.WithValidator(en))
	if errs := must(w.Next()); len(errs) == 0 || errs[0] != "Course name is required" {
		t.Fatalf("errs = %q", errs)
	}
	// options only shape a new wizard
	same, created := s.Open("u1")
	if created || same != w {
		t.Fatal("reopen should resume")
	}
}
