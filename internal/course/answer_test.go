package course

import (
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// fatalf is satisfied by both *testing.T and *rapid.T.
type fatalf interface {
	Fatalf(format string, args ...any)
}

func quizCourse(t fatalf) *Course {
	c := AddChapter(New())
	c, err := AddLesson(c, 0, KindQuiz)
	if err != nil {
		t.Fatalf("AddLesson: %v", err)
	}
	return c
}

func quizAt(t fatalf, c *Course, ci, li int) *QuizLesson {
	q, ok := c.LessonAt(ci, li).(*QuizLesson)
	if !ok {
		t.Fatalf("lesson %d/%d is %T, want *QuizLesson", ci, li, c.LessonAt(ci, li))
	}
	return q
}

func TestAnswerLabel(t *testing.T) {
	cases := []struct {
		sel  []bool
		want string
	}{
		{nil, ""},
		{[]bool{false, false, false, false}, ""},
		{[]bool{true, false, false, false}, "A"},
		{[]bool{false, true, false, true}, "B, D"},
		{[]bool{true, true, true, true}, "A, B, C, D"},
	}
	for _, tc := range cases {
		if got := AnswerLabel(tc.sel); got != tc.want {
			t.Errorf("AnswerLabel(%v) = %q, want %q", tc.sel, got, tc.want)
		}
	}
}

func TestOptionLetter(t *testing.T) {
	cases := map[int]string{0: "A", 2: "C", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA", -1: ""}
	for i, want := range cases {
		if got := OptionLetter(i); got != want {
			t.Errorf("OptionLetter(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestToggleCorrect_InitialisesSelections(t *testing.T) {
	c := quizCourse(t)
	if q := quizAt(t, c, 0, 0); q.CorrectSelections != nil || q.CorrectLabel != "" {
		t.Fatalf("new quiz has selections %v label %q", q.CorrectSelections, q.CorrectLabel)
	}

	c2, err := ToggleCorrect(c, 0, 0, 1)
	if err != nil {
		t.Fatalf("ToggleCorrect: %v", err)
	}
	c2, err = ToggleCorrect(c2, 0, 0, 3)
	if err != nil {
		t.Fatalf("ToggleCorrect: %v", err)
	}
	q := quizAt(t, c2, 0, 0)
	if !slices.Equal(q.CorrectSelections, []bool{false, true, false, true}) {
		t.Errorf("selections = %v", q.CorrectSelections)
	}
	if q.CorrectLabel != "B, D" {
		t.Errorf("label = %q, want %q", q.CorrectLabel, "B, D")
	}
	// the original snapshot is untouched
	if q0 := quizAt(t, c, 0, 0); q0.CorrectSelections != nil {
		t.Errorf("original snapshot mutated: %v", q0.CorrectSelections)
	}
}

func TestToggleCorrect_Errors(t *testing.T) {
	c := quizCourse(t)
	if _, err := ToggleCorrect(c, 0, 0, 4); err == nil {
		t.Error("toggle past last option: want error")
	}
	if _, err := ToggleCorrect(c, 1, 0, 0); err == nil {
		t.Error("toggle in missing chapter: want error")
	}
	c, _ = AddLesson(c, 0, KindVideo)
	if _, err := ToggleCorrect(c, 0, 1, 0); err == nil {
		t.Error("toggle on a video lesson: want error")
	}
}

func TestProperty_LabelMatchesSelectedIndices(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := quizCourse(rt)
		toggles := rapid.SliceOf(rapid.IntRange(0, DefaultOptionCount-1)).Draw(rt, "toggles")

		want := make([]bool, DefaultOptionCount)
		var err error
		for _, oi := range toggles {
			c, err = ToggleCorrect(c, 0, 0, oi)
			if err != nil {
				rt.Fatal(err)
			}
			want[oi] = !want[oi]
		}

		q := quizAt(rt, c, 0, 0)
		if len(toggles) > 0 && !slices.Equal(q.CorrectSelections, want) {
			rt.Fatalf("selections = %v, want %v", q.CorrectSelections, want)
		}
		var letters []string
		for i, ok := range want {
			if ok {
				letters = append(letters, string(rune('A'+i)))
			}
		}
		if got, exp := q.CorrectLabel, strings.Join(letters, ", "); got != exp {
			rt.Fatalf("label = %q, want %q", got, exp)
		}
	})
}

func TestProperty_DoubleToggleIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := quizCourse(rt)
		var err error
		for _, oi := range rapid.SliceOf(rapid.IntRange(0, DefaultOptionCount-1)).Draw(rt, "prefix") {
			if c, err = ToggleCorrect(c, 0, 0, oi); err != nil {
				rt.Fatal(err)
			}
		}
		// make sure selections exist so before/after compare like for like
		if c, err = ToggleCorrect(c, 0, 0, 0); err != nil {
			rt.Fatal(err)
		}
		before := quizAt(rt, c, 0, 0)

		oi := rapid.IntRange(0, DefaultOptionCount-1).Draw(rt, "oi")
		once, err := ToggleCorrect(c, 0, 0, oi)
		if err != nil {
			rt.Fatal(err)
		}
		twice, err := ToggleCorrect(once, 0, 0, oi)
		if err != nil {
			rt.Fatal(err)
		}
		after := quizAt(rt, twice, 0, 0)
		if !slices.Equal(before.CorrectSelections, after.CorrectSelections) || before.CorrectLabel != after.CorrectLabel {
			rt.Fatalf("double toggle of %d: %v %q -> %v %q", oi,
				before.CorrectSelections, before.CorrectLabel, after.CorrectSelections, after.CorrectLabel)
		}
	})
}

func TestSelectionsFromLabel(t *testing.T) {
	if got := SelectionsFromLabel("A, C", 4); !slices.Equal(got, []bool{true, false, true, false}) {
		t.Errorf("A, C = %v", got)
	}
	if got := SelectionsFromLabel("b,z, ?", 3); !slices.Equal(got, []bool{false, true, false}) {
		t.Errorf("out of range letters = %v", got)
	}
	if got := SelectionsFromLabel("", 2); !slices.Equal(got, []bool{false, false}) {
		t.Errorf("empty = %v", got)
	}
}

func TestProperty_LabelInverts(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sel := rapid.SliceOfN(rapid.Bool(), 0, 60).Draw(rt, "sel")
		if got := SelectionsFromLabel(AnswerLabel(sel), len(sel)); !slices.Equal(got, sel) {
			rt.Fatalf("%v -> %q -> %v", sel, AnswerLabel(sel), got)
		}
	})
}
