package course

import (
	"fmt"
	"slices"
	"strings"
)

// ToggleCorrect flips whether option oi of the quiz at (ci, li) is a correct
// answer and re-derives the lesson's CorrectLabel. Selections start out
// all-false, sized to the option list.
func ToggleCorrect(c *Course, ci, li, oi int) (*Course, error) {
	return updateQuiz(c, ci, li, func(q *QuizLesson) error {
		if oi < 0 || oi >= len(q.Options) {
			return fmt.Errorf("%w: option %d", ErrIndexOutOfRange, oi)
		}
		sel := make([]bool, len(q.Options))
		copy(sel, q.CorrectSelections)
		sel[oi] = !sel[oi]
		q.CorrectSelections = sel
		q.CorrectLabel = AnswerLabel(sel)
		return nil
	})
}

// AnswerLabel joins the letters of every selected index in ascending order,
// e.g. [true, false, true, false] -> "A, C". No selection gives "".
func AnswerLabel(selections []bool) string {
	letters := make([]string, 0, len(selections))
	for i, ok := range selections {
		if ok {
			letters = append(letters, OptionLetter(i))
		}
	}
	return strings.Join(letters, ", ")
}

// OptionLetter maps 0 -> "A" ... 25 -> "Z", then continues as spreadsheet
// columns: 26 -> "AA", 27 -> "AB".
func OptionLetter(i int) string {
	if i < 0 {
		return ""
	}
	var b []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		b = append(b, byte('A'+(n-1)%26))
	}
	slices.Reverse(b)
	return string(b)
}

// SelectionsFromLabel is the inverse of AnswerLabel for n options. Letters
// that do not name one of the n options are ignored.
func SelectionsFromLabel(label string, n int) []bool {
	sel := make([]bool, n)
	for _, part := range strings.Split(label, ",") {
		if i := letterIndex(strings.TrimSpace(part)); i >= 0 && i < n {
			sel[i] = true
		}
	}
	return sel
}

func letterIndex(s string) int {
	if s == "" {
		return -1
	}
	n := 0
	for _, r := range strings.ToUpper(s) {
		if r < 'A' || r > 'Z' {
			return -1
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1
}
