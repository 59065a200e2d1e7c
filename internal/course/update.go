package course

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrBadPath         = errors.New("malformed path")
	ErrUnknownField    = errors.New("unknown course field")
	ErrUnknownKind     = errors.New("unknown lesson kind")
	ErrNotQuiz         = errors.New("lesson is not a quiz")

	ErrSelectionsMismatch = errors.New("correct selections do not match options")
)

// Path addresses a node of the form tree. A nil index ends the path, so
// Lesson may only be set together with Chapter, and Option with both.
type Path struct {
	Chapter *int `json:"chapter,omitempty"`
	Lesson  *int `json:"lesson,omitempty"`
	Option  *int `json:"option,omitempty"`
}

func AtCourse() Path               { return Path{} }
func AtChapter(ci int) Path        { return Path{Chapter: &ci} }
func AtLesson(ci, li int) Path     { return Path{Chapter: &ci, Lesson: &li} }
func AtOption(ci, li, oi int) Path { return Path{Chapter: &ci, Lesson: &li, Option: &oi} }

// Depth reports how many indices the path carries.
func (p Path) Depth() (int, error) {
	switch {
	case p.Chapter == nil && p.Lesson == nil && p.Option == nil:
		return 0, nil
	case p.Chapter != nil && p.Lesson == nil && p.Option == nil:
		return 1, nil
	case p.Chapter != nil && p.Lesson != nil && p.Option == nil:
		return 2, nil
	case p.Chapter != nil && p.Lesson != nil && p.Option != nil:
		return 3, nil
	default:
		return 0, ErrBadPath
	}
}

// Update routes a single field edit by path depth:
//
//	0: top-level course field named by field
//	1: chapter name
//	2: lesson content
//	3: quiz option text (options are seeded with DefaultOptionCount slots when absent)
func Update(c *Course, p Path, field, value string) (*Course, error) {
	depth, err := p.Depth()
	if err != nil {
		return nil, err
	}
	switch depth {
	case 0:
		return setCourseField(c, field, value)
	case 1:
		return updateChapter(c, *p.Chapter, func(ch *Chapter) error {
			ch.Name = value
			return nil
		})
	case 2:
		return updateLesson(c, *p.Chapter, *p.Lesson, func(l Lesson) (Lesson, error) {
			switch l := l.(type) {
			case *VideoLesson:
				cp := *l
				cp.Content = value
				return &cp, nil
			case *QuizLesson:
				cp := *l
				cp.Content = value
				return &cp, nil
			default:
				panic(fmt.Sprintf("course: unexpected lesson type %T", l))
			}
		})
	default:
		oi := *p.Option
		return updateQuiz(c, *p.Chapter, *p.Lesson, func(q *QuizLesson) error {
			opts := q.Options
			if opts == nil {
				opts = make([]string, DefaultOptionCount)
			} else {
				opts = slices.Clone(opts)
			}
			switch {
			case oi >= 0 && oi < len(opts):
				opts[oi] = value
			case oi == len(opts):
				opts = append(opts, value)
				if q.CorrectSelections != nil {
					q.CorrectSelections = append(slices.Clone(q.CorrectSelections), false)
				}
			default:
				return fmt.Errorf("%w: option %d", ErrIndexOutOfRange, oi)
			}
			q.Options = opts
			return nil
		})
	}
}

func setCourseField(c *Course, field, value string) (*Course, error) {
	cp := *c
	switch field {
	case "name", "courseName":
		cp.Name = value
	case "description", "courseDescription":
		cp.Description = value
	case "subject":
		cp.Subject = value
	case "author":
		cp.Author = value
	case "price":
		cp.Price = value
	case "thumbnailUrl", "thumbnail_url", "thumbnail":
		cp.ThumbnailURL = value
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return &cp, nil
}

// AddChapter appends an unnamed chapter without lessons.
func AddChapter(c *Course) *Course {
	cp := *c
	cp.Chapters = append(slices.Clone(c.Chapters), NewChapter())
	return &cp
}

// RemoveChapter drops the chapter at ci; later chapters shift down by one.
func RemoveChapter(c *Course, ci int) (*Course, error) {
	if ci < 0 || ci >= len(c.Chapters) {
		return nil, fmt.Errorf("%w: chapter %d", ErrIndexOutOfRange, ci)
	}
	cp := *c
	cp.Chapters = slices.Delete(slices.Clone(c.Chapters), ci, ci+1)
	return &cp, nil
}

func AddLesson(c *Course, ci int, kind LessonKind) (*Course, error) {
	l, err := NewLesson(kind)
	if err != nil {
		return nil, err
	}
	return updateChapter(c, ci, func(ch *Chapter) error {
		ch.Lessons = append(slices.Clone(ch.Lessons), l)
		return nil
	})
}

func RemoveLesson(c *Course, ci, li int) (*Course, error) {
	return updateChapter(c, ci, func(ch *Chapter) error {
		if li < 0 || li >= len(ch.Lessons) {
			return fmt.Errorf("%w: lesson %d", ErrIndexOutOfRange, li)
		}
		ch.Lessons = slices.Delete(slices.Clone(ch.Lessons), li, li+1)
		return nil
	})
}

// SetExplanation stores the free-text answer explanation of a quiz lesson.
func SetExplanation(c *Course, ci, li int, text string) (*Course, error) {
	return updateQuiz(c, ci, li, func(q *QuizLesson) error {
		q.Explanation = text
		return nil
	})
}

// ChapterAt returns the chapter at ci or nil.
func (c *Course) ChapterAt(ci int) *Chapter {
	if ci < 0 || ci >= len(c.Chapters) {
		return nil
	}
	return c.Chapters[ci]
}

// LessonAt returns the lesson at (ci, li) or nil.
func (c *Course) LessonAt(ci, li int) Lesson {
	ch := c.ChapterAt(ci)
	if ch == nil || li < 0 || li >= len(ch.Lessons) {
		return nil
	}
	return ch.Lessons[li]
}

// updateChapter copies the course and the chapter at ci, hands the copy to fn
// and swaps it in. Sibling chapters keep their identity.
func updateChapter(c *Course, ci int, fn func(*Chapter) error) (*Course, error) {
	if ci < 0 || ci >= len(c.Chapters) {
		return nil, fmt.Errorf("%w: chapter %d", ErrIndexOutOfRange, ci)
	}
	ch := *c.Chapters[ci]
	if err := fn(&ch); err != nil {
		return nil, err
	}
	cp := *c
	cp.Chapters = slices.Clone(c.Chapters)
	cp.Chapters[ci] = &ch
	return &cp, nil
}

func updateLesson(c *Course, ci, li int, fn func(Lesson) (Lesson, error)) (*Course, error) {
	return updateChapter(c, ci, func(ch *Chapter) error {
		if li < 0 || li >= len(ch.Lessons) {
			return fmt.Errorf("%w: lesson %d", ErrIndexOutOfRange, li)
		}
		nl, err := fn(ch.Lessons[li])
		if err != nil {
			return err
		}
		ch.Lessons = slices.Clone(ch.Lessons)
		ch.Lessons[li] = nl
		return nil
	})
}

// updateQuiz hands fn a shallow copy of the quiz at (ci, li). fn must clone
// any slice it modifies.
func updateQuiz(c *Course, ci, li int, fn func(*QuizLesson) error) (*Course, error) {
	return updateLesson(c, ci, li, func(l Lesson) (Lesson, error) {
		q, ok := l.(*QuizLesson)
		if !ok {
			return nil, fmt.Errorf("%w: chapter %d lesson %d", ErrNotQuiz, ci, li)
		}
		cp := *q
		if err := fn(&cp); err != nil {
			return nil, err
		}
		return &cp, nil
	})
}
