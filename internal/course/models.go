package course

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DefaultOptionCount is the number of empty options a new quiz lesson starts with.
const DefaultOptionCount = 4

type LessonKind string

const (
	KindVideo LessonKind = "video"
	KindQuiz  LessonKind = "quiz"
)

// Course is an immutable snapshot of the wizard form. Every update in this
// package returns a new *Course; untouched chapters and lessons are shared
// between snapshots, so callers must never mutate them in place.
type Course struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Subject      string     `json:"subject"`
	Author       string     `json:"author"`
	Price        string     `json:"price"`
	ThumbnailURL string     `json:"thumbnail_url"`
	Chapters     []*Chapter `json:"chapters"`
}

type Chapter struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson is either a *VideoLesson or a *QuizLesson.
type Lesson interface {
	LessonID() string
	Kind() LessonKind
	Text() string
	isLesson()
}

type VideoLesson struct {
	ID      string `json:"id"`
	Content string `json:"content"` // video URL
}

type QuizLesson struct {
	ID                string   `json:"id"`
	Content           string   `json:"content"` // question text
	Options           []string `json:"options"`
	CorrectSelections []bool   `json:"correct_selections,omitempty"`
	CorrectLabel      string   `json:"correct_label"`
	Explanation       string   `json:"explanation,omitempty"`
}

func (l *VideoLesson) LessonID() string { return l.ID }
func (l *VideoLesson) Kind() LessonKind { return KindVideo }
func (l *VideoLesson) Text() string     { return l.Content }
func (*VideoLesson) isLesson()          {}

func (l *QuizLesson) LessonID() string { return l.ID }
func (l *QuizLesson) Kind() LessonKind { return KindQuiz }
func (l *QuizLesson) Text() string     { return l.Content }
func (*QuizLesson) isLesson()          {}

// New returns the empty course a wizard starts from.
func New() *Course {
	return &Course{Chapters: []*Chapter{}}
}

// NewChapter returns an unnamed chapter without lessons.
func NewChapter() *Chapter {
	return &Chapter{ID: uuid.NewString(), Lessons: []Lesson{}}
}

// NewLesson returns the initial shape for a lesson of the given kind.
func NewLesson(kind LessonKind) (Lesson, error) {
	switch kind {
	case KindVideo:
		return &VideoLesson{ID: uuid.NewString()}, nil
	case KindQuiz:
		return &QuizLesson{ID: uuid.NewString(), Options: make([]string, DefaultOptionCount)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// ---- JSON ----

type lessonJSON struct {
	Type              LessonKind `json:"type"`
	ID                string     `json:"id"`
	Content           string     `json:"content"`
	Options           []string   `json:"options,omitempty"`
	CorrectSelections []bool     `json:"correct_selections,omitempty"`
	CorrectLabel      *string    `json:"correct_label,omitempty"`
	Explanation       string     `json:"explanation,omitempty"`
}

func (l *VideoLesson) MarshalJSON() ([]byte, error) {
	return json.Marshal(lessonJSON{Type: KindVideo, ID: l.ID, Content: l.Content})
}

func (l *QuizLesson) MarshalJSON() ([]byte, error) {
	label := l.CorrectLabel
	return json.Marshal(lessonJSON{
		Type:              KindQuiz,
		ID:                l.ID,
		Content:           l.Content,
		Options:           l.Options,
		CorrectSelections: l.CorrectSelections,
		CorrectLabel:      &label,
		Explanation:       l.Explanation,
	})
}

func (c *Chapter) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID      string            `json:"id"`
		Name    string            `json:"name"`
		Lessons []json.RawMessage `json:"lessons"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.ID, c.Name = raw.ID, raw.Name
	c.Lessons = make([]Lesson, 0, len(raw.Lessons))
	for _, rl := range raw.Lessons {
		var lj lessonJSON
		if err := json.Unmarshal(rl, &lj); err != nil {
			return err
		}
		switch lj.Type {
		case KindVideo:
			c.Lessons = append(c.Lessons, &VideoLesson{ID: lj.ID, Content: lj.Content})
		case KindQuiz:
			if lj.CorrectSelections != nil && len(lj.CorrectSelections) != len(lj.Options) {
				return fmt.Errorf("%w: lesson %q has %d selections for %d options",
					ErrSelectionsMismatch, lj.ID, len(lj.CorrectSelections), len(lj.Options))
			}
			q := &QuizLesson{
				ID:                lj.ID,
				Content:           lj.Content,
				Options:           lj.Options,
				CorrectSelections: lj.CorrectSelections,
				Explanation:       lj.Explanation,
			}
			if q.CorrectSelections != nil {
				q.CorrectLabel = AnswerLabel(q.CorrectSelections)
			}
			c.Lessons = append(c.Lessons, q)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownKind, lj.Type)
		}
	}
	return nil
}
