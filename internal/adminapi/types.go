package adminapi

import (
	"bytes"
	"encoding/json"

	"github.com/mind-engage/mindengage-admin/internal/course"
)

// ID accepts both JSON strings and numbers; the upstream is not consistent.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

/* ---------------- envelopes ---------------- */

type envelope struct {
	Msg  string          `json:"msg"`
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// Page is the upstream paginator.
type Page[T any] struct {
	Data         []T  `json:"data"`
	Total        int  `json:"total"`
	PerPage      int  `json:"per_page"`
	CurrentPage  int  `json:"current_page"`
	LastPage     int  `json:"last_page"`
	HasMorePages bool `json:"has_more_pages"`
}

/* ---------------- courses ---------------- */

// CourseDTO is the course as the upstream stores it. Quiz answers travel as
// the letter label only; selections are rebuilt from it on the way back.
type CourseDTO struct {
	CourseID          ID           `json:"course_id,omitempty"`
	CourseName        string       `json:"courseName"`
	CourseDescription string       `json:"courseDescription,omitempty"`
	Chapters          []ChapterDTO `json:"chapters"`
	Author            string       `json:"author"`
	Price             string       `json:"price"`
	Thumbnail         string       `json:"thumbnail,omitempty"`
	Subject           string       `json:"subject"`
}

type ChapterDTO struct {
	Name    string      `json:"name"`
	Lessons []LessonDTO `json:"lessons"`
}

type LessonDTO struct {
	Type          course.LessonKind `json:"type"`
	Content       string            `json:"content"`
	Options       []string          `json:"options,omitempty"`
	CorrectAnswer string            `json:"correctAnswer,omitempty"`
	DetailAnswer  string            `json:"detailAnswer,omitempty"`
}

// FromCourse converts a finished wizard course to the upstream shape.
func FromCourse(c *course.Course) CourseDTO {
	out := CourseDTO{
		CourseName:        c.Name,
		CourseDescription: c.Description,
		Chapters:          make([]ChapterDTO, 0, len(c.Chapters)),
		Author:            c.Author,
		Price:             c.Price,
		Thumbnail:         c.ThumbnailURL,
		Subject:           c.Subject,
	}
	for _, ch := range c.Chapters {
		cd := ChapterDTO{Name: ch.Name, Lessons: make([]LessonDTO, 0, len(ch.Lessons))}
		for _, l := range ch.Lessons {
			ld := LessonDTO{Type: l.Kind(), Content: l.Text()}
			if q, ok := l.(*course.QuizLesson); ok {
				ld.Options = q.Options
				ld.CorrectAnswer = q.CorrectLabel
				ld.DetailAnswer = q.Explanation
			}
			cd.Lessons = append(cd.Lessons, ld)
		}
		out.Chapters = append(out.Chapters, cd)
	}
	return out
}

// ToCourse converts an upstream course for display. Lessons of an unknown
// type are skipped. Chapter and lesson ids are freshly assigned.
func (d CourseDTO) ToCourse() *course.Course {
	c := course.New()
	c.Name, c.Description, c.Subject = d.CourseName, d.CourseDescription, d.Subject
	c.Author, c.Price, c.ThumbnailURL = d.Author, d.Price, d.Thumbnail
	for _, cd := range d.Chapters {
		ch := course.NewChapter()
		ch.Name = cd.Name
		for _, ld := range cd.Lessons {
			l, err := course.NewLesson(ld.Type)
			if err != nil {
				continue
			}
			switch l := l.(type) {
			case *course.VideoLesson:
				l.Content = ld.Content
			case *course.QuizLesson:
				l.Content = ld.Content
				if ld.Options != nil {
					l.Options = ld.Options
				}
				if ld.CorrectAnswer != "" {
					l.CorrectSelections = course.SelectionsFromLabel(ld.CorrectAnswer, len(l.Options))
					l.CorrectLabel = course.AnswerLabel(l.CorrectSelections)
				}
				l.Explanation = ld.DetailAnswer
			}
			ch.Lessons = append(ch.Lessons, l)
		}
		c.Chapters = append(c.Chapters, ch)
	}
	return c
}

// LessonCount is used by list views and exports.
func (d CourseDTO) LessonCount() int {
	n := 0
	for _, ch := range d.Chapters {
		n += len(ch.Lessons)
	}
	return n
}

/* ---------------- subjects ---------------- */

type Subject struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Description  *string `json:"description"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	DeletedAt    *string `json:"deleted_at"`
}

type SubjectRequest struct {
	ID           int64   `json:"id,omitempty"`
	Name         string  `json:"name" validate:"required,max=255"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url"`
	Description  *string `json:"description" validate:"omitempty,max=2000"`
}

/* ---------------- users ---------------- */

type User struct {
	ID       ID      `json:"_id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=4,max=200"`
}

type LoginResult struct {
	User  User
	Token string
}
