package course

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Step identifies one page of the course wizard.
type Step int

const (
	StepInfo     Step = 1 // name, subject, description, thumbnail
	StepChapters Step = 2 // chapters and lessons
	StepPublish  Step = 3 // author, price
)

// message keys
const (
	msgNameRequired        = "course name is required"
	msgSubjectRequired     = "subject is required"
	msgDescriptionRequired = "course description is required"
	msgNoChapters          = "at least one chapter is required"
	msgChapterName         = "chapter %d name is required"
	msgChapterNoLessons    = "chapter %d needs at least one lesson"
	msgLessonContent       = "lesson %d content in chapter %d is required"
	msgAuthorRequired      = "author is required"
	msgPriceRequired       = "price is required"
)

// DefaultLanguage is the language of the admin dashboard.
var DefaultLanguage = language.Vietnamese

// supported lists catalog languages; the first one is the fallback.
var supported = []language.Tag{DefaultLanguage, language.English}

var matcher = language.NewMatcher(supported)

var messages = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(DefaultLanguage))
	for tag, m := range map[language.Tag]map[string]string{
		language.Vietnamese: {
			msgNameRequired:        "Tên khóa học không được để trống",
			msgSubjectRequired:     "Vui lòng chọn môn học",
			msgDescriptionRequired: "Mô tả khóa học không được để trống",
			msgNoChapters:          "Vui lòng thêm ít nhất một chương",
			msgChapterName:         "Tên chương %d không được để trống",
			msgChapterNoLessons:    "Chương %d cần ít nhất một bài học",
			msgLessonContent:       "Nội dung bài học %d trong chương %d không được để trống",
			msgAuthorRequired:      "Tên tác giả không được để trống",
			msgPriceRequired:       "Giá khóa học không được để trống",
		},
		language.English: {
			msgNameRequired:        "Course name is required",
			msgSubjectRequired:     "Please choose a subject",
			msgDescriptionRequired: "Course description is required",
			msgNoChapters:          "Please add at least one chapter",
			msgChapterName:         "Chapter %d name is required",
			msgChapterNoLessons:    "Chapter %d needs at least one lesson",
			msgLessonContent:       "Lesson %d content in chapter %d is required",
			msgAuthorRequired:      "Author is required",
			msgPriceRequired:       "Course price is required",
		},
	} {
		for key, msg := range m {
			_ = b.SetString(tag, key, msg)
		}
	}
	return b
}()

// Validator checks wizard steps and reports errors in its language.
type Validator struct {
	p *message.Printer
}

// NewValidator returns a validator for tag; unsupported languages fall back
// to Vietnamese.
func NewValidator(tag language.Tag) *Validator {
	_, i, _ := matcher.Match(tag)
	return &Validator{p: message.NewPrinter(supported[i], message.Catalog(messages))}
}

// MatchLanguage picks the catalog language for an Accept-Language header.
// Empty, malformed or unmatched headers give DefaultLanguage.
func MatchLanguage(accept string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, i, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return supported[i]
}

var defaultValidator = NewValidator(DefaultLanguage)

// ValidateStep runs the Vietnamese validator for step.
func ValidateStep(c *Course, step Step) []string {
	return defaultValidator.Step(c, step)
}

// Step returns the ordered error list for step; empty means the step passes.
func (v *Validator) Step(c *Course, step Step) []string {
	switch step {
	case StepInfo:
		return v.Info(c)
	case StepChapters:
		return v.Chapters(c)
	case StepPublish:
		return v.Publish(c)
	default:
		return nil
	}
}

func (v *Validator) Info(c *Course) []string {
	errs := []string{}
	if blank(c.Name) {
		errs = append(errs, v.p.Sprintf(msgNameRequired))
	}
	if blank(c.Subject) {
		errs = append(errs, v.p.Sprintf(msgSubjectRequired))
	}
	if blank(c.Description) {
		errs = append(errs, v.p.Sprintf(msgDescriptionRequired))
	}
	return errs
}

// Chapters accumulates one message per problem across all chapters and
// lessons. Indices in messages are 1-based.
func (v *Validator) Chapters(c *Course) []string {
	errs := []string{}
	if len(c.Chapters) == 0 {
		return append(errs, v.p.Sprintf(msgNoChapters))
	}
	for i, ch := range c.Chapters {
		if blank(ch.Name) {
			errs = append(errs, v.p.Sprintf(msgChapterName, i+1))
		}
		if len(ch.Lessons) == 0 {
			errs = append(errs, v.p.Sprintf(msgChapterNoLessons, i+1))
		}
		for j, l := range ch.Lessons {
			if blank(l.Text()) {
				errs = append(errs, v.p.Sprintf(msgLessonContent, j+1, i+1))
			}
		}
	}
	return errs
}

func (v *Validator) Publish(c *Course) []string {
	errs := []string{}
	if blank(c.Author) {
		errs = append(errs, v.p.Sprintf(msgAuthorRequired))
	}
	if blank(c.Price) {
		errs = append(errs, v.p.Sprintf(msgPriceRequired))
	}
	return errs
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
