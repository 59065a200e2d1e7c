// Package export renders admin list views as XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-admin/internal/adminapi"
)

// ContentType is the MIME type of every workbook written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetCourses  = "Khóa học"
	SheetSubjects = "Môn học"
	SheetUsers    = "Người dùng"
)

func WriteCourses(w io.Writer, courses []adminapi.CourseDTO) error {
	rows := make([][]any, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, []any{
			string(c.CourseID), c.CourseName, c.Subject, c.Author, c.Price,
			len(c.Chapters), c.LessonCount(),
		})
	}
	return writeSheet(w, SheetCourses,
		[]any{"ID", "Tên khóa học", "Môn học", "Tác giả", "Giá", "Số chương", "Số bài học"}, rows)
}

func WriteSubjects(w io.Writer, subjects []adminapi.Subject) error {
	rows := make([][]any, 0, len(subjects))
	for _, s := range subjects {
		rows = append(rows, []any{s.ID, s.Name, deref(s.Description), deref(s.ThumbnailURL), s.CreatedAt, s.UpdatedAt})
	}
	return writeSheet(w, SheetSubjects,
		[]any{"ID", "Tên môn học", "Mô tả", "Ảnh", "Ngày tạo", "Ngày cập nhật"}, rows)
}

func WriteUsers(w io.Writer, users []adminapi.User) error {
	rows := make([][]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, []any{string(u.ID), u.Username, u.Email, deref(u.FullName), deref(u.Phone), u.Role})
	}
	return writeSheet(w, SheetUsers,
		[]any{"ID", "Tên đăng nhập", "Email", "Họ tên", "Điện thoại", "Vai trò"}, rows)
}

// writeSheet writes a one-sheet workbook: a bold, frozen header row followed
// by rows.
func writeSheet(w io.Writer, sheet string, header []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("export: style: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("export: panes: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
