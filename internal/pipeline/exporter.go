package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cmlabs-hris/school-backend-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
)

// Sheet layout shared by the exported template and the importer
const (
	TemplateSheet    = "Attendance"
	ColumnRollNo     = "Roll No"
	ColumnName       = "Name"
	ColumnAttendance = "Attendance"
	ColumnDate       = "Date"
)

var templateHeader = []string{ColumnRollNo, ColumnName, ColumnAttendance, ColumnDate}

// Template is an exported attendance workbook
type Template struct {
	Filename string
	Content  []byte
}

// TemplateFilename names the template for a class and day
func TemplateFilename(classID string, date string) string {
	return fmt.Sprintf("attendance_template_%s_%s.xlsx", classID, date)
}

// ExportTemplate renders the loaded roster as a workbook with one row per
// student and a blank Attendance column. Marks are not read or changed.
func (s *Session) ExportTemplate() (Template, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return Template{}, err
	}
	classID := s.classID
	date := validator.FormatDate(s.date)
	rows := make([][]string, 0, len(s.students))
	for _, st := range s.students {
		rows = append(rows, []string{st.RollNumber, st.Name, "", date})
	}
	s.mu.Unlock()

	content, err := spreadsheet.WriteXLSX(TemplateSheet, templateHeader, rows)
	if err != nil {
		return Template{}, fmt.Errorf("render template: %w", err)
	}

	return Template{
		Filename: TemplateFilename(classID, date),
		Content:  content,
	}, nil
}

// SaveTemplate delivers t to fs and returns where it can be fetched from
func SaveTemplate(ctx context.Context, fs storage.FileStorage, t Template) (string, error) {
	path, err := fs.Upload(ctx, bytes.NewReader(t.Content), t.Filename, spreadsheet.ContentTypeXLSX)
	if err != nil {
		return "", fmt.Errorf("save template %s: %w", t.Filename, err)
	}
	return fs.GetURL(ctx, path)
}
