package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
)

const (
	rosterPath     = "/students/getstudents"
	attendancePath = "/students/addattendance"

	maxErrorBody = 4 << 10
)

// RosterProvider returns the ordered roster of a class
type RosterProvider interface {
	FetchRoster(ctx context.Context, classID string) ([]Student, error)
}

// AttendanceStore persists a submitted batch
type AttendanceStore interface {
	SubmitBatch(ctx context.Context, batch Batch) (Receipt, error)
}

// Receipt is what the store reports back for an accepted batch
type Receipt struct {
	BatchID  string
	Recorded int
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// HTTPClient talks to the school backend. It implements both RosterProvider
// and AttendanceStore.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient returns a client for baseURL. A nil logger means slog.Default().
func NewHTTPClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchRoster implements RosterProvider.
func (c *HTTPClient) FetchRoster(ctx context.Context, classID string) ([]Student, error) {
	body, err := c.post(ctx, rosterPath, student.GetStudentsRequest{Class: classID})
	if err != nil {
		return nil, err
	}

	var resp student.GetStudentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}

	students := make([]Student, 0, len(resp.StudentList))
	for i, s := range resp.StudentList {
		if s.ID == "" {
			return nil, fmt.Errorf("roster entry %d has no id", i)
		}
		students = append(students, Student{
			ID:         s.ID,
			Name:       s.Name,
			RollNumber: s.RollNo,
		})
	}
	return students, nil
}

// SubmitBatch implements AttendanceStore.
func (c *HTTPClient) SubmitBatch(ctx context.Context, batch Batch) (Receipt, error) {
	req := attendance.AddAttendanceRequest{
		ClassID:    batch.ClassID,
		Attendance: make([]attendance.AttendanceItem, 0, len(batch.Marks)),
	}
	for _, m := range batch.Marks {
		req.Attendance = append(req.Attendance, attendance.AttendanceItem{
			StudentID: m.StudentID,
			Date:      validator.FormatDate(m.Date),
			IsPresent: m.IsPresent,
		})
	}

	body, err := c.post(ctx, attendancePath, req)
	if err != nil {
		return Receipt{}, err
	}

	// The batch is stored once the status is 2xx; an unreadable body only
	// costs the receipt details
	var env struct {
		Data attendance.AddAttendanceResponse `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Warn("Attendance accepted but response was unreadable", "error", err)
		return Receipt{Recorded: len(batch.Marks)}, nil
	}

	return Receipt{
		BatchID:  env.Data.BatchID,
		Recorded: env.Data.Recorded,
	}, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	// Callers decide what a truncated 2xx body means
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("Backend response truncated", "path", path, "error", err)
	}

	c.logger.Debug("Backend request completed", "path", path, "status", resp.StatusCode)
	return respBody, nil
}

// errorMessage pulls error.message out of an error envelope, falling back
// to the raw body
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))

	var env struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
