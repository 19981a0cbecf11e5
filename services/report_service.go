package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"study-backend/models"
)

var ReportFormats = []string{"csv", "json", "yaml"}

type ReportStore interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	ListTaskStudentDetails(ctx context.Context, studentID int) ([]models.TaskStudentDetail, error)
}

type ReportService struct {
	ReportsDir string
}

func NewReportService(reportsDir string) *ReportService {
	return &ReportService{ReportsDir: reportsDir}
}

type Report struct {
	Path     string
	Filename string
}

type userReport struct {
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at"`
	User        reportUser       `json:"user" yaml:"user"`
	Tasks       []reportTaskLine `json:"tasks" yaml:"tasks"`
}

type reportUser struct {
	ID         int     `json:"id" yaml:"id"`
	Username   string  `json:"username" yaml:"username"`
	Email      string  `json:"email" yaml:"email"`
	FullName   *string `json:"full_name" yaml:"full_name"`
	Role       string  `json:"role" yaml:"role"`
	StudyGroup *string `json:"study_group" yaml:"study_group"`
}

type reportTaskLine struct {
	TaskStudentID int        `json:"task_student_id" yaml:"task_student_id"`
	TaskID        int        `json:"task_id" yaml:"task_id"`
	TaskTitle     string     `json:"task_title" yaml:"task_title"`
	Status        string     `json:"status" yaml:"status"`
	Grade         *int       `json:"grade" yaml:"grade"`
	SubmittedDate *time.Time `json:"submitted_date" yaml:"submitted_date"`
}

// Generate writes the report of one user's assignments in the given format
// and returns where it was written.
func (rs *ReportService) Generate(ctx context.Context, st ReportStore, userID int, ext string) (Report, error) {
	write, ok := writers[ext]
	if !ok {
		return Report{}, fmt.Errorf("unsupported report format %q", ext)
	}

	user, err := st.GetUser(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("user %d: %w", userID, err)
	}
	details, err := st.ListTaskStudentDetails(ctx, userID)
	if err != nil {
		return Report{}, err
	}

	rep := userReport{
		GeneratedAt: time.Now().UTC(),
		User: reportUser{
			ID:         user.ID,
			Username:   user.Username,
			Email:      user.Email,
			FullName:   user.FullName,
			Role:       user.Role,
			StudyGroup: user.StudyGroupCipherID,
		},
		Tasks: make([]reportTaskLine, 0, len(details)),
	}
	for _, d := range details {
		rep.Tasks = append(rep.Tasks, reportTaskLine{
			TaskStudentID: d.ID,
			TaskID:        d.TaskID,
			TaskTitle:     d.TaskTitle,
			Status:        d.Status,
			Grade:         d.Grade,
			SubmittedDate: d.SubmittedDate,
		})
	}

	if err := os.MkdirAll(rs.ReportsDir, 0o755); err != nil {
		return Report{}, err
	}
	filename := fmt.Sprintf("user_%d_report.%s", userID, ext)
	path := filepath.Join(rs.ReportsDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return Report{}, err
	}
	if err := write(f, rep); err != nil {
		f.Close()
		return Report{}, err
	}
	if err := f.Close(); err != nil {
		return Report{}, err
	}
	return Report{Path: path, Filename: filename}, nil
}

var writers = map[string]func(io.Writer, userReport) error{
	"csv":  writeCSV,
	"json": writeJSON,
	"yaml": writeYAML,
}

func writeJSON(w io.Writer, rep userReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func writeYAML(w io.Writer, rep userReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

func writeCSV(w io.Writer, rep userReport) error {
	cw := csv.NewWriter(w)
	header := []string{"user_id", "username", "email", "full_name", "study_group",
		"task_student_id", "task_id", "task_title", "status", "grade", "submitted_date"}
	if err := cw.Write(header); err != nil {
		return err
	}
	u := rep.User
	for _, t := range rep.Tasks {
		record := []string{
			strconv.Itoa(u.ID), u.Username, u.Email, deref(u.FullName), deref(u.StudyGroup),
			strconv.Itoa(t.TaskStudentID), strconv.Itoa(t.TaskID), t.TaskTitle, t.Status,
			"", "",
		}
		if t.Grade != nil {
			record[9] = strconv.Itoa(*t.Grade)
		}
		if t.SubmittedDate != nil {
			record[10] = t.SubmittedDate.Format(time.RFC3339)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
