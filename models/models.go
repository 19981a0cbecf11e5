package models

import "time"

type User struct {
	ID                 int       `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	FullName           *string   `json:"full_name"`
	HashedPassword     string    `json:"-"`
	Role               string    `json:"role"`
	StudyGroupCipherID *string   `json:"study_group_cipher_id"`
	IsActive           bool      `json:"is_active"`
	IsSuperuser        bool      `json:"is_superuser"`
	IsOnline           bool      `json:"is_online"`
	CreatedDate        time.Time `json:"created_date"`
}

type Discipline struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// StudyGroupCipher is a study group's code, e.g. "IVT-21".
type StudyGroupCipher struct {
	ID    string  `json:"id"`
	Title *string `json:"title"`
}

// StudyGroup links a group cipher to one discipline it studies.
type StudyGroup struct {
	ID           string `json:"id"`
	DisciplineID int    `json:"discipline_id"`
}

type Task struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	DisciplineID *int      `json:"discipline_id"`
	TeacherID    *int      `json:"teacher_id"`
	CreatedDate  time.Time `json:"created_date"`
}

type StudyGroupTask struct {
	ID           int        `json:"id"`
	StudyGroupID string     `json:"study_group_id"`
	TaskID       int        `json:"task_id"`
	DeadlineDate *time.Time `json:"deadline_date"`
}

// TaskStudent is one student's assignment of a task.
type TaskStudent struct {
	ID            int        `json:"id"`
	TaskID        int        `json:"task_id"`
	StudentID     int        `json:"student_id"`
	Status        string     `json:"status"`
	Grade         *int       `json:"grade"`
	Comment       *string    `json:"comment"`
	SubmittedDate *time.Time `json:"submitted_date"`
}

// TaskStudentDetail is a TaskStudent joined with its task, as used in reports.
type TaskStudentDetail struct {
	TaskStudent
	TaskTitle string `json:"task_title" yaml:"task_title"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
