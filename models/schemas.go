package models

import "time"

// Request bodies. Update types use pointers so absent fields keep the
// stored value.

type UserCreate struct {
	Username           string  `json:"username" validate:"required,max=61"`
	Email              string  `json:"email" validate:"required,email"`
	Password           string  `json:"password" validate:"required,min=6,max=72"`
	FullName           *string `json:"full_name"`
	Role               string  `json:"role" validate:"omitempty,role"`
	StudyGroupCipherID *string `json:"study_group_cipher_id"`
	IsActive           *bool   `json:"is_active"`
	IsSuperuser        bool    `json:"is_superuser"`
}

type UserUpdate struct {
	Username           *string `json:"username" validate:"omitempty,max=61"`
	Email              *string `json:"email" validate:"omitempty,email"`
	Password           *string `json:"password" validate:"omitempty,min=6,max=72"`
	FullName           *string `json:"full_name"`
	Role               *string `json:"role" validate:"omitempty,role"`
	StudyGroupCipherID *string `json:"study_group_cipher_id"`
	IsActive           *bool   `json:"is_active"`
	IsSuperuser        *bool   `json:"is_superuser"`
	IsOnline           *bool   `json:"is_online"`
}

// UserMeUpdate is what a user may change about themselves.
type UserMeUpdate struct {
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type ReportUserCreate struct {
	UserID int    `json:"user_id" validate:"required,gt=0"`
	Ext    string `json:"ext" validate:"required,oneof=csv json yaml"`
}

type DisciplineCreate struct {
	Title string `json:"title" validate:"required"`
}

type DisciplineUpdate = DisciplineCreate

type StudyGroupCipherCreate struct {
	ID    string  `json:"id" validate:"required,max=32"`
	Title *string `json:"title"`
}

type StudyGroupCipherUpdate struct {
	Title *string `json:"title"`
}

// StudyGroupCreate assigns every listed discipline to the group.
type StudyGroupCreate struct {
	ID           string `json:"id" validate:"required"`
	DisciplineID []int  `json:"discipline_id" validate:"required,min=1,dive,gt=0"`
}

type TaskCreate struct {
	Title        string  `json:"title" validate:"required"`
	Description  *string `json:"description"`
	DisciplineID *int    `json:"discipline_id"`
	TeacherID    *int    `json:"teacher_id"`
}

type TaskUpdate struct {
	Title        *string `json:"title" validate:"omitempty,min=1"`
	Description  *string `json:"description"`
	DisciplineID *int    `json:"discipline_id"`
	TeacherID    *int    `json:"teacher_id"`
}

type StudyGroupTaskCreate struct {
	StudyGroupID string     `json:"study_group_id" validate:"required"`
	TaskID       int        `json:"task_id" validate:"required,gt=0"`
	DeadlineDate *time.Time `json:"deadline_date"`
}

type StudyGroupTaskUpdate struct {
	StudyGroupID *string    `json:"study_group_id" validate:"omitempty,min=1"`
	TaskID       *int       `json:"task_id" validate:"omitempty,gt=0"`
	DeadlineDate *time.Time `json:"deadline_date"`
}

type TaskStudentCreate struct {
	TaskID    int     `json:"task_id" validate:"required,gt=0"`
	StudentID int     `json:"student_id" validate:"required,gt=0"`
	Status    string  `json:"status" validate:"omitempty,status"`
	Grade     *int    `json:"grade" validate:"omitempty,min=0,max=100"`
	Comment   *string `json:"comment"`
}

type TaskStudentUpdate struct {
	Status        *string    `json:"status" validate:"omitempty,status"`
	Grade         *int       `json:"grade" validate:"omitempty,min=0,max=100"`
	Comment       *string    `json:"comment"`
	SubmittedDate *time.Time `json:"submitted_date"`
}
