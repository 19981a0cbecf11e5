package models

// User roles.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Task assignment statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusCompleted  = "completed"
)

var (
	Roles    = []string{RoleAdmin, RoleTeacher, RoleStudent}
	Statuses = []string{StatusPending, StatusInProgress, StatusSubmitted, StatusCompleted}
)

// ClassifierColumns are restricted to a fixed value set and are filtered by
// equality rather than prefix match.
var ClassifierColumns = map[string]bool{
	"role":   true,
	"status": true,
}

func IsRole(s string) bool { return contains(Roles, s) }

func IsStatus(s string) bool { return contains(Statuses, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
