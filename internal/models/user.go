package models

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// User is a roster entry. Username is the login key (case-insensitive),
// Name is the display name matched against TimeLogRecord.EmployeeName.
type User struct {
	ID       string `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Name     string `json:"name" yaml:"name"`
	Role     Role   `json:"role" yaml:"role"`
}
