package model

import (
	"fmt"
	"time"
)

// Role is the closed set of principal roles. A role is assigned at signup
// and never changes afterwards.
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
	RoleRoot      Role = "root"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleProfessor:
		return RoleProfessor, nil
	case RoleRoot:
		return RoleRoot, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Status is the closed set of account statuses. Only root actions move a
// principal between statuses; the authorization gate just reads them.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusActive   Status = "active"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusActive:
		return StatusActive, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

// CanTransitionTo reports whether a root-initiated status update from s to
// target is allowed. A rejection is reversible: rejected accounts may be
// approved or activated again by another explicit root action.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return false
	}
	switch target {
	case StatusApproved, StatusRejected, StatusActive:
		return true
	case StatusPending:
		return false
	default:
		return false
	}
}

type User struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	CreatedAt    time.Time
}

type Course struct {
	ID          int64
	Title       string
	Description string
	ProfessorID *int64
	CreatedAt   time.Time
}

type Enrollment struct {
	CourseID   int64
	StudentID  int64
	EnrolledAt time.Time
}

type Assignment struct {
	ID          int64
	CourseID    int64
	Title       string
	Description string
	DueAt       time.Time
	CreatedAt   time.Time
}

type Submission struct {
	ID           int64
	AssignmentID int64
	StudentID    int64
	FileName     string
	FileKey      string
	Grade        *int32
	SubmittedAt  time.Time
}

type Announcement struct {
	ID        int64
	CourseID  int64
	AuthorID  int64
	Title     string
	Body      string
	CreatedAt time.Time
}
