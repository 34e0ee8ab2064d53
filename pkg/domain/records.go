package domain

import (
	"strings"
	"time"
)

// Roles.
const (
	RoleStudent = "STUDENT"
	RoleTutor   = "TUTOR"
)

// Package service types.
const (
	ServiceCourseRegistration    = "course_registration"
	ServiceAssignmentOutsourcing = "assignment_outsourcing"
)

// Payment statuses.
const (
	PaymentCreated         = "Created"
	PaymentAwaitingPayment = "Awaiting Payment"
	PaymentPending         = "Pending"
	PaymentPaid            = "Paid"
	PaymentFailed          = "Failed"
	PaymentCancelled       = "Cancelled"
)

// Assignment kinds.
const (
	AssignmentCourseWork = "course"
	AssignmentOutsourced = "outsourced"
)

// Assignment statuses.
const (
	AssignmentPending    = "Pending"
	AssignmentInProgress = "In Progress"
	AssignmentRevision   = "Revision"
	AssignmentCompleted  = "Completed"
)

// User is a registered student.
type User struct {
	ID          int64     `db:"id" json:"id"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Email       string    `db:"email" json:"email"`
	Sex         string    `db:"sex" json:"sex"`
	Role        string    `db:"role" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Course is an enrollable course keyed by code.
type Course struct {
	Code          string `db:"code" json:"code"`
	Name          string `db:"name" json:"name"`
	Description   string `db:"description" json:"description"`
	DurationWeeks int    `db:"duration_weeks" json:"duration_weeks"`
}

// Package is a priced offering for a service type.
type Package struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	Price       float64 `db:"price" json:"price"`
	ServiceType string  `db:"service_type" json:"service_type"`
	Permissions string  `db:"permissions" json:"permissions"`
}

// Payment is a payment attempt for a course package or an assignment.
type Payment struct {
	ID                int64     `db:"id" json:"id"`
	UserPhone         string    `db:"user_phone" json:"user_phone"`
	CourseCode        string    `db:"course_code" json:"course_code"`
	PackageID         int64     `db:"package_id" json:"package_id"`
	Amount            float64   `db:"amount" json:"amount"`
	Status            string    `db:"status" json:"status"`
	UpstreamReference string    `db:"upstream_reference" json:"upstream_reference"`
	UpstreamResponse  string    `db:"upstream_response" json:"upstream_response"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Tutorial is an ordered lesson of a course.
type Tutorial struct {
	ID          int64  `db:"id" json:"id"`
	CourseCode  string `db:"course_code" json:"course_code"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
}

// TutorialStep is one page of a tutorial. Kind is a media response type or "text".
type TutorialStep struct {
	ID         int64  `db:"id" json:"id"`
	TutorialID int64  `db:"tutorial_id" json:"tutorial_id"`
	Position   int    `db:"position" json:"position"`
	Kind       string `db:"kind" json:"kind"`
	Content    string `db:"content" json:"content"`
	MediaURL   string `db:"media_url" json:"media_url"`
}

// Assignment is course work or an outsourced assignment owned by one user.
type Assignment struct {
	ID            int64     `db:"id" json:"id"`
	Kind          string    `db:"kind" json:"kind"`
	Field         string    `db:"field" json:"field,omitempty"`
	CourseCode    string    `db:"course_code" json:"course_code"`
	UserPhone     string    `db:"user_phone" json:"user_phone"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Status        string    `db:"status" json:"status"`
	BriefURL      string    `db:"brief_url" json:"brief_url"`
	SolutionURL   string    `db:"solution_url" json:"solution_url"`
	SubmissionURL string    `db:"submission_url" json:"submission_url"`
	PaymentID     int64     `db:"payment_id" json:"payment_id"`
	DueAt         time.Time `db:"due_at" json:"due_at"`
}

// Conversation is a question a student sent to a course tutor.
type Conversation struct {
	ID         int64     `db:"id" json:"id"`
	UserPhone  string    `db:"user_phone" json:"user_phone"`
	CourseCode string    `db:"course_code" json:"course_code"`
	Message    string    `db:"message" json:"message"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
