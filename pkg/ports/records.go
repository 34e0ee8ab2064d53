package ports

import (
	"context"

	"github.com/aretw0/ngena/pkg/domain"
)

// UserDirectory answers whether a channel user is registered.
// The dispatcher only needs this narrow view of the record store.
type UserDirectory interface {
	UserExists(ctx context.Context, phone string) (bool, error)
}

// RecordStore is the domain record store used by validators.
// Lookups that find nothing return domain.ErrNotFound; list queries return empty slices.
type RecordStore interface {
	UserDirectory

	GetUser(ctx context.Context, phone string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)

	ListCourses(ctx context.Context) ([]domain.Course, error)
	GetCourse(ctx context.Context, code string) (domain.Course, error)
	EnrolledCourses(ctx context.Context, phone string) ([]domain.Course, error)
	Enroll(ctx context.Context, phone, courseCode string, packageID int64) error
	EnrolledPackage(ctx context.Context, phone, courseCode string) (domain.Package, error)

	ListPackages(ctx context.Context, serviceType string) ([]domain.Package, error)
	GetPackage(ctx context.Context, id int64) (domain.Package, error)

	CreatePayment(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	UpdatePayment(ctx context.Context, payment domain.Payment) error
	GetPayment(ctx context.Context, id int64) (domain.Payment, error)
	RecentPayments(ctx context.Context, phone string, limit int) ([]domain.Payment, error)

	ListTutorials(ctx context.Context, courseCode string) ([]domain.Tutorial, error)
	GetTutorial(ctx context.Context, id int64) (domain.Tutorial, error)
	TutorialSteps(ctx context.Context, tutorialID int64) ([]domain.TutorialStep, error)

	PendingAssignments(ctx context.Context, phone string) ([]domain.Assignment, error)
	OutsourcedAssignments(ctx context.Context, phone string) ([]domain.Assignment, error)
	GetAssignment(ctx context.Context, id int64) (domain.Assignment, error)
	CreateAssignment(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error)
	UpdateAssignment(ctx context.Context, assignment domain.Assignment) error

	Conversation(ctx context.Context, phone, courseCode string) ([]domain.Conversation, error)
	PostMessage(ctx context.Context, msg domain.Conversation) error
}
