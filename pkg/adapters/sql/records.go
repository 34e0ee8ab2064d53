package sql

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"github.com/aretw0/ngena/pkg/domain"
)

const (
	userColumns       = `id, phone_number, first_name, last_name, email, sex, role, created_at`
	courseColumns     = `code, name, description, duration_weeks`
	packageColumns    = `id, name, description, price, service_type, permissions`
	paymentColumns    = `id, user_phone, course_code, package_id, amount, status, upstream_reference, upstream_response, created_at`
	assignmentColumns = `id, kind, field, course_code, user_phone, title, description, status, brief_url, solution_url, submission_url, payment_id, due_at`
)

// UserExists reports whether phone is registered.
func (s *Store) UserExists(ctx context.Context, phone string) (bool, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM users WHERE phone_number = ?`, phone); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GetUser(ctx context.Context, phone string) (domain.User, error) {
	var u domain.User
	err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE phone_number = ?`, phone)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if u.Role == "" {
		u.Role = domain.RoleStudent
	}
	u.CreatedAt = s.timestamp()
	id, err := s.insert(ctx,
		`INSERT INTO users (phone_number, first_name, last_name, email, sex, role, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.PhoneNumber, u.FirstName, u.LastName, u.Email, u.Sex, u.Role, u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return u, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	courses := []domain.Course{}
	err := s.selectAll(ctx, &courses, `SELECT `+courseColumns+` FROM courses WHERE code <> 'COUT' ORDER BY name`)
	return courses, err
}

func (s *Store) GetCourse(ctx context.Context, code string) (domain.Course, error) {
	var c domain.Course
	err := s.get(ctx, &c, `SELECT `+courseColumns+` FROM courses WHERE code = ?`, code)
	return c, err
}

func (s *Store) EnrolledCourses(ctx context.Context, phone string) ([]domain.Course, error) {
	courses := []domain.Course{}
	err := s.selectAll(ctx, &courses,
		`SELECT c.code, c.name, c.description, c.duration_weeks
		FROM courses c JOIN enrollments e ON e.course_code = c.code
		WHERE e.user_phone = ? ORDER BY c.name`, phone)
	return courses, err
}

// Enroll records or upgrades the user's package for a course.
func (s *Store) Enroll(ctx context.Context, phone, courseCode string, packageID int64) error {
	_, err := s.exec(ctx,
		`INSERT INTO enrollments (user_phone, course_code, package_id, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_phone, course_code) DO UPDATE SET package_id = excluded.package_id`,
		phone, courseCode, packageID, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

func (s *Store) EnrolledPackage(ctx context.Context, phone, courseCode string) (domain.Package, error) {
	var p domain.Package
	err := s.get(ctx, &p,
		`SELECT p.id, p.name, p.description, p.price, p.service_type, p.permissions
		FROM packages p JOIN enrollments e ON e.package_id = p.id
		WHERE e.user_phone = ? AND e.course_code = ?`, phone, courseCode)
	return p, err
}

func (s *Store) ListPackages(ctx context.Context, serviceType string) ([]domain.Package, error) {
	pkgs := []domain.Package{}
	err := s.selectAll(ctx, &pkgs, `SELECT `+packageColumns+` FROM packages WHERE service_type = ? ORDER BY price`, serviceType)
	return pkgs, err
}

func (s *Store) GetPackage(ctx context.Context, id int64) (domain.Package, error) {
	var p domain.Package
	err := s.get(ctx, &p, `SELECT `+packageColumns+` FROM packages WHERE id = ?`, id)
	return p, err
}

func (s *Store) CreatePayment(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	p.CreatedAt = s.timestamp()
	id, err := s.insert(ctx,
		`INSERT INTO payments (user_phone, course_code, package_id, amount, status, upstream_reference, upstream_response, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserPhone, p.CourseCode, p.PackageID, p.Amount, p.Status, p.UpstreamReference, p.UpstreamResponse, p.CreatedAt,
	)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	p.ID = id
	return p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p domain.Payment) error {
	res, err := s.exec(ctx,
		`UPDATE payments SET course_code = ?, package_id = ?, amount = ?, status = ?, upstream_reference = ?, upstream_response = ?
		WHERE id = ?`,
		p.CourseCode, p.PackageID, p.Amount, p.Status, p.UpstreamReference, p.UpstreamResponse, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return expectRow(res)
}

func (s *Store) GetPayment(ctx context.Context, id int64) (domain.Payment, error) {
	var p domain.Payment
	err := s.get(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	return p, err
}

// RecentPayments returns the user's latest payments, newest first.
func (s *Store) RecentPayments(ctx context.Context, phone string, limit int) ([]domain.Payment, error) {
	payments := []domain.Payment{}
	err := s.selectAll(ctx, &payments,
		`SELECT `+paymentColumns+` FROM payments WHERE user_phone = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		phone, limit)
	return payments, err
}

func (s *Store) ListTutorials(ctx context.Context, courseCode string) ([]domain.Tutorial, error) {
	tutorials := []domain.Tutorial{}
	err := s.selectAll(ctx, &tutorials,
		`SELECT id, course_code, title, description FROM tutorials WHERE course_code = ? ORDER BY id`, courseCode)
	return tutorials, err
}

func (s *Store) GetTutorial(ctx context.Context, id int64) (domain.Tutorial, error) {
	var t domain.Tutorial
	err := s.get(ctx, &t, `SELECT id, course_code, title, description FROM tutorials WHERE id = ?`, id)
	return t, err
}

func (s *Store) TutorialSteps(ctx context.Context, tutorialID int64) ([]domain.TutorialStep, error) {
	steps := []domain.TutorialStep{}
	err := s.selectAll(ctx, &steps,
		`SELECT id, tutorial_id, position, kind, content, media_url FROM tutorial_steps WHERE tutorial_id = ? ORDER BY position`,
		tutorialID)
	return steps, err
}

// PendingAssignments returns the user's unsubmitted course work.
func (s *Store) PendingAssignments(ctx context.Context, phone string) ([]domain.Assignment, error) {
	out := []domain.Assignment{}
	err := s.selectAll(ctx, &out,
		`SELECT `+assignmentColumns+` FROM assignments
		WHERE user_phone = ? AND kind = ? AND status = ? ORDER BY due_at, id`,
		phone, domain.AssignmentCourseWork, domain.AssignmentPending)
	return out, err
}

// OutsourcedAssignments returns the user's outsourced assignments, newest first.
func (s *Store) OutsourcedAssignments(ctx context.Context, phone string) ([]domain.Assignment, error) {
	out := []domain.Assignment{}
	err := s.selectAll(ctx, &out,
		`SELECT `+assignmentColumns+` FROM assignments WHERE user_phone = ? AND kind = ? ORDER BY id DESC`,
		phone, domain.AssignmentOutsourced)
	return out, err
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (domain.Assignment, error) {
	var a domain.Assignment
	err := s.get(ctx, &a, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	return a, err
}

func (s *Store) CreateAssignment(ctx context.Context, a domain.Assignment) (domain.Assignment, error) {
	id, err := s.insert(ctx,
		`INSERT INTO assignments (kind, field, course_code, user_phone, title, description, status, brief_url, solution_url, submission_url, payment_id, due_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Kind, a.Field, a.CourseCode, a.UserPhone, a.Title, a.Description, a.Status,
		a.BriefURL, a.SolutionURL, a.SubmissionURL, a.PaymentID, a.DueAt,
	)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("create assignment: %w", err)
	}
	a.ID = id
	return a, nil
}

func (s *Store) UpdateAssignment(ctx context.Context, a domain.Assignment) error {
	res, err := s.exec(ctx,
		`UPDATE assignments SET title = ?, description = ?, status = ?, brief_url = ?, solution_url = ?, submission_url = ?, payment_id = ?
		WHERE id = ?`,
		a.Title, a.Description, a.Status, a.BriefURL, a.SolutionURL, a.SubmissionURL, a.PaymentID, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return expectRow(res)
}

// Conversation returns the messages the user sent about a course, oldest first.
func (s *Store) Conversation(ctx context.Context, phone, courseCode string) ([]domain.Conversation, error) {
	out := []domain.Conversation{}
	err := s.selectAll(ctx, &out,
		`SELECT id, user_phone, course_code, message, created_at FROM conversations
		WHERE user_phone = ? AND course_code = ? ORDER BY created_at, id`, phone, courseCode)
	return out, err
}

func (s *Store) PostMessage(ctx context.Context, msg domain.Conversation) error {
	_, err := s.exec(ctx,
		`INSERT INTO conversations (user_phone, course_code, message, created_at) VALUES (?, ?, ?, ?)`,
		msg.UserPhone, msg.CourseCode, msg.Message, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

func expectRow(res stdsql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
