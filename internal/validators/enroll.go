package validators

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/pagination"
	"github.com/aretw0/ngena/pkg/registry"
	"github.com/aretw0/ngena/pkg/render"
)

// Payment option ids offered after a package is chosen. handlePaymentID is also the
// literal that routes the dispatcher to handle_payment.
const (
	handlePaymentID = "handle_payment"
	payNowID        = "disabled"
)

const actionSelectPackage = "select_package"

// enrollment is the progress of the enroll flow.
type enrollment struct {
	Page            int    `mapstructure:"page,omitempty"`
	Action          string `mapstructure:"action,omitempty"`
	SelectedCourse  string `mapstructure:"selected_course,omitempty"`
	SelectedPackage int64  `mapstructure:"selected_package,omitempty"`
}

// The enroll flow never completes on its own: a chosen payment option routes
// through handle_payment, so every reply is on the invalid branch.
func (h *Handlers) enroll(ctx context.Context, req registry.Request) (domain.Result, error) {
	courses, err := h.availableCourses(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}

	p := enrollment{Page: 1}
	ok, err := load(req, domain.StateEnroll, &p)
	if err != nil {
		return domain.Result{}, err
	}

	body := strings.TrimSpace(req.Body)
	switch {
	case !ok, isBack(body):
	case body == payNowID:
		return domain.Invalid(payNowDisabled()), nil
	case p.SelectedCourse == "":
		if page, paged := pagination.Step(p.Page, body); paged {
			p.Page = min(page, pagination.TotalPages(len(courses), h.pageSize))
			break
		}
		course, found := findCourse(courses, body)
		if !found {
			return domain.Invalid(invalidSelection()), nil
		}
		p.SelectedCourse = course.Code
		p.Action = actionSelectPackage
	case p.Action == actionSelectPackage:
		pkg, found, err := h.packageFor(ctx, body, domain.ServiceCourseRegistration)
		if err != nil {
			return domain.Result{}, err
		}
		if !found {
			return domain.Invalid(invalidSelection()), nil
		}
		p.SelectedPackage = pkg.ID
	default:
		return domain.Invalid(invalidSelection()), nil
	}

	if err := h.save(ctx, req, p); err != nil {
		return domain.Result{}, err
	}
	reply, err := h.enrollStage(ctx, courses, p)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Invalid(reply), nil
}

func (h *Handlers) enrollStage(ctx context.Context, courses []domain.Course, p enrollment) (*domain.Reply, error) {
	if p.SelectedCourse == "" {
		return h.courseList(courses, p.Page), nil
	}
	course, err := h.records.GetCourse(ctx, p.SelectedCourse)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", p.SelectedCourse, err)
	}
	if p.SelectedPackage == 0 {
		return h.packageList(ctx, course)
	}
	pkg, err := h.records.GetPackage(ctx, p.SelectedPackage)
	if err != nil {
		return nil, fmt.Errorf("package %d: %w", p.SelectedPackage, err)
	}
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text: fmt.Sprintf("*Payment Options*\n\n 🇺🇸 PayPal\n\n 🇿🇼 PayNow \n\nSelect payment option to purchase %[1]s\n\n"+
			"You will be enrolled in %[1]s %[2]s package with access to %[3]s.\n\nYou will be charged *$%[4]s* for this package.",
			capitalize(course.Name), capitalize(pkg.Name), pkg.Permissions, money(pkg.Price)),
		MenuName:  "Purchase",
		MenuItems: paymentOptions(),
	}, nil
}

func paymentOptions() []domain.MenuItem {
	return []domain.MenuItem{
		{ID: handlePaymentID, Name: "🇺🇸 PayPal", Description: "Complete purchase with PayPal"},
		{ID: payNowID, Name: "🇿🇼 PayNow (disabled)", Description: "Complete purchase with PayNow"},
	}
}

// availableCourses lists the courses the user can still enroll in.
func (h *Handlers) availableCourses(ctx context.Context, phone string) ([]domain.Course, error) {
	all, err := h.records.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	enrolled, err := h.records.EnrolledCourses(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("enrolled courses: %w", err)
	}
	taken := map[string]bool{outsourcingCourse: true}
	for _, c := range enrolled {
		taken[c.Code] = true
	}

	out := make([]domain.Course, 0, len(all))
	for _, c := range all {
		if !taken[c.Code] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (h *Handlers) courseList(courses []domain.Course, page int) *domain.Reply {
	if len(courses) == 0 {
		return &domain.Reply{
			ResponseType: domain.ResponseButton,
			ExcludeBack:  true,
			Menu:         render.CourseMenuID,
			Text:         "*No Courses Available!!*\n\nNo courses available at the moment.\nPlease contact tutor to upload courses.",
		}
	}

	pg := pagination.Paginate(courses, h.pageSize, page)
	names := make([]string, len(pg.Items))
	for i, c := range pg.Items {
		names[i] = c.Name
	}
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text: fmt.Sprintf("*Available Courses* \n\n%s\n\nPage %d of %d",
			strings.Join(numbered(names, false), "\n\n"), pg.Number, pg.TotalPages),
		MenuName:  "📚 Available Courses",
		MenuItems: courseItems(pg),
	}
}

func courseItems(pg pagination.Page[domain.Course]) []domain.MenuItem {
	items := make([]domain.MenuItem, 0, len(pg.Items)+2)
	for _, c := range pg.Items {
		items = append(items, domain.MenuItem{
			ID:          c.Code,
			Name:        "📚 " + c.Name,
			Description: render.Truncate(c.Description, 45),
		})
	}
	return append(items, pageItems(pg.HasPrevious, pg.HasNext)...)
}

func pageItems(prev, next bool) []domain.MenuItem {
	var items []domain.MenuItem
	if prev {
		items = append(items, domain.MenuItem{ID: pagination.PreviousPage, Name: "Previous Page", Description: "Previous page"})
	}
	if next {
		items = append(items, domain.MenuItem{ID: pagination.NextPage, Name: "Next Page", Description: "Next page"})
	}
	return items
}

func (h *Handlers) packageList(ctx context.Context, course domain.Course) (*domain.Reply, error) {
	pkgs, err := h.records.ListPackages(ctx, domain.ServiceCourseRegistration)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	items := make([]domain.MenuItem, len(pkgs))
	for i, p := range pkgs {
		items[i] = domain.MenuItem{
			ID:          strconv.FormatInt(p.ID, 10),
			Name:        fmt.Sprintf("%s ($%s)", title(p.Name), money(p.Price)),
			Description: p.Description,
		}
	}
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text: fmt.Sprintf("*Subscription Packages*\n\n*Course:* %s\n*Duration:* %d week(s)\n\n*Description*\n\n%s\n\n",
			capitalize(course.Name), course.DurationWeeks, course.Description),
		MenuName:           "📦 Packages",
		MenuItems:          items,
		IncludeDescription: true,
	}, nil
}

// packageFor resolves a package id typed or selected by the user.
func (h *Handlers) packageFor(ctx context.Context, body, serviceType string) (domain.Package, bool, error) {
	id, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return domain.Package{}, false, nil
	}
	return h.packageByID(ctx, id, serviceType)
}

// packageByID loads a package. Packages of another service type are not found.
func (h *Handlers) packageByID(ctx context.Context, id int64, serviceType string) (domain.Package, bool, error) {
	pkg, err := h.records.GetPackage(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Package{}, false, nil
	}
	if err != nil {
		return domain.Package{}, false, fmt.Errorf("package %d: %w", id, err)
	}
	return pkg, pkg.ServiceType == serviceType, nil
}

func findCourse(courses []domain.Course, code string) (domain.Course, bool) {
	for _, c := range courses {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return domain.Course{}, false
}
