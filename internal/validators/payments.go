package validators

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/ports"
	"github.com/aretw0/ngena/pkg/registry"
)

var paymentMarks = map[string]string{
	"paid":             "✅",
	"pending":          "⏳",
	"failed":           "🚫",
	"created":          "📝",
	"awaiting payment": "⏳",
	"cancelled":        "🚫",
}

func paymentMark(status string) string {
	if m, ok := paymentMarks[strings.ToLower(strings.TrimSpace(status))]; ok {
		return m
	}
	return "❓"
}

func (h *Handlers) courseName(ctx context.Context, code string) string {
	if c, err := h.records.GetCourse(ctx, code); err == nil {
		return c.Name
	}
	return code
}

func (h *Handlers) listPayments(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, _, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}
	payments, err := h.records.RecentPayments(ctx, req.UserID, recentPayments)
	if err != nil {
		return domain.Result{}, fmt.Errorf("recent payments: %w", err)
	}

	body := strings.TrimSpace(req.Body)
	for _, p := range payments {
		if strconv.FormatInt(p.ID, 10) != body {
			continue
		}
		paid := "🚫"
		if p.Status == domain.PaymentPaid {
			paid = "✅"
		}
		return domain.Valid(&domain.Reply{
			ResponseType: domain.ResponseButton,
			Text: fmt.Sprintf("*📜Payment Details*\n\n*Course: _%s_*\n*Amount:* $%s\n*Date:* _%s_\n*Status:* _%s %s_\n\n",
				h.courseName(ctx, p.CourseCode), money(p.Amount), p.CreatedAt.Format("02 Jan 2006"), p.Status, paid),
		}), nil
	}

	if len(payments) == 0 {
		return domain.Valid(&domain.Reply{
			ResponseType: domain.ResponseButton,
			Text:         "*💳 No Payments Available*\n\nYou have not made any payments yet.",
		}), nil
	}

	lines := make([]string, len(payments))
	items := make([]domain.MenuItem, len(payments))
	for i, p := range payments {
		name := h.courseName(ctx, p.CourseCode)
		lines[i] = name + " " + paymentMark(p.Status)
		items[i] = domain.MenuItem{
			ID:          strconv.FormatInt(p.ID, 10),
			Name:        name,
			Description: p.CreatedAt.Format("02 Jan 2006 15:04"),
		}
	}
	return domain.Valid(&domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text:         "*Recent Payments* \n\n" + strings.Join(numbered(lines, true), " \n\n "),
		Username:     u.FullName(),
		MenuName:     "💰 Payments",
		MenuItems:    items,
	}), nil
}

// checkout is the session data a payment request is made from. It is written by the
// enroll and assignments flows.
type checkout struct {
	Action          string `mapstructure:"action,omitempty"`
	SelectedCourse  string `mapstructure:"selected_course,omitempty"`
	SelectedPackage int64  `mapstructure:"selected_package,omitempty"`
	AssignmentID    int64  `mapstructure:"assignment_id,omitempty"`
	PaymentID       int64  `mapstructure:"payment_id,omitempty"`
}

func paymentNotice(text string) *domain.Reply {
	return &domain.Reply{ResponseType: domain.ResponseButton, ExcludeBack: true, Text: text}
}

// handlePayment creates a payment order for the package chosen in the enroll flow or
// for a received assignment. Provider failures are answered with a notice.
func (h *Handlers) handlePayment(ctx context.Context, req registry.Request) (domain.Result, error) {
	failed := domain.Invalid(paymentNotice("*Payment Failed*\n\nPlease try again later"))

	var c checkout
	if err := decode(req.Session.Data, &c); err != nil {
		return domain.Result{}, err
	}
	if h.payments == nil || c.SelectedPackage == 0 {
		return failed, nil
	}

	var (
		payment domain.Payment
		order   ports.PaymentOrder
		err     error
	)
	switch c.Action {
	case actionSelectPackage:
		payment, order, err = h.courseOrder(ctx, req.UserID, c)
	case actionAssignment:
		payment, order, err = h.assignmentOrder(ctx, c)
	default:
		return failed, nil
	}
	if err != nil {
		return domain.Result{}, err
	}

	result, err := h.payments.CreateOrder(ctx, order)
	if err != nil {
		h.logger.Error("Payment order failed", "user_id", req.UserID, "payment_id", payment.ID, "err", err)
		result = ports.PaymentResult{}
	}

	text := "*Payment Order Failed*\n\nPlease try again later"
	payment.UpstreamResponse = result.RawResponse
	if result.Successful {
		payment.UpstreamReference = result.Reference
		payment.Status = domain.PaymentFailed
		if result.Status != "" {
			payment.Status = title(result.Status)
		}
		text = "*📜 Payment Order Created*\n\nPlease follow the link below to complete your payment\n\n" + result.URL
	}
	if err := h.records.UpdatePayment(ctx, payment); err != nil {
		return domain.Result{}, err
	}
	h.logger.Info("Payment order", "user_id", req.UserID, "payment_id", payment.ID, "successful", result.Successful)
	return domain.Invalid(paymentNotice(text)), nil
}

func (h *Handlers) courseOrder(ctx context.Context, phone string, c checkout) (domain.Payment, ports.PaymentOrder, error) {
	course, err := h.records.GetCourse(ctx, c.SelectedCourse)
	if err != nil {
		return domain.Payment{}, ports.PaymentOrder{}, fmt.Errorf("course %s: %w", c.SelectedCourse, err)
	}
	pkg, err := h.records.GetPackage(ctx, c.SelectedPackage)
	if err != nil {
		return domain.Payment{}, ports.PaymentOrder{}, fmt.Errorf("package %d: %w", c.SelectedPackage, err)
	}
	payment, err := h.records.CreatePayment(ctx, domain.Payment{
		UserPhone:  phone,
		CourseCode: course.Code,
		PackageID:  pkg.ID,
		Amount:     pkg.Price,
		Status:     domain.PaymentCreated,
	})
	if err != nil {
		return domain.Payment{}, ports.PaymentOrder{}, err
	}
	return payment, ports.PaymentOrder{
		Currency:    currencyUSD,
		BrandName:   brandName,
		Name:        capitalize(course.Name) + " " + pkg.Name,
		Description: course.Description + " " + pkg.Permissions,
		Amount:      pkg.Price,
		ReturnURL:   h.urls.Return,
		CancelURL:   h.urls.Cancel,
	}, nil
}

func (h *Handlers) assignmentOrder(ctx context.Context, c checkout) (domain.Payment, ports.PaymentOrder, error) {
	payment, err := h.records.GetPayment(ctx, c.PaymentID)
	if err != nil {
		return domain.Payment{}, ports.PaymentOrder{}, fmt.Errorf("payment %d: %w", c.PaymentID, err)
	}
	name := fmt.Sprintf("Assignment %d", c.AssignmentID)
	return payment, ports.PaymentOrder{
		Currency:    currencyUSD,
		BrandName:   brandName,
		Name:        name,
		Description: name,
		Amount:      payment.Amount,
		ReturnURL:   h.urls.AssignmentReturn,
		CancelURL:   h.urls.Cancel,
	}, nil
}

func (h *Handlers) joinClass(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, _, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Valid(domain.TextReply(fmt.Sprintf(
		"*🙏 Thank you %s*\n\nPlease wait while we process your payment, you will be notified once we receive confirmation for your payment. _Confirmation usually takes about 30 seconds_\n\nThank you",
		u.FirstName))), nil
}

func (h *Handlers) cancelPayment(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, _, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Valid(paymentNotice(fmt.Sprintf("Hi %s,\n\nYour payment has been cancelled.\n\n", u.FirstName))), nil
}
