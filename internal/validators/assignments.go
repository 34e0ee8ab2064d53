package validators

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/pagination"
	"github.com/aretw0/ngena/pkg/registry"
	"github.com/aretw0/ngena/pkg/render"
)

// Assignment flow actions. They are also the ids of the menu entries that start them.
const (
	myAssignmentsID  = "my_assignments"
	getHelpID        = "get_help"
	outsourceID      = "outsource"
	viewPendingID    = "pending"
	actionUpload     = "upload"
	actionType       = "assignment_type"
	actionName       = "assignment_name"
	actionDesc       = "assignment_description"
	actionReceive    = "receive_assignment"
	actionViewList   = "view_pending"
	actionViewOne    = "download_outsourced"
	actionPending    = "pending_payment"
	actionAssignment = "assignment_payment"

	outsourcedPrefix = "outsourced_"
	solutionPrefix   = "download_solution_"
	paymentPrefix    = "payment_"
	packagePrefix    = "package_"

	deadlineLayout = "02 Jan 2006 15:04"
)

var assignmentFields = []domain.MenuItem{
	{ID: "math", Name: "📐 Math Assignment", Description: "Math"},
	{ID: "science", Name: "🔬 Science Assignment", Description: "Science"},
	{ID: "language", Name: "📚 Language Assignment", Description: "Language"},
	{ID: "social", Name: "📖 Social Studies", Description: "Social"},
	{ID: "ict", Name: "💻 ICT Assignment", Description: "ICT"},
	{ID: "other", Name: "📚 Other", Description: "Other"},
}

var documentURL = regexp.MustCompile(`(?i)^(?:http|ftp)s?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+(?:[A-Z]{2,6}\.?|[A-Z0-9-]{2,}\.?)|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

// assignmentProgress is the progress of the assignments flow.
type assignmentProgress struct {
	Action          string `mapstructure:"action,omitempty"`
	AssignmentID    int64  `mapstructure:"assignment_id,omitempty"`
	Field           string `mapstructure:"field,omitempty"`
	Title           string `mapstructure:"assignment_name,omitempty"`
	Description     string `mapstructure:"assignment_description,omitempty"`
	PaymentID       int64  `mapstructure:"payment_id,omitempty"`
	SelectedPackage int64  `mapstructure:"selected_package,omitempty"`
	Page            int    `mapstructure:"page,omitempty"`
}

func (h *Handlers) assignments(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, _, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}

	var p assignmentProgress
	if _, err := load(req, domain.StateAssignments, &p); err != nil {
		return domain.Result{}, err
	}

	body := strings.TrimSpace(req.Body)
	turn := assignmentTurn{h: h, req: req, user: u, p: p, body: body}
	reply, valid, err := turn.run(ctx)
	if err != nil {
		return domain.Result{}, err
	}
	if err := h.save(ctx, req, turn.p); err != nil {
		return domain.Result{}, err
	}
	return domain.Result{Valid: valid, Reply: reply}, nil
}

// assignmentTurn carries one request through the assignments flow. run mutates p,
// which the caller persists.
type assignmentTurn struct {
	h    *Handlers
	req  registry.Request
	user domain.User
	p    assignmentProgress
	body string
}

func (t *assignmentTurn) run(ctx context.Context) (*domain.Reply, bool, error) {
	p, body := &t.p, t.body

	switch {
	case body == myAssignmentsID:
		*p = assignmentProgress{}
		return t.pendingWork(ctx)
	case body == getHelpID:
		*p = assignmentProgress{Action: getHelpID}
		return t.helpMenu(ctx)
	case body == payNowID:
		return payNowDisabled(), false, nil
	case strings.HasPrefix(body, solutionPrefix):
		return t.solution(ctx)
	case strings.HasPrefix(body, paymentPrefix):
		return t.choosePackage(ctx)
	}

	switch p.Action {
	case actionUpload:
		return t.submitWork(ctx)
	case getHelpID:
		switch body {
		case outsourceID:
			p.Action = actionType
			return fieldMenu(), true, nil
		case viewPendingID:
			p.Action = actionViewList
			p.Page = 1
			return t.outsourcedList(ctx)
		}
		return t.helpMenu(ctx)
	case actionType:
		if !slices.ContainsFunc(assignmentFields, func(f domain.MenuItem) bool { return f.ID == body }) {
			return fieldMenu(), false, nil
		}
		p.Field = body
		p.Action = actionName
		return domain.TextReply("*📜 Assignment Identifier*\n\nPlease enter a reference name of the assignment you are submitting."), true, nil
	case actionName:
		if body == "" || isBack(body) {
			return domain.TextReply("*📜 Assignment Identifier*\n\nPlease enter a reference name of the assignment you are submitting."), false, nil
		}
		p.Title = body
		p.Action = actionDesc
		return domain.TextReply("*📜 Assignment Description*\n\nPlease enter a description or instructions for the assignment."), true, nil
	case actionDesc:
		if body == "" || isBack(body) {
			return domain.TextReply("*📜 Assignment Description*\n\nPlease enter a description or instructions for the assignment."), false, nil
		}
		p.Description = body
		p.Action = actionReceive
		return domain.TextReply("*📎 Upload Document* \n\nPlease upload and send your assignment document and we will get back to you."), true, nil
	case actionReceive:
		return t.receiveOutsourced(ctx)
	case actionViewList, actionViewOne:
		if page, paged := pagination.Step(p.Page, body); paged {
			p.Action = actionViewList
			p.Page = page
			return t.outsourcedList(ctx)
		}
		if strings.HasPrefix(body, outsourcedPrefix) {
			return t.outsourcedStatus(ctx)
		}
		if isBack(body) {
			return t.outsourcedList(ctx)
		}
	case actionPending:
		if strings.HasPrefix(body, packagePrefix) {
			return t.payForAssignment(ctx)
		}
	}

	if p.Action == "" {
		if id, err := strconv.ParseInt(body, 10, 64); err == nil {
			return t.workDetails(ctx, id)
		}
		switch body {
		case render.DownloadID:
			return t.downloadBrief(ctx)
		case render.UploadID:
			if p.AssignmentID != 0 {
				p.Action = actionUpload
				return uploadPrompt(), true, nil
			}
		}
	}

	*p = assignmentProgress{}
	return assignmentMenu(t.user), true, nil
}

func assignmentMenu(u domain.User) *domain.Reply {
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text:         "*Assignments*\n\n 📚 Course Assignments\n\n 📝 Outsource Assignment\n\n 🏠 Main Menu\n\nSelect an option below",
		Username:     u.FullName(),
		MenuName:     "📝 Assignment Menu",
		MenuItems: []domain.MenuItem{
			{ID: myAssignmentsID, Name: "📚 Course Assignments", Description: "View your assignments"},
			{ID: getHelpID, Name: "📝 Outsource Assignment", Description: "Get help with your assignments"},
			{ID: render.MenuID, Name: "🏠 Main Menu", Description: "Back to main menu"},
		},
	}
}

func fieldMenu() *domain.Reply {
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text:         "*Assignment Type*\n\n 📐 Math Assignment\n\n 🔬 Science Assignment\n\n 📚 Language Assignment\n\n 📖 Social Studies\n\n 💻 ICT Assignment\n\n 📚 Other\n\nSelect type.",
		MenuName:     "View Types",
		MenuItems:    assignmentFields,
	}
}

func uploadPrompt() *domain.Reply {
	return domain.TextReply("*📎 Upload Document* \n\nPlease upload and send your assignment as a document here.")
}

func notFound(text string) *domain.Reply {
	return &domain.Reply{ResponseType: domain.ResponseButton, Text: text}
}

// uploaded returns the document URL carried by the message, if any.
func uploaded(msg domain.IncomingMessage) (string, bool) {
	url := msg.FileURL
	if url == "" {
		url = strings.TrimSpace(msg.Body)
	}
	return url, documentURL.MatchString(url)
}

func (t *assignmentTurn) pendingWork(ctx context.Context) (*domain.Reply, bool, error) {
	work, err := t.h.records.PendingAssignments(ctx, t.req.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("pending assignments: %w", err)
	}
	if len(work) == 0 {
		return notFound("*⚠️Not Found*\n\nYou have not been assigned any assignments yet. Please check back later."), true, nil
	}

	shown := work[:min(len(work), render.MaxRows)]
	titles := make([]string, len(shown))
	items := make([]domain.MenuItem, len(shown))
	for i, a := range shown {
		titles[i] = a.Title
		items[i] = domain.MenuItem{
			ID:          strconv.FormatInt(a.ID, 10),
			Name:        a.Title,
			Description: "Due " + a.DueAt.Format(deadlineLayout),
		}
	}
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text:         "*Pending Assignments*\n\n" + strings.Join(numbered(titles, true), " \n\n"),
		Username:     t.user.FullName(),
		MenuName:     "📝 Pending",
		MenuItems:    items,
	}, true, nil
}

// ownWork loads an assignment and reports whether it belongs to the user.
func (t *assignmentTurn) ownWork(ctx context.Context, id int64) (domain.Assignment, bool, error) {
	a, err := t.h.records.GetAssignment(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Assignment{}, false, nil
	}
	if err != nil {
		return domain.Assignment{}, false, fmt.Errorf("assignment %d: %w", id, err)
	}
	return a, a.UserPhone == t.req.UserID, nil
}

func (t *assignmentTurn) workDetails(ctx context.Context, id int64) (*domain.Reply, bool, error) {
	a, ok, err := t.ownWork(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !ok || a.Kind != domain.AssignmentCourseWork {
		return invalidSelection(), false, nil
	}
	t.p.AssignmentID = a.ID
	return &domain.Reply{
		ResponseType: domain.ResponseDownload,
		Text:         t.h.workText(ctx, a, ""),
	}, true, nil
}

func (h *Handlers) workText(ctx context.Context, a domain.Assignment, marker string) string {
	course := a.CourseCode
	if c, err := h.records.GetCourse(ctx, a.CourseCode); err == nil {
		course = c.Name
	}
	return fmt.Sprintf("*%s%s Details*\n\n*Course: _%s_*\n*Deadline:* _%s_\n*Description:* _%s_\n\n",
		marker, a.Title, course, a.DueAt.Format(deadlineLayout), a.Description)
}

func (t *assignmentTurn) downloadBrief(ctx context.Context) (*domain.Reply, bool, error) {
	if t.p.AssignmentID == 0 {
		return invalidSelection(), false, nil
	}
	a, ok, err := t.ownWork(ctx, t.p.AssignmentID)
	if err != nil {
		return nil, false, err
	}
	if !ok || a.BriefURL == "" {
		return invalidSelection(), false, nil
	}
	return &domain.Reply{
		ResponseType: domain.ResponseDocument,
		Text:         t.h.workText(ctx, a, "📜 "),
		Document:     a.BriefURL,
	}, true, nil
}

func (t *assignmentTurn) submitWork(ctx context.Context) (*domain.Reply, bool, error) {
	url, ok := uploaded(t.req.Message)
	if !ok {
		return uploadPrompt(), false, nil
	}
	a, owned, err := t.ownWork(ctx, t.p.AssignmentID)
	if err != nil {
		return nil, false, err
	}
	if !owned {
		t.p = assignmentProgress{}
		return invalidSelection(), false, nil
	}

	a.SubmissionURL = url
	a.Status = domain.AssignmentCompleted
	if err := t.h.records.UpdateAssignment(ctx, a); err != nil {
		return nil, false, err
	}
	t.h.logger.Info("Assignment submitted", "user_id", t.req.UserID, "assignment_id", a.ID)
	t.p = assignmentProgress{}
	return &domain.Reply{
		ResponseType: domain.ResponseButton,
		ExcludeBack:  true,
		Text:         "✅ *Upload Successful*\n\nYour assignment has been submitted successfully.",
	}, true, nil
}

func (t *assignmentTurn) helpMenu(ctx context.Context) (*domain.Reply, bool, error) {
	outsourced, err := t.h.records.OutsourcedAssignments(ctx, t.req.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("outsourced assignments: %w", err)
	}
	pending := 0
	for _, a := range outsourced {
		if a.Status == domain.AssignmentPending {
			pending++
		}
	}
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text:         fmt.Sprintf("*Help Menu*\n\n 📤 Upload Assignment\n\n 📂 View Pending (%d)\n\n 🔙 Back", pending),
		Username:     t.user.FullName(),
		MenuName:     "🆘 Get Help",
		MenuItems: []domain.MenuItem{
			{ID: outsourceID, Name: "📤 Upload Assignment", Description: "Upload your assignment"},
			{ID: viewPendingID, Name: fmt.Sprintf("📂 View Pending (%d)", pending), Description: "View pending assignments"},
			{ID: render.BackID, Name: "🔙 Back", Description: "Back to assignments menu"},
		},
	}, true, nil
}

// receiveOutsourced stores an outsourced assignment together with the zero-amount
// payment awaiting a package choice.
func (t *assignmentTurn) receiveOutsourced(ctx context.Context) (*domain.Reply, bool, error) {
	url, ok := uploaded(t.req.Message)
	if !ok {
		return uploadPrompt(), false, nil
	}

	payment, err := t.h.records.CreatePayment(ctx, domain.Payment{
		UserPhone:  t.req.UserID,
		CourseCode: outsourcingCourse,
		Amount:     0,
		Status:     domain.PaymentAwaitingPayment,
	})
	if err != nil {
		return nil, false, err
	}
	a, err := t.h.records.CreateAssignment(ctx, domain.Assignment{
		Kind:          domain.AssignmentOutsourced,
		Field:         t.p.Field,
		CourseCode:    outsourcingCourse,
		UserPhone:     t.req.UserID,
		Title:         t.p.Title,
		Description:   t.p.Description,
		Status:        domain.AssignmentPending,
		SubmissionURL: url,
		PaymentID:     payment.ID,
		DueAt:         t.h.now().UTC(),
	})
	if err != nil {
		return nil, false, err
	}
	t.h.logger.Info("Assignment outsourced", "user_id", t.req.UserID, "assignment_id", a.ID, "payment_id", payment.ID)

	t.p = assignmentProgress{Action: actionPending, AssignmentID: a.ID, PaymentID: payment.ID}
	return &domain.Reply{
		ResponseType:    domain.ResponsePayDownload,
		ExcludeDownload: true,
		ID:              strconv.FormatInt(payment.ID, 10),
		Text: fmt.Sprintf("*📝 Assignment Received* \n\nWe have received your assignment referenced %s.\n\n"+
			"Please note that you will be charged a fee for this service. Complete the payment process so we can start working on it.\n\n"+
			"Thank you for using our service.", title(a.Title)),
	}, true, nil
}

func (t *assignmentTurn) outsourcedList(ctx context.Context) (*domain.Reply, bool, error) {
	outsourced, err := t.h.records.OutsourcedAssignments(ctx, t.req.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("outsourced assignments: %w", err)
	}
	if len(outsourced) == 0 {
		return notFound("*⚠️ Not Found* \n\nYou have not uploaded any assignments yet. Please upload an assignment to get started."), true, nil
	}

	t.p.Action = actionViewList
	pg := pagination.Paginate(outsourced, t.h.pageSize, t.p.Page)
	t.p.Page = pg.Number

	titles := make([]string, len(pg.Items))
	rows := make([]domain.Row, 0, len(pg.Items)+2)
	for i, a := range pg.Items {
		titles[i] = a.Title
		rows = append(rows, domain.Row{
			ID:          outsourcedPrefix + strconv.FormatInt(a.ID, 10),
			Title:       render.Truncate(a.Title, 21),
			Description: render.Truncate(a.Description, 69),
		})
	}
	if pg.HasPrevious {
		rows = append(rows, domain.Row{ID: pagination.PreviousPage, Title: "Previous Page"})
	}
	if pg.HasNext {
		rows = append(rows, domain.Row{ID: pagination.NextPage, Title: "Next Page"})
	}
	return &domain.Reply{
		ResponseType: domain.ResponsePaginatedInteractive,
		Text:         "*Pending Assignments* \n\n" + strings.Join(numbered(titles, false), "\n\n"),
		Username:     t.user.FullName(),
		MenuName:     "📝 Pending",
		Rows:         rows,
	}, true, nil
}

func (t *assignmentTurn) outsourcedStatus(ctx context.Context) (*domain.Reply, bool, error) {
	id, ok := idAfter(t.body, outsourcedPrefix)
	if !ok {
		return invalidSelection(), false, nil
	}
	a, owned, err := t.ownWork(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !owned || a.Kind != domain.AssignmentOutsourced {
		return invalidSelection(), false, nil
	}

	t.p.Action = actionViewOne
	name := title(a.Title)
	switch a.Status {
	case domain.AssignmentPending:
		if a.PaymentID != 0 {
			return domain.TextReply(fmt.Sprintf("*⏳ Pending*\n\n%s is still pending. Please complete the payment process to get started.", name)), true, nil
		}
	case domain.AssignmentCompleted:
		return &domain.Reply{
			ResponseType:     domain.ResponseDownloadOutsourced,
			Text:             fmt.Sprintf("*✅ Completed*\n\n%s has been completed. Please download the file below.", name),
			DownloadSolution: strconv.FormatInt(a.ID, 10),
		}, true, nil
	case domain.AssignmentRevision:
		return &domain.Reply{
			ResponseType: domain.ResponseDownloadOutsourced,
			Text:         fmt.Sprintf("*⏳ Revision*\n\n %s is currently being revised. Please wait for a response from our team.", name),
		}, true, nil
	}
	return &domain.Reply{
		ResponseType: domain.ResponseDownloadOutsourced,
		Text:         fmt.Sprintf("*⏳ Pending*\n\n%s is currently being worked on. Please wait for a response from our team.", name),
	}, true, nil
}

func (t *assignmentTurn) solution(ctx context.Context) (*domain.Reply, bool, error) {
	id, ok := idAfter(t.body, solutionPrefix)
	if !ok {
		return invalidSelection(), false, nil
	}
	a, owned, err := t.ownWork(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !owned || a.Status != domain.AssignmentCompleted || a.SolutionURL == "" {
		return invalidSelection(), false, nil
	}
	return &domain.Reply{
		ResponseType: domain.ResponseDocument,
		Text:         fmt.Sprintf("Assignment %s has been completed. Please click on the file to download your solution. \n\nThank you for using our service.", title(a.Title)),
		Document:     a.SolutionURL,
	}, true, nil
}

// choosePackage answers the pay button of a received assignment with the outsourcing
// packages.
func (t *assignmentTurn) choosePackage(ctx context.Context) (*domain.Reply, bool, error) {
	id, ok := idAfter(t.body, paymentPrefix)
	if !ok {
		return invalidSelection(), false, nil
	}
	payment, err := t.h.records.GetPayment(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return invalidSelection(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("payment %d: %w", id, err)
	}
	if payment.UserPhone != t.req.UserID || payment.Status != domain.PaymentAwaitingPayment {
		return invalidSelection(), false, nil
	}

	pkgs, err := t.h.records.ListPackages(ctx, domain.ServiceAssignmentOutsourcing)
	if err != nil {
		return nil, false, fmt.Errorf("list packages: %w", err)
	}
	t.p.Action = actionPending
	t.p.PaymentID = payment.ID

	names := make([]string, len(pkgs))
	items := make([]domain.MenuItem, len(pkgs))
	for i, pkg := range pkgs {
		names[i] = fmt.Sprintf("%s Package($%s)", title(pkg.Name), money(pkg.Price))
		items[i] = domain.MenuItem{
			ID:          packagePrefix + strconv.FormatInt(pkg.ID, 10),
			Name:        names[i],
			Description: pkg.Description,
		}
	}
	return &domain.Reply{
		ResponseType:       domain.ResponseInteractive,
		Text:               "*Packages Menu*\n\n" + strings.Join(numbered(names, false), " \n\n"),
		Username:           t.user.FullName(),
		MenuName:           "📦 Packages",
		IncludeDescription: true,
		MenuItems:          items,
	}, true, nil
}

// payForAssignment prices the pending payment with the chosen package and offers the
// payment options.
func (t *assignmentTurn) payForAssignment(ctx context.Context) (*domain.Reply, bool, error) {
	id, ok := idAfter(t.body, packagePrefix)
	if !ok || t.p.PaymentID == 0 {
		return invalidSelection(), false, nil
	}
	pkg, ok, err := t.h.packageByID(ctx, id, domain.ServiceAssignmentOutsourcing)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return invalidSelection(), false, nil
	}

	payment, err := t.h.records.GetPayment(ctx, t.p.PaymentID)
	if err != nil {
		return nil, false, fmt.Errorf("payment %d: %w", t.p.PaymentID, err)
	}
	payment.Amount = pkg.Price
	payment.PackageID = pkg.ID
	if err := t.h.records.UpdatePayment(ctx, payment); err != nil {
		return nil, false, err
	}

	t.p.Action = actionAssignment
	t.p.SelectedPackage = pkg.ID
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text:         "*Complete Payment*\n\n 🇺🇸 PayPal\n\n 🇿🇼 PayNow\n\nPay For Assignment with",
		Username:     t.user.FullName(),
		MenuName:     "Payment Options",
		MenuItems:    paymentOptions(),
	}, true, nil
}
