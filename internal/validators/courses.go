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

// Course menu entries.
const (
	courseOutlineID  = "course_outline"
	tutorialsID      = "tutorials"
	conversationID   = "conversation"
	backToCoursesID  = "back_to_courses"
	actionCourseMenu = "course_menu"
	actionTutorials  = "tutorials"
	actionChat       = "conversation"
	actionSendChat   = "send_message"
	stageSelect      = "select_tutorial"
	stageOngoing     = "ongoing_tutorial"
)

// courseProgress is the progress of the courses flow.
type courseProgress struct {
	Page             int    `mapstructure:"page,omitempty"`
	SelectedCourse   string `mapstructure:"selected_course,omitempty"`
	Action           string `mapstructure:"action,omitempty"`
	TutorialStage    string `mapstructure:"tutorial_stage,omitempty"`
	TutorialPage     int    `mapstructure:"tutorial_page,omitempty"`
	SelectedTutorial int64  `mapstructure:"selected_tutorial,omitempty"`
	StepPosition     int    `mapstructure:"step_position,omitempty"`
	StepTurns        int    `mapstructure:"step_turns,omitempty"`
}

func (p *courseProgress) openMenu() {
	*p = courseProgress{Page: p.Page, SelectedCourse: p.SelectedCourse, Action: actionCourseMenu}
}

func (h *Handlers) courses(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, _, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}
	enrolled, err := h.records.EnrolledCourses(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, fmt.Errorf("enrolled courses: %w", err)
	}

	p := courseProgress{Page: 1}
	ok, err := load(req, domain.StateCourses, &p)
	if err != nil {
		return domain.Result{}, err
	}

	body := strings.TrimSpace(req.Body)
	lower := strings.ToLower(body)
	switch {
	case !ok, isBack(body):
		return h.courseStage(ctx, req, u, enrolled, p)
	case lower == backToCoursesID || lower == "courses":
		p = courseProgress{Page: 1}
	case p.SelectedCourse == "":
		if page, paged := pagination.Step(p.Page, body); paged {
			p.Page = min(page, pagination.TotalPages(len(enrolled), h.pageSize))
			break
		}
		course, found := findCourse(enrolled, body)
		if !found {
			return domain.Invalid(invalidSelection()), nil
		}
		p.SelectedCourse = course.Code
		p.openMenu()
	case lower == render.CourseMenuID:
		p.openMenu()
	case lower == courseOutlineID:
		return h.courseOutline(ctx, req, p)
	case lower == tutorialsID:
		p.openMenu()
		p.Action = actionTutorials
		p.TutorialStage = stageSelect
		p.TutorialPage = 1
	case lower == conversationID:
		p.openMenu()
		p.Action = actionChat
	case p.Action == actionTutorials:
		return h.tutorialTurn(ctx, req, p, body)
	case p.Action == actionChat && body == render.SendMessageID:
		p.Action = actionSendChat
		if err := h.save(ctx, req, p); err != nil {
			return domain.Result{}, err
		}
		return domain.Valid(domain.TextReply("Enter your message...")), nil
	case p.Action == actionSendChat:
		if err := h.records.PostMessage(ctx, domain.Conversation{
			UserPhone:  req.UserID,
			CourseCode: p.SelectedCourse,
			Message:    body,
		}); err != nil {
			return domain.Result{}, err
		}
		p.Action = actionChat
	default:
		return domain.Invalid(invalidSelection()), nil
	}
	return h.courseStage(ctx, req, u, enrolled, p)
}

// courseStage saves progress and renders the screen it points at.
func (h *Handlers) courseStage(ctx context.Context, req registry.Request, u domain.User, enrolled []domain.Course, p courseProgress) (domain.Result, error) {
	if p.Action == actionTutorials && p.TutorialStage == stageOngoing {
		return h.showStep(ctx, req, p)
	}
	if err := h.save(ctx, req, p); err != nil {
		return domain.Result{}, err
	}

	switch {
	case p.SelectedCourse == "":
		return domain.Valid(h.enrolledList(u, enrolled, p.Page)), nil
	case p.Action == actionTutorials:
		reply, err := h.tutorialList(ctx, p)
		if err != nil {
			return domain.Result{}, err
		}
		return domain.Valid(reply), nil
	case p.Action == actionChat || p.Action == actionSendChat:
		reply, err := h.chat(ctx, req.UserID, p.SelectedCourse)
		if err != nil {
			return domain.Result{}, err
		}
		return domain.Valid(reply), nil
	default:
		reply, err := h.courseMenu(ctx, u, p.SelectedCourse)
		if err != nil {
			return domain.Result{}, err
		}
		return domain.Valid(reply), nil
	}
}

func (h *Handlers) enrolledList(u domain.User, enrolled []domain.Course, page int) *domain.Reply {
	if len(enrolled) == 0 {
		return &domain.Reply{
			ResponseType: domain.ResponseButton,
			Text:         "*Oops!*\n\n You are not enrolled in any course at the moment.  Please try again later.",
		}
	}

	pg := pagination.Paginate(enrolled, h.pageSize, page)
	names := make([]string, len(pg.Items))
	for i, c := range pg.Items {
		names[i] = c.Name
	}
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text: fmt.Sprintf("*Your Courses (Page %d of %d)*\n\n%s",
			pg.Number, pg.TotalPages, strings.Join(numbered(names, true), " \n\n ")),
		Username:  u.FullName(),
		MenuName:  "📚 My Courses",
		MenuItems: courseItems(pg),
	}
}

func (h *Handlers) courseMenu(ctx context.Context, u domain.User, code string) (*domain.Reply, error) {
	course, err := h.records.GetCourse(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", code, err)
	}
	pkgName := "No Package Detected"
	pkg, err := h.records.EnrolledPackage(ctx, u.PhoneNumber, code)
	switch {
	case err == nil:
		pkgName = title(pkg.Name)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("enrolled package: %w", err)
	}

	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text:         fmt.Sprintf("*Course Menu (%s)*\n\n 📜 Outline\n\n 📹 Tutorials\n\n 🗣 Conversation\n\n 🔙 Back\n\nSelect an option to continue.", pkgName),
		Username:     u.FullName(),
		MenuName:     "📚 " + course.Name,
		MenuItems: []domain.MenuItem{
			{ID: courseOutlineID, Name: "📜 Outline", Description: "Course Outline"},
			{ID: tutorialsID, Name: "📹 Tutorials", Description: "Course Tutorial"},
			{ID: conversationID, Name: "🗣 Conversation", Description: "Conversation"},
			{ID: backToCoursesID, Name: "🔙 Back", Description: "Back to courses"},
		},
	}, nil
}

// courseOutline shows the course description. A following "back" returns to the
// course menu.
func (h *Handlers) courseOutline(ctx context.Context, req registry.Request, p courseProgress) (domain.Result, error) {
	course, err := h.records.GetCourse(ctx, p.SelectedCourse)
	if err != nil {
		return domain.Result{}, fmt.Errorf("course %s: %w", p.SelectedCourse, err)
	}
	p.openMenu()
	if err := h.save(ctx, req, p); err != nil {
		return domain.Result{}, err
	}
	if err := h.history.SetBookmark(ctx, req.UserID, domain.DefaultBookmark); err != nil {
		return domain.Result{}, err
	}
	return domain.Valid(&domain.Reply{
		ResponseType: domain.ResponseButton,
		Menu:         render.CourseMenuID,
		ExcludeBack:  true,
		Text:         "*📜 _Course Outline_*\n\n" + render.Truncate(course.Description, 1024),
	}), nil
}

func (h *Handlers) tutorialList(ctx context.Context, p courseProgress) (*domain.Reply, error) {
	tutorials, err := h.records.ListTutorials(ctx, p.SelectedCourse)
	if err != nil {
		return nil, fmt.Errorf("list tutorials: %w", err)
	}
	if len(tutorials) == 0 {
		return &domain.Reply{
			ResponseType: domain.ResponseButton,
			Menu:         render.CourseMenuID,
			ExcludeBack:  true,
			Text:         "*No tutorials yet!!*\n\nNo tutorials have been added to this course yet.\n\nPlease select another course or contact your tutor for more information.",
		}, nil
	}

	pg := pagination.Paginate(tutorials, h.pageSize, p.TutorialPage)
	titles := make([]string, len(pg.Items))
	items := make([]domain.MenuItem, 0, len(pg.Items)+2)
	for i, t := range pg.Items {
		titles[i] = "*" + t.Title + "*"
		items = append(items, domain.MenuItem{
			ID:          strconv.FormatInt(t.ID, 10),
			Name:        t.Title,
			Description: render.Truncate(t.Description, 69),
		})
	}
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text: fmt.Sprintf("*Tutorials (Page %d of %d).* \n\n%s\n\nSelect a tutorial to start tutorial.",
			pg.Number, pg.TotalPages, strings.Join(numbered(titles, false), " \n\n ")),
		MenuName:  "📹 Tutorials",
		MenuItems: append(items, pageItems(pg.HasPrevious, pg.HasNext)...),
	}, nil
}

// tutorialTurn handles input while a tutorial list or a tutorial is on screen.
func (h *Handlers) tutorialTurn(ctx context.Context, req registry.Request, p courseProgress, body string) (domain.Result, error) {
	if p.TutorialStage == stageOngoing {
		steps, err := h.records.TutorialSteps(ctx, p.SelectedTutorial)
		if err != nil {
			return domain.Result{}, fmt.Errorf("tutorial steps: %w", err)
		}
		switch body {
		case render.TutorialNextID:
			p.StepPosition = min(p.StepPosition+1, max(len(steps), 1))
		case render.TutorialPrevID:
			p.StepPosition = max(p.StepPosition-1, 1)
		case render.TutorialFinishID:
			p.TutorialStage = stageSelect
			p.SelectedTutorial = 0
			p.StepPosition = 0
			p.StepTurns = 0
			return h.courseStage(ctx, req, domain.User{}, nil, p)
		default:
			return domain.Invalid(invalidSelection()), nil
		}
		return h.showStep(ctx, req, p)
	}

	if page, paged := pagination.Step(p.TutorialPage, body); paged {
		p.TutorialPage = page
		return h.courseStage(ctx, req, domain.User{}, nil, p)
	}
	id, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return domain.Invalid(invalidSelection()), nil
	}
	t, err := h.records.GetTutorial(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && t.CourseCode != p.SelectedCourse) {
		return domain.Invalid(invalidSelection()), nil
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("tutorial %d: %w", id, err)
	}
	p.TutorialStage = stageOngoing
	p.SelectedTutorial = t.ID
	p.StepPosition = 1
	p.StepTurns = 0
	return h.showStep(ctx, req, p)
}

// showStep renders the current tutorial step with navigation controls. The bookmark
// is moved past every step turn so that "back" lands on the tutorial list.
func (h *Handlers) showStep(ctx context.Context, req registry.Request, p courseProgress) (domain.Result, error) {
	t, err := h.records.GetTutorial(ctx, p.SelectedTutorial)
	if err != nil {
		return domain.Result{}, fmt.Errorf("tutorial %d: %w", p.SelectedTutorial, err)
	}
	steps, err := h.records.TutorialSteps(ctx, t.ID)
	if err != nil {
		return domain.Result{}, fmt.Errorf("tutorial steps: %w", err)
	}
	if len(steps) == 0 {
		p.TutorialStage = stageSelect
		p.SelectedTutorial = 0
		p.StepPosition = 0
		p.StepTurns = 0
		if err := h.save(ctx, req, p); err != nil {
			return domain.Result{}, err
		}
		return domain.Invalid(&domain.Reply{
			ResponseType: domain.ResponseButton,
			Menu:         render.CourseMenuID,
			Text:         fmt.Sprintf("*%s*\n\nThis tutorial has no content yet.", t.Title),
		}), nil
	}

	p.StepPosition = min(max(p.StepPosition, 1), len(steps))
	p.StepTurns++
	if err := h.save(ctx, req, p); err != nil {
		return domain.Result{}, err
	}
	offset := -min(p.StepTurns+1, domain.HistoryLimit)
	if err := h.history.SetBookmark(ctx, req.UserID, offset); err != nil {
		return domain.Result{}, err
	}

	step := steps[p.StepPosition-1]
	first, last := p.StepPosition == 1, p.StepPosition == len(steps)
	res := domain.Valid(stepReply(t, step, p.StepPosition, len(steps), first, last))
	res.RequiresControls = true
	res.FirstStep = first
	res.LastStep = last
	res.Type = domain.NavTypeTutorial
	return res, nil
}

func stepReply(t domain.Tutorial, step domain.TutorialStep, pos, total int, first, last bool) *domain.Reply {
	caption := fmt.Sprintf("*%s (%d/%d)*\n\n%s", t.Title, pos, total, step.Content)
	switch domain.ResponseType(step.Kind) {
	case domain.ResponseImage:
		return &domain.Reply{ResponseType: domain.ResponseImage, Text: caption, Image: step.MediaURL}
	case domain.ResponseVideo:
		return &domain.Reply{ResponseType: domain.ResponseVideo, Text: caption, Video: step.MediaURL}
	case domain.ResponseAudio:
		return &domain.Reply{ResponseType: domain.ResponseAudio, Text: caption, Audio: step.MediaURL}
	case domain.ResponseDocument:
		return &domain.Reply{ResponseType: domain.ResponseDocument, Text: caption, Document: step.MediaURL}
	default:
		return &domain.Reply{
			ResponseType: domain.ResponseTutorial,
			Text:         caption,
			ExcludeBack:  first,
			ExcludeNext:  last,
		}
	}
}

func (h *Handlers) chat(ctx context.Context, phone, code string) (*domain.Reply, error) {
	course, err := h.records.GetCourse(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", code, err)
	}
	msgs, err := h.records.Conversation(ctx, phone, code)
	if err != nil {
		return nil, fmt.Errorf("conversation: %w", err)
	}
	if len(msgs) == 0 {
		return &domain.Reply{
			ResponseType: domain.ResponseConversation,
			Text:         fmt.Sprintf("*%s*\n\n*Chat Empty*.\nSend a message to start a conversation.", course.Name),
		}, nil
	}

	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf("*Date :* %s\n*Message :* %s", m.CreatedAt.Format("02-01-2006 15:04:05"), m.Message)
	}
	return &domain.Reply{
		ResponseType: domain.ResponseConversation,
		Text:         fmt.Sprintf("*%s*\n\n*Chat*\n\n%s", course.Name, strings.Join(lines, "\n\n")),
	}, nil
}
