package validators

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/registry"
)

const mainMenuBody = " 📂 Enroll \n\n 📚 Courses \n\n 📝 Assignments \n\n 💳 Payments \n\n 👤 Profile\n\n 🆘 Help\n\n ℹ️ About Us\n\nWhat would you like to do?"

var mainMenuItems = []domain.MenuItem{
	{ID: "enroll", Name: "📂 Enroll", Description: "Enroll in a course"},
	{ID: "courses", Name: "📚 Courses", Description: "View your courses"},
	{ID: "assignments", Name: "📝 Assignments", Description: "Go to assignments"},
	{ID: "payments", Name: "💳 Payments", Description: "View your payments"},
	{ID: "profile", Name: "👤 Profile", Description: "View your profile"},
	{ID: "help", Name: "🆘 Help", Description: "User guide"},
	{ID: "about", Name: "ℹ️ About Us", Description: "Contact Us"},
}

var (
	legalName    = regexp.MustCompile(`^[a-zA-Z]+(([',. -][a-zA-Z ])?[a-zA-Z]*)*$`)
	emailAddress = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	sexes        = []string{"Male", "Female", "Other"}
)

func mainMenu(text, username string) *domain.Reply {
	return &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text:         text,
		Username:     username,
		MenuName:     "🏠 Select Action",
		MenuItems:    mainMenuItems,
	}
}

func signUp(text string) *domain.Reply {
	return domain.TextReply(text + "\n\nWhat is your first name?")
}

func (h *Handlers) greet(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, found, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}
	if err := h.reset(ctx, req); err != nil {
		return domain.Result{}, err
	}
	if found {
		return domain.Valid(mainMenu("Welcome to Ngena. \n\n"+mainMenuBody, u.FullName())), nil
	}
	return domain.Invalid(signUp("Welcome to *Ngena*. Let's sign you up to get started.")), nil
}

func (h *Handlers) userExists(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, found, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}
	if !found {
		return domain.Invalid(signUp("Welcome to *Ngena*. Sign up to get started.")), nil
	}
	if err := h.reset(ctx, req); err != nil {
		return domain.Result{}, err
	}
	return domain.Valid(mainMenu("*Main Menu*\n\n"+mainMenuBody, u.FullName())), nil
}

func (h *Handlers) menu(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, found, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}
	if err := h.reset(ctx, req); err != nil {
		return domain.Result{}, err
	}
	if !found {
		return domain.Invalid(signUp("You are not registered with Ngena.  Sign up to get started.")), nil
	}
	return domain.Valid(mainMenu("*Main Menu*\n\n"+mainMenuBody, u.FullName())), nil
}

// registration is the sign-up wizard progress. Fields are filled in order.
type registration struct {
	FirstName string `mapstructure:"first_name,omitempty"`
	LastName  string `mapstructure:"last_name,omitempty"`
	Email     string `mapstructure:"email,omitempty"`
	Sex       string `mapstructure:"sex,omitempty"`
}

func (r registration) prompt() string {
	switch {
	case r.FirstName == "":
		return "What is your first name?"
	case r.LastName == "":
		return "What is your last name?"
	case r.Email == "":
		return "What is your email address?"
	default:
		return "What is your sex?\n\nMale, Female or Other"
	}
}

// accept stores body in the first missing field. It returns the rejection text when
// body does not validate.
func (r *registration) accept(body string) string {
	switch {
	case r.FirstName == "":
		if !legalName.MatchString(body) {
			return fmt.Sprintf("%s is not a valid first name.\n\nPlease enter a valid first name", body)
		}
		r.FirstName = body
	case r.LastName == "":
		if !legalName.MatchString(body) {
			return fmt.Sprintf("%s is not a valid last name.\n\nPlease enter a valid last name", body)
		}
		r.LastName = body
	case r.Email == "":
		if !emailAddress.MatchString(body) {
			return fmt.Sprintf("%s is not a valid email.\n\nPlease enter a valid email address", body)
		}
		r.Email = body
	case r.Sex == "":
		sex := title(body)
		valid := false
		for _, s := range sexes {
			valid = valid || s == sex
		}
		if !valid {
			return fmt.Sprintf("%s should be Male or Female or Other.\n\nPlease enter your sex", body)
		}
		r.Sex = strings.ToUpper(sex)
	}
	return ""
}

func (r registration) complete() bool {
	return r.FirstName != "" && r.LastName != "" && r.Email != "" && r.Sex != ""
}

func (h *Handlers) register(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, found, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}
	if found {
		return domain.Valid(&domain.Reply{
			ResponseType: domain.ResponseButton,
			ExcludeBack:  true,
			Text:         fmt.Sprintf("Welcome back *%s*.\n\nYou are already registered with *Ngena*.", u.FullName()),
		}), nil
	}

	var r registration
	if err := decode(req.Session.Data, &r); err != nil {
		return domain.Result{}, err
	}

	body := strings.TrimSpace(req.Body)
	if body == "" || isBack(body) {
		return domain.Invalid(domain.TextReply(r.prompt())), nil
	}
	if msg := r.accept(body); msg != "" {
		return domain.Invalid(domain.TextReply(msg)), nil
	}
	if !r.complete() {
		if err := h.save(ctx, req, r); err != nil {
			return domain.Result{}, err
		}
		return domain.Invalid(domain.TextReply(r.prompt())), nil
	}

	created, err := h.records.CreateUser(ctx, domain.User{
		PhoneNumber: req.UserID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Sex:         r.Sex,
		Role:        domain.RoleStudent,
	})
	if err != nil {
		return domain.Result{}, fmt.Errorf("create user: %w", err)
	}
	if err := h.reset(ctx, req); err != nil {
		return domain.Result{}, err
	}
	h.logger.Info("User registered", "user_id", req.UserID)

	return domain.Valid(&domain.Reply{
		ResponseType: domain.ResponseButton,
		ExcludeBack:  true,
		Text: fmt.Sprintf("Welcome *%s* to *Ngena*.\n\nYou have successfully registered.You can now access the *Ngena* menu to get started.",
			created.FullName()),
	}), nil
}
