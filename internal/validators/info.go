package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/registry"
	"github.com/aretw0/ngena/pkg/render"
)

func (h *Handlers) profile(ctx context.Context, req registry.Request) (domain.Result, error) {
	u, _, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}

	icon := "🤵🏽"
	switch u.Sex {
	case "MALE":
		icon = "🤵🏽‍♂"
	case "FEMALE":
		icon = "🤵🏽‍♀"
	}
	return domain.Valid(&domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text: fmt.Sprintf("*Your Profile*\n\n*Email:* %s\n*Phone Number:* %s\n*Name: _%s_*\n*Sex: _%s_*",
			u.Email, u.PhoneNumber, u.FullName(), title(u.Sex)),
		Username: u.FullName(),
		MenuName: icon + " Profile",
		MenuItems: []domain.MenuItem{
			{ID: render.MenuID, Name: "Main Menu", Description: "Menu"},
		},
	}), nil
}

func (h *Handlers) help(ctx context.Context, req registry.Request) (domain.Result, error) {
	switch strings.TrimSpace(req.Body) {
	case "guide":
		return domain.Valid(&domain.Reply{
			ResponseType: domain.ResponseButton,
			Text: "Ngena is a chatbot that helps you to manage your courses and profile.\n\n" +
				"1. Follow the instructions to register.\n2. Type *menu* to get started.\n3. Enroll in a course.\n4. Manage your profile.\n5. Enjoy Learning!\n\n" +
				"At any point, you can type *menu* to get back to your main menu.\n\n",
		}), nil
	case "contact":
		return domain.Valid(&domain.Reply{
			ResponseType: domain.ResponseButton,
			Text:         fmt.Sprintf("If you have any questions or feedback, please contact the developer at *%s*\n\n Thank you for using Ngena!", h.contact),
		}), nil
	}

	u, _, err := h.user(ctx, req.UserID)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Valid(&domain.Reply{
		ResponseType: domain.ResponseInteractive,
		Text:         "*Help Menu*\n\n 📚 User guide\n\n 👨‍💻 Contact\n\n 🏠 Main Menu",
		Username:     u.FullName(),
		MenuName:     "🆘 Help",
		MenuItems: []domain.MenuItem{
			{ID: "guide", Name: "📚 User guide", Description: "User guide"},
			{ID: "contact", Name: "👨‍💻 Contact", Description: "Contact the developer"},
			{ID: render.MenuID, Name: "Main Menu", Description: "Back To Menu"},
		},
	}), nil
}

func (h *Handlers) about(context.Context, registry.Request) (domain.Result, error) {
	return domain.Valid(&domain.Reply{
		ResponseType: domain.ResponseButton,
		ExcludeBack:  true,
		Text: "*About Us*\n\nNgena is a chatbot that helps \nyou to manage your courses \nand profile brought to you by \n*Empart*.\n\n" +
			"For more information, visit * https://www.ngena.com* or contact us on *https://wa.me/" + strings.TrimPrefix(h.contact, "+") + "*",
	}), nil
}
