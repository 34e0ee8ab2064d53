package validators

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// decode reads flow progress out of session data. Session data round-trips through
// JSON, so numbers arrive as float64 and are converted weakly.
func decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("decode session data: %w", err)
	}
	return nil
}

// encode flattens flow progress into session data.
func encode(in any) (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(in, &out); err != nil {
		return nil, fmt.Errorf("encode session data: %w", err)
	}
	return out, nil
}

// save writes progress as the session data, keeping the current state.
func (h *Handlers) save(ctx context.Context, req registry.Request, progress any) error {
	data, err := encode(progress)
	if err != nil {
		return err
	}
	return h.sessions.Set(ctx, req.UserID, domain.Session{State: req.Session.State, Data: data})
}

// reset clears the session data.
func (h *Handlers) reset(ctx context.Context, req registry.Request) error {
	return h.sessions.Set(ctx, req.UserID, domain.Session{State: req.Session.State, Data: map[string]any{}})
}

// load decodes the session data of a follow-up request into progress. Fresh entries
// leave progress untouched.
func load(req registry.Request, state domain.State, progress any) (bool, error) {
	if !continuing(req, state) {
		return false, nil
	}
	return true, decode(req.Session.Data, progress)
}

// idAfter parses the numeric id following prefix in body.
func idAfter(body, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(body, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	return id, err == nil && id > 0
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// title upper-cases every letter that follows a non-letter.
func title(s string) string {
	runes := []rune(strings.ToLower(s))
	prev := rune(' ')
	for i, r := range runes {
		if !unicode.IsLetter(prev) {
			runes[i] = unicode.ToUpper(r)
		}
		prev = r
	}
	return string(runes)
}

func money(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func numbered(lines []string, bold bool) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if bold {
			out[i] = fmt.Sprintf("*%d.* %s", i+1, l)
		} else {
			out[i] = fmt.Sprintf("%d. %s", i+1, l)
		}
	}
	return out
}
