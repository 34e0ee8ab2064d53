package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Execute(t *testing.T) {
	r := NewRegistry()
	r.Register("about", func(ctx context.Context, req Request) (domain.Result, error) {
		return domain.Valid(domain.TextReply("hi " + req.UserID)), nil
	})

	res, err := r.Execute(context.Background(), "about", Request{UserID: "42"})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "hi 42", res.Reply.Text)

	assert.True(t, r.Has("about"))
	assert.Equal(t, []string{"about"}, r.Names())
}

func TestRegistry_Unknown(t *testing.T) {
	_, err := NewRegistry().Execute(context.Background(), "ghost", Request{})
	assert.ErrorIs(t, err, domain.ErrUnknownValidator)
}

func TestRegistry_PanicBecomesError(t *testing.T) {
	r := NewRegistry()
	r.Register("boom", func(context.Context, Request) (domain.Result, error) {
		var m map[string]int
		m["x"]++
		return domain.Result{}, nil
	})

	_, err := r.Execute(context.Background(), "boom", Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestRegistry_ErrorPassesThrough(t *testing.T) {
	sentinel := errors.New("db down")
	r := NewRegistry()
	r.Register("x", func(context.Context, Request) (domain.Result, error) { return domain.Result{}, sentinel })

	_, err := r.Execute(context.Background(), "x", Request{})
	assert.ErrorIs(t, err, sentinel)
}
