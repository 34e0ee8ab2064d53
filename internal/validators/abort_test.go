package validators

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/ngena/pkg/actions"
	sqlstore "github.com/aretw0/ngena/pkg/adapters/sql"
	"github.com/aretw0/ngena/pkg/dispatch"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tutorialsDown struct {
	*sqlstore.Store
}

func (tutorialsDown) ListTutorials(ctx context.Context, courseCode string) ([]domain.Tutorial, error) {
	return nil, errors.New("db down")
}

type nopTransport struct{}

func (nopTransport) Send(ctx context.Context, env domain.Envelope) (domain.Receipt, error) {
	return domain.Receipt{StatusCode: 200}, nil
}

func TestDispatch_FailedLookupKeepsCourseProgress(t *testing.T) {
	h := newHarness(t)
	h.registerUser()
	require.NoError(t, h.records.Enroll(h.ctx, phone, "MATH101", 1))
	h.enter(domain.StateCourses)
	h.turn(domain.StateCourses, "MATH101")

	before, err := h.sessions.Load(h.ctx, phone)
	require.NoError(t, err)
	entries, err := h.history.Entries(h.ctx, phone)
	require.NoError(t, err)

	table, err := actions.Default()
	require.NoError(t, err)
	reg := registry.NewRegistry()
	New(tutorialsDown{h.records}, h.sessions, h.history).Register(reg)
	d, err := dispatch.New(table, reg, h.sessions, h.records, nopTransport{}, dispatch.WithHistory(h.history))
	require.NoError(t, err)

	out, err := d.Handle(h.ctx, &domain.IncomingMessage{UserID: phone, Body: "tutorials"})
	require.NoError(t, err)
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.DispatchValidatorFailed, out.Failure.Kind)
	assert.ErrorContains(t, out.Failure, "db down")

	after, err := h.sessions.Load(h.ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	got, err := h.history.Entries(h.ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
