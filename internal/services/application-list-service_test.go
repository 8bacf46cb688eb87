package services

import (
	"context"
	"testing"

	"github.com/SundayYogurt/visa_admin/internal/clients/adminapi"
	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seventeen() []domain.Application {
	apps := make([]domain.Application, 0, 17)
	for i := uint(1); i <= 17; i++ {
		apps = append(apps, app(i, domain.ApplicationStatusUnderReview))
	}
	return apps
}

func TestListPaginatesAndClamps(t *testing.T) {
	f := newFixture(seventeen()...)
	s := f.list()
	require.NoError(t, s.Load(context.Background()))

	v := s.View()
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, 17, v.Total)
	assert.Len(t, v.Rows, 8)
	assert.Equal(t, 1, v.First)
	assert.Equal(t, 8, v.Last)

	assert.Equal(t, 3, s.SetPage(4))
	v = s.View()
	require.Len(t, v.Rows, 1)
	assert.Equal(t, uint(17), v.Rows[0].Application.ID)
	assert.Equal(t, 17, v.Rows[0].Index)
	assert.Equal(t, 17, v.First)
	assert.Equal(t, 17, v.Last)

	assert.Equal(t, 3, s.NextPage())
	assert.Equal(t, 2, s.PrevPage())
	assert.Equal(t, 1, s.SetPage(-5))
}

func TestFilterChangeResetsPageAndRefetches(t *testing.T) {
	f := newFixture(seventeen()...)
	s := f.list()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	s.SetPage(3)

	require.NoError(t, s.SetSearch(ctx, "somchai"))
	assert.Equal(t, 1, s.View().Page)

	s.SetPage(2)
	require.NoError(t, s.SetStatusFilter(ctx, domain.ApplicationStatusApproved))
	v := s.View()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, dto.ApplicationFilter{Search: "somchai", Status: domain.ApplicationStatusApproved}, v.Filter)

	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	require.Len(t, f.api.listCalls, 3)
	assert.Equal(t, "somchai", f.api.listCalls[2].Search)
	assert.Equal(t, domain.ApplicationStatusApproved, f.api.listCalls[2].Status)
}

func TestListFetchFailureShowsEmptyState(t *testing.T) {
	f := newFixture(seventeen()...)
	s := f.list()
	require.NoError(t, s.Load(context.Background()))

	f.api.listErr = errNetwork
	err := s.SetSearch(context.Background(), "x")
	require.ErrorIs(t, err, errNetwork)

	v := s.View()
	assert.Empty(t, v.Rows)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 1, v.TotalPages)
	assert.ErrorIs(t, v.Err, errNetwork)
	assert.Equal(t, []note{{"error", "Error!", "Failed to load applications"}}, f.notifier.all())

	f.api.listErr = nil
	require.NoError(t, s.SetSearch(context.Background(), ""))
	assert.Equal(t, 17, s.View().Total)
}

func TestRefetchFailureOnLaterPageResetsPage(t *testing.T) {
	f := newFixture(seventeen()...)
	s := f.list()
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, 3, s.SetPage(3))

	f.api.listErr = errNetwork
	require.ErrorIs(t, s.Load(context.Background()), errNetwork)

	v := s.View()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 1, v.TotalPages)
	assert.Empty(t, v.Rows)
}

func TestListDecisionReentryIsBusy(t *testing.T) {
	f := newFixture(app(5, domain.ApplicationStatusUnderReview), app(6, domain.ApplicationStatusUnderReview))
	s := f.list()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	f.prompter.confirm = true
	f.prompter.submitted = true
	entered, release := f.prompter.hold()

	done := make(chan error, 1)
	go func() { done <- s.Approve(ctx, 5) }()
	<-entered

	assert.ErrorIs(t, s.Approve(ctx, 5), ErrBusy)
	assert.ErrorIs(t, s.Reject(ctx, 5), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []uint{5}, f.api.approveCalls)
	assert.Empty(t, f.api.rejectCalls)

	// the target is free again and other rows were never blocked
	require.NoError(t, s.Reject(ctx, 6))
	assert.Len(t, f.api.rejectCalls, 1)
	assert.ErrorIs(t, s.Approve(ctx, 5), domain.ErrNotActionable)
}

func TestActionVisibilityFollowsStatus(t *testing.T) {
	f := newFixture(
		app(1, domain.ApplicationStatusPending),
		app(2, domain.ApplicationStatusUnderReview),
		app(3, domain.ApplicationStatusApproved),
		app(4, domain.ApplicationStatusRejected),
	)
	s := f.list()
	require.NoError(t, s.Load(context.Background()))

	for _, row := range s.View().Rows {
		assert.Equal(t, row.Application.Status == domain.ApplicationStatusUnderReview, row.CanDecide, "id %d", row.Application.ID)
	}

	f.prompter.confirm = true
	assert.ErrorIs(t, s.Approve(context.Background(), 1), domain.ErrNotActionable)
	assert.ErrorIs(t, s.Reject(context.Background(), 3), domain.ErrNotActionable)
	assert.Empty(t, f.prompter.dialogs)
	assert.Empty(t, f.api.approveCalls)
}

func TestApprovePatchesOnlyMatchingRow(t *testing.T) {
	f := newFixture(app(41, domain.ApplicationStatusUnderReview), app(42, domain.ApplicationStatusUnderReview))
	s := f.list()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	f.prompter.confirm = true
	require.NoError(t, s.Approve(ctx, 42))

	rows := s.View().Rows
	assert.Equal(t, domain.ApplicationStatusUnderReview, rows[0].Application.Status)
	assert.Equal(t, domain.ApplicationStatusApproved, rows[1].Application.Status)
	assert.False(t, rows[1].CanDecide)
	assert.Equal(t, []uint{42}, f.api.approveCalls)
	assert.Len(t, f.api.listCalls, 1, "approve must not refetch")
	assert.Equal(t, []note{{"success", "Approved!", "Application has been approved."}}, f.notifier.all())

	f.prompter.submitted = true
	assert.ErrorIs(t, s.Reject(ctx, 42), domain.ErrNotActionable)
	assert.Empty(t, f.api.rejectCalls)
}

func TestApproveDeclinedMakesNoCall(t *testing.T) {
	f := newFixture(app(7, domain.ApplicationStatusUnderReview))
	s := f.list()
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.Approve(context.Background(), 7))
	assert.Empty(t, f.api.approveCalls)
	require.Len(t, f.prompter.dialogs, 1)
	assert.Equal(t, "Approve Application?", f.prompter.dialogs[0].Title)
}

func TestRejectCancelMakesNoCall(t *testing.T) {
	f := newFixture(app(9, domain.ApplicationStatusUnderReview))
	s := f.list()
	require.NoError(t, s.Load(context.Background()))

	f.prompter.submitted = false
	require.NoError(t, s.Reject(context.Background(), 9))
	assert.Empty(t, f.api.rejectCalls)
	assert.Equal(t, domain.ApplicationStatusUnderReview, s.View().Rows[0].Application.Status)
	assert.Empty(t, f.notifier.all())
}

func TestRejectEmptyReasonIsSubmitted(t *testing.T) {
	f := newFixture(app(9, domain.ApplicationStatusUnderReview))
	s := f.list()
	require.NoError(t, s.Load(context.Background()))

	f.prompter.submitted = true
	f.prompter.reason = ""
	require.NoError(t, s.Reject(context.Background(), 9))
	assert.Equal(t, []string{""}, f.api.rejectCalls)
	assert.Equal(t, domain.ApplicationStatusRejected, s.View().Rows[0].Application.Status)
	assert.Equal(t, "Rejection Reason (optional)", f.prompter.dialogs[0].InputLabel)
}

func TestUnknownRowIsSilentNoop(t *testing.T) {
	f := newFixture(app(1, domain.ApplicationStatusUnderReview))
	s := f.list()
	require.NoError(t, s.Load(context.Background()))

	f.prompter.confirm = true
	assert.NoError(t, s.Approve(context.Background(), 99))
	assert.NoError(t, s.Reject(context.Background(), 99))
	assert.Empty(t, f.prompter.dialogs)
	assert.Empty(t, f.notifier.all())
}

func TestApproveFailureUsesServerMessage(t *testing.T) {
	f := newFixture(app(5, domain.ApplicationStatusUnderReview))
	s := f.list()
	require.NoError(t, s.Load(context.Background()))

	f.prompter.confirm = true
	f.api.approveErr = &adminapi.APIError{StatusCode: 409, Message: "Application is not under review"}
	require.Error(t, s.Approve(context.Background(), 5))
	assert.Equal(t, domain.ApplicationStatusUnderReview, s.View().Rows[0].Application.Status)
	assert.Equal(t, []note{{"error", "Error!", "Application is not under review"}}, f.notifier.all())

	f.api.rejectErr = errNetwork
	f.prompter.submitted = true
	require.Error(t, s.Reject(context.Background(), 5))
	assert.Equal(t, "Failed to reject application", f.notifier.all()[1].text)
}

func TestClosedListDiscardsResults(t *testing.T) {
	f := newFixture(seventeen()...)
	s := f.list()
	s.Close()

	_ = s.Load(context.Background())
	assert.Equal(t, 0, s.View().Total)
	assert.Empty(t, f.notifier.all())
}
