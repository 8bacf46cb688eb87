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

func feedbackFixture(n int) (*fixture, *FeedbackListService) {
	f := newFixture()
	for i := 1; i <= n; i++ {
		f.api.feedbacks = append(f.api.feedbacks, domain.Feedback{ID: uint(i), Rating: 1 + i%5, Comment: "ok"})
	}
	f.api.feedbackPageSize = 2
	return f, NewFeedbackListService(f.api, f.prompter, f.notifier, nil)
}

func TestFeedbackListPagesOnServer(t *testing.T) {
	f, s := feedbackFixture(5)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx))
	v := s.View()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 3, v.LastPage)
	assert.Equal(t, int64(5), v.Total)
	require.Len(t, v.Rows, 2)

	require.NoError(t, s.NextPage(ctx))
	require.NoError(t, s.NextPage(ctx))
	require.NoError(t, s.NextPage(ctx))
	v = s.View()
	assert.Equal(t, 3, v.Page, "clamped to the last page")
	require.Len(t, v.Rows, 1)
	assert.Equal(t, uint(5), v.Rows[0].ID)

	require.NoError(t, s.PrevPage(ctx))
	assert.Equal(t, 2, s.View().Page)
	assert.Equal(t, []int{1, 2, 3, 3, 2}, f.api.feedbackCalls)
}

func TestFeedbackFilterResetsToFirstPage(t *testing.T) {
	f, s := feedbackFixture(10)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.SetPage(ctx, 3))

	require.NoError(t, s.SetFilter(ctx, dto.FeedbackFilter{Rating: 2}))
	v := s.View()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 2, v.Filter.Rating)
	for _, row := range v.Rows {
		assert.Equal(t, 2, row.Rating)
	}
	assert.Equal(t, 1, f.api.feedbackCalls[len(f.api.feedbackCalls)-1])

	err := s.SetFilter(ctx, dto.FeedbackFilter{Rating: 6})
	require.Error(t, err)
	assert.Equal(t, 2, s.View().Filter.Rating, "an invalid filter is not applied")
}

func TestFeedbackLoadFailureNotifies(t *testing.T) {
	f, s := feedbackFixture(3)
	f.api.feedbackErr = errNetwork

	assert.ErrorIs(t, s.Load(context.Background()), errNetwork)
	v := s.View()
	assert.Empty(t, v.Rows)
	assert.ErrorIs(t, v.Err, errNetwork)
	assert.Equal(t, []note{{"error", "Error!", "Failed to load feedbacks"}}, f.notifier.all())
}

func TestDeleteFeedbackConfirmsThenRefetches(t *testing.T) {
	f, s := feedbackFixture(5)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.SetPage(ctx, 3))

	f.prompter.confirm = true
	require.NoError(t, s.Delete(ctx, 5))

	require.Len(t, f.prompter.dialogs, 1)
	assert.Equal(t, "Delete Feedback?", f.prompter.dialogs[0].Title)
	assert.Equal(t, "This action cannot be undone!", f.prompter.dialogs[0].Text)
	assert.Equal(t, []uint{5}, f.api.deleteCalls)
	assert.Equal(t, []note{{"success", "Deleted!", "Feedback has been deleted."}}, f.notifier.all())

	// the emptied last page falls back to the new last page
	v := s.View()
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, 2, v.LastPage)
	assert.Equal(t, int64(4), v.Total)
	assert.Equal(t, []int{1, 3, 3}, f.api.feedbackCalls)
}

func TestDeclinedFeedbackDeleteSendsNothing(t *testing.T) {
	f, s := feedbackFixture(2)
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.Delete(context.Background(), 1))
	assert.Empty(t, f.api.deleteCalls)
	assert.Empty(t, f.notifier.all())
	assert.Len(t, f.api.feedbackCalls, 1)
}

func TestDeleteFeedbackFailureShowsServerMessage(t *testing.T) {
	f, s := feedbackFixture(2)
	f.prompter.confirm = true
	f.api.deleteErr = &adminapi.APIError{StatusCode: 403, Message: "Forbidden"}

	assert.Error(t, s.Delete(context.Background(), 1))
	assert.Equal(t, []note{{"error", "Error!", "Forbidden"}}, f.notifier.all())
	assert.Empty(t, f.api.feedbackCalls)

	f.api.deleteErr = errNetwork
	assert.ErrorIs(t, s.Delete(context.Background(), 1), errNetwork)
	assert.Equal(t, note{"error", "Error!", "Failed to delete feedback"}, f.notifier.all()[1])
}

func TestFeedbackDeleteReentryIsBusy(t *testing.T) {
	f, s := feedbackFixture(3)
	f.prompter.confirm = true
	entered, release := f.prompter.hold()

	done := make(chan error, 1)
	go func() { done <- s.Delete(context.Background(), 2) }()
	<-entered

	assert.ErrorIs(t, s.Delete(context.Background(), 2), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []uint{2}, f.api.deleteCalls)
}

func TestFeedbackCloseDropsLateResults(t *testing.T) {
	f, s := feedbackFixture(3)
	s.Close()

	_ = s.Load(context.Background())
	assert.Empty(t, s.View().Rows)
	assert.Empty(t, f.notifier.all())
}
