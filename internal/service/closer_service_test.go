package service

import (
	"context"
	"testing"

	"github.com/ideb/interview-agenda/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type closerEnv struct {
	*allocEnv
	closer *CloserService
}

func newCloserEnv(t *testing.T) *closerEnv {
	t.Helper()

	alloc := newAllocEnv(t)
	return &closerEnv{
		allocEnv: alloc,
		closer: NewCloserService(
			alloc.dir, alloc.windows, alloc.requests, alloc.notifier,
			model.DefaultDurationPolicy(), zap.NewNop(),
		),
	}
}

func TestCloseConfirmsFittingRequests(t *testing.T) {
	env := newCloserEnv(t)
	ctx := context.Background()

	for i, reason := range []int64{1, 2, 3} {
		_, err := env.svc.TryBook(ctx, teacherBooking(int64(i+1), reason))
		require.NoError(t, err)
	}

	report, err := env.closer.Close(ctx, monday)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalPending)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 3, report.NotificationsSent)
	assert.Equal(t, 1, report.GroupsProcessed)
	assert.Empty(t, report.Errors)

	starts := map[int64]string{1: "08:00", 2: "08:25", 3: "08:45"}
	ends := map[int64]string{1: "08:25", 2: "08:45", 3: "08:55"}
	for _, req := range env.requests.requests {
		require.NotNil(t, req.ConfirmedStart, "request %d", req.ID)
		assert.Equal(t, starts[req.GuardianID], req.ConfirmedStart.String())
		assert.Equal(t, ends[req.GuardianID], req.ConfirmedEnd.String())
		assert.True(t, req.AgendaClosed)
		assert.True(t, req.NotificationSent)
		// The close fixes the slot but does not complete the interview.
		assert.Equal(t, model.StatusPending, req.Status)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	env := newCloserEnv(t)
	ctx := context.Background()

	_, err := env.svc.TryBook(ctx, teacherBooking(1, 1))
	require.NoError(t, err)

	first, err := env.closer.Close(ctx, monday)
	require.NoError(t, err)
	require.Equal(t, 1, first.Processed)

	second, err := env.closer.Close(ctx, monday)
	require.NoError(t, err)

	assert.Equal(t, 0, second.TotalPending)
	assert.Equal(t, 0, second.Processed)
	assert.Len(t, env.notifier.sent, 1)
}

func TestCloseOverflowCarriedToNextRun(t *testing.T) {
	env := newCloserEnv(t)
	ctx := context.Background()

	for i, reason := range []int64{1, 2, 3} {
		_, err := env.svc.TryBook(ctx, teacherBooking(int64(i+1), reason))
		require.NoError(t, err)
	}

	// A fourth request that no longer fits the 60-minute window; inserted
	// behind the allocation gate the way a widened policy would leave it.
	require.NoError(t, env.requests.Create(ctx, &model.InterviewRequest{
		GuardianID: 4,
		StudentID:  4,
		TeacherID:  i64(1),
		Date:       monday,
		ReasonID:   3,
		Status:     model.StatusPending,
		Tier:       model.TierLow,
	}))

	report, err := env.closer.Close(ctx, monday)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalPending)
	assert.Equal(t, 3, report.Processed)
	assert.Empty(t, report.Errors)

	// The overflowing request is untouched and eligible for the next run.
	leftover := env.requests.requests[3]
	assert.False(t, leftover.AgendaClosed)
	assert.Nil(t, leftover.ConfirmedStart)

	second, err := env.closer.Close(ctx, monday)
	require.NoError(t, err)

	assert.Equal(t, 1, second.TotalPending)
	assert.Equal(t, 1, second.Processed)
	require.NotNil(t, leftover.ConfirmedStart)
	assert.Equal(t, "08:00", leftover.ConfirmedStart.String())
}

func TestCloseGroupsPerProfessional(t *testing.T) {
	env := newCloserEnv(t)
	ctx := context.Background()

	_, err := env.svc.TryBook(ctx, BookingInput{
		GuardianID:     2,
		StudentID:      2,
		PsychologistID: i64(1),
		Date:           monday,
		ReasonID:       2,
	})
	require.NoError(t, err)

	_, err = env.svc.TryBook(ctx, teacherBooking(1, 1))
	require.NoError(t, err)

	report, err := env.closer.Close(ctx, monday)
	require.NoError(t, err)

	assert.Equal(t, 2, report.GroupsProcessed)
	assert.Equal(t, 2, report.Processed)

	// Teacher interviews are closed before psychologist ones.
	require.Len(t, env.notifier.sent, 2)
	assert.Equal(t, "Guardian 1", env.notifier.sent[0].GuardianName)
	assert.Equal(t, "Guardian 2", env.notifier.sent[1].GuardianName)

	// Both queues pack from their own window start.
	assert.Equal(t, "08:00", env.requests.requests[0].ConfirmedStart.String())
	assert.Equal(t, "08:00", env.requests.requests[1].ConfirmedStart.String())
}

func TestCloseNotificationFailureLeavesEligible(t *testing.T) {
	env := newCloserEnv(t)
	ctx := context.Background()

	_, err := env.svc.TryBook(ctx, teacherBooking(1, 1))
	require.NoError(t, err)
	_, err = env.svc.TryBook(ctx, teacherBooking(2, 2))
	require.NoError(t, err)

	env.notifier.failFor["Guardian 1"] = true

	report, err := env.closer.Close(ctx, monday)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.NotificationsSent)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, env.requests.requests[0].ID, report.Errors[0].RequestID)

	failed := env.requests.requests[0]
	assert.False(t, failed.AgendaClosed)
	assert.False(t, failed.NotificationSent)
	assert.Nil(t, failed.ConfirmedStart)

	// Once the channel recovers, the next run picks the request up again.
	delete(env.notifier.failFor, "Guardian 1")

	second, err := env.closer.Close(ctx, monday)
	require.NoError(t, err)

	assert.Equal(t, 1, second.TotalPending)
	assert.Equal(t, 1, second.Processed)
	assert.True(t, failed.AgendaClosed)
}

func TestCloseRecordsMissingWindow(t *testing.T) {
	env := newCloserEnv(t)
	ctx := context.Background()

	env.dir.addTeacher(2, 11, "History")
	require.NoError(t, env.requests.Create(ctx, &model.InterviewRequest{
		GuardianID: 1,
		StudentID:  1,
		TeacherID:  i64(2),
		Date:       monday,
		ReasonID:   1,
		Status:     model.StatusPending,
		Tier:       model.TierHigh,
	}))

	report, err := env.closer.Close(ctx, monday)
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalPending)
	assert.Equal(t, 0, report.Processed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error, "no active window")
}
