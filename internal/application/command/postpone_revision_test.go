package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
)

func pendingRevision(id string, due time.Time) *revision.Revision {
	return &revision.Revision{
		ID:       id,
		UserID:   cmdUserID,
		RecordID: "rec-1",
		DueDate:  due,
		Status:   revision.StatusPending,
	}
}

func TestPostponeRevisionMovesDueDate(t *testing.T) {
	rev := pendingRevision("rev-1", cmdDate(2026, 1, 8))
	revisions := newFakeRevisionRepo(rev)
	publisher := &fakePublisher{}
	handler := NewPostponeRevisionHandler(revisions, publisher, nil)

	result, err := handler.Handle(context.Background(), PostponeRevisionCommand{
		UserID:     cmdUserID,
		RevisionID: "rev-1",
		NewDueDate: cmdDate(2026, 1, 12),
	})

	require.NoError(t, err)
	assert.Equal(t, cmdDate(2026, 1, 8), result.OldDueDate)
	assert.Equal(t, cmdDate(2026, 1, 12), result.Revision.DueDate)
	assert.Equal(t, revision.StatusPostponed, result.Revision.Status)
	assert.Contains(t, publisher.types(), shared.EventRevisionPostponed)
}

func TestPostponeCompletedRevisionFails(t *testing.T) {
	rev := pendingRevision("rev-1", cmdDate(2026, 1, 8))
	rev.Status = revision.StatusCompleted
	revisions := newFakeRevisionRepo(rev)
	handler := NewPostponeRevisionHandler(revisions, &fakePublisher{}, nil)

	_, err := handler.Handle(context.Background(), PostponeRevisionCommand{
		UserID:     cmdUserID,
		RevisionID: "rev-1",
		NewDueDate: cmdDate(2026, 1, 12),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}

func TestPostponeForeignRevisionFails(t *testing.T) {
	rev := pendingRevision("rev-1", cmdDate(2026, 1, 8))
	rev.UserID = "someone-else"
	revisions := newFakeRevisionRepo(rev)
	handler := NewPostponeRevisionHandler(revisions, &fakePublisher{}, nil)

	_, err := handler.Handle(context.Background(), PostponeRevisionCommand{
		UserID:     cmdUserID,
		RevisionID: "rev-1",
		NewDueDate: cmdDate(2026, 1, 12),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPostponeRevisionWithoutPublisher(t *testing.T) {
	rev := pendingRevision("rev-1", cmdDate(2026, 1, 8))
	revisions := newFakeRevisionRepo(rev)
	handler := NewPostponeRevisionHandler(revisions, nil, nil)

	result, err := handler.Handle(context.Background(), PostponeRevisionCommand{
		UserID:     cmdUserID,
		RevisionID: "rev-1",
		NewDueDate: cmdDate(2026, 1, 12),
	})

	require.NoError(t, err)
	assert.Equal(t, cmdDate(2026, 1, 12), result.Revision.DueDate)
}
