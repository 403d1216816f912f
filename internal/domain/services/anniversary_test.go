package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/mocks"
)

func TestAnniversaryService_Upcoming(t *testing.T) {
	store := mocks.NewGraphStore()

	born := memorial("born", "Bea Born", "u1")
	born.DateOfBirth = date("1940-03-11")

	died := memorial("died", "Dan Died", "u2")
	died.DateOfBirth = date("1930-01-01")
	died.DateOfDeath = date("2000-03-17")

	draft := memorial("draft", "Dee Draft", "u3")
	draft.DateOfBirth = date("1950-03-11")
	draft.Approved = false

	other := memorial("other", "Oz Other", "u4")
	other.DateOfBirth = date("1950-05-05")

	seedMemorials(t, store, born, died, draft, other)

	svc := NewAnniversaryService(store, &mocks.Notifier{}, testLogger())
	today := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	reminders, err := svc.Upcoming(context.Background(), today, nil)
	require.NoError(t, err)
	require.Len(t, reminders, 2)

	assert.Equal(t, "born", reminders[0].Memorial.ID)
	assert.Equal(t, entities.NotifyBirthday, reminders[0].Kind)
	assert.Equal(t, 1, reminders[0].DaysAhead)
	assert.Equal(t, 86, reminders[0].Years)
	assert.Equal(t, "Bea Born would have been 86 years old tomorrow (March 11, 2026).", reminders[0].Message())

	assert.Equal(t, "died", reminders[1].Memorial.ID)
	assert.Equal(t, entities.NotifyDeathAnniversary, reminders[1].Kind)
	assert.Equal(t, 7, reminders[1].DaysAhead)
	assert.Equal(t, 26, reminders[1].Years)
	assert.Equal(t, "The 26-year anniversary of Dan Died's passing is in 7 days (March 17, 2026).", reminders[1].Message())
}

func TestAnniversaryService_Upcoming_CustomDays(t *testing.T) {
	store := mocks.NewGraphStore()
	m := memorial("m", "May Day", "u1")
	m.DateOfBirth = date("1990-05-01")
	seedMemorials(t, store, m)

	svc := NewAnniversaryService(store, &mocks.Notifier{}, testLogger())
	reminders, err := svc.Upcoming(context.Background(), time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), []int{0, 1})
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, 36, reminders[0].Years)
}

func TestAnniversaryService_NotifyUpcoming(t *testing.T) {
	store := mocks.NewGraphStore()
	m := memorial("m", "Bea Born", "u1")
	m.DateOfBirth = date("1940-03-11")
	m.DateOfDeath = date("2010-03-11")
	seedMemorials(t, store, m)

	notifier := &mocks.Notifier{}
	svc := NewAnniversaryService(store, notifier, testLogger())

	sent, err := svc.NotifyUpcoming(context.Background(), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	all := notifier.Sent()
	require.Len(t, all, 2)
	for _, n := range all {
		assert.Equal(t, "u1", n.UserID)
		assert.Equal(t, "m", n.Payload["memorial_id"])
		assert.Equal(t, "2026-03-11", n.Payload["date"])
	}
	assert.Len(t, notifier.SentOfKind(entities.NotifyBirthday), 1)
	assert.Len(t, notifier.SentOfKind(entities.NotifyDeathAnniversary), 1)
}

func TestAnniversaryService_NotifyUpcoming_Failures(t *testing.T) {
	store := mocks.NewGraphStore()
	m := memorial("m", "Bea Born", "u1")
	m.DateOfBirth = date("1940-03-11")
	seedMemorials(t, store, m)

	notifier := &mocks.Notifier{Err: errors.New("offline")}
	svc := NewAnniversaryService(store, notifier, testLogger())

	sent, err := svc.NotifyUpcoming(context.Background(), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Zero(t, sent)

	store.Err = errors.New("db down")
	_, err = svc.NotifyUpcoming(context.Background(), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), nil)
	require.Error(t, err)
}

func TestAnniversaryService_NotifyUpcoming_OncePerDay(t *testing.T) {
	store := mocks.NewGraphStore()
	m := memorial("m", "Bea Born", "u1")
	m.DateOfBirth = date("1940-03-11")
	m.DateOfDeath = date("2010-03-11")
	seedMemorials(t, store, m)

	notifier := &mocks.Notifier{}
	svc := NewAnniversaryService(store, notifier, testLogger())
	ctx := context.Background()
	morning := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	sent, err := svc.NotifyUpcoming(ctx, morning, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	sent, err = svc.NotifyUpcoming(ctx, morning.Add(9*time.Hour), nil)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, notifier.Sent(), 2)

	entries, err := store.FindAuditLog(ctx, "m")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, entities.ActionAnniversaryNotified, e.Action)
	}

	// A later day is a fresh run.
	sent, err = svc.NotifyUpcoming(ctx, morning.AddDate(0, 0, 1), []int{0})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}

func TestAnniversaryService_NotifyUpcoming_RetriesFailedSends(t *testing.T) {
	store := mocks.NewGraphStore()
	m := memorial("m", "Bea Born", "u1")
	m.DateOfBirth = date("1940-03-11")
	seedMemorials(t, store, m)

	notifier := &mocks.Notifier{Err: errors.New("offline")}
	svc := NewAnniversaryService(store, notifier, testLogger())
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	sent, err := svc.NotifyUpcoming(context.Background(), today, nil)
	require.NoError(t, err)
	assert.Zero(t, sent)

	notifier.Err = nil
	sent, err = svc.NotifyUpcoming(context.Background(), today, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}
