package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// DefaultReminderDays are the lead times for anniversary reminders.
var DefaultReminderDays = []int{1, 7}

// Reminder is an upcoming birthday or death anniversary of a memorial.
type Reminder struct {
	Memorial  *entities.Memorial        `json:"memorial"`
	Kind      entities.NotificationKind `json:"kind"`
	Date      time.Time                 `json:"date"`
	DaysAhead int                       `json:"days_ahead"`
	Years     int                       `json:"years"`
}

// Message renders the reminder for the memorial owner.
func (r Reminder) Message() string {
	timing := "tomorrow"
	if r.DaysAhead != 1 {
		timing = fmt.Sprintf("in %d days", r.DaysAhead)
	}
	date := r.Date.Format("January 2, 2006")
	if r.Kind == entities.NotifyBirthday {
		return fmt.Sprintf("%s would have been %d years old %s (%s).", r.Memorial.FullName, r.Years, timing, date)
	}
	return fmt.Sprintf("The %d-year anniversary of %s's passing is %s (%s).", r.Years, r.Memorial.FullName, timing, date)
}

// AnniversaryService finds and announces upcoming memorial anniversaries.
type AnniversaryService struct {
	store    ports.GraphStore
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewAnniversaryService creates a new AnniversaryService.
func NewAnniversaryService(store ports.GraphStore, notifier ports.Notifier, logger *slog.Logger) *AnniversaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnniversaryService{store: store, notifier: notifier, logger: logger}
}

// Upcoming lists anniversaries falling exactly daysAhead days after today,
// for each lead time. Empty daysAhead uses DefaultReminderDays.
func (s *AnniversaryService) Upcoming(ctx context.Context, today time.Time, daysAhead []int) ([]Reminder, error) {
	if len(daysAhead) == 0 {
		daysAhead = DefaultReminderDays
	}
	y, mo, d := today.Date()
	day := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)

	var reminders []Reminder
	for _, ahead := range daysAhead {
		target := day.AddDate(0, 0, ahead)
		memorials, err := s.store.FindMemorialsByAnniversary(ctx, target.Month(), target.Day())
		if err != nil {
			return nil, fmt.Errorf("finding anniversaries for %s: %w", target.Format(entities.DateLayout), err)
		}

		for _, m := range memorials {
			if sameDay(m.DateOfBirth, target) {
				if years := target.Year() - m.DateOfBirth.Year(); years > 0 {
					reminders = append(reminders, Reminder{
						Memorial: m, Kind: entities.NotifyBirthday, Date: target, DaysAhead: ahead, Years: years,
					})
				}
			}
			if sameDay(m.DateOfDeath, target) {
				if years := target.Year() - m.DateOfDeath.Year(); years > 0 {
					reminders = append(reminders, Reminder{
						Memorial: m, Kind: entities.NotifyDeathAnniversary, Date: target, DaysAhead: ahead, Years: years,
					})
				}
			}
		}
	}

	sort.SliceStable(reminders, func(i, j int) bool {
		if !reminders[i].Date.Equal(reminders[j].Date) {
			return reminders[i].Date.Before(reminders[j].Date)
		}
		return reminders[i].Memorial.ID < reminders[j].Memorial.ID
	})
	return reminders, nil
}

// NotifyUpcoming sends one notification per upcoming reminder to the
// memorial creator and returns how many were handed off. A reminder already
// sent on the same day for the same memorial, kind and date is skipped.
func (s *AnniversaryService) NotifyUpcoming(ctx context.Context, today time.Time, daysAhead []int) (int, error) {
	reminders, err := s.Upcoming(ctx, today, daysAhead)
	if err != nil {
		return 0, err
	}
	notifiedOn := today.Format(entities.DateLayout)

	sent, skipped := 0, 0
	for _, r := range reminders {
		if r.Memorial.CreatedBy == "" {
			continue
		}
		date := r.Date.Format(entities.DateLayout)

		done, err := s.alreadyNotified(ctx, r, date, notifiedOn)
		if err != nil {
			return sent, err
		}
		if done {
			skipped++
			continue
		}

		err = s.notifier.Notify(ctx, r.Memorial.CreatedBy, r.Kind, map[string]any{
			"memorial_id":   r.Memorial.ID,
			"memorial_name": r.Memorial.FullName,
			"date":          date,
			"days_ahead":    r.DaysAhead,
			"years":         r.Years,
			"message":       r.Message(),
		})
		if err != nil {
			s.logger.Warn("anniversary notification failed", "memorial_id", r.Memorial.ID, "kind", r.Kind, "error", err)
			continue
		}
		sent++

		details := map[string]any{"kind": string(r.Kind), "date": date, "notified_on": notifiedOn}
		if err := s.store.LogAction(ctx, entities.ActionAnniversaryNotified, r.Memorial.ID, r.Memorial.CreatedBy, details); err != nil {
			s.logger.Warn("failed to log anniversary notification", "memorial_id", r.Memorial.ID, "error", err)
		}
	}

	s.logger.Info("anniversary notifications sent", "reminders", len(reminders), "sent", sent, "skipped", skipped)
	return sent, nil
}

func (s *AnniversaryService) alreadyNotified(ctx context.Context, r Reminder, date, notifiedOn string) (bool, error) {
	entries, err := s.store.FindAuditLog(ctx, r.Memorial.ID)
	if err != nil {
		return false, fmt.Errorf("reading audit log for %s: %w", r.Memorial.ID, err)
	}
	for _, e := range entries {
		if e.Action != entities.ActionAnniversaryNotified {
			continue
		}
		if e.Details["kind"] == string(r.Kind) && e.Details["date"] == date && e.Details["notified_on"] == notifiedOn {
			return true, nil
		}
	}
	return false, nil
}

func sameDay(t *time.Time, target time.Time) bool {
	return t != nil && t.Month() == target.Month() && t.Day() == target.Day()
}
