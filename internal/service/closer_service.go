package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ideb/interview-agenda/internal/model"
	"github.com/ideb/interview-agenda/internal/notification"
	"github.com/ideb/interview-agenda/internal/schedule"
	"go.uber.org/zap"
)

// CloserService finalizes one date's agenda: it fixes confirmed time slots
// for every pending booking that fits its professional's window and sends one
// confirmation per booking. Flags are only persisted after a successful send,
// so delivery is at-least-once; rows already closed are excluded from the
// candidate fetch, which makes a re-run of the same date a no-op for them.
// Not safe to run concurrently with itself — the trigger layer must serialize
// runs.
type CloserService struct {
	directory DirectoryStore
	windows   WindowStore
	requests  RequestStore
	notifier  notification.Notifier
	policy    model.DurationPolicy
	logger    *zap.Logger
}

func NewCloserService(
	directory DirectoryStore,
	windows WindowStore,
	requests RequestStore,
	notifier notification.Notifier,
	policy model.DurationPolicy,
	logger *zap.Logger,
) *CloserService {
	return &CloserService{
		directory: directory,
		windows:   windows,
		requests:  requests,
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
	}
}

// ItemError records one booking the close run could not finish. The booking
// keeps its flags unset and becomes a candidate again on the next run.
type ItemError struct {
	RequestID int64  `json:"request_id"`
	Error     string `json:"error"`
}

// Report summarizes one close run.
type Report struct {
	Date              string      `json:"date"`
	TotalPending      int         `json:"total_pending"`
	Processed         int         `json:"processed"`
	NotificationsSent int         `json:"notifications_sent"`
	GroupsProcessed   int         `json:"groups_processed"`
	Errors            []ItemError `json:"errors"`
}

// Close runs the agenda close for one target date. Overflowing bookings are
// never dropped: they stay pending and unclosed for a later run or manual
// handling. A notification or persistence failure for one booking is recorded
// and does not stop the batch.
func (s *CloserService) Close(ctx context.Context, date time.Time) (*Report, error) {
	candidates, err := s.requests.CloseCandidates(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load close candidates: %w", err)
	}

	report := &Report{Date: dateKey(date), TotalPending: len(candidates)}

	for _, group := range groupByProfessional(candidates) {
		report.GroupsProcessed++
		s.closeGroup(ctx, date, group, report)
	}

	s.logger.Info("Agenda close finished",
		zap.String("date", report.Date),
		zap.Int("total_pending", report.TotalPending),
		zap.Int("processed", report.Processed),
		zap.Int("notifications_sent", report.NotificationsSent),
		zap.Int("groups", report.GroupsProcessed),
		zap.Int("errors", len(report.Errors)),
	)

	return report, nil
}

// closeGroup packs one professional's queue and confirms every fitting item.
func (s *CloserService) closeGroup(ctx context.Context, date time.Time, group []*model.InterviewRequest, report *Report) {
	ref := group[0].Professional()

	window, err := s.windows.WindowFor(ctx, ref, date.Weekday())
	if err != nil || window == nil || !window.Active {
		for _, req := range group {
			report.Errors = append(report.Errors, ItemError{
				RequestID: req.ID,
				Error:     fmt.Sprintf("no active window for %s on %s", ref.Key(), date.Weekday()),
			})
		}
		if err != nil {
			s.logger.Error("Window lookup failed during close", zap.String("professional", ref.Key()), zap.Error(err))
		}
		return
	}

	prof, err := s.directory.Professional(ctx, ref)
	if err != nil || prof == nil {
		for _, req := range group {
			report.Errors = append(report.Errors, ItemError{
				RequestID: req.ID,
				Error:     fmt.Sprintf("professional %s unresolved", ref.Key()),
			})
		}
		return
	}

	durations := make([]int, len(group))
	for i, req := range group {
		durations[i] = s.policy.Minutes(req.Tier)
	}
	slots, overflow := schedule.Pack(window.Start, window.End, durations)

	if overflow != schedule.NoOverflow {
		s.logger.Warn("Agenda overflow during close, items carried to next run",
			zap.String("professional", ref.Key()),
			zap.String("date", dateKey(date)),
			zap.Int("unscheduled", len(group)-len(slots)),
		)
	}

	for i, slot := range slots {
		s.confirmItem(ctx, group[i], prof, slot, report)
	}
}

// confirmItem notifies the guardian and, only after a successful send,
// persists the confirmed times and the monotone closed/notified flags.
func (s *CloserService) confirmItem(ctx context.Context, req *model.InterviewRequest, prof *model.Professional, slot schedule.Slot, report *Report) {
	guardian, err := s.directory.Guardian(ctx, req.GuardianID)
	if err != nil || guardian == nil {
		report.Errors = append(report.Errors, ItemError{
			RequestID: req.ID,
			Error:     fmt.Sprintf("guardian %d unresolved", req.GuardianID),
		})
		return
	}

	if err := s.notifier.Send(ctx, buildConfirmation(guardian, prof, req, slot)); err != nil {
		report.Errors = append(report.Errors, ItemError{RequestID: req.ID, Error: err.Error()})
		s.logger.Warn("Close notification failed, booking left open for retry",
			zap.Int64("request_id", req.ID),
			zap.Error(err),
		)
		return
	}
	report.NotificationsSent++

	if err := s.requests.ConfirmClosed(ctx, req.ID, slot.Start, slot.End); err != nil {
		report.Errors = append(report.Errors, ItemError{RequestID: req.ID, Error: err.Error()})
		s.logger.Error("Persisting confirmation failed after send",
			zap.Int64("request_id", req.ID),
			zap.Error(err),
		)
		return
	}
	report.Processed++
}

// groupByProfessional splits an ordered candidate list into per-professional
// runs, preserving the store's ordering within each group.
func groupByProfessional(candidates []*model.InterviewRequest) [][]*model.InterviewRequest {
	var groups [][]*model.InterviewRequest
	var current []*model.InterviewRequest

	for _, req := range candidates {
		if len(current) > 0 && current[0].Professional() != req.Professional() {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, req)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
