package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ideb/interview-agenda/internal/model"
	"github.com/ideb/interview-agenda/internal/notification"
	"github.com/ideb/interview-agenda/internal/schedule"
	"go.uber.org/zap"
)

// AllocationService accepts or rejects interview requests against a
// professional's daily work window. Slot order is priority-FIFO: tier rank
// first, arrival order within a tier. Allocation for one (professional, date)
// pair is serialized so concurrent bookings cannot double-grant the trailing
// slot.
type AllocationService struct {
	directory DirectoryStore
	windows   WindowStore
	requests  RequestStore
	notifier  notification.Notifier
	policy    model.DurationPolicy
	locks     *keyedMutex
	logger    *zap.Logger
}

func NewAllocationService(
	directory DirectoryStore,
	windows WindowStore,
	requests RequestStore,
	notifier notification.Notifier,
	policy model.DurationPolicy,
	logger *zap.Logger,
) *AllocationService {
	return &AllocationService{
		directory: directory,
		windows:   windows,
		requests:  requests,
		notifier:  notifier,
		policy:    policy,
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

// BookingInput is one booking attempt. Exactly one of TeacherID and
// PsychologistID must be set.
type BookingInput struct {
	GuardianID     int64
	StudentID      int64
	TeacherID      *int64
	PsychologistID *int64
	Date           time.Time
	ReasonID       int64
	Note           string
}

func (in BookingInput) professional() (model.ProfessionalRef, bool) {
	switch {
	case in.TeacherID != nil && in.PsychologistID == nil:
		return model.ProfessionalRef{Kind: model.KindTeacher, ID: *in.TeacherID}, true
	case in.PsychologistID != nil && in.TeacherID == nil:
		return model.ProfessionalRef{Kind: model.KindPsychologist, ID: *in.PsychologistID}, true
	}
	return model.ProfessionalRef{}, false
}

// BookingResult is an accepted booking. The provisional times are
// informational: the field of record is written by the agenda closer.
type BookingResult struct {
	Request          *model.InterviewRequest `json:"request"`
	ProvisionalStart schedule.TimeOfDay      `json:"provisional_start"`
	ProvisionalEnd   schedule.TimeOfDay      `json:"provisional_end"`
}

// TryBook validates the input, checks for a duplicate active booking, packs
// the professional's existing queue and accepts the request if its duration
// still fits the work window. On an agenda-full rejection every guardian
// whose earlier request did fit gets a best-effort confirmation, so nobody is
// left confirmed-but-uninformed.
func (s *AllocationService) TryBook(ctx context.Context, in BookingInput) (*BookingResult, error) {
	ref, ok := in.professional()
	if !ok {
		return nil, rejectf(RejectMissingField, "exactly one of teacher or psychologist must be set")
	}
	if in.GuardianID == 0 || in.StudentID == 0 || in.ReasonID == 0 || in.Date.IsZero() {
		return nil, rejectf(RejectMissingField, "guardian, student, date and reason are required")
	}

	if err := s.checkParties(ctx, in.GuardianID, in.StudentID); err != nil {
		return nil, err
	}

	reason, err := s.directory.Reason(ctx, in.ReasonID)
	if err != nil {
		return nil, fmt.Errorf("resolve reason: %w", err)
	}
	if reason == nil || !reason.Active {
		return nil, rejectf(RejectInvalidReason, "reason %d not found or inactive", in.ReasonID)
	}
	duration := s.policy.Minutes(reason.Tier)

	prof, err := s.directory.Professional(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve professional: %w", err)
	}
	if prof == nil || !prof.Active {
		return nil, rejectf(RejectNoSchedule, "no active %s %d", ref.Kind, ref.ID)
	}

	window, err := s.windows.WindowFor(ctx, ref, in.Date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("resolve work window: %w", err)
	}
	if window == nil || !window.Active {
		return nil, rejectf(RejectNoSchedule, "%s %d has no active window on %s", ref.Kind, ref.ID, in.Date.Weekday())
	}

	// Queue snapshot and insert must be atomic per (professional, date),
	// otherwise two concurrent bookings both see the same trailing slot.
	unlock := s.locks.Lock(ref.Key() + "@" + dateKey(in.Date))
	defer unlock()

	if err := s.checkDuplicate(ctx, in, ref, prof); err != nil {
		return nil, err
	}

	queue, err := s.requests.PendingQueue(ctx, ref, in.Date)
	if err != nil {
		return nil, fmt.Errorf("load pending queue: %w", err)
	}

	slots, _ := schedule.Pack(window.Start, window.End, s.durations(queue))
	cursor := window.Start
	if len(slots) > 0 {
		cursor = slots[len(slots)-1].End
	}

	slot, fits := schedule.Step(cursor, window.End, duration)
	if !fits {
		s.logger.Info("Agenda full, notifying confirmed guardians",
			zap.String("professional", ref.Key()),
			zap.String("date", dateKey(in.Date)),
			zap.Int("fitting", len(slots)),
		)
		s.notifyFitting(ctx, queue[:len(slots)], slots, prof, in.Date)
		return nil, rejectf(RejectAgendaFull, "no capacity left on %s for %s %d", dateKey(in.Date), ref.Kind, ref.ID)
	}

	req := &model.InterviewRequest{
		GuardianID:     in.GuardianID,
		StudentID:      in.StudentID,
		TeacherID:      in.TeacherID,
		PsychologistID: in.PsychologistID,
		SubjectID:      prof.SubjectID,
		Date:           in.Date,
		ReasonID:       in.ReasonID,
		Note:           in.Note,
		Status:         model.StatusPending,
		NotifyToken:    uuid.New(),
		Tier:           reason.Tier,
		Motive:         reason.Name,
		SubjectName:    prof.SubjectName,
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info("Interview request accepted",
		zap.Int64("request_id", req.ID),
		zap.Int64("guardian_id", in.GuardianID),
		zap.String("professional", ref.Key()),
		zap.String("date", dateKey(in.Date)),
		zap.String("tier", string(reason.Tier)),
		zap.String("provisional_start", slot.Start.String()),
	)

	return &BookingResult{Request: req, ProvisionalStart: slot.Start, ProvisionalEnd: slot.End}, nil
}

func (s *AllocationService) checkParties(ctx context.Context, guardianID, studentID int64) error {
	guardian, err := s.directory.Guardian(ctx, guardianID)
	if err != nil {
		return fmt.Errorf("resolve guardian: %w", err)
	}
	if guardian == nil || !guardian.Active {
		return rejectf(RejectInactiveParty, "guardian %d not found or inactive", guardianID)
	}

	student, err := s.directory.Student(ctx, studentID)
	if err != nil {
		return fmt.Errorf("resolve student: %w", err)
	}
	if student == nil || !student.Active {
		return rejectf(RejectInactiveParty, "student %d not found or inactive", studentID)
	}

	linked, err := s.directory.GuardianStudentLinked(ctx, guardianID, studentID)
	if err != nil {
		return fmt.Errorf("resolve guardian-student link: %w", err)
	}
	if !linked {
		return rejectf(RejectInactiveParty, "student %d is not linked to guardian %d", studentID, guardianID)
	}

	return nil
}

// checkDuplicate enforces one active booking per guardian/student per
// subject-or-psychologist track per date. Subject identity compares ids when
// both sides have one and falls back to the normalized subject name for
// legacy rows without an id.
func (s *AllocationService) checkDuplicate(ctx context.Context, in BookingInput, ref model.ProfessionalRef, prof *model.Professional) error {
	existing, err := s.requests.ActiveByGuardianDate(ctx, in.GuardianID, in.StudentID, in.Date)
	if err != nil {
		return fmt.Errorf("load active requests: %w", err)
	}

	wantName := strings.ToLower(strings.TrimSpace(prof.SubjectName))

	for _, req := range existing {
		if ref.Kind == model.KindPsychologist {
			if req.PsychologistID != nil && *req.PsychologistID == ref.ID {
				return rejectf(RejectDuplicateBooking,
					"guardian %d already has an interview with the psychologist on %s", in.GuardianID, dateKey(in.Date))
			}
			continue
		}

		if req.PsychologistID != nil {
			continue
		}

		if req.SubjectID != nil && prof.SubjectID != nil && *req.SubjectID == *prof.SubjectID {
			return rejectf(RejectDuplicateBooking,
				"guardian %d already has a %s interview on %s", in.GuardianID, req.SubjectName, dateKey(in.Date))
		}

		haveName := strings.ToLower(strings.TrimSpace(req.SubjectName))
		if haveName != "" && haveName == wantName {
			return rejectf(RejectDuplicateBooking,
				"guardian %d already has a %s interview on %s", in.GuardianID, req.SubjectName, dateKey(in.Date))
		}
	}

	return nil
}

// notifyFitting sends best-effort confirmations to guardians whose requests
// already fit the window. Failures are logged, never escalated: the booking
// caller still gets its agenda-full rejection.
func (s *AllocationService) notifyFitting(ctx context.Context, fitting []*model.InterviewRequest, slots []schedule.Slot, prof *model.Professional, date time.Time) {
	for i, req := range fitting {
		guardian, err := s.directory.Guardian(ctx, req.GuardianID)
		if err != nil || guardian == nil {
			s.logger.Warn("Skipping confirmation, guardian unresolved",
				zap.Int64("request_id", req.ID),
				zap.Int64("guardian_id", req.GuardianID),
				zap.Error(err),
			)
			continue
		}

		conf := buildConfirmation(guardian, prof, req, slots[i])
		if err := s.notifier.Send(ctx, conf); err != nil {
			s.logger.Warn("Confirmation send failed",
				zap.Int64("request_id", req.ID),
				zap.Error(err),
			)
		}
	}
}

// QueueEntry is one display row of a recomputed daily queue.
type QueueEntry struct {
	Request *model.InterviewRequest `json:"request"`
	Slot    schedule.Slot           `json:"slot"`
}

// QueueForDate recomputes the provisional agenda for one professional and
// date. Only requests that fit the window appear; overflowing requests are
// not scheduled this pass.
func (s *AllocationService) QueueForDate(ctx context.Context, ref model.ProfessionalRef, date time.Time) ([]QueueEntry, error) {
	window, err := s.windows.WindowFor(ctx, ref, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("resolve work window: %w", err)
	}
	if window == nil || !window.Active {
		return nil, rejectf(RejectNoSchedule, "%s %d has no active window on %s", ref.Kind, ref.ID, date.Weekday())
	}

	queue, err := s.requests.PendingQueue(ctx, ref, date)
	if err != nil {
		return nil, fmt.Errorf("load pending queue: %w", err)
	}

	slots, _ := schedule.Pack(window.Start, window.End, s.durations(queue))

	entries := make([]QueueEntry, len(slots))
	for i := range slots {
		entries[i] = QueueEntry{Request: queue[i], Slot: slots[i]}
	}
	return entries, nil
}

// EnabledDates lists the dates within the next `days` days on which the
// professional has an active work window.
func (s *AllocationService) EnabledDates(ctx context.Context, ref model.ProfessionalRef, from time.Time, days int) ([]time.Time, error) {
	windows, err := s.windows.WindowsFor(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load work windows: %w", err)
	}

	weekdays := make(map[time.Weekday]bool)
	for _, w := range windows {
		if w.Active {
			weekdays[w.Weekday] = true
		}
	}

	var dates []time.Time
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		if weekdays[day.Weekday()] {
			dates = append(dates, day)
		}
	}
	return dates, nil
}

// UpdateStatus moves a request between Pending, Completed and Cancelled.
func (s *AllocationService) UpdateStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update request status: %w", err)
	}

	s.logger.Info("Request status updated",
		zap.Int64("request_id", id),
		zap.String("status", string(status)),
	)
	return nil
}

// HistoryForGuardian returns a guardian's interviews, oldest first.
func (s *AllocationService) HistoryForGuardian(ctx context.Context, guardianID int64) ([]*model.InterviewRequest, error) {
	return s.requests.ByGuardian(ctx, guardianID)
}

// ListRange returns all interviews with dates in [from, to].
func (s *AllocationService) ListRange(ctx context.Context, from, to time.Time) ([]*model.InterviewRequest, error) {
	return s.requests.ByDateRange(ctx, from, to)
}

func (s *AllocationService) durations(queue []*model.InterviewRequest) []int {
	durations := make([]int, len(queue))
	for i, req := range queue {
		durations[i] = s.policy.Minutes(req.Tier)
	}
	return durations
}

func dateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

func buildConfirmation(guardian *model.Guardian, prof *model.Professional, req *model.InterviewRequest, slot schedule.Slot) notification.Confirmation {
	return notification.Confirmation{
		GuardianName:   guardian.FullName,
		GuardianEmail:  guardian.Email,
		GuardianChatID: guardian.TelegramChatID,
		Motive:         req.Motive,
		SubjectLabel:   prof.SubjectLabel(),
		Date:           dateKey(req.Date),
		Start:          slot.Start.String(),
		End:            slot.End.String(),
		Note:           req.Note,
		Professional:   prof.FullName,
		DedupToken:     req.NotifyToken.String(),
	}
}
