package service

import (
	"context"
	"time"

	"github.com/ideb/interview-agenda/internal/model"
	"github.com/ideb/interview-agenda/internal/schedule"
)

// DirectoryStore resolves the people and motives an allocation touches.
type DirectoryStore interface {
	Guardian(ctx context.Context, id int64) (*model.Guardian, error)
	Student(ctx context.Context, id int64) (*model.Student, error)
	GuardianStudentLinked(ctx context.Context, guardianID, studentID int64) (bool, error)
	Reason(ctx context.Context, id int64) (*model.Reason, error)
	Professional(ctx context.Context, ref model.ProfessionalRef) (*model.Professional, error)
}

// WindowStore resolves work windows. WindowFor returns nil when the
// professional has no active window for that weekday.
type WindowStore interface {
	WindowFor(ctx context.Context, ref model.ProfessionalRef, weekday time.Weekday) (*model.WorkWindow, error)
	WindowsFor(ctx context.Context, ref model.ProfessionalRef) ([]*model.WorkWindow, error)
}

// RequestStore persists interview requests.
//
// PendingQueue and CloseCandidates return rows in priority-FIFO order: tier
// rank ascending, then id ascending. CloseCandidates additionally orders
// teachers before psychologists, then by professional id, and excludes rows
// already closed or notified. ConfirmClosed must use set-if-unset semantics
// for the confirmation columns and flags so re-running a close is idempotent.
type RequestStore interface {
	Create(ctx context.Context, req *model.InterviewRequest) error
	ActiveByGuardianDate(ctx context.Context, guardianID, studentID int64, date time.Time) ([]*model.InterviewRequest, error)
	PendingQueue(ctx context.Context, ref model.ProfessionalRef, date time.Time) ([]*model.InterviewRequest, error)
	CloseCandidates(ctx context.Context, date time.Time) ([]*model.InterviewRequest, error)
	ConfirmClosed(ctx context.Context, id int64, start, end schedule.TimeOfDay) error
	UpdateStatus(ctx context.Context, id int64, status model.RequestStatus) error
	ByGuardian(ctx context.Context, guardianID int64) ([]*model.InterviewRequest, error)
	ByDateRange(ctx context.Context, from, to time.Time) ([]*model.InterviewRequest, error)
}
