package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/ideb/interview-agenda/internal/schedule"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// ParseStatus validates a status value coming from an external caller.
func ParseStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case StatusPending, StatusCompleted, StatusCancelled:
		return RequestStatus(s), true
	}
	return "", false
}

// InterviewRequest is a guardian's booking against one professional's daily
// agenda. Exactly one of TeacherID/PsychologistID is set. ConfirmedStart/End
// stay nil until the agenda closer (or a live allocation pass) fixes them;
// AgendaClosed and NotificationSent are monotone flags — once true they are
// never reset. Requests are soft-state: cancellation flips Status, nothing is
// ever deleted.
type InterviewRequest struct {
	ID             int64         `json:"id"`
	GuardianID     int64         `json:"guardian_id"`
	StudentID      int64         `json:"student_id"`
	TeacherID      *int64        `json:"teacher_id,omitempty"`
	PsychologistID *int64        `json:"psychologist_id,omitempty"`
	SubjectID      *int64        `json:"subject_id,omitempty"`
	Date           time.Time     `json:"date"`
	ReasonID       int64         `json:"reason_id"`
	Note           string        `json:"note"`
	Status         RequestStatus `json:"status"`

	ConfirmedStart   *schedule.TimeOfDay `json:"confirmed_start,omitempty"`
	ConfirmedEnd     *schedule.TimeOfDay `json:"confirmed_end,omitempty"`
	AgendaClosed     bool                `json:"agenda_closed"`
	NotificationSent bool                `json:"notification_sent"`
	NotifyToken      uuid.UUID           `json:"notify_token"`

	CreatedAt time.Time `json:"created_at"`

	// Joined for display and notification; not columns of the request row.
	Tier        PriorityTier `json:"priority_tier,omitempty"`
	Motive      string       `json:"motive,omitempty"`
	SubjectName string       `json:"subject_name,omitempty"`
}

// Professional returns the request's professional reference.
func (r *InterviewRequest) Professional() ProfessionalRef {
	if r.PsychologistID != nil {
		return ProfessionalRef{Kind: KindPsychologist, ID: *r.PsychologistID}
	}
	var id int64
	if r.TeacherID != nil {
		id = *r.TeacherID
	}
	return ProfessionalRef{Kind: KindTeacher, ID: id}
}

// Active reports whether the request still occupies its guardian's daily
// booking allowance (anything not cancelled).
func (r *InterviewRequest) Active() bool {
	return r.Status != StatusCancelled
}
