package model

import (
	"time"

	"github.com/ideb/interview-agenda/internal/schedule"
)

// WorkWindow is a professional's recurring availability for one weekday.
// Immutable for the duration of one allocation pass: nothing in the engine
// mutates a window while packing against it.
type WorkWindow struct {
	ID             int64              `json:"id"`
	TeacherID      *int64             `json:"teacher_id,omitempty"`
	PsychologistID *int64             `json:"psychologist_id,omitempty"`
	SubjectID      *int64             `json:"subject_id,omitempty"`
	SubjectName    string             `json:"subject_name,omitempty"`
	Weekday        time.Weekday       `json:"weekday"`
	Start          schedule.TimeOfDay `json:"start"`
	End            schedule.TimeOfDay `json:"end"`
	Active         bool               `json:"active"`
}

// Professional returns the owning professional's reference.
func (w *WorkWindow) Professional() ProfessionalRef {
	if w.PsychologistID != nil {
		return ProfessionalRef{Kind: KindPsychologist, ID: *w.PsychologistID}
	}
	var id int64
	if w.TeacherID != nil {
		id = *w.TeacherID
	}
	return ProfessionalRef{Kind: KindTeacher, ID: id}
}
