package model

import "fmt"

type ProfessionalKind string

const (
	KindTeacher      ProfessionalKind = "teacher"
	KindPsychologist ProfessionalKind = "psychologist"
)

// ParseKind validates a professional kind from an external caller.
func ParseKind(s string) (ProfessionalKind, bool) {
	switch ProfessionalKind(s) {
	case KindTeacher, KindPsychologist:
		return ProfessionalKind(s), true
	}
	return "", false
}

// ProfessionalRef identifies a teacher or a psychologist. Teachers and
// psychologists live in separate id spaces, so the kind is part of the key.
type ProfessionalRef struct {
	Kind ProfessionalKind `json:"kind"`
	ID   int64            `json:"id"`
}

// Key returns a stable string form usable as a map/lock key.
func (p ProfessionalRef) Key() string {
	return fmt.Sprintf("%s:%d", p.Kind, p.ID)
}

// Guardian is a parent or tutor who books interviews.
type Guardian struct {
	ID             int64  `json:"id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	TelegramChatID *int64 `json:"telegram_chat_id,omitempty"`
	Active         bool   `json:"active"`
}

type Student struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Active   bool   `json:"active"`
}

// Professional is the directory view of a teacher or psychologist. SubjectID
// and SubjectName are set for teachers only; psychologists have no subject.
type Professional struct {
	Ref         ProfessionalRef `json:"ref"`
	FullName    string          `json:"full_name"`
	Email       string          `json:"email"`
	SubjectID   *int64          `json:"subject_id,omitempty"`
	SubjectName string          `json:"subject_name,omitempty"`
	Active      bool            `json:"active"`
}

// SubjectLabel is the human label used in notifications: the subject name for
// teachers, a fixed label for psychologists.
func (p *Professional) SubjectLabel() string {
	if p.Ref.Kind == KindPsychologist {
		return "Psychologist"
	}
	if p.SubjectName != "" {
		return p.SubjectName
	}
	return "the assigned professional"
}

// Reason is a booking motive; its tier drives the interview duration.
type Reason struct {
	ID     int64        `json:"id"`
	Name   string       `json:"name"`
	Tier   PriorityTier `json:"tier"`
	Active bool         `json:"active"`
}
