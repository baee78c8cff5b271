package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ideb/interview-agenda/internal/model"
	"github.com/ideb/interview-agenda/internal/notification"
	"github.com/ideb/interview-agenda/internal/schedule"
)

type fakeDirectory struct {
	guardians     map[int64]*model.Guardian
	students      map[int64]*model.Student
	links         map[[2]int64]bool
	reasons       map[int64]*model.Reason
	professionals map[model.ProfessionalRef]*model.Professional
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		guardians:     make(map[int64]*model.Guardian),
		students:      make(map[int64]*model.Student),
		links:         make(map[[2]int64]bool),
		reasons:       make(map[int64]*model.Reason),
		professionals: make(map[model.ProfessionalRef]*model.Professional),
	}
}

func (d *fakeDirectory) Guardian(_ context.Context, id int64) (*model.Guardian, error) {
	return d.guardians[id], nil
}

func (d *fakeDirectory) Student(_ context.Context, id int64) (*model.Student, error) {
	return d.students[id], nil
}

func (d *fakeDirectory) GuardianStudentLinked(_ context.Context, guardianID, studentID int64) (bool, error) {
	return d.links[[2]int64{guardianID, studentID}], nil
}

func (d *fakeDirectory) Reason(_ context.Context, id int64) (*model.Reason, error) {
	return d.reasons[id], nil
}

func (d *fakeDirectory) Professional(_ context.Context, ref model.ProfessionalRef) (*model.Professional, error) {
	return d.professionals[ref], nil
}

func (d *fakeDirectory) addGuardian(id int64, email string) {
	d.guardians[id] = &model.Guardian{ID: id, FullName: fmt.Sprintf("Guardian %d", id), Email: email, Active: true}
}

func (d *fakeDirectory) addStudent(id int64) {
	d.students[id] = &model.Student{ID: id, FullName: fmt.Sprintf("Student %d", id), Active: true}
}

func (d *fakeDirectory) link(guardianID, studentID int64) {
	d.links[[2]int64{guardianID, studentID}] = true
}

func (d *fakeDirectory) addReason(id int64, tier model.PriorityTier) {
	d.reasons[id] = &model.Reason{ID: id, Name: fmt.Sprintf("Reason %d", id), Tier: tier, Active: true}
}

func (d *fakeDirectory) addTeacher(id, subjectID int64, subject string) {
	ref := model.ProfessionalRef{Kind: model.KindTeacher, ID: id}
	d.professionals[ref] = &model.Professional{
		Ref:         ref,
		FullName:    fmt.Sprintf("Teacher %d", id),
		SubjectID:   &subjectID,
		SubjectName: subject,
		Active:      true,
	}
}

func (d *fakeDirectory) addPsychologist(id int64) {
	ref := model.ProfessionalRef{Kind: model.KindPsychologist, ID: id}
	d.professionals[ref] = &model.Professional{
		Ref:      ref,
		FullName: fmt.Sprintf("Psychologist %d", id),
		Active:   true,
	}
}

type fakeWindows struct {
	windows map[string][]*model.WorkWindow
}

func newFakeWindows() *fakeWindows {
	return &fakeWindows{windows: make(map[string][]*model.WorkWindow)}
}

func (w *fakeWindows) add(ref model.ProfessionalRef, weekday time.Weekday, start, end string) {
	window := &model.WorkWindow{
		ID:      int64(len(w.windows[ref.Key()]) + 1),
		Weekday: weekday,
		Start:   schedule.MustTimeOfDay(start),
		End:     schedule.MustTimeOfDay(end),
		Active:  true,
	}
	if ref.Kind == model.KindPsychologist {
		id := ref.ID
		window.PsychologistID = &id
	} else {
		id := ref.ID
		window.TeacherID = &id
	}
	w.windows[ref.Key()] = append(w.windows[ref.Key()], window)
}

func (w *fakeWindows) WindowFor(_ context.Context, ref model.ProfessionalRef, weekday time.Weekday) (*model.WorkWindow, error) {
	for _, window := range w.windows[ref.Key()] {
		if window.Weekday == weekday && window.Active {
			return window, nil
		}
	}
	return nil, nil
}

func (w *fakeWindows) WindowsFor(_ context.Context, ref model.ProfessionalRef) ([]*model.WorkWindow, error) {
	return w.windows[ref.Key()], nil
}

type fakeRequests struct {
	requests []*model.InterviewRequest
	nextID   int64
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{nextID: 1}
}

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (r *fakeRequests) Create(_ context.Context, req *model.InterviewRequest) error {
	req.ID = r.nextID
	r.nextID++
	req.CreatedAt = time.Now()
	r.requests = append(r.requests, req)
	return nil
}

func (r *fakeRequests) ActiveByGuardianDate(_ context.Context, guardianID, studentID int64, date time.Time) ([]*model.InterviewRequest, error) {
	var out []*model.InterviewRequest
	for _, req := range r.requests {
		if req.GuardianID == guardianID && req.StudentID == studentID && sameDate(req.Date, date) && req.Active() {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRequests) PendingQueue(_ context.Context, ref model.ProfessionalRef, date time.Time) ([]*model.InterviewRequest, error) {
	var out []*model.InterviewRequest
	for _, req := range r.requests {
		if req.Professional() == ref && sameDate(req.Date, date) &&
			req.Status == model.StatusPending && !req.AgendaClosed {
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier.Rank() != out[j].Tier.Rank() {
			return out[i].Tier.Rank() < out[j].Tier.Rank()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeRequests) CloseCandidates(_ context.Context, date time.Time) ([]*model.InterviewRequest, error) {
	var out []*model.InterviewRequest
	for _, req := range r.requests {
		if sameDate(req.Date, date) && req.Status == model.StatusPending &&
			!req.AgendaClosed && !req.NotificationSent {
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Professional(), out[j].Professional()
		if ri.Kind != rj.Kind {
			return ri.Kind == model.KindTeacher
		}
		if ri.ID != rj.ID {
			return ri.ID < rj.ID
		}
		if out[i].Tier.Rank() != out[j].Tier.Rank() {
			return out[i].Tier.Rank() < out[j].Tier.Rank()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeRequests) ConfirmClosed(_ context.Context, id int64, start, end schedule.TimeOfDay) error {
	for _, req := range r.requests {
		if req.ID != id {
			continue
		}
		if req.ConfirmedStart == nil {
			req.ConfirmedStart = &start
		}
		if req.ConfirmedEnd == nil {
			req.ConfirmedEnd = &end
		}
		req.AgendaClosed = true
		req.NotificationSent = true
		return nil
	}
	return fmt.Errorf("interview request not found")
}

func (r *fakeRequests) UpdateStatus(_ context.Context, id int64, status model.RequestStatus) error {
	for _, req := range r.requests {
		if req.ID == id {
			req.Status = status
			return nil
		}
	}
	return fmt.Errorf("interview request not found")
}

func (r *fakeRequests) ByGuardian(_ context.Context, guardianID int64) ([]*model.InterviewRequest, error) {
	var out []*model.InterviewRequest
	for _, req := range r.requests {
		if req.GuardianID == guardianID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRequests) ByDateRange(_ context.Context, from, to time.Time) ([]*model.InterviewRequest, error) {
	var out []*model.InterviewRequest
	for _, req := range r.requests {
		if !req.Date.Before(from) && !req.Date.After(to) {
			out = append(out, req)
		}
	}
	return out, nil
}

// fakeNotifier records sends and can be told to fail for specific guardians.
type fakeNotifier struct {
	sent    []notification.Confirmation
	failFor map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[string]bool)}
}

func (n *fakeNotifier) Send(_ context.Context, c notification.Confirmation) error {
	if n.failFor[c.GuardianName] {
		return fmt.Errorf("delivery to %s failed", c.GuardianName)
	}
	n.sent = append(n.sent, c)
	return nil
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}
