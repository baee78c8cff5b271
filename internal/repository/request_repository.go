package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ideb/interview-agenda/internal/model"
	"github.com/ideb/interview-agenda/internal/schedule"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RequestRepository persists interview requests. Every read joins the reason
// (for tier and motive) and the subject so callers get display-ready rows.
// Confirmed times are "HH:MM" text columns, NULL until the agenda is closed.
type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

const requestColumns = `
	r.id, r.guardian_id, r.student_id, r.teacher_id, r.psychologist_id,
	r.subject_id, r.interview_date, r.reason_id, r.note, r.status,
	r.confirmed_start, r.confirmed_end, r.agenda_closed, r.notification_sent,
	r.notify_token, r.created_at,
	COALESCE(rs.tier, ''), COALESCE(rs.name, ''), COALESCE(s.name, '')
`

const requestJoins = `
	LEFT JOIN reasons rs ON rs.id = r.reason_id
	LEFT JOIN subjects s ON s.id = r.subject_id
`

// tierRank orders rows high before medium before low; unknown tiers sink.
const tierRank = `
	CASE rs.tier WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END
`

func (r *RequestRepository) Create(ctx context.Context, req *model.InterviewRequest) error {
	query := `
		INSERT INTO interview_requests (
			guardian_id, student_id, teacher_id, psychologist_id, subject_id,
			interview_date, reason_id, note, status, notify_token
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		req.GuardianID,
		req.StudentID,
		req.TeacherID,
		req.PsychologistID,
		req.SubjectID,
		req.Date,
		req.ReasonID,
		req.Note,
		req.Status,
		req.NotifyToken,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create interview request: %w", err)
	}

	return nil
}

// ActiveByGuardianDate returns the guardian's non-cancelled requests for the
// student on one date. Used by the duplicate check before accepting a booking.
func (r *RequestRepository) ActiveByGuardianDate(ctx context.Context, guardianID, studentID int64, date time.Time) ([]*model.InterviewRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM interview_requests r
		` + requestJoins + `
		WHERE r.guardian_id = $1 AND r.student_id = $2
		  AND r.interview_date = $3 AND r.status <> 'cancelled'
		ORDER BY r.id
	`

	return r.queryRequests(ctx, "get active requests by guardian", query, guardianID, studentID, date)
}

// PendingQueue returns one professional's open queue for a date in
// priority-FIFO order: tier rank ascending, then insertion order.
func (r *RequestRepository) PendingQueue(ctx context.Context, ref model.ProfessionalRef, date time.Time) ([]*model.InterviewRequest, error) {
	owner := "r.teacher_id = $1"
	if ref.Kind == model.KindPsychologist {
		owner = "r.psychologist_id = $1"
	}

	query := `
		SELECT ` + requestColumns + `
		FROM interview_requests r
		` + requestJoins + `
		WHERE ` + owner + ` AND r.interview_date = $2
		  AND r.status = 'pending' AND r.agenda_closed = FALSE
		ORDER BY ` + tierRank + `, r.id
	`

	return r.queryRequests(ctx, "get pending queue", query, ref.ID, date)
}

// CloseCandidates returns every request the daily close run must still
// process: pending, not yet closed, not yet notified. Rows come out grouped
// for the closer — teachers before psychologists, then by professional id,
// then priority-FIFO within the professional.
func (r *RequestRepository) CloseCandidates(ctx context.Context, date time.Time) ([]*model.InterviewRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM interview_requests r
		` + requestJoins + `
		WHERE r.interview_date = $1 AND r.status = 'pending'
		  AND r.agenda_closed = FALSE AND r.notification_sent = FALSE
		ORDER BY
			CASE WHEN r.teacher_id IS NOT NULL THEN 0 ELSE 1 END,
			COALESCE(r.teacher_id, r.psychologist_id),
			` + tierRank + `,
			r.id
	`

	return r.queryRequests(ctx, "get close candidates", query, date)
}

// ConfirmClosed fixes the confirmed slot and raises both close flags. The
// time columns use set-if-unset semantics so a repeated close of the same
// request never moves an already-confirmed slot.
func (r *RequestRepository) ConfirmClosed(ctx context.Context, id int64, start, end schedule.TimeOfDay) error {
	query := `
		UPDATE interview_requests
		SET confirmed_start = COALESCE(confirmed_start, $1),
		    confirmed_end = COALESCE(confirmed_end, $2),
		    agenda_closed = TRUE,
		    notification_sent = TRUE
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, start.String(), end.String(), id)
	if err != nil {
		return fmt.Errorf("confirm closed request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("interview request not found")
	}

	return nil
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	query := `
		UPDATE interview_requests
		SET status = $1
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("interview request not found")
	}

	return nil
}

// ByGuardian returns the guardian's full booking history, newest first.
func (r *RequestRepository) ByGuardian(ctx context.Context, guardianID int64) ([]*model.InterviewRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM interview_requests r
		` + requestJoins + `
		WHERE r.guardian_id = $1
		ORDER BY r.interview_date DESC, r.id DESC
	`

	return r.queryRequests(ctx, "get requests by guardian", query, guardianID)
}

// ByDateRange returns all requests with dates in [from, to] inclusive.
func (r *RequestRepository) ByDateRange(ctx context.Context, from, to time.Time) ([]*model.InterviewRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM interview_requests r
		` + requestJoins + `
		WHERE r.interview_date BETWEEN $1 AND $2
		ORDER BY r.interview_date, r.id
	`

	return r.queryRequests(ctx, "get requests by date range", query, from, to)
}

func (r *RequestRepository) queryRequests(ctx context.Context, op, query string, args ...any) ([]*model.InterviewRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var requests []*model.InterviewRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interview request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, nil
}

func scanRequest(row pgx.Row) (*model.InterviewRequest, error) {
	var req model.InterviewRequest
	var tier string
	var confirmedStart, confirmedEnd *string

	err := row.Scan(
		&req.ID,
		&req.GuardianID,
		&req.StudentID,
		&req.TeacherID,
		&req.PsychologistID,
		&req.SubjectID,
		&req.Date,
		&req.ReasonID,
		&req.Note,
		&req.Status,
		&confirmedStart,
		&confirmedEnd,
		&req.AgendaClosed,
		&req.NotificationSent,
		&req.NotifyToken,
		&req.CreatedAt,
		&tier,
		&req.Motive,
		&req.SubjectName,
	)
	if err != nil {
		return nil, err
	}

	req.Tier = model.PriorityTier(tier)
	if req.ConfirmedStart, err = parseOptionalTime(confirmedStart); err != nil {
		return nil, fmt.Errorf("request %d confirmed start: %w", req.ID, err)
	}
	if req.ConfirmedEnd, err = parseOptionalTime(confirmedEnd); err != nil {
		return nil, fmt.Errorf("request %d confirmed end: %w", req.ID, err)
	}

	return &req, nil
}

func parseOptionalTime(raw *string) (*schedule.TimeOfDay, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := schedule.ParseTimeOfDay(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
