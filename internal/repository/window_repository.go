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

// WindowRepository reads recurring work windows. Times are stored as "HH:MM"
// text columns and parsed on the way out.
type WindowRepository struct {
	pool *pgxpool.Pool
}

func NewWindowRepository(pool *pgxpool.Pool) *WindowRepository {
	return &WindowRepository{pool: pool}
}

const windowColumns = `
	w.id, w.teacher_id, w.psychologist_id, t.subject_id, COALESCE(s.name, ''),
	w.weekday, w.start_time, w.end_time, w.active
`

// WindowFor returns the professional's active window for one weekday, or nil
// when none is configured.
func (r *WindowRepository) WindowFor(ctx context.Context, ref model.ProfessionalRef, weekday time.Weekday) (*model.WorkWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM work_windows w
		LEFT JOIN teachers t ON t.id = w.teacher_id
		LEFT JOIN subjects s ON s.id = t.subject_id
		WHERE ` + windowOwnerClause(ref) + ` AND w.weekday = $2 AND w.active = TRUE
		LIMIT 1
	`

	row := r.pool.QueryRow(ctx, query, ref.ID, int(weekday))
	window, err := scanWindow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get window for %s: %w", ref.Key(), err)
	}

	return window, nil
}

// WindowsFor returns all active windows of one professional ordered by
// weekday.
func (r *WindowRepository) WindowsFor(ctx context.Context, ref model.ProfessionalRef) ([]*model.WorkWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM work_windows w
		LEFT JOIN teachers t ON t.id = w.teacher_id
		LEFT JOIN subjects s ON s.id = t.subject_id
		WHERE ` + windowOwnerClause(ref) + ` AND w.active = TRUE
		ORDER BY w.weekday
	`

	rows, err := r.pool.Query(ctx, query, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("get windows for %s: %w", ref.Key(), err)
	}
	defer rows.Close()

	var windows []*model.WorkWindow
	for rows.Next() {
		window, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		windows = append(windows, window)
	}

	return windows, nil
}

func windowOwnerClause(ref model.ProfessionalRef) string {
	if ref.Kind == model.KindPsychologist {
		return "w.psychologist_id = $1"
	}
	return "w.teacher_id = $1"
}

func scanWindow(row pgx.Row) (*model.WorkWindow, error) {
	var window model.WorkWindow
	var weekday int
	var startRaw, endRaw string

	err := row.Scan(
		&window.ID,
		&window.TeacherID,
		&window.PsychologistID,
		&window.SubjectID,
		&window.SubjectName,
		&weekday,
		&startRaw,
		&endRaw,
		&window.Active,
	)
	if err != nil {
		return nil, err
	}

	window.Weekday = time.Weekday(weekday)
	if window.Start, err = schedule.ParseTimeOfDay(startRaw); err != nil {
		return nil, fmt.Errorf("window %d start: %w", window.ID, err)
	}
	if window.End, err = schedule.ParseTimeOfDay(endRaw); err != nil {
		return nil, fmt.Errorf("window %d end: %w", window.ID, err)
	}

	return &window, nil
}
