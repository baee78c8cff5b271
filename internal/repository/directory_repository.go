package repository

import (
	"context"
	"fmt"

	"github.com/ideb/interview-agenda/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DirectoryRepository reads the people and motives of the school directory:
// guardians, students, professionals and booking reasons. Lookup methods
// return (nil, nil) when the row does not exist.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) Guardian(ctx context.Context, id int64) (*model.Guardian, error) {
	query := `
		SELECT id, full_name, email, telegram_chat_id, active
		FROM guardians
		WHERE id = $1
	`

	var guardian model.Guardian
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&guardian.ID,
		&guardian.FullName,
		&guardian.Email,
		&guardian.TelegramChatID,
		&guardian.Active,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get guardian by id: %w", err)
	}

	return &guardian, nil
}

func (r *DirectoryRepository) Student(ctx context.Context, id int64) (*model.Student, error) {
	query := `
		SELECT id, full_name, active
		FROM students
		WHERE id = $1
	`

	var student model.Student
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&student.ID,
		&student.FullName,
		&student.Active,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}

	return &student, nil
}

// GuardianStudentLinked reports whether the guardian is registered as a
// responsible adult for the student.
func (r *DirectoryRepository) GuardianStudentLinked(ctx context.Context, guardianID, studentID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM guardian_students
			WHERE guardian_id = $1 AND student_id = $2
		)
	`

	var linked bool
	err := r.pool.QueryRow(ctx, query, guardianID, studentID).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("check guardian-student link: %w", err)
	}

	return linked, nil
}

func (r *DirectoryRepository) Reason(ctx context.Context, id int64) (*model.Reason, error) {
	query := `
		SELECT id, name, tier, active
		FROM reasons
		WHERE id = $1
	`

	var reason model.Reason
	var tier string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&reason.ID,
		&reason.Name,
		&tier,
		&reason.Active,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get reason by id: %w", err)
	}

	reason.Tier = model.PriorityTier(tier)
	return &reason, nil
}

// Professional resolves either side of the teacher/psychologist split.
// Teachers carry their subject; psychologists have none.
func (r *DirectoryRepository) Professional(ctx context.Context, ref model.ProfessionalRef) (*model.Professional, error) {
	if ref.Kind == model.KindPsychologist {
		return r.psychologist(ctx, ref.ID)
	}
	return r.teacher(ctx, ref.ID)
}

func (r *DirectoryRepository) teacher(ctx context.Context, id int64) (*model.Professional, error) {
	query := `
		SELECT t.id, t.full_name, t.email, t.subject_id, COALESCE(s.name, ''), t.active
		FROM teachers t
		LEFT JOIN subjects s ON s.id = t.subject_id
		WHERE t.id = $1
	`

	prof := model.Professional{Ref: model.ProfessionalRef{Kind: model.KindTeacher, ID: id}}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&prof.Ref.ID,
		&prof.FullName,
		&prof.Email,
		&prof.SubjectID,
		&prof.SubjectName,
		&prof.Active,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher by id: %w", err)
	}

	return &prof, nil
}

func (r *DirectoryRepository) psychologist(ctx context.Context, id int64) (*model.Professional, error) {
	query := `
		SELECT id, full_name, email, active
		FROM psychologists
		WHERE id = $1
	`

	prof := model.Professional{Ref: model.ProfessionalRef{Kind: model.KindPsychologist, ID: id}}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&prof.Ref.ID,
		&prof.FullName,
		&prof.Email,
		&prof.Active,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get psychologist by id: %w", err)
	}

	return &prof, nil
}
