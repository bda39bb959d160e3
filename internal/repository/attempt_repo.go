package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizforge-backend/internal/models"
)

// AttemptRepo persists attempts and answers. The submit path works on an
// explicit pgx.Tx so the engine can lock the attempt row for the whole
// read-modify-write (see AttemptService.SubmitAnswer).
type AttemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

func (r *AttemptRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const attemptColumns = "id, user_id, quiz_id, score, total_questions, attempted_questions, started_at, completed_at, is_completed"

func (r *AttemptRepo) Create(ctx context.Context, a *models.Attempt) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempts (id, user_id, quiz_id, score, total_questions, attempted_questions, started_at, is_completed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.QuizID, a.Score, a.TotalQuestions, a.AttemptedQuestions, a.StartedAt, a.IsCompleted,
	)
	return err
}

func (r *AttemptRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx, "SELECT "+attemptColumns+" FROM attempts WHERE id = $1", id))
}

// GetForUpdate locks the attempt row until the transaction ends, serializing
// concurrent submissions against the same attempt.
func (r *AttemptRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Attempt, error) {
	return scanAttempt(tx.QueryRow(ctx, "SELECT "+attemptColumns+" FROM attempts WHERE id = $1 FOR UPDATE", id))
}

func scanAttempt(row pgx.Row) (*models.Attempt, error) {
	a := &models.Attempt{}
	err := row.Scan(
		&a.ID, &a.UserID, &a.QuizID, &a.Score, &a.TotalQuestions,
		&a.AttemptedQuestions, &a.StartedAt, &a.CompletedAt, &a.IsCompleted,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AttemptRepo) HasIncomplete(ctx context.Context, userID, quizID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM attempts WHERE user_id = $1 AND quiz_id = $2 AND NOT is_completed)",
		userID, quizID,
	).Scan(&exists)
	return exists, err
}

// ListByUserAndQuiz returns the user's attempts for a quiz in insertion
// order, each expanded with its answers.
func (r *AttemptRepo) ListByUserAndQuiz(ctx context.Context, userID, quizID uuid.UUID) ([]*models.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+attemptColumns+" FROM attempts WHERE user_id = $1 AND quiz_id = $2 ORDER BY started_at, id",
		userID, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.Attempt
	byID := make(map[uuid.UUID]*models.Attempt)
	for rows.Next() {
		a := &models.Attempt{}
		err := rows.Scan(
			&a.ID, &a.UserID, &a.QuizID, &a.Score, &a.TotalQuestions,
			&a.AttemptedQuestions, &a.StartedAt, &a.CompletedAt, &a.IsCompleted,
		)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return attempts, nil
	}

	ansRows, err := r.pool.Query(ctx,
		`SELECT ans.id, ans.attempt_id, ans.question_id, ans.selected_option_id, ans.is_correct, ans.answered_at
		 FROM answers ans JOIN attempts att ON att.id = ans.attempt_id
		 WHERE att.user_id = $1 AND att.quiz_id = $2 ORDER BY ans.answered_at, ans.id`,
		userID, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer ansRows.Close()

	for ansRows.Next() {
		var ans models.Answer
		err := ansRows.Scan(&ans.ID, &ans.AttemptID, &ans.QuestionID, &ans.SelectedOptionID, &ans.IsCorrect, &ans.AnsweredAt)
		if err != nil {
			return nil, err
		}
		if a, ok := byID[ans.AttemptID]; ok {
			a.Answers = append(a.Answers, ans)
		}
	}
	return attempts, ansRows.Err()
}

// GetAnswer looks up the current answer for (attempt, question) inside the
// submit transaction. pgx.ErrNoRows means the question has not been answered.
func (r *AttemptRepo) GetAnswer(ctx context.Context, tx pgx.Tx, attemptID, questionID uuid.UUID) (*models.Answer, error) {
	a := &models.Answer{}
	err := tx.QueryRow(ctx,
		"SELECT id, attempt_id, question_id, selected_option_id, is_correct, answered_at FROM answers WHERE attempt_id = $1 AND question_id = $2",
		attemptID, questionID,
	).Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.SelectedOptionID, &a.IsCorrect, &a.AnsweredAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SaveAnswer upserts on the (attempt_id, question_id) unique index. A
// concurrent duplicate first-answer therefore lands in the update branch
// instead of double-inserting.
func (r *AttemptRepo) SaveAnswer(ctx context.Context, tx pgx.Tx, a *models.Answer) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO answers (id, attempt_id, question_id, selected_option_id, is_correct, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (attempt_id, question_id)
		 DO UPDATE SET selected_option_id = EXCLUDED.selected_option_id,
		               is_correct = EXCLUDED.is_correct,
		               answered_at = EXCLUDED.answered_at`,
		a.ID, a.AttemptID, a.QuestionID, a.SelectedOptionID, a.IsCorrect, a.AnsweredAt,
	)
	return err
}

func (r *AttemptRepo) UpdateCounters(ctx context.Context, tx pgx.Tx, attemptID uuid.UUID, score, attemptedQuestions int) error {
	_, err := tx.Exec(ctx,
		"UPDATE attempts SET score = $1, attempted_questions = $2 WHERE id = $3",
		score, attemptedQuestions, attemptID,
	)
	return err
}

// Complete marks the attempt finished. Returns false when the attempt was
// already completed (or gone), so the caller can report a conflict.
func (r *AttemptRepo) Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"UPDATE attempts SET is_completed = TRUE, completed_at = $1 WHERE id = $2 AND NOT is_completed",
		completedAt, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
