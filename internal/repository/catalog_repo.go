package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizforge-backend/internal/models"
)

// CatalogRepo is the read-only view of quizzes, questions and options that
// the attempt engine grades against. It never writes.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

func (r *CatalogRepo) GetQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q := &models.Quiz{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, title, description, topic_id, time_limit_minutes, difficulty, created_at, updated_at FROM quizzes WHERE id = $1",
		id,
	).Scan(
		&q.ID, &q.Title, &q.Description, &q.TopicID, &q.TimeLimitMinutes,
		&q.Difficulty, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuestionByID loads the question with its full option list, ordered by
// option id so the canonical correct option is a deterministic pick.
func (r *CatalogRepo) GetQuestionByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q := &models.Question{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, quiz_id, title, order_number FROM questions WHERE id = $1", id,
	).Scan(&q.ID, &q.QuizID, &q.Title, &q.OrderNumber)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		"SELECT id, question_id, option_text, is_correct FROM options WHERE question_id = $1 ORDER BY id",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect); err != nil {
			return nil, err
		}
		q.Options = append(q.Options, o)
	}
	return q, rows.Err()
}

func (r *CatalogRepo) GetOptionByID(ctx context.Context, id uuid.UUID) (*models.Option, error) {
	o := &models.Option{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, question_id, option_text, is_correct FROM options WHERE id = $1", id,
	).Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *CatalogRepo) CountQuestions(ctx context.Context, quizID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM questions WHERE quiz_id = $1", quizID).Scan(&count)
	return count, err
}
