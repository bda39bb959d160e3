package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizforge-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

const quizColumns = "id, title, description, topic_id, time_limit_minutes, difficulty, created_at, updated_at"

func (r *QuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	q.ID = uuid.New()
	query := `
		INSERT INTO quizzes (id, title, description, topic_id, time_limit_minutes, difficulty)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		q.ID, q.Title, q.Description, q.TopicID, q.TimeLimitMinutes, q.Difficulty,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
}

func (r *QuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q := &models.Quiz{}
	err := r.pool.QueryRow(ctx, "SELECT "+quizColumns+" FROM quizzes WHERE id = $1", id).Scan(
		&q.ID, &q.Title, &q.Description, &q.TopicID, &q.TimeLimitMinutes,
		&q.Difficulty, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QuizRepo) GetByTitle(ctx context.Context, title string) (*models.Quiz, error) {
	q := &models.Quiz{}
	err := r.pool.QueryRow(ctx,
		"SELECT "+quizColumns+" FROM quizzes WHERE LOWER(title) = LOWER($1)", title,
	).Scan(
		&q.ID, &q.Title, &q.Description, &q.TopicID, &q.TimeLimitMinutes,
		&q.Difficulty, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QuizRepo) List(ctx context.Context) ([]*models.Quiz, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+quizColumns+" FROM quizzes ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []*models.Quiz
	for rows.Next() {
		q := &models.Quiz{}
		err := rows.Scan(
			&q.ID, &q.Title, &q.Description, &q.TopicID, &q.TimeLimitMinutes,
			&q.Difficulty, &q.CreatedAt, &q.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// Update stamps updated_at server-side.
func (r *QuizRepo) Update(ctx context.Context, q *models.Quiz) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE quizzes SET title = $1, description = $2, time_limit_minutes = $3, difficulty = $4, updated_at = NOW()
		 WHERE id = $5 RETURNING updated_at`,
		q.Title, q.Description, q.TimeLimitMinutes, q.Difficulty, q.ID,
	).Scan(&q.UpdatedAt)
	return err
}

// Delete cascades to questions, options, attempts and answers.
func (r *QuizRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM quizzes WHERE id = $1", id)
	return err
}

func (r *QuizRepo) CountQuestions(ctx context.Context, quizID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM questions WHERE quiz_id = $1", quizID).Scan(&count)
	return count, err
}
