package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizforge-backend/internal/models"
)

type TopicRepo struct {
	pool *pgxpool.Pool
}

func NewTopicRepo(pool *pgxpool.Pool) *TopicRepo {
	return &TopicRepo{pool: pool}
}

func (r *TopicRepo) Create(ctx context.Context, t *models.Topic) error {
	t.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		"INSERT INTO topics (id, name, description) VALUES ($1, $2, $3)",
		t.ID, t.Name, t.Description,
	)
	return err
}

func (r *TopicRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	t := &models.Topic{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, name, description FROM topics WHERE id = $1", id,
	).Scan(&t.ID, &t.Name, &t.Description)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TopicRepo) List(ctx context.Context) ([]*models.Topic, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, description FROM topics ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []*models.Topic
	for rows.Next() {
		t := &models.Topic{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// GetByName matches case-insensitively; topic names are unique that way.
func (r *TopicRepo) GetByName(ctx context.Context, name string) (*models.Topic, error) {
	t := &models.Topic{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, name, description FROM topics WHERE LOWER(name) = LOWER($1)", name,
	).Scan(&t.ID, &t.Name, &t.Description)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TopicRepo) Update(ctx context.Context, t *models.Topic) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE topics SET name = $1, description = $2 WHERE id = $3",
		t.Name, t.Description, t.ID,
	)
	return err
}

func (r *TopicRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM topics WHERE id = $1", id)
	return err
}

func (r *TopicRepo) CountQuizzes(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quizzes WHERE topic_id = $1", id).Scan(&count)
	return count, err
}
