package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizforge-backend/internal/models"
)

// QuestionRepo owns the write paths for questions and their options.
type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

// Create inserts the question together with its options in one transaction.
func (r *QuestionRepo) Create(ctx context.Context, q *models.Question, options []models.Option) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q.ID = uuid.New()
	_, err = tx.Exec(ctx,
		"INSERT INTO questions (id, quiz_id, title, order_number) VALUES ($1, $2, $3, $4)",
		q.ID, q.QuizID, q.Title, q.OrderNumber,
	)
	if err != nil {
		return err
	}

	for i := range options {
		options[i].ID = uuid.New()
		options[i].QuestionID = q.ID
		_, err = tx.Exec(ctx,
			"INSERT INTO options (id, question_id, option_text, is_correct) VALUES ($1, $2, $3, $4)",
			options[i].ID, options[i].QuestionID, options[i].OptionText, options[i].IsCorrect,
		)
		if err != nil {
			return err
		}
	}
	q.Options = options

	return tx.Commit(ctx)
}

func (r *QuestionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q := &models.Question{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, quiz_id, title, order_number FROM questions WHERE id = $1", id,
	).Scan(&q.ID, &q.QuizID, &q.Title, &q.OrderNumber)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByQuizAndTitle matches case-insensitively within one quiz.
func (r *QuestionRepo) GetByQuizAndTitle(ctx context.Context, quizID uuid.UUID, title string) (*models.Question, error) {
	q := &models.Question{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, quiz_id, title, order_number FROM questions WHERE quiz_id = $1 AND LOWER(title) = LOWER($2)",
		quizID, title,
	).Scan(&q.ID, &q.QuizID, &q.Title, &q.OrderNumber)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByQuiz returns questions in display order with their options attached.
func (r *QuestionRepo) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.Question, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, quiz_id, title, order_number FROM questions WHERE quiz_id = $1 ORDER BY order_number, id",
		quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*models.Question
	byID := make(map[uuid.UUID]*models.Question)
	for rows.Next() {
		q := &models.Question{}
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Title, &q.OrderNumber); err != nil {
			return nil, err
		}
		questions = append(questions, q)
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.option_text, o.is_correct
		 FROM options o JOIN questions q ON q.id = o.question_id
		 WHERE q.quiz_id = $1 ORDER BY o.id`,
		quizID,
	)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o models.Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect); err != nil {
			return nil, err
		}
		if q, ok := byID[o.QuestionID]; ok {
			q.Options = append(q.Options, o)
		}
	}
	return questions, optRows.Err()
}

func (r *QuestionRepo) Update(ctx context.Context, q *models.Question) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE questions SET title = $1, order_number = $2 WHERE id = $3",
		q.Title, q.OrderNumber, q.ID,
	)
	return err
}

func (r *QuestionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM questions WHERE id = $1", id)
	return err
}

// HasAnswers reports whether any recorded answer references the question.
// Deleting such a question would corrupt attempt history, so callers refuse.
func (r *QuestionRepo) HasAnswers(ctx context.Context, questionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM answers WHERE question_id = $1)", questionID,
	).Scan(&exists)
	return exists, err
}

// Options

func (r *QuestionRepo) AddOption(ctx context.Context, o *models.Option) error {
	o.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		"INSERT INTO options (id, question_id, option_text, is_correct) VALUES ($1, $2, $3, $4)",
		o.ID, o.QuestionID, o.OptionText, o.IsCorrect,
	)
	return err
}

func (r *QuestionRepo) GetOptionByID(ctx context.Context, id uuid.UUID) (*models.Option, error) {
	o := &models.Option{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, question_id, option_text, is_correct FROM options WHERE id = $1", id,
	).Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *QuestionRepo) GetOptionByText(ctx context.Context, questionID uuid.UUID, text string) (*models.Option, error) {
	o := &models.Option{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, question_id, option_text, is_correct FROM options WHERE question_id = $1 AND LOWER(option_text) = LOWER($2)",
		questionID, text,
	).Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *QuestionRepo) ListOptions(ctx context.Context, questionID uuid.UUID) ([]models.Option, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, question_id, option_text, is_correct FROM options WHERE question_id = $1 ORDER BY id",
		questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []models.Option
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *QuestionRepo) UpdateOption(ctx context.Context, o *models.Option) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE options SET option_text = $1, is_correct = $2 WHERE id = $3",
		o.OptionText, o.IsCorrect, o.ID,
	)
	return err
}

func (r *QuestionRepo) DeleteOption(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM options WHERE id = $1", id)
	return err
}

func (r *QuestionRepo) CountOptions(ctx context.Context, questionID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM options WHERE question_id = $1", questionID,
	).Scan(&count)
	return count, err
}

func (r *QuestionRepo) CountCorrectOptions(ctx context.Context, questionID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM options WHERE question_id = $1 AND is_correct", questionID,
	).Scan(&count)
	return count, err
}

// OptionHasAnswers reports whether any recorded answer selected the option.
func (r *QuestionRepo) OptionHasAnswers(ctx context.Context, optionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM answers WHERE selected_option_id = $1)", optionID,
	).Scan(&exists)
	return exists, err
}
