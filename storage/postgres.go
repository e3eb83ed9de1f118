package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jkobber/bubble-quiz/domain"
)

// DefaultCollection receives questions imported without a collection name.
const DefaultCollection = "default"

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Ping(ctx context.Context) error {
	return pgr.pool.Ping(ctx)
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

func wrapErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}

func (pgr *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{Username: username}

	row := pgr.pool.QueryRow(ctx, "SELECT id, password_hash, role FROM users WHERE username = $1", username)

	err := row.Scan(&user.Id, &user.PasswordHash, &user.Role)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, wrapErr(err)
	}

	return user, nil
}

func (pgr *PostgresRepo) GetUserById(ctx context.Context, id string) (domain.User, error) {
	user := domain.User{Id: id}

	row := pgr.pool.QueryRow(ctx, "SELECT username, password_hash, role FROM users WHERE id = $1", id)

	err := row.Scan(&user.Username, &user.PasswordHash, &user.Role)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, domain.ErrUserNotFound
		// "22P02" is invalid_text_representation, i.e. not a uuid
		case errors.As(err, &pgErr) && pgErr.Code == "22P02":
			return domain.User{}, domain.ErrUserNotFound
		default:
			return domain.User{}, wrapErr(err)
		}
	}

	return user, nil
}

func (pgr *PostgresRepo) CreateUser(ctx context.Context, username string, passwordHash string) (string, error) {
	row := pgr.pool.QueryRow(ctx, "INSERT INTO users(username, password_hash) VALUES($1, $2) RETURNING id", username, passwordHash)

	var id string
	err := row.Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// "23505" is the PostgreSQL error code for unique_violation
			if pgErr.Code == "23505" {
				return "", domain.ErrDuplicateUsername
			}
		}
		return "", wrapErr(err)
	}

	return id, nil
}

func (pgr *PostgresRepo) SetUserRole(ctx context.Context, username, role string) error {
	tag, err := pgr.pool.Exec(ctx, "UPDATE users SET role = $2 WHERE username = $1", username, role)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// GetQuestionsByIds returns the live questions among ids, in no particular order.
func (pgr *PostgresRepo) GetQuestionsByIds(ctx context.Context, ids []int64) ([]domain.Question, error) {
	rows, err := pgr.pool.Query(ctx, `
		SELECT id, text, options, correct_index
		FROM questions
		WHERE id = ANY($1) AND deleted_at IS NULL`, ids)
	if err != nil {
		return nil, wrapErr(err)
	}

	questions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Question, error) {
		var q domain.Question
		var correct int16
		err := row.Scan(&q.Id, &q.Text, &q.Options, &correct)
		q.CorrectIndex = int(correct)
		return q, err
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return questions, nil
}

func (pgr *PostgresRepo) QuestionIdsByCollections(ctx context.Context, collectionIds []int64) (map[int64][]int64, error) {
	rows, err := pgr.pool.Query(ctx, `
		SELECT cq.collection_id, q.id
		FROM collection_questions cq
		JOIN questions q ON q.id = cq.question_id
		WHERE cq.collection_id = ANY($1) AND q.deleted_at IS NULL
		ORDER BY cq.collection_id, q.id`, collectionIds)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	byCollection := make(map[int64][]int64, len(collectionIds))
	for rows.Next() {
		var collectionId, questionId int64
		if err := rows.Scan(&collectionId, &questionId); err != nil {
			return nil, wrapErr(err)
		}
		byCollection[collectionId] = append(byCollection[collectionId], questionId)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return byCollection, nil
}

func (pgr *PostgresRepo) QuestionIdsByTags(ctx context.Context, tagIds []int64) ([]int64, error) {
	return pgr.collectIds(ctx, `
		SELECT DISTINCT q.id
		FROM question_tags qt
		JOIN questions q ON q.id = qt.question_id
		WHERE qt.tag_id = ANY($1) AND q.deleted_at IS NULL
		ORDER BY q.id`, tagIds)
}

func (pgr *PostgresRepo) AllQuestionIds(ctx context.Context) ([]int64, error) {
	return pgr.collectIds(ctx, "SELECT id FROM questions WHERE deleted_at IS NULL ORDER BY id")
}

func (pgr *PostgresRepo) collectIds(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := pgr.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, wrapErr(err)
	}
	return ids, nil
}

func (pgr *PostgresRepo) CountQuestions(ctx context.Context) (int, error) {
	var n int
	err := pgr.pool.QueryRow(ctx, "SELECT count(*) FROM questions WHERE deleted_at IS NULL").Scan(&n)
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// DeleteQuestion soft-deletes a question. Rooms that already scheduled it
// end their game when they reach it.
func (pgr *PostgresRepo) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := pgr.pool.Exec(ctx, "UPDATE questions SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (pgr *PostgresRepo) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	rows, err := pgr.pool.Query(ctx, `
		SELECT c.id, c.name, count(q.id)
		FROM collections c
		LEFT JOIN collection_questions cq ON cq.collection_id = c.id
		LEFT JOIN questions q ON q.id = cq.question_id AND q.deleted_at IS NULL
		GROUP BY c.id
		ORDER BY c.name`)
	if err != nil {
		return nil, wrapErr(err)
	}
	collections, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Collection])
	if err != nil {
		return nil, wrapErr(err)
	}
	return collections, nil
}

func (pgr *PostgresRepo) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := pgr.pool.Query(ctx, `
		SELECT t.id, t.name, count(q.id)
		FROM tags t
		LEFT JOIN question_tags qt ON qt.tag_id = t.id
		LEFT JOIN questions q ON q.id = qt.question_id AND q.deleted_at IS NULL
		GROUP BY t.id
		ORDER BY t.name`)
	if err != nil {
		return nil, wrapErr(err)
	}
	tags, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Tag])
	if err != nil {
		return nil, wrapErr(err)
	}
	return tags, nil
}

// ImportQuestions stores questions in one transaction, adding them to the
// named collection and tagging them with tags. Collections and tags are
// created on first use.
func (pgr *PostgresRepo) ImportQuestions(ctx context.Context, collection string, tags []string, questions []domain.Question) (int, error) {
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("question %d: %w", i+1, err)
		}
	}

	err := pgx.BeginFunc(ctx, pgr.pool, func(tx pgx.Tx) error {
		var collectionId int64
		err := tx.QueryRow(ctx, `
			INSERT INTO collections(name) VALUES($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, collection).Scan(&collectionId)
		if err != nil {
			return err
		}

		tagIds := make([]int64, 0, len(tags))
		for _, tag := range tags {
			var tagId int64
			err := tx.QueryRow(ctx, `
				INSERT INTO tags(name) VALUES($1)
				ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				RETURNING id`, tag).Scan(&tagId)
			if err != nil {
				return err
			}
			tagIds = append(tagIds, tagId)
		}

		for _, q := range questions {
			var questionId int64
			err := tx.QueryRow(ctx,
				"INSERT INTO questions(text, options, correct_index) VALUES($1, $2, $3) RETURNING id",
				q.Text, q.Options, q.CorrectIndex).Scan(&questionId)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				"INSERT INTO collection_questions(collection_id, question_id) VALUES($1, $2)",
				collectionId, questionId); err != nil {
				return err
			}
			for _, tagId := range tagIds {
				if _, err := tx.Exec(ctx,
					"INSERT INTO question_tags(tag_id, question_id) VALUES($1, $2)",
					tagId, questionId); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, wrapErr(err)
	}
	return len(questions), nil
}
