package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/socialqueue/pipeline/internal/models"
)

// ErrInvalidTransition is returned when a status write is rejected because
// the post is not in a state the target status may be reached from. Writes
// validate the transition table here rather than trusting callers.
var ErrInvalidTransition = fmt.Errorf("post status transition not allowed")

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) (int64, error)
	ListQueuedByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	ListProcessingWithContainer(ctx context.Context) ([]*models.Post, error)
	UpdateSchedule(ctx context.Context, id int64, timeToPost time.Time, accessToken string) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetContainerID(ctx context.Context, id int64, containerID string) error
	SetCaptionAndMedia(ctx context.Context, id int64, caption string, mediaURLs []string) error
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, notion_page_id, account_id, platform, access_token, caption, time_to_post, media_urls, container_id, status, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.NotionPageID,
		&post.AccountID,
		&post.Platform,
		&post.AccessToken,
		&post.Caption,
		&post.TimeToPost,
		&post.MediaURLs,
		&post.ContainerID,
		&post.Status,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, notion_page_id, account_id, platform, access_token, caption, time_to_post, media_urls, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.UserID,
		post.NotionPageID,
		post.AccountID,
		post.Platform,
		post.AccessToken,
		post.Caption,
		post.TimeToPost,
		pq.Array([]string(post.MediaURLs)),
		models.PostStatusQueued,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListQueuedByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 AND status = $2`
	return r.list(ctx, query, userID, models.PostStatusQueued)
}

// ListProcessingWithContainer returns the posts the container sweep should
// re-poll: mid-publish with a platform container already created.
func (r *postRepository) ListProcessingWithContainer(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND container_id IS NOT NULL`
	return r.list(ctx, query, models.PostStatusProcessing)
}

func (r *postRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// UpdateSchedule refreshes a queued post's time and credential in place
// during reconciliation. Only QUEUED rows are eligible; a post that has
// entered the publish pipeline no longer follows the page.
func (r *postRepository) UpdateSchedule(ctx context.Context, id int64, timeToPost time.Time, accessToken string) error {
	query := `
		UPDATE posts
		SET time_to_post = $1, access_token = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	_, err := r.db.ExecContext(ctx, query, timeToPost, accessToken, time.Now(), id, models.PostStatusQueued)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateStatus advances the post's lifecycle. The UPDATE is conditional on
// the current status being a legal source for the target, so a stale or
// duplicate delivery cannot resurrect a terminal post.
func (r *postRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	sources := models.TransitionSources(status)
	if len(sources) == 0 {
		return ErrInvalidTransition
	}

	query := `
		UPDATE posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id, pq.Array(sources))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *postRepository) SetContainerID(ctx context.Context, id int64, containerID string) error {
	query := `UPDATE posts SET container_id = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, containerID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetCaptionAndMedia(ctx context.Context, id int64, caption string, mediaURLs []string) error {
	query := `UPDATE posts SET caption = $1, media_urls = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, caption, pq.Array(mediaURLs), time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1 AND status = $2`
	_, err := r.db.ExecContext(ctx, query, id, models.PostStatusQueued)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
