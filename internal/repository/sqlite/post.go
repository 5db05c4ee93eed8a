package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/postboard/internal/apperror"
	"github.com/sakif/postboard/internal/model"
	"github.com/sakif/postboard/internal/repository"
)

// PostStore implements repository.PostRepository over the shared connection.
type PostStore struct {
	conn *sql.DB
}

var _ repository.PostRepository = (*PostStore)(nil)

// Create inserts a new post. The caller sets Author; ID and timestamps are
// filled in here and reflected back through the pointer.
func (s *PostStore) Create(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Likes = 0
	post.LikedBy = []string{}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, description, body, likes, author, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Description,
		post.Body,
		post.Author,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	return nil
}

// GetByID retrieves a single post with its liker set.
// Returns apperror.ErrNotFound if the post doesn't exist.
func (s *PostStore) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, title, description, body, likes, author, created_at, updated_at
		 FROM posts
		 WHERE id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Body,
		&p.Likes,
		&p.Author,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	likedBy, err := s.likersOf(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.LikedBy = likedBy

	return &p, nil
}

// List retrieves posts newest-first with their liker sets.
func (s *PostStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, description, body, likes, author, created_at, updated_at
		 FROM posts
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, limit)

	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Body,
			&p.Likes, &p.Author, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	for i := range posts {
		likedBy, err := s.likersOf(ctx, posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].LikedBy = likedBy
	}

	return posts, nil
}

// Update rewrites a post's editable fields (title, description, body).
// The author, likes counter, and liker set are untouched.
func (s *PostStore) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE posts
		 SET title = ?, description = ?, body = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title,
		post.Description,
		post.Body,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// Delete removes a post. The ON DELETE CASCADE on post_likes removes the
// liker rows with it.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}

// AddLike records that userID likes postID, as one atomic transition.
//
// The INSERT OR IGNORE against the (post_id, user_id) primary key is the
// conditional part: if the row already exists nothing is inserted, zero rows
// are affected, and we reject with AlreadyLiked WITHOUT moving the counter.
// Only when the membership row actually lands does the counter increment —
// in the same transaction — so likes always equals the liker-row count.
func (s *PostStore) AddLike(ctx context.Context, postID, userID string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning like tx: %w", err)
	}
	defer tx.Rollback()

	if err := postExists(ctx, tx, postID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO post_likes (post_id, user_id) VALUES (?, ?)`,
		postID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting like on post %s: %w", postID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.AlreadyLiked(postID)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET likes = likes + 1 WHERE id = ?`, postID,
	); err != nil {
		return fmt.Errorf("sqlite: incrementing likes on post %s: %w", postID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing like on post %s: %w", postID, err)
	}
	return nil
}

// RemoveLike removes userID's like from postID, as one atomic transition.
//
// Mirror of AddLike: the DELETE only affects a row when the user actually
// likes the post. Zero rows affected means there is nothing to unlike —
// whether the post has no likes at all or this user just isn't a liker —
// and the counter is left alone, so it can never go negative or drift from
// the liker-row count.
func (s *PostStore) RemoveLike(ctx context.Context, postID, userID string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning unlike tx: %w", err)
	}
	defer tx.Rollback()

	if err := postExists(ctx, tx, postID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`,
		postID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting like on post %s: %w", postID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NothingToUnlike(postID)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET likes = likes - 1 WHERE id = ? AND likes > 0`, postID,
	); err != nil {
		return fmt.Errorf("sqlite: decrementing likes on post %s: %w", postID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing unlike on post %s: %w", postID, err)
	}
	return nil
}

func postExists(ctx context.Context, tx *sql.Tx, postID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, postID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("post", postID)
		}
		return fmt.Errorf("sqlite: checking post %s: %w", postID, err)
	}
	return nil
}

// likersOf returns the liker set for a post, ordered by user ID for a
// stable JSON representation.
func (s *PostStore) likersOf(ctx context.Context, postID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY user_id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing likers of post %s: %w", postID, err)
	}
	defer rows.Close()

	likedBy := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning liker row: %w", err)
		}
		likedBy = append(likedBy, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating likers: %w", err)
	}

	return likedBy, nil
}
