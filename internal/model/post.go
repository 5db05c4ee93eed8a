package model

import "time"

// Post represents a text post authored by a user.
//
// Likes and LikedBy are two views of the same fact and must never disagree:
// Likes == len(LikedBy) at all times. The repository enforces this by only
// moving the counter inside the same transaction that inserts or deletes a
// liker row, so the invariant holds even under concurrent like/unlike
// requests against the same post.
//
// Author is set at creation and immutable — only the author may edit or
// delete the post, while any authenticated user may like/unlike it.
type Post struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"` // min length 5
	Description string    `json:"description" db:"description"`
	Body        string    `json:"body"        db:"body"` // min length 20
	Likes       int       `json:"likes"       db:"likes"`
	LikedBy     []string  `json:"likedBy"`                // user IDs, each at most once
	Author      string    `json:"author"      db:"author"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
