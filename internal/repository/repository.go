// Package repository defines the narrow store interfaces the services and
// middleware depend on. Concrete implementations live in subpackages
// (currently sqlite); tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/postboard/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user accounts.
//
// Create and Update surface apperror.ErrConflict on a duplicate email —
// email uniqueness is enforced at write time. UpdateToken exists separately
// from Update so that login/logout only touch the token column and never
// accidentally rewrite credentials.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateToken(ctx context.Context, id, token string) error
}

// PostRepository persists posts and their liker sets.
//
// AddLike and RemoveLike are atomic conditional updates: the liker-set
// membership check and the counter movement happen in one transaction, so
// likes == |likedBy| cannot drift under concurrent requests. AddLike fails
// with apperror.ErrAlreadyLiked when the user already likes the post;
// RemoveLike fails with apperror.ErrNothingToUnlike when they don't.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, opts ListOptions) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
}
