package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/postboard/internal/apperror"
	"github.com/sakif/postboard/internal/model"
	"github.com/sakif/postboard/internal/repository"
)

// createTestPost creates a post (and its author) and fails the test if it
// errors. The author must exist first — posts carry a foreign key.
func createTestPost(t *testing.T, db *DB, title string) (*model.Post, *model.User) {
	t.Helper()
	author := createTestUser(t, db, "Author", fmt.Sprintf("%s@x.com", title))
	post := &model.Post{
		Title:       title,
		Description: "A short description",
		Body:        "A body that is comfortably over twenty characters long",
		Author:      author.ID,
	}
	if err := db.Posts.Create(context.Background(), post); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post, author
}

// likerCount reads the raw liker-row count, bypassing the likes column, so
// tests can check the two never drift apart.
func likerCount(t *testing.T, db *DB, postID string) int {
	t.Helper()
	var n int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM post_likes WHERE post_id = ?`, postID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("counting likers: %v", err)
	}
	return n
}

// assertInvariant checks likes == |likedBy| both in the returned model and
// between the posts.likes column and the post_likes rows.
func assertInvariant(t *testing.T, db *DB, postID string) {
	t.Helper()
	post, err := db.Posts.GetByID(context.Background(), postID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if post.Likes != len(post.LikedBy) {
		t.Fatalf("invariant broken: likes=%d, likedBy has %d entries", post.Likes, len(post.LikedBy))
	}
	if raw := likerCount(t, db, postID); post.Likes != raw {
		t.Fatalf("invariant broken: likes column=%d, liker rows=%d", post.Likes, raw)
	}
}

// =========================================================================
// CRUD TESTS
// =========================================================================

func TestPostCreate(t *testing.T) {
	db := newTestDB(t)
	post, author := createTestPost(t, db, "post-create")

	if post.ID == "" {
		t.Error("Create() did not set post.ID")
	}
	if post.Likes != 0 {
		t.Errorf("new post likes = %d, want 0", post.Likes)
	}
	if post.Author != author.ID {
		t.Errorf("post.Author = %q, want %q", post.Author, author.ID)
	}
}

func TestPostGetByID(t *testing.T) {
	db := newTestDB(t)
	created, _ := createTestPost(t, db, "post-get")

	found, err := db.Posts.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "post-get" {
		t.Errorf("Title = %q, want %q", found.Title, "post-get")
	}
	if found.LikedBy == nil {
		t.Error("LikedBy should be an empty slice, not nil, for JSON shape")
	}
}

func TestPostGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Posts.GetByID(context.Background(), "no-such-post")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestPostList(t *testing.T) {
	db := newTestDB(t)
	createTestPost(t, db, "list-post-one")
	createTestPost(t, db, "list-post-two")

	posts, err := db.Posts.List(context.Background(), repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("List() returned %d posts, want 2", len(posts))
	}
}

func TestPostUpdate_PreservesLikes(t *testing.T) {
	db := newTestDB(t)
	post, _ := createTestPost(t, db, "post-update")
	liker := createTestUser(t, db, "Liker", "liker-update@x.com")

	if err := db.Posts.AddLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("AddLike() error = %v", err)
	}

	post.Title = "post-update-edited"
	if err := db.Posts.Update(context.Background(), post); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, _ := db.Posts.GetByID(context.Background(), post.ID)
	if found.Title != "post-update-edited" {
		t.Errorf("Title = %q after update", found.Title)
	}
	if found.Likes != 1 {
		t.Errorf("Likes = %d after content update, want 1", found.Likes)
	}
}

func TestPostDelete_CascadesLikes(t *testing.T) {
	db := newTestDB(t)
	post, _ := createTestPost(t, db, "post-delete")
	liker := createTestUser(t, db, "Liker", "liker-delete@x.com")

	if err := db.Posts.AddLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("AddLike() error = %v", err)
	}

	if err := db.Posts.Delete(context.Background(), post.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.Posts.GetByID(context.Background(), post.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if n := likerCount(t, db, post.ID); n != 0 {
		t.Errorf("liker rows after delete = %d, want 0 (cascade)", n)
	}
}

// =========================================================================
// LIKE / UNLIKE TESTS
// =========================================================================

func TestAddLike(t *testing.T) {
	db := newTestDB(t)
	post, _ := createTestPost(t, db, "like-basic")
	liker := createTestUser(t, db, "Liker", "liker-basic@x.com")

	if err := db.Posts.AddLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("AddLike() error = %v", err)
	}

	found, _ := db.Posts.GetByID(context.Background(), post.ID)
	if found.Likes != 1 {
		t.Errorf("Likes = %d, want 1", found.Likes)
	}
	if len(found.LikedBy) != 1 || found.LikedBy[0] != liker.ID {
		t.Errorf("LikedBy = %v, want [%s]", found.LikedBy, liker.ID)
	}
	assertInvariant(t, db, post.ID)
}

func TestAddLike_TwiceIsRejectedWithoutMutation(t *testing.T) {
	db := newTestDB(t)
	post, _ := createTestPost(t, db, "like-twice")
	liker := createTestUser(t, db, "Liker", "liker-twice@x.com")

	if err := db.Posts.AddLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("first AddLike() error = %v", err)
	}

	err := db.Posts.AddLike(context.Background(), post.ID, liker.ID)
	if !errors.Is(err, apperror.ErrAlreadyLiked) {
		t.Errorf("second AddLike() error = %v, want ErrAlreadyLiked", err)
	}

	found, _ := db.Posts.GetByID(context.Background(), post.ID)
	if found.Likes != 1 {
		t.Errorf("Likes after rejected double-like = %d, want 1", found.Likes)
	}
	assertInvariant(t, db, post.ID)
}

func TestAddLike_UnknownPost(t *testing.T) {
	db := newTestDB(t)
	liker := createTestUser(t, db, "Liker", "liker-ghost@x.com")

	err := db.Posts.AddLike(context.Background(), "no-such-post", liker.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AddLike() on unknown post error = %v, want ErrNotFound", err)
	}
}

func TestRemoveLike(t *testing.T) {
	db := newTestDB(t)
	post, _ := createTestPost(t, db, "unlike-basic")
	liker := createTestUser(t, db, "Liker", "unliker-basic@x.com")

	if err := db.Posts.AddLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("AddLike() error = %v", err)
	}
	if err := db.Posts.RemoveLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("RemoveLike() error = %v", err)
	}

	found, _ := db.Posts.GetByID(context.Background(), post.ID)
	if found.Likes != 0 {
		t.Errorf("Likes = %d, want 0", found.Likes)
	}
	assertInvariant(t, db, post.ID)
}

func TestRemoveLike_WithZeroLikes(t *testing.T) {
	db := newTestDB(t)
	post, _ := createTestPost(t, db, "unlike-zero")
	notLiker := createTestUser(t, db, "NotLiker", "notliker-zero@x.com")

	err := db.Posts.RemoveLike(context.Background(), post.ID, notLiker.ID)
	if !errors.Is(err, apperror.ErrNothingToUnlike) {
		t.Errorf("RemoveLike() on unliked post error = %v, want ErrNothingToUnlike", err)
	}

	found, _ := db.Posts.GetByID(context.Background(), post.ID)
	if found.Likes != 0 {
		t.Errorf("Likes = %d, want 0 (never negative)", found.Likes)
	}
}

func TestRemoveLike_ByNonLikerPreservesOtherLikes(t *testing.T) {
	db := newTestDB(t)
	post, _ := createTestPost(t, db, "unlike-nonliker")
	liker := createTestUser(t, db, "Liker", "real-liker@x.com")
	other := createTestUser(t, db, "Other", "not-a-liker@x.com")

	if err := db.Posts.AddLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("AddLike() error = %v", err)
	}

	err := db.Posts.RemoveLike(context.Background(), post.ID, other.ID)
	if !errors.Is(err, apperror.ErrNothingToUnlike) {
		t.Errorf("RemoveLike() by non-liker error = %v, want ErrNothingToUnlike", err)
	}

	// The real liker's like must be intact
	found, _ := db.Posts.GetByID(context.Background(), post.ID)
	if found.Likes != 1 || len(found.LikedBy) != 1 || found.LikedBy[0] != liker.ID {
		t.Errorf("post state disturbed by rejected unlike: likes=%d likedBy=%v", found.Likes, found.LikedBy)
	}
	assertInvariant(t, db, post.ID)
}

func TestLikeUnlike_InvariantHoldsAcrossSequence(t *testing.T) {
	db := newTestDB(t)
	post, _ := createTestPost(t, db, "like-sequence")

	likers := make([]*model.User, 3)
	for i := range likers {
		likers[i] = createTestUser(t, db, "Liker",
			fmt.Sprintf("sequence-liker-%d@x.com", i))
	}

	ctx := context.Background()

	// like, like, duplicate like, unlike, duplicate unlike, like
	db.Posts.AddLike(ctx, post.ID, likers[0].ID)
	assertInvariant(t, db, post.ID)
	db.Posts.AddLike(ctx, post.ID, likers[1].ID)
	assertInvariant(t, db, post.ID)
	db.Posts.AddLike(ctx, post.ID, likers[0].ID) // rejected
	assertInvariant(t, db, post.ID)
	db.Posts.RemoveLike(ctx, post.ID, likers[0].ID)
	assertInvariant(t, db, post.ID)
	db.Posts.RemoveLike(ctx, post.ID, likers[0].ID) // rejected
	assertInvariant(t, db, post.ID)
	db.Posts.AddLike(ctx, post.ID, likers[2].ID)
	assertInvariant(t, db, post.ID)

	found, _ := db.Posts.GetByID(ctx, post.ID)
	if found.Likes != 2 {
		t.Errorf("final likes = %d, want 2", found.Likes)
	}
}
