package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/postboard/internal/apperror"
	"github.com/sakif/postboard/internal/model"
	"github.com/sakif/postboard/internal/repository"
)

// Post validation constants.
const (
	MinTitleLength       = 5
	MaxTitleLength       = 200
	MinBodyLength        = 20
	MaxBodyLength        = 100000
	MaxDescriptionLength = 1000
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// PostService handles business logic for posts: CRUD with author-only
// mutation, plus the like/unlike engagement transitions.
type PostService struct {
	repo   repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(repo repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new post authored by authorID.
// The author is fixed at creation and never changes afterwards.
func (s *PostService) Create(ctx context.Context, authorID, title, description, body string) (*model.Post, error) {
	if authorID == "" {
		return nil, apperror.ValidationFailed("author", "author is required")
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	body = strings.TrimSpace(body)

	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if err := validateBody(body); err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:       title,
		Description: description,
		Body:        body,
		Author:      authorID,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("author", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("author", post.Author),
	)

	return post, nil
}

// GetByID retrieves a post by its ID.
// Returns apperror.ErrNotFound if the post doesn't exist.
func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List retrieves posts with pagination, newest first. Public — no auth.
func (s *PostService) List(ctx context.Context, limit, offset int) ([]model.Post, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	return posts, nil
}

// Update applies a whitelisted set of changes to a post. Allowed keys:
// title, description, body. Only the author may edit.
//
// A non-author gets NotFound rather than Forbidden — the API has never
// revealed whether someone else's post ID exists, and editing and fetching
// keep the same failure shape.
func (s *PostService) Update(ctx context.Context, id, editorID string, updates map[string]string) (*model.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	if len(updates) == 0 {
		return nil, apperror.ValidationFailed("", "no updates provided")
	}
	for key := range updates {
		switch key {
		case "title", "description", "body":
		default:
			return nil, apperror.ValidationFailed(key, fmt.Sprintf("field %q cannot be updated", key))
		}
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Author != editorID {
		return nil, apperror.NotFound("post", id)
	}

	if title, ok := updates["title"]; ok {
		title = strings.TrimSpace(title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		post.Title = title
	}
	if description, ok := updates["description"]; ok {
		description = strings.TrimSpace(description)
		if err := validateDescription(description); err != nil {
			return nil, err
		}
		post.Description = description
	}
	if body, ok := updates["body"]; ok {
		body = strings.TrimSpace(body)
		if err := validateBody(body); err != nil {
			return nil, err
		}
		post.Body = body
	}

	if err := s.repo.Update(ctx, post); err != nil {
		s.logger.Error("failed to update post",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post: %w", err)
	}

	s.logger.Info("post updated", slog.String("id", post.ID))
	return post, nil
}

// Delete removes a post. Only the author may delete; a non-author gets
// NotFound for the same reason as Update.
func (s *PostService) Delete(ctx context.Context, id, editorID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "post ID is required")
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.Author != editorID {
		return apperror.NotFound("post", id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.String("id", id),
		slog.String("author", editorID),
	)
	return nil
}

// Like records that userID likes the post and returns the updated record.
//
// Fails with apperror.ErrAlreadyLiked (no mutation) when the user already
// likes it. Any authenticated user may like any post, including their own.
func (s *PostService) Like(ctx context.Context, postID, userID string) (*model.Post, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}

	if err := s.repo.AddLike(ctx, postID, userID); err != nil {
		return nil, err
	}

	s.logger.Info("post liked",
		slog.String("postID", postID),
		slog.String("userID", userID),
	)

	return s.repo.GetByID(ctx, postID)
}

// Unlike removes userID's like from the post and returns the updated record.
//
// Fails with apperror.ErrNothingToUnlike (no mutation) when the user does
// not currently like the post — including when the post has zero likes.
func (s *PostService) Unlike(ctx context.Context, postID, userID string) (*model.Post, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}

	if err := s.repo.RemoveLike(ctx, postID, userID); err != nil {
		return nil, err
	}

	s.logger.Info("post unliked",
		slog.String("postID", postID),
		slog.String("userID", userID),
	)

	return s.repo.GetByID(ctx, postID)
}

func validateTitle(title string) error {
	if len(title) < MinTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be at least %d characters", MinTitleLength))
	}
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return nil
}

func validateDescription(description string) error {
	if description == "" {
		return apperror.ValidationFailed("description", "description is required")
	}
	if len(description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	return nil
}

func validateBody(body string) error {
	if len(body) < MinBodyLength {
		return apperror.ValidationFailed("body",
			fmt.Sprintf("body must be at least %d characters", MinBodyLength))
	}
	if len(body) > MaxBodyLength {
		return apperror.ValidationFailed("body",
			fmt.Sprintf("body must be %d characters or less", MaxBodyLength))
	}
	return nil
}
