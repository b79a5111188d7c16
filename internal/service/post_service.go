package service

import (
	"context"
	"fmt"

	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"

	"github.com/google/uuid"
)

// PostService guards post mutations with the authorizer. Create needs only
// the role permission; update and delete also require ownership.
type PostService interface {
	GetAllPosts(ctx context.Context) ([]model.Post, error)
	CreatePost(ctx context.Context, actor *model.User, req *PostRequest) (*model.Post, error)
	UpdatePost(ctx context.Context, actor *model.User, id uuid.UUID, req *PostRequest) (*model.Post, error)
	DeletePost(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type PostRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

type postService struct {
	postRepo repository.PostRepository
	authz    Authorizer
}

func NewPostService(postRepo repository.PostRepository, authz Authorizer) PostService {
	return &postService{postRepo: postRepo, authz: authz}
}

func (s *postService) GetAllPosts(ctx context.Context) ([]model.Post, error) {
	return s.postRepo.FindAll(ctx)
}

func (s *postService) CreatePost(ctx context.Context, actor *model.User, req *PostRequest) (*model.Post, error) {
	if !s.authz.Can(ctx, actor, model.ActionCreate, model.ResourcePost, nil) {
		return nil, fmt.Errorf("%w: cannot create posts", ErrForbidden)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:   req.Title,
		Body:    req.Body,
		OwnerID: actor.ID,
	}
	post.CreatedBy = actor.ID.String()
	post.UpdatedBy = actor.ID.String()

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) UpdatePost(ctx context.Context, actor *model.User, id uuid.UUID, req *PostRequest) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(ctx, actor, model.ActionUpdate, model.ResourcePost, &post.OwnerID) {
		return nil, fmt.Errorf("%w: cannot update this post", ErrForbidden)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Body = req.Body
	post.UpdatedBy = actor.ID.String()
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, actor *model.User, id uuid.UUID) error {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.authz.Can(ctx, actor, model.ActionDelete, model.ResourcePost, &post.OwnerID) {
		return fmt.Errorf("%w: cannot delete this post", ErrForbidden)
	}
	return s.postRepo.Delete(ctx, id)
}
