package service

import (
	"context"
	"fmt"

	"github.com/arjndr/postpilot/internal/models"
	"github.com/arjndr/postpilot/internal/repository"
)

type CapturedPostService interface {
	List(ctx context.Context, userID int64) ([]*models.CapturedPost, error)
}

type capturedPostService struct {
	cp repository.CapturedPostRepository
}

func NewCapturedPostService(cp repository.CapturedPostRepository) CapturedPostService {
	return &capturedPostService{cp: cp}
}

func (s *capturedPostService) List(ctx context.Context, userID int64) ([]*models.CapturedPost, error) {
	posts, err := s.cp.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing captured posts")
	}
	return posts, nil
}
