package users

import "context"

// Service handles the admin user read model.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns a filtered page of users and the total match count.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]AdminUser, int, error) {
	return s.repo.ListUsers(ctx, filter)
}

// GetUser returns one user with approved role names.
func (s *Service) GetUser(ctx context.Context, id int64) (AdminUser, error) {
	return s.repo.GetUser(ctx, id)
}

// DependentCounts previews the blast radius of deleting the user.
func (s *Service) DependentCounts(ctx context.Context, userID int64) (DependentCounts, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return DependentCounts{}, err
	}
	return s.repo.CountDependents(ctx, userID)
}
