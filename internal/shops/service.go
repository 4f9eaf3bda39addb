package shops

import "context"

// Service handles the admin shop read model.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListShops returns a filtered page of shops and the total match count.
func (s *Service) ListShops(ctx context.Context, filter ListFilter) ([]AdminShop, int, error) {
	return s.repo.ListShops(ctx, filter)
}

// GetShop returns one shop with its owner's username.
func (s *Service) GetShop(ctx context.Context, id int64) (AdminShop, error) {
	return s.repo.GetShop(ctx, id)
}

// DependentCounts previews the blast radius of deleting the shop.
func (s *Service) DependentCounts(ctx context.Context, shopID int64) (DependentCounts, error) {
	if _, err := s.repo.GetShop(ctx, shopID); err != nil {
		return DependentCounts{}, err
	}
	return s.repo.CountDependents(ctx, shopID)
}
