package service

import (
	"github.com/quillwiki/quillwiki/wiki"
	"github.com/quillwiki/quillwiki/wiki/repository"
)

// Stats aggregates site totals for the admin dashboard.
type Stats struct {
	Pages      map[string]int
	Users      map[string]int
	Moderation map[string]int
}

// TotalPages sums pages across all statuses.
func (s *Stats) TotalPages() int { return total(s.Pages) }

// TotalUsers sums registered users across all roles.
func (s *Stats) TotalUsers() int { return total(s.Users) }

// TotalModeration sums moderation items across all statuses.
func (s *Stats) TotalModeration() int { return total(s.Moderation) }

func total(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

// StatsService computes dashboard statistics.
type StatsService interface {
	// GetStats returns page, user, and moderation totals grouped by
	// status/role. Reviewer access required.
	GetStats(actor *wiki.User) (*Stats, error)
}

// statsService is the default implementation of StatsService.
type statsService struct {
	pages      repository.PageRepository
	users      repository.UserRepository
	moderation repository.ModerationRepository
}

// NewStatsService creates a new StatsService.
func NewStatsService(pages repository.PageRepository, users repository.UserRepository, moderation repository.ModerationRepository) StatsService {
	return &statsService{
		pages:      pages,
		users:      users,
		moderation: moderation,
	}
}

// GetStats returns page, user, and moderation totals.
func (s *statsService) GetStats(actor *wiki.User) (*Stats, error) {
	if actor.IsAnonymous() {
		return nil, wiki.ErrNotAuthenticated
	}
	if !wiki.Authorize(actor, wiki.ActionReview, nil) {
		return nil, wiki.ErrPermissionDenied
	}

	pages, err := s.pages.CountPagesByStatus()
	if err != nil {
		return nil, err
	}
	users, err := s.users.CountUsersByRole()
	if err != nil {
		return nil, err
	}
	moderation, err := s.moderation.CountItemsByStatus()
	if err != nil {
		return nil, err
	}

	return &Stats{Pages: pages, Users: users, Moderation: moderation}, nil
}
