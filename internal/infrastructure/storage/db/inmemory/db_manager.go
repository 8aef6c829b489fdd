package inmemory

import (
	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
)

type RepoManager struct {
	trackedAccountRepository domain.TrackedAccountRepository
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		trackedAccountRepository: NewTrackedAccountRepositoryImpl(),
	}
}

func (d *RepoManager) TrackedAccountRepository() domain.TrackedAccountRepository {
	return d.trackedAccountRepository
}

func (d *RepoManager) Close() {}
