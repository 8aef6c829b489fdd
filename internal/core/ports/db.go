package ports

import (
	"github.com/polling-network/polling-daemon/internal/core/domain"
)

// RepoManager gives access to the persisted repositories.
type RepoManager interface {
	TrackedAccountRepository() domain.TrackedAccountRepository
	Close()
}
