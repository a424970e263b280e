package service

import (
	"context"

	"socialdeck/internal/models"
	"socialdeck/internal/observability"
	"socialdeck/internal/repository"
)

// ConnectionService tracks which social accounts a user has marked connected.
// No OAuth happens here; the flag is all there is.
type ConnectionService struct {
	repo  repository.ConnectionRepository
	locks keyedMutex
	log   *observability.StoreLogger
}

func NewConnectionService(repo repository.ConnectionRepository) *ConnectionService {
	return &ConnectionService{repo: repo, log: observability.NewStoreLogger("connections")}
}

// List returns every platform with its connected flag.
func (s *ConnectionService) List(ctx context.Context, session models.Session) ([]models.PlatformConnection, error) {
	connected, err := s.repo.Load(ctx, session.UserID)
	if err != nil {
		s.log.LogError(ctx, err, "read", session.UserID)
		return nil, models.NewInternalError(err)
	}
	return connectionList(connected), nil
}

// Toggle flips the flag of platform and persists the map.
func (s *ConnectionService) Toggle(ctx context.Context, session models.Session, platform string) ([]models.PlatformConnection, error) {
	p, ok := models.ParsePlatform(platform)
	if !ok {
		return nil, models.NewValidationError("Unsupported platform: " + platform)
	}

	unlock := s.locks.Lock(session.UserID)
	defer unlock()

	connected, err := s.repo.Load(ctx, session.UserID)
	if err != nil {
		s.log.LogError(ctx, err, "read", session.UserID)
		return nil, models.NewInternalError(err)
	}
	connected[p] = !connected[p]

	if err := s.repo.Save(ctx, session.UserID, connected); err != nil {
		s.log.LogError(ctx, models.NewPersistenceError("connections", err), "write", session.UserID)
		observability.PersistenceFailures.WithLabelValues("connections", "primary").Inc()
	}
	return connectionList(connected), nil
}

func connectionList(connected map[models.Platform]bool) []models.PlatformConnection {
	out := make([]models.PlatformConnection, 0, len(models.AllPlatforms))
	for _, p := range models.AllPlatforms {
		out = append(out, models.PlatformConnection{Platform: p, Connected: connected[p]})
	}
	return out
}
