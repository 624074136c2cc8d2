package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/repository"
)

// CleanupJob periodically purges rows that only matter while fresh:
// expired sessions, abandoned unconfirmed Telegram links and stale
// OAuth state rows. Correctness never depends on this running; every
// read path re-checks expiry itself.
type CleanupJob struct {
	sessionRepo    repository.SessionRepository
	linkRepo       repository.TelegramLinkRepository
	oauthStateRepo repository.OAuthStateRepository
	interval       time.Duration
	done           chan struct{}
}

func NewCleanupJob(
	sessionRepo repository.SessionRepository,
	linkRepo repository.TelegramLinkRepository,
	oauthStateRepo repository.OAuthStateRepository,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo:    sessionRepo,
		linkRepo:       linkRepo,
		oauthStateRepo: oauthStateRepo,
		interval:       interval,
		done:           make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "sessions", j.sessionRepo.DeleteExpired)
	j.runCleanup(ctx, "telegram links", j.linkRepo.DeleteExpired)
	j.runCleanup(ctx, "oauth states", j.oauthStateRepo.DeleteExpired)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
