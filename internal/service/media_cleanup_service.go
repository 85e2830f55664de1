package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/pkg/jobs"
	"github.com/noah-isme/neolms-api/pkg/storage"
)

const mediaDeleteTimeout = 30 * time.Second

type objectDeleter interface {
	Delete(ctx context.Context, key string) error
}

type mediaReferences interface {
	MediaReferenced(ctx context.Context, key string) (bool, error)
}

// MediaCleanupService deletes stored objects that no course or lesson
// references any more. Deletion runs in the background and never fails the
// request that orphaned the object. References are checked when the job runs,
// after the orphaning write has committed.
type MediaCleanupService struct {
	store  objectDeleter
	refs   mediaReferences
	queue  *jobs.Queue[string]
	logger *zap.Logger
}

// NewMediaCleanupService constructs the service; Start must be called before
// scheduled keys are processed.
func NewMediaCleanupService(store objectDeleter, refs mediaReferences, logger *zap.Logger, cfg jobs.QueueConfig) *MediaCleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MediaCleanupService{store: store, refs: refs, logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue[string]("media-cleanup", s.delete, cfg)
	return s
}

// Start launches the workers. They run on their own context, independent of
// any request or signal context, so keys scheduled while the HTTP server drains
// are still processed; only Stop ends them.
func (s *MediaCleanupService) Start() {
	if s == nil {
		return
	}
	s.queue.Start(context.Background())
}

// Stop cancels running deletions, waits for the workers to exit and drops
// anything still queued.
func (s *MediaCleanupService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// Schedule queues the distinct non-blank keys for deletion.
func (s *MediaCleanupService) Schedule(keys ...string) {
	if s == nil {
		return
	}
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if err := s.queue.TryEnqueue(jobs.Job[string]{ID: key, Payload: key}); err != nil {
			s.logger.Warn("media cleanup not scheduled", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *MediaCleanupService) delete(ctx context.Context, job jobs.Job[string]) error {
	ctx, cancel := context.WithTimeout(ctx, mediaDeleteTimeout)
	defer cancel()

	referenced, err := s.refs.MediaReferenced(ctx, job.Payload)
	if err != nil {
		return err
	}
	if referenced {
		s.logger.Info("media still referenced, kept", zap.String("key", job.Payload))
		return nil
	}

	err = s.store.Delete(ctx, job.Payload)
	switch {
	case err == nil:
		s.logger.Info("orphaned media deleted", zap.String("key", job.Payload))
		return nil
	case errors.Is(err, storage.ErrObjectNotFound):
		return nil
	case errors.Is(err, storage.ErrInvalidKey):
		s.logger.Warn("orphaned media key is invalid", zap.String("key", job.Payload))
		return nil
	}
	return err
}

// mediaScheduler is the part of MediaCleanupService other services depend on.
type mediaScheduler interface {
	Schedule(keys ...string)
}

func scheduleMedia(m mediaScheduler, keys ...string) {
	if m == nil || len(keys) == 0 {
		return
	}
	m.Schedule(keys...)
}

// replacedKeys returns the keys in before that after no longer references.
func replacedKeys(before, after []string) []string {
	kept := make(map[string]struct{}, len(after))
	for _, k := range after {
		kept[k] = struct{}{}
	}
	var out []string
	for _, k := range before {
		if k == "" {
			continue
		}
		if _, ok := kept[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
