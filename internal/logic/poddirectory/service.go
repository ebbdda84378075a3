package poddirectory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeout bounds one control plane round trip.
const DefaultTimeout = 5 * time.Second

type Service struct {
	logger  *slog.Logger
	repo    Repository
	gate    ipWhitelister
	timeout time.Duration
}

// New creates a pod directory service. A non-positive timeout selects DefaultTimeout.
func New(
	logger *slog.Logger,
	repo Repository,
	gate ipWhitelister,
	timeout time.Duration,
) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		logger:  logger,
		repo:    repo,
		gate:    gate,
		timeout: timeout,
	}
}

// FetchPods lists the pods of namespace and keeps the running ones whose name
// starts with servicePrefix and whose IP is whitelisted. The result is never
// cached: pods may have rolled since the previous request.
func (s *Service) FetchPods(
	ctx context.Context,
	namespace,
	servicePrefix string,
) (Directory, error) {
	logger := s.logger.With("namespace", namespace, "service", servicePrefix)

	listCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pods, err := s.repo.ListPodsQuery(listCtx, namespace)
	if err != nil {
		return nil, s.classify(listCtx, err)
	}

	dir := make(Directory, len(pods))

	for i := range pods {
		pod := pods[i]

		if !strings.HasPrefix(pod.Name, servicePrefix) || pod.Phase != PodPhaseRunning {
			continue
		}

		if !s.gate.IsWhitelistedIP(ctx, pod.IP) {
			continue
		}

		dir[pod.IP] = pod
	}

	if len(dir) == 0 {
		logger.DebugContext(ctx, "no matching pods", "listed", len(pods))

		return nil, fmt.Errorf("%w: %s", ErrNoPodsRunning, namespace)
	}

	logger.DebugContext(ctx, "pod directory resolved", "listed", len(pods), "matched", len(dir))

	return dir, nil
}

func (s *Service) classify(ctx context.Context, err error) error {
	var coder statusCoder
	if errors.As(err, &coder) {
		return fmt.Errorf("%w %d: %w", ErrControlPlaneStatus, coder.StatusCode(), err)
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrControlPlaneTimeout, s.timeout, err)
	}

	return fmt.Errorf("%w: %w", ErrListPods, err)
}
