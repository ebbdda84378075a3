package k8s

import (
	"context"
	"fmt"
	"log/slog"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/skillcoder/kube-metrics-gateway/internal/logic/poddirectory"
)

type adapter struct {
	logger    *slog.Logger
	clientset kubernetes.Interface
}

// New creates a new K8s adapter.
func New(
	logger *slog.Logger,
	clientset kubernetes.Interface,
) poddirectory.Repository {
	return &adapter{
		logger:    logger,
		clientset: clientset,
	}
}

var _ poddirectory.Repository = (*adapter)(nil)

func (a *adapter) ListPodsQuery(
	ctx context.Context,
	namespace string,
) ([]poddirectory.Pod, error) {
	podList, err := a.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		if statusErr, ok := toStatusError(err); ok {
			return nil, fmt.Errorf("list pods: %w", statusErr)
		}

		return nil, fmt.Errorf("list pods: %w", err)
	}

	pods := make([]poddirectory.Pod, 0, len(podList.Items))
	for i := range podList.Items {
		pods = append(pods, toDomainPod(&podList.Items[i]))
	}

	a.logger.DebugContext(ctx, "pods listed", "namespace", namespace, "count", len(pods))

	return pods, nil
}
