package k8s

import (
	"errors"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/skillcoder/kube-metrics-gateway/internal/logic/poddirectory"
)

func toDomainPod(pod *corev1.Pod) poddirectory.Pod {
	return poddirectory.Pod{
		Name:  pod.Name,
		UID:   string(pod.UID),
		IP:    pod.Status.PodIP,
		Phase: string(pod.Status.Phase),
	}
}

// toStatusError extracts the HTTP status of an API error, if it carries one.
func toStatusError(err error) (*StatusError, bool) {
	var apiStatus apierrors.APIStatus
	if !errors.As(err, &apiStatus) {
		return nil, false
	}

	status := apiStatus.Status()
	if status.Code == 0 {
		return nil, false
	}

	return &StatusError{
		Code:   int(status.Code),
		Reason: string(status.Reason),
	}, true
}
