package k8s

import (
	"fmt"
	"net"
	"net/http"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const userAgent = "kube-metrics-gateway"

// tokenSource returns the bearer token to present on the next request.
type tokenSource interface {
	Get() string
}

type ClientConfig struct {
	// KubeConfig, when set, takes precedence over Host, Port and CAFile.
	KubeConfig string
	Host       string
	Port       string
	CAFile     string
	Tokens     tokenSource
}

// NewClientset builds a clientset for the control plane. Outside a kubeconfig
// every request carries the token currently held by cfg.Tokens.
func NewClientset(cfg ClientConfig) (kubernetes.Interface, error) {
	restCfg, err := newRESTConfig(cfg)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	return clientset, nil
}

func newRESTConfig(cfg ClientConfig) (*rest.Config, error) {
	if cfg.KubeConfig != "" {
		restCfg, err := clientcmd.BuildConfigFromFlags("", cfg.KubeConfig)
		if err != nil {
			return nil, fmt.Errorf("build k8s config: %w", err)
		}

		restCfg.UserAgent = userAgent

		return restCfg, nil
	}

	if cfg.Host == "" {
		return nil, ErrNoControlPlane
	}

	host := cfg.Host
	if cfg.Port != "" {
		host = net.JoinHostPort(cfg.Host, cfg.Port)
	}

	restCfg := &rest.Config{
		Host:      "https://" + host,
		UserAgent: userAgent,
		TLSClientConfig: rest.TLSClientConfig{
			CAFile: cfg.CAFile,
		},
	}

	if cfg.Tokens != nil {
		tokens := cfg.Tokens
		restCfg.WrapTransport = func(rt http.RoundTripper) http.RoundTripper {
			return &bearerRoundTripper{tokens: tokens, next: rt}
		}
	}

	return restCfg, nil
}

type bearerRoundTripper struct {
	tokens tokenSource
	next   http.RoundTripper
}

func (b *bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	tok := b.tokens.Get()
	if tok == "" {
		return b.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+tok)

	return b.next.RoundTrip(req)
}
