package httpserver_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/require"

	"github.com/skillcoder/kube-metrics-gateway/internal/httpserver"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/appstate"
	"github.com/skillcoder/kube-metrics-gateway/internal/infra/pinger"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/aggregator"
	"github.com/skillcoder/kube-metrics-gateway/internal/logic/poddirectory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeState struct {
	healthy bool
	ready   bool
}

func (f fakeState) IsHealthy() bool { return f.healthy }
func (f fakeState) IsReady() bool { return f.ready }
func (f fakeState) GetState() appstate.State { return appstate.StateRunning }
func (f fakeState) GetUptime() time.Duration { return time.Minute }
func (f fakeState) GetStartTime() time.Time { return time.Unix(0, 0) }
func (f fakeState) ComponentResults() map[string]pinger.Result { return nil }

type fakeGate struct {
	badNamespace string
	badPath      string
}

func (g fakeGate) IsValidNamespaceName(_ context.Context, name string) bool {
	return name != g.badNamespace
}

func (g fakeGate) IsWhitelistedPath(_ context.Context, path string) bool {
	return path != g.badPath
}

type fakeDirectory struct {
	mu        sync.Mutex
	dir       poddirectory.Directory
	err       error
	namespace string
	service   string
}

func (d *fakeDirectory) FetchPods(_ context.Context, namespace, service string) (poddirectory.Directory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.namespace = namespace
	d.service = service

	return d.dir, d.err
}

type fakeAggregator struct {
	mu      sync.Mutex
	target  aggregator.Target
	payload string
	err     error
	panics  bool
}

func (a *fakeAggregator) Aggregate(
	_ context.Context,
	dir poddirectory.Directory,
	target aggregator.Target,
	w io.Writer,
) (aggregator.Tally, error) {
	a.mu.Lock()
	a.target = target
	a.mu.Unlock()

	if a.panics {
		panic("aggregator exploded")
	}

	if a.payload != "" {
		_, _ = io.WriteString(w, a.payload)
	}

	tally := aggregator.Tally{Total: len(dir), Completed: len(dir)}
	if a.err != nil {
		tally.Failed = len(dir)

		return tally, a.err
	}

	tally.Succeeded = len(dir)

	return tally, nil
}

type recordingHandler struct {
	paths chan string
}

func (h recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.paths <- r.URL.Path

	w.WriteHeader(http.StatusTeapot)
}

func runningDirectory() poddirectory.Directory {
	return poddirectory.Directory{
		"10.0.0.1": {Name: "api-1", UID: "u1", IP: "10.0.0.1", Phase: "Running"},
		"10.0.0.2": {Name: "api-2", UID: "u2", IP: "10.0.0.2", Phase: "Running"},
	}
}

type fixture struct {
	router      http.Handler
	directory   *fakeDirectory
	aggregator  *fakeAggregator
	passthrough recordingHandler
}

func newFixture(prefix string, gate fakeGate, dir *fakeDirectory, agg *fakeAggregator) fixture {
	logger := testLogger()
	pass := recordingHandler{paths: make(chan string, 1)}

	router := httpserver.NewRouter(logger, fakeState{healthy: true, ready: true}, httpserver.Routes{
		Prefix:      prefix,
		FanOut:      httpserver.NewFanOutHandler(logger, gate, dir, agg),
		Passthrough: pass,
	})

	return fixture{router: router, directory: dir, aggregator: agg, passthrough: pass}
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestRouter_Landing(t *testing.T) {
	t.Parallel()

	f := newFixture("/gw", fakeGate{}, &fakeDirectory{}, &fakeAggregator{})

	for _, path := range []string{"/", "/gw/"} {
		rec := do(f.router, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "kubernetes prometheus proxy", body["message"])
	}
}

func TestFanOut_Success(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{dir: runningDirectory()}
	agg := &fakeAggregator{payload: "up{pod=\"api-1\"} 1\n"}
	f := newFixture("/gw", fakeGate{}, dir, agg)

	req := httptest.NewRequest(http.MethodGet,
		"/gw/mproxy/prod/api/actuator/prometheus?upstreamPort=8443&ssl=true", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")

	rec := do(f.router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(expfmt.NewFormat(expfmt.TypeTextPlain)), rec.Header().Get("Content-Type"))
	require.Equal(t, "up{pod=\"api-1\"} 1\n", rec.Body.String())

	require.Equal(t, "prod", dir.namespace)
	require.Equal(t, "api", dir.service)
	require.Equal(t, aggregator.Target{
		Path:          "/actuator/prometheus",
		Port:          "8443",
		TLS:           true,
		Authorization: "Bearer secret",
	}, agg.target)
}

func TestFanOut_DefaultsWithoutPrefix(t *testing.T) {
	t.Parallel()

	agg := &fakeAggregator{payload: "a 1\n"}
	f := newFixture("", fakeGate{}, &fakeDirectory{dir: runningDirectory()}, agg)

	rec := do(f.router, httptest.NewRequest(http.MethodGet, "/mproxy/prod/api/metrics?ssl=yes", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, aggregator.Target{Path: "/metrics"}, agg.target)
}

func TestFanOut_Failures(t *testing.T) {
	t.Parallel()

	timeoutErr := fmt.Errorf("%w: %w", poddirectory.ErrControlPlaneTimeout, context.DeadlineExceeded)

	tests := []struct {
		name     string
		path     string
		gate     fakeGate
		dir      *fakeDirectory
		agg      *fakeAggregator
		wantBody string
	}{
		{
			name:     "invalid namespace",
			path:     "/mproxy/Bad_NS/api/metrics",
			gate:     fakeGate{badNamespace: "Bad_NS"},
			dir:      &fakeDirectory{dir: runningDirectory()},
			agg:      &fakeAggregator{},
			wantBody: "#Unable to collect data.",
		},
		{
			name:     "path not whitelisted",
			path:     "/mproxy/prod/api/secret",
			gate:     fakeGate{badPath: "/secret"},
			dir:      &fakeDirectory{dir: runningDirectory()},
			agg:      &fakeAggregator{},
			wantBody: "#Unable to collect data.",
		},
		{
			name:     "invalid upstream port",
			path:     "/mproxy/prod/api/metrics?upstreamPort=99999",
			dir:      &fakeDirectory{dir: runningDirectory()},
			agg:      &fakeAggregator{},
			wantBody: "#Unable to collect data.",
		},
		{
			name:     "no pods running",
			path:     "/mproxy/prod/api/metrics",
			dir:      &fakeDirectory{err: poddirectory.ErrNoPodsRunning},
			agg:      &fakeAggregator{},
			wantBody: "Error processing request. could not get pods data",
		},
		{
			name:     "control plane timeout",
			path:     "/mproxy/prod/api/metrics",
			dir:      &fakeDirectory{err: timeoutErr},
			agg:      &fakeAggregator{},
			wantBody: "Error processing request. could not get pods data",
		},
		{
			name:     "every scrape failed",
			path:     "/mproxy/prod/api/metrics",
			dir:      &fakeDirectory{dir: runningDirectory()},
			agg:      &fakeAggregator{err: aggregator.ErrNoSuccessfulScrape},
			wantBody: "#Unable to collect data.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture("", tt.gate, tt.dir, tt.agg)

			rec := do(f.router, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			require.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
			require.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestFanOut_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	f := newFixture("", fakeGate{}, &fakeDirectory{dir: runningDirectory()}, &fakeAggregator{panics: true})

	rec := do(f.router, httptest.NewRequest(http.MethodGet, "/mproxy/prod/api/metrics", http.NoBody))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_Passthrough(t *testing.T) {
	t.Parallel()

	f := newFixture("/gw", fakeGate{}, &fakeDirectory{}, &fakeAggregator{})

	rec := do(f.router, httptest.NewRequest(http.MethodGet, "/gw/kubesd/metrics?pod=10.0.0.1", http.NoBody))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "/gw/kubesd/metrics", <-f.passthrough.paths)
}

func TestRouter_HealthEndpoints(t *testing.T) {
	t.Parallel()

	logger := testLogger()
	router := httpserver.NewRouter(logger, fakeState{healthy: true}, httpserver.Routes{
		FanOut:      http.NotFoundHandler(),
		Passthrough: http.NotFoundHandler(),
	})

	require.Equal(t, http.StatusOK,
		do(router, httptest.NewRequest(http.MethodGet, "/-/healthz", http.NoBody)).Code)
	require.Equal(t, http.StatusServiceUnavailable,
		do(router, httptest.NewRequest(http.MethodGet, "/-/readyz", http.NoBody)).Code)
	require.Equal(t, http.StatusOK,
		do(router, httptest.NewRequest(http.MethodGet, "/-/status", http.NoBody)).Code)
}

func TestServer_Lifecycle(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(testLogger(), "0", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}), nil, 0)

	require.Equal(t, "http-server", srv.Name())
	require.Error(t, srv.Ping(t.Context()))
	require.Empty(t, srv.Addr())

	require.NoError(t, srv.Start(t.Context()))

	select {
	case <-srv.Ready():
	case <-time.After(time.Second):
		t.Fatal("server did not become ready")
	}

	require.NoError(t, srv.Ping(t.Context()))

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "ok", string(body))

	require.NoError(t, srv.Shutdown(t.Context()))
	require.NoError(t, srv.Shutdown(t.Context()))
}

func TestServer_StartAfterShutdownIsNoop(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(testLogger(), "0", http.NotFoundHandler(), nil, 0)

	require.NoError(t, srv.Shutdown(t.Context()))
	require.NoError(t, srv.Start(t.Context()))
	require.Empty(t, srv.Addr())
}

func TestMetricsServer_ServesMetrics(t *testing.T) {
	t.Parallel()

	srv := httpserver.NewMetricsServer(testLogger(), "0")
	require.Equal(t, "metrics-server", srv.Name())
	require.NoError(t, srv.Start(t.Context()))

	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})

	<-srv.Ready()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "promhttp_metric_handler_requests_total")
}

func writeSelfSigned(t *testing.T, dir, name string) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: name},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{name},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPath = filepath.Join(dir, name+".crt")
	keyPath = filepath.Join(dir, name+".key")

	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))

	return certPath, keyPath
}

func encryptKeyFile(t *testing.T, keyPath, password string) string {
	t.Helper()

	keyPEM, err := os.ReadFile(keyPath)
	require.NoError(t, err)

	block, _ := pem.Decode(keyPEM)
	require.NotNil(t, block)

	//nolint:staticcheck // legacy PEM encryption under test
	encrypted, err := x509.EncryptPEMBlock(rand.Reader, block.Type, block.Bytes, []byte(password), x509.PEMCipherAES256)
	require.NoError(t, err)

	out := keyPath + ".enc"
	require.NoError(t, os.WriteFile(out, pem.EncodeToMemory(encrypted), 0o600))

	return out
}

func TestLoadTLSConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	certPath, keyPath := writeSelfSigned(t, dir, "gateway")
	caPath, _ := writeSelfSigned(t, dir, "ca")
	encryptedKey := encryptKeyFile(t, keyPath, "s3cret")

	passwordFile := filepath.Join(dir, "key.passwd")
	require.NoError(t, os.WriteFile(passwordFile, []byte("s3cret\n"), 0o600))

	wrongPasswordFile := filepath.Join(dir, "wrong.passwd")
	require.NoError(t, os.WriteFile(wrongPasswordFile, []byte("guess"), 0o600))

	pkcs8Key := filepath.Join(dir, "pkcs8.key")
	require.NoError(t, os.WriteFile(pkcs8Key,
		pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: []byte{0x30}}), 0o600))

	tests := []struct {
		name      string
		give      httpserver.TLSFiles
		wantChain int
		wantErr   error
	}{
		{
			name:      "key pair only",
			give:      httpserver.TLSFiles{Cert: certPath, Key: keyPath},
			wantChain: 1,
		},
		{
			name:      "ca appended",
			give:      httpserver.TLSFiles{Cert: certPath, Key: keyPath, CA: caPath},
			wantChain: 2,
		},
		{
			name:      "encrypted key with passphrase",
			give:      httpserver.TLSFiles{Cert: certPath, Key: encryptedKey, KeyPassword: passwordFile},
			wantChain: 1,
		},
		{
			name:      "passphrase ignored for plain key",
			give:      httpserver.TLSFiles{Cert: certPath, Key: keyPath, KeyPassword: passwordFile},
			wantChain: 1,
		},
		{
			name:    "encrypted key without passphrase",
			give:    httpserver.TLSFiles{Cert: certPath, Key: encryptedKey},
			wantErr: httpserver.ErrKeyPasswordWithoutFile,
		},
		{
			name:    "encrypted pkcs8 key",
			give:    httpserver.TLSFiles{Cert: certPath, Key: pkcs8Key, KeyPassword: passwordFile},
			wantErr: httpserver.ErrUnsupportedKeyEncrypt,
		},
		{
			name:    "key is not pem",
			give:    httpserver.TLSFiles{Cert: certPath, Key: passwordFile},
			wantErr: httpserver.ErrNoKeyPEM,
		},
		{
			name: "wrong passphrase",
			give: httpserver.TLSFiles{Cert: certPath, Key: encryptedKey, KeyPassword: wrongPasswordFile},
		},
		{
			name: "missing cert",
			give: httpserver.TLSFiles{Cert: filepath.Join(dir, "nope.crt"), Key: keyPath},
		},
		{
			name: "missing ca",
			give: httpserver.TLSFiles{Cert: certPath, Key: keyPath, CA: filepath.Join(dir, "nope.crt")},
		},
		{
			name: "mismatched key",
			give: httpserver.TLSFiles{Cert: caPath, Key: keyPath},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := httpserver.LoadTLSConfig(tt.give)
			if tt.wantChain == 0 {
				require.Error(t, err)

				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			require.Len(t, cfg.Certificates, 1)
			require.Len(t, cfg.Certificates[0].Certificate, tt.wantChain)
		})
	}
}

func TestWriteTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		giveDiscovery time.Duration
		giveScrape    time.Duration
		want          time.Duration
	}{
		{name: "defaults keep the floor", giveDiscovery: 5 * time.Second, giveScrape: 15 * time.Second, want: 30 * time.Second},
		{name: "long scrape extends", giveDiscovery: 5 * time.Second, giveScrape: 45 * time.Second, want: 55 * time.Second},
		{name: "long discovery extends", giveDiscovery: 40 * time.Second, giveScrape: 15 * time.Second, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := httpserver.WriteTimeout(tt.giveDiscovery, tt.giveScrape)
			require.Equal(t, tt.want, got)
			require.Greater(t, got, tt.giveDiscovery+tt.giveScrape)
		})
	}
}

// A late payload must still reach the client after the response was committed.
func TestServer_StreamsLatePayloadWithinWriteTimeout(t *testing.T) {
	t.Parallel()

	const scrapeDelay = 300 * time.Millisecond

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "fast 1\n")
		w.(http.Flusher).Flush()

		time.Sleep(scrapeDelay)

		_, _ = io.WriteString(w, "slow 1\n")
	})

	srv := httpserver.New(testLogger(), "0", handler, nil, httpserver.WriteTimeout(0, scrapeDelay))
	require.NoError(t, srv.Start(t.Context()))

	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})

	<-srv.Ready()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "fast 1\nslow 1\n", string(body))
}
