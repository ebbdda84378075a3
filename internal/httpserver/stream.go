package httpserver

import (
	"net/http"

	"github.com/prometheus/common/expfmt"
)

var exposition = expfmt.NewFormat(expfmt.TypeTextPlain)

// streamWriter commits a 200 exposition response on the first write and
// flushes after every payload. Until then the handler may still answer with
// an error status.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
	written int
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	f, _ := w.(http.Flusher)

	return &streamWriter{w: w, flusher: f}
}

func (s *streamWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if !s.started {
		s.started = true
		s.w.Header().Set(headerContentType, string(exposition))
		s.w.WriteHeader(http.StatusOK)
	}

	n, err := s.w.Write(p)
	s.written += n

	if s.flusher != nil {
		s.flusher.Flush()
	}

	return n, err
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set(headerContentType, contentTypeText)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
