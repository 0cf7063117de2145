package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/sky-map-team/stardroid-sub001/internal/metrics"
)

const writeTimeout = 30 * time.Second

// eventWriter frames SSE records on one response. Each write pushes the
// connection deadline out by writeTimeout and flushes.
type eventWriter struct {
	w      io.Writer
	flush  func()
	rc     *http.ResponseController
	ip     string
	logger *slog.Logger

	messages int
	bytes    int64
}

// openEventStream sends the SSE response headers and a jittered retry hint
// (3-7s) so clients spread their reconnects after a restart.
func openEventStream(w http.ResponseWriter, ip string, logger *slog.Logger) (*eventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer %T cannot flush", w)
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ew := &eventWriter{
		w:      w,
		flush:  flusher.Flush,
		rc:     http.NewResponseController(w),
		ip:     ip,
		logger: logger,
	}
	// The server-wide WriteTimeout would cut the stream; deadlines are
	// managed per write instead.
	if err := ew.rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug("could not clear write deadline", "error", err)
	}
	return ew, ew.write(fmt.Sprintf("retry: %d\n\n", 3000+rand.Intn(4000)))
}

// message encodes v and sends it as a data record.
func (ew *eventWriter) message(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %T: %w", v, err)
	}
	return ew.data(data)
}

// data sends one pre-encoded JSON record.
func (ew *eventWriter) data(payload []byte) error {
	if err := ew.write("data: " + string(payload) + "\n\n"); err != nil {
		return err
	}
	ew.messages++
	metrics.IncStreamMessages()
	return nil
}

// ping sends an SSE comment.
func (ew *eventWriter) ping() error {
	return ew.write(":\n\n")
}

func (ew *eventWriter) write(record string) error {
	if err := ew.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		ew.logger.Debug("could not set write deadline", "remote_ip", ew.ip, "error", err)
	}
	n, err := io.WriteString(ew.w, record)
	ew.bytes += int64(n)
	metrics.AddStreamBytes(int64(n))
	if err != nil {
		return fmt.Errorf("stream write: %w", err)
	}
	ew.flush()
	return nil
}
