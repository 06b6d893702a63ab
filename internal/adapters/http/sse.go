package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

// sseStream writes a generation stream as server-sent events. Tokens and
// the final element keep their wire-level discriminator: a token event
// carries only "token", the final event carries the StreamResult fields.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEStream(w http.ResponseWriter) (*sseStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming is not supported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	return &sseStream{w: w, flusher: flusher}, nil
}

func (s *sseStream) sendToken(token string) error {
	return s.send(map[string]string{"token": token})
}

func (s *sseStream) sendFinal(result *domain.StreamResult) error {
	return s.send(result)
}

// sendError reports a mid-stream failure in-band; the HTTP status is
// already committed by the time generation can fail.
func (s *sseStream) sendError(err error) {
	_ = s.send(map[string]string{"error": err.Error()})
}

func (s *sseStream) done() {
	if _, err := io.WriteString(s.w, "data: [DONE]\n\n"); err != nil {
		return
	}
	s.flusher.Flush()
}

func (s *sseStream) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
