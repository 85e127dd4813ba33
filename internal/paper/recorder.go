package paper

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"macdbot-go/internal/signal"
)

// Entry is one line of the audit log. Exactly one of Trade and Event is set.
type Entry struct {
	Kind  string        `json:"kind"`
	RunID string        `json:"run_id,omitempty"`
	Trade *TradeRecord  `json:"trade,omitempty"`
	Event *signal.Event `json:"event,omitempty"`
}

// JSONLRecorder appends trades and signal events as JSON lines.
type JSONLRecorder struct {
	mu    sync.Mutex
	file  *os.File
	enc   *json.Encoder
	runID string
	err   error
}

// NewJSONLRecorder creates/opens the target file and returns a recorder. runID tags
// every line so several runs can share one file.
func NewJSONLRecorder(path, runID string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file:  file,
		enc:   json.NewEncoder(file),
		runID: runID,
	}, nil
}

// Record writes one trade.
func (r *JSONLRecorder) Record(rec TradeRecord) {
	r.write(Entry{Kind: "trade", Trade: &rec})
}

// RecordEvent writes one signal event.
func (r *JSONLRecorder) RecordEvent(ev signal.Event) {
	r.write(Entry{Kind: "event", Event: &ev})
}

func (r *JSONLRecorder) write(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return
	}
	e.RunID = r.runID
	if err := r.enc.Encode(e); err != nil && r.err == nil {
		r.err = err
	}
}

// Err returns the first write error, if any.
func (r *JSONLRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return errors.Join(r.err, err)
}
