// Package diag provides the diagnostics snapshot and the error-recording
// journal shared by the beacon components.
package diag

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dshills/beacon/internal/logging"
)

// ErrorRecord is the most recent failure seen by an instance.
type ErrorRecord struct {
	Event   string    `json:"event"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Snapshot is a read-only view of one instance's protocol state.
type Snapshot struct {
	InstanceID       string          `json:"instanceId"`
	TakenAt          time.Time       `json:"takenAt"`
	ClientCount      int             `json:"clientCount"`
	Clients          []string        `json:"clients"`
	IndicatorExists  bool            `json:"indicatorExists"`
	IndicatorVisible bool            `json:"indicatorVisible"`
	Owner            bool            `json:"owner"`
	Endpoints        map[string]bool `json:"endpoints"`
	OutputChannel    bool            `json:"outputChannel"`
	Disposed         bool            `json:"disposed"`
	LastError        *ErrorRecord    `json:"lastError,omitempty"`
}

// JSON encodes the snapshot.
func (s Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Lines renders the snapshot for a text output channel.
func (s Snapshot) Lines() []string {
	lines := []string{
		fmt.Sprintf("instance: %s", s.InstanceID),
		fmt.Sprintf("clients: %d [%s]", s.ClientCount, strings.Join(s.Clients, ", ")),
		fmt.Sprintf("indicator: exists=%t visible=%t", s.IndicatorExists, s.IndicatorVisible),
		fmt.Sprintf("owner: %t", s.Owner),
	}

	names := make([]string, 0, len(s.Endpoints))
	for name := range s.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("endpoint %s: %t", name, s.Endpoints[name]))
	}

	lines = append(lines,
		fmt.Sprintf("output channel: %t", s.OutputChannel),
		fmt.Sprintf("disposed: %t", s.Disposed),
	)
	if s.LastError != nil {
		lines = append(lines, fmt.Sprintf("last error: %s: %s (%s)",
			s.LastError.Event, s.LastError.Message, s.LastError.At.Format(time.RFC3339)))
	} else {
		lines = append(lines, "last error: none")
	}
	return lines
}

// Journal writes protocol events to the logger and remembers the last error.
type Journal struct {
	log *logging.Logger
	now func() time.Time

	mu      sync.Mutex
	lastErr *ErrorRecord
}

// NewJournal creates a journal writing to log.
func NewJournal(log *logging.Logger) *Journal {
	if log == nil {
		log = logging.Nop()
	}
	return &Journal{log: log, now: time.Now}
}

// Log records a protocol event.
func (j *Journal) Log(event string, kv ...any) {
	j.log.Info(event, kv...)
}

// Debug records a low-importance protocol event.
func (j *Journal) Debug(event string, kv ...any) {
	j.log.Debug(event, kv...)
}

// LogError records a failure and makes it the last error.
func (j *Journal) LogError(event string, err error, kv ...any) {
	if err == nil {
		return
	}
	fields := append([]any{"error", err.Error()}, kv...)
	j.log.Error(event, fields...)

	j.mu.Lock()
	j.lastErr = &ErrorRecord{Event: event, Message: err.Error(), At: j.now()}
	j.mu.Unlock()
}

// LastError returns a copy of the last recorded error, or nil.
func (j *Journal) LastError() *ErrorRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastErr == nil {
		return nil
	}
	rec := *j.lastErr
	return &rec
}

// ClearLastError forgets the last recorded error.
func (j *Journal) ClearLastError() {
	j.mu.Lock()
	j.lastErr = nil
	j.mu.Unlock()
}
