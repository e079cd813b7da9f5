package runner

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// TimingEnv overrides analysis.timing when set.
const TimingEnv = "REGSHEET_TIMING_JSONL"

// timelineEvent is one JSONL line. Stage events cover a whole batch step;
// workbook events cover a single file within the parse step.
type timelineEvent struct {
	Event     string  `json:"event"`
	Name      string  `json:"name"`
	Workbook  string  `json:"workbook,omitempty"`
	Outcome   string  `json:"outcome,omitempty"`
	Registers int     `json:"registers,omitempty"`
	OffsetMS  float64 `json:"offset_ms"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

// timeline appends events to a JSONL file. A nil timeline records nothing.
type timeline struct {
	origin time.Time

	mu  sync.Mutex
	f   *os.File
	buf *bufio.Writer
}

// openTimeline returns nil when path is empty.
func openTimeline(origin time.Time, path string) (*timeline, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &timeline{origin: origin, f: f, buf: bufio.NewWriter(f)}, nil
}

func (tl *timeline) stage(name string, start time.Time, outcome string) {
	tl.emit(timelineEvent{Event: "stage", Name: name, Outcome: outcome}, start)
}

func (tl *timeline) workbook(name, path, outcome string, registers int, start time.Time) {
	tl.emit(timelineEvent{
		Event:     "workbook",
		Name:      name,
		Workbook:  path,
		Outcome:   outcome,
		Registers: registers,
	}, start)
}

func (tl *timeline) emit(ev timelineEvent, start time.Time) {
	if tl == nil {
		return
	}
	ev.OffsetMS = millis(start.Sub(tl.origin))
	ev.ElapsedMS = millis(time.Since(start))
	line, err := json.Marshal(ev)
	if err != nil {
		return
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()
	_, _ = tl.buf.Write(append(line, '\n'))
}

func (tl *timeline) close() {
	if tl == nil {
		return
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	_ = tl.buf.Flush()
	_ = tl.f.Close()
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func timelinePath(configured string) string {
	if p := os.Getenv(TimingEnv); p != "" {
		return p
	}
	return configured
}
