package benchtesting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const bitsPerMiB = 1 << 23

type ExecutionMode int

const (
	NonInterleaved ExecutionMode = iota
	Interleaved
	KanziANS
	FSE
)

func (m ExecutionMode) String() string {
	switch m {
	case Interleaved:
		return "Interleaved"
	case KanziANS:
		return "KanziANS"
	case FSE:
		return "FSE"
	}
	return "NonInterleaved"
}

type CodingMode int

const (
	Encode CodingMode = iota
	Decode
)

func (m CodingMode) String() string {
	if m == Decode {
		return "Decode"
	}
	return "Encode"
}

// Measurement holds the throughput of every repetition of one timed run, in MiB/s.
type Measurement struct {
	Execution ExecutionMode
	Coding    CodingMode
	Bandwidth []float64
}

// Best returns the highest throughput of the run.
func (m Measurement) Best() float64 {
	best := 0.0
	for _, b := range m.Bandwidth {
		best = max(best, b)
	}
	return best
}

// ModeSummary is the per execution mode part of a RunSummary.
type ModeSummary struct {
	Encode []float64 `json:"Encode"`
	Decode []float64 `json:"Decode"`
	Size   int       `json:"Size"`
}

// RunSummary is the JSON record of a benchmark run.
type RunSummary struct {
	Filename        string                 `json:"Filename"`
	ProbabilityBits uint                   `json:"ProbabilityBits"`
	NumberOfSymbols int                    `json:"NumberOfSymbols"`
	SymbolRange     uint                   `json:"SymbolRange"`
	CoderBits       uint                   `json:"CoderBits"`
	Lanes           int                    `json:"Lanes"`
	Modes           map[string]ModeSummary `json:"-"`
}

// MarshalJSON flattens the per mode summaries into top level keys.
func (rs RunSummary) MarshalJSON() ([]byte, error) {
	type plain RunSummary
	fields, err := json.Marshal(plain(rs))
	if err != nil {
		return nil, err
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(fields, &doc); err != nil {
		return nil, err
	}
	for mode, ms := range rs.Modes {
		raw, err := json.Marshal(ms)
		if err != nil {
			return nil, err
		}
		doc[mode] = raw
	}
	return json.Marshal(doc)
}

// Harness times encode and decode closures and collects the results into a RunSummary.
type Harness struct {
	repetitions int
	now         func() time.Time
	Summary     RunSummary
}

func NewHarness(repetitions int) *Harness {
	return &Harness{
		repetitions: max(repetitions, 1),
		now:         time.Now,
		Summary:     RunSummary{Modes: map[string]ModeSummary{}},
	}
}

// TimedRun runs fn once per repetition. sizeBits is the uncompressed size the throughput is
// computed from. The first error stops the run.
func (h *Harness) TimedRun(mode ExecutionMode, coding CodingMode, sizeBits uint64, fn func() error) (Measurement, error) {
	m := Measurement{Execution: mode, Coding: coding, Bandwidth: make([]float64, 0, h.repetitions)}
	for run := 0; run < h.repetitions; run++ {
		start := h.now()
		if err := fn(); err != nil {
			return m, fmt.Errorf("%v %v run %d: %w", mode, coding, run, err)
		}
		m.Bandwidth = append(m.Bandwidth, Bandwidth(sizeBits, h.now().Sub(start)))
	}

	ms := h.Summary.Modes[mode.String()]
	if coding == Encode {
		ms.Encode = m.Bandwidth
	} else {
		ms.Decode = m.Bandwidth
	}
	h.Summary.Modes[mode.String()] = ms
	log.Infof("Bandwidth %v: [%s] MiB/s", coding, formatBandwidth(m.Bandwidth))
	return m, nil
}

// RecordSize stores the encoded size in bytes for mode.
func (h *Harness) RecordSize(mode ExecutionMode, size int) {
	ms := h.Summary.Modes[mode.String()]
	ms.Size = size
	h.Summary.Modes[mode.String()] = ms
	log.Infof("Encode Size: %d Bytes", size)
}

// WriteSummary writes the run summary as indented JSON to path.
func (h *Harness) WriteSummary(path string) error {
	data, err := json.Marshal(h.Summary)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "    "); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0666)
}

// Bandwidth converts a duration for sizeBits into MiB/s.
func Bandwidth(sizeBits uint64, d time.Duration) float64 {
	seconds := d.Seconds()
	if seconds <= 0 {
		// below timer resolution
		seconds = time.Nanosecond.Seconds()
	}
	return float64(sizeBits) / (seconds * bitsPerMiB)
}

func formatBandwidth(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.4g", v)
	}
	return strings.Join(parts, ", ")
}
