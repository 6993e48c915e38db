package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	KindBroken ReportKind = iota
	KindWarning
	KindDebug
	KindCount
)

func (k ReportKind) String() string {
	switch k {
	case KindBroken:
		return "broken"
	case KindWarning:
		return "warning"
	case KindDebug:
		return "debug"
	case KindCount:
		return "count"
	}
	return "unknown"
}

type Report struct {
	Kind ReportKind
	// Id holds the report id, or the message in the case of a debug report.
	Id     string
	Params []any
	Count  int64
}

// Recorder is an API that keeps every report in memory, it is meant to be
// used in tests to assert on what a component reported.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) push(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.push(Report{Kind: KindBroken, Id: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.push(Report{Kind: KindWarning, Id: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.push(Report{Kind: KindDebug, Id: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.push(Report{Kind: KindCount, Id: id, Count: count})
}

// Reports returns a copy of all reports of the given kind.
func (r *Recorder) Reports(kind ReportKind) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}

// Find returns all reports whose id ends with the given suffix, this
// ignores any namespace a ScopedAPI may have attached.
func (r *Recorder) Find(suffix string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if strings.HasSuffix(report.Id, suffix) {
			out = append(out, report)
		}
	}
	return out
}
