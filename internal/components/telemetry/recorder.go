package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	REPORT_BROKEN ReportKind = iota
	REPORT_WARNING
	REPORT_INFO
	REPORT_DEBUG
	REPORT_COUNT
)

type Report struct {
	Kind   ReportKind
	Id     string
	Params []any
	Count  int64
}

// RecorderAPI keeps every report in memory so tests can assert on them.
type RecorderAPI struct {
	mu      sync.Mutex
	reports []Report
}

func NewRecorderAPI() *RecorderAPI {
	return &RecorderAPI{}
}

func (r *RecorderAPI) add(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *RecorderAPI) ReportBroken(id string, params ...any) {
	r.add(Report{Kind: REPORT_BROKEN, Id: id, Params: params})
}

func (r *RecorderAPI) ReportWarning(id string, params ...any) {
	r.add(Report{Kind: REPORT_WARNING, Id: id, Params: params})
}

func (r *RecorderAPI) ReportInfo(msg string, params ...any) {
	r.add(Report{Kind: REPORT_INFO, Id: msg, Params: params})
}

func (r *RecorderAPI) ReportDebug(msg string, params ...any) {
	r.add(Report{Kind: REPORT_DEBUG, Id: msg, Params: params})
}

func (r *RecorderAPI) ReportCount(id string, count int64) {
	r.add(Report{Kind: REPORT_COUNT, Id: id, Count: count})
}

// Reports returns the recorded reports of the given kind whose id contains substr.
func (r *RecorderAPI) Reports(kind ReportKind, substr string) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind && strings.Contains(report.Id, substr) {
			out = append(out, report)
		}
	}
	return out
}
