package scopehosttest

import (
	"context"
	"sync"

	"github.com/danpasecinic/scopehost"
)

// Recorder collects phase calls from RecordingServices as "name.phase".
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *Recorder) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// RecordingService is a HostedLifecycleService that records every phase call
// and returns the error configured for that phase.
type RecordingService struct {
	Name string

	rec  *Recorder
	mu   sync.Mutex
	errs map[scopehost.Phase]error
}

var _ scopehost.HostedLifecycleService = (*RecordingService)(nil)

func NewRecordingService(name string, rec *Recorder) *RecordingService {
	return &RecordingService{
		Name: name,
		rec:  rec,
		errs: make(map[scopehost.Phase]error),
	}
}

// FailOn makes phase return err.
func (s *RecordingService) FailOn(phase scopehost.Phase, err error) *RecordingService {
	s.mu.Lock()
	s.errs[phase] = err
	s.mu.Unlock()
	return s
}

func (s *RecordingService) call(phase scopehost.Phase) error {
	s.rec.record(s.Name + "." + phase.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[phase]
}

func (s *RecordingService) Starting(context.Context) error { return s.call(scopehost.PhaseStarting) }
func (s *RecordingService) Start(context.Context) error    { return s.call(scopehost.PhaseStart) }
func (s *RecordingService) Started(context.Context) error  { return s.call(scopehost.PhaseStarted) }
func (s *RecordingService) Stopping(context.Context) error { return s.call(scopehost.PhaseStopping) }
func (s *RecordingService) Stop(context.Context) error     { return s.call(scopehost.PhaseStop) }
func (s *RecordingService) Stopped(context.Context) error  { return s.call(scopehost.PhaseStopped) }
