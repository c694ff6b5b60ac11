// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"sync"
	"testing"

	"github.com/invowk/textcmd/pkg/command"
)

type (
	// eventRecorder collects published events.
	eventRecorder struct {
		mu       sync.Mutex
		executed []Executed
		logs     []LogMessage
	}

	// callRecorder records handler invocations.
	callRecorder struct {
		mu    sync.Mutex
		calls []string
		args  [][]any
	}
)

func newTestService(t *testing.T, mutate func(*Options)) *Service {
	t.Helper()

	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func record(s *Service) *eventRecorder {
	rec := &eventRecorder{}
	s.OnExecuted(func(_ context.Context, ev Executed) error {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.executed = append(rec.executed, ev)
		return nil
	})
	s.OnLog(func(_ context.Context, msg LogMessage) error {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.logs = append(rec.logs, msg)
		return nil
	})
	return rec
}

func (r *eventRecorder) Executed() []Executed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Executed(nil), r.executed...)
}

func (r *eventRecorder) Logs(sev Severity) []LogMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []LogMessage
	for _, l := range r.logs {
		if l.Severity == sev {
			out = append(out, l)
		}
	}
	return out
}

func (r *callRecorder) handler(name string) command.Handler {
	return func(_ context.Context, inv *command.Invocation) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name)
		r.args = append(r.args, inv.Args)
		return nil
	}
}

func (r *callRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *callRecorder) LastArgs() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.args) == 0 {
		return nil
	}
	return r.args[len(r.args)-1]
}

func mustAddModule(t *testing.T, s *Service, b *command.ModuleBuilder) *command.Module {
	t.Helper()

	m, err := s.AddModule(b)
	if err != nil {
		t.Fatalf("AddModule() error = %v", err)
	}
	return m
}

func mustExecute(t *testing.T, s *Service, input string) Result {
	t.Helper()

	res, err := s.Execute(t.Context(), command.BasicContext{}, input, nil)
	if err != nil {
		t.Fatalf("Execute(%q) error = %v", input, err)
	}
	return res
}

func deny(reason string) command.Precondition {
	return command.PreconditionFunc(func(context.Context, command.Context, *command.Command, command.Services) error {
		return &reasonError{reason}
	})
}

type reasonError struct{ msg string }

func (e *reasonError) Error() string { return e.msg }

// fixedReader returns the given candidates for any input.
func fixedReader(cands ...command.Candidate) command.TypeReader {
	return command.TypeReaderFunc(func(context.Context, command.Context, string, command.Services) ([]command.Candidate, error) {
		return cands, nil
	})
}
