// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"

	"github.com/invowk/textcmd/pkg/command"
)

const (
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type (
	// Severity ranks a LogMessage.
	Severity string

	// LogMessage is published on the log stream.
	LogMessage struct {
		Severity Severity
		Source   string
		Message  string
		Err      error
	}

	// Executed is published once per completed invocation, successful or
	// not. For detached commands it is published when the body returns.
	Executed struct {
		Input   string
		Command *command.Command
		Context command.Context
		Result  Result
	}
)

// OnLog subscribes fn to the log stream.
func (s *Service) OnLog(fn func(ctx context.Context, msg LogMessage) error) {
	s.logs.Subscribe(fn)
}

// OnExecuted subscribes fn to the completed-invocation stream.
func (s *Service) OnExecuted(fn func(ctx context.Context, ev Executed) error) {
	s.executed.Subscribe(fn)
}

func (s *Service) log(ctx context.Context, sev Severity, source string, err error, format string, args ...any) {
	// Subscriber failures on the log stream itself are dropped.
	_ = s.logs.Publish(ctx, LogMessage{
		Severity: sev,
		Source:   source,
		Message:  fmt.Sprintf(format, args...),
		Err:      err,
	})
}

func (s *Service) publishExecuted(ctx context.Context, ictx command.Context, res Result) {
	ev := Executed{Input: res.Input, Command: res.Command, Context: ictx, Result: res}
	if err := s.executed.Publish(ctx, ev); err != nil {
		s.log(ctx, SeverityError, "observer", err, "executed subscribers failed for %q", res.Input)
	}
}
