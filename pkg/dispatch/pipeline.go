// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/invowk/textcmd/pkg/command"
)

// parseWeightFactor bounds the parse-quality part of a score below 1 so
// that priority always dominates.
const parseWeightFactor = 0.99

// Search returns every command whose full alias prefixes input, ordered by
// descending priority; equal priorities keep registration order.
func (s *Service) Search(input string) SearchResult {
	found := s.index.Lookup(input)
	matches := make([]Match, len(found))
	for i, m := range found {
		matches[i] = Match{Command: m.Command, Alias: m.Alias, Consumed: m.Consumed, Remaining: m.Remaining}
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Command.Priority(), a.Command.Priority())
	})
	return SearchResult{Input: input, Matches: matches}
}

// CheckPreconditions evaluates the precondition chain of m's command.
func (s *Service) CheckPreconditions(ctx context.Context, ictx command.Context, m Match, svc command.Services) PreconditionResult {
	return PreconditionResult{Match: m, Err: command.CheckPreconditions(ctx, ictx, m.Command, svc)}
}

// Score ranks a successful parse: the command priority plus 0.99 times the
// mean of the positional and variadic top-weight averages. A kind of
// parameter the command does not have contributes 0.
func Score(r ParseResult) float64 {
	avg := func(slots [][]command.Candidate) float64 {
		if len(slots) == 0 {
			return 0
		}
		sum := 0.0
		for _, slot := range slots {
			sum += command.Top(slot)
		}
		return sum / float64(len(slots))
	}
	quality := (avg(r.Positional) + avg(r.Variadic)) / 2
	return float64(r.Match.Command.Priority()) + quality*parseWeightFactor
}

type scored struct {
	parse ParseResult
	score float64
}

// Execute resolves input to one command and runs it.
//
// Pipeline failures (unknown command, precondition, parse) are reported in
// the Result only. A body fault of a blocking command is captured in the
// Result and, when ThrowOnError is set, also returned as the error.
// Detached bodies run on their own goroutine, detached from ctx
// cancellation; their faults reach observers only.
func (s *Service) Execute(ctx context.Context, ictx command.Context, input string, svc command.Services) (Result, error) {
	search := s.Search(input)
	if err := search.Err(); err != nil {
		return s.finish(ctx, ictx, Result{Input: input, err: err}), nil
	}

	var (
		admitted     []Match
		firstPrecond error
		precondCmd   *command.Command
	)
	for _, m := range search.Matches {
		pr := s.CheckPreconditions(ctx, ictx, m, svc)
		if pr.Success() {
			admitted = append(admitted, m)
			continue
		}
		if firstPrecond == nil {
			firstPrecond, precondCmd = pr.Err, m.Command
		}
	}
	if len(admitted) == 0 {
		return s.finish(ctx, ictx, Result{Input: input, Command: precondCmd, err: firstPrecond}), nil
	}

	var (
		parsed     []scored
		firstParse error
		parseCmd   *command.Command
	)
	for _, m := range admitted {
		pr := s.Parse(ctx, ictx, m, svc)
		if pr.Success() {
			parsed = append(parsed, scored{parse: pr, score: Score(pr)})
			continue
		}
		if firstParse == nil {
			firstParse, parseCmd = pr.Err, m.Command
		}
	}
	if len(parsed) == 0 {
		return s.finish(ctx, ictx, Result{Input: input, Command: parseCmd, err: firstParse}), nil
	}

	slices.SortStableFunc(parsed, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})
	return s.dispatch(ctx, ictx, input, parsed[0], svc)
}

func (s *Service) dispatch(ctx context.Context, ictx command.Context, input string, top scored, svc command.Services) (Result, error) {
	cmd := top.parse.Match.Command
	res := Result{Input: input, Command: cmd, Args: top.parse.Args, Score: top.score}
	inv := &command.Invocation{
		Context:  ictx,
		Command:  cmd,
		Input:    input,
		Args:     top.parse.Args,
		Services: svc,
	}
	s.log(ctx, SeverityDebug, "pipeline", nil, "dispatching %s (score %.3f)", cmd, top.score)

	if cmd.RunMode() == command.RunModeDetached {
		res.Detached = true
		bodyCtx := context.WithoutCancel(ctx)
		s.detached.Add(1)
		go func() {
			defer s.detached.Done()
			done := res
			done.err = s.runBody(bodyCtx, inv)
			s.finish(bodyCtx, ictx, done)
		}()
		return res, nil
	}

	res.err = s.runBody(ctx, inv)
	res = s.finish(ctx, ictx, res)
	if res.err != nil && s.opts.ThrowOnError {
		return res, res.err
	}
	return res, nil
}

// runBody runs the handler between the module instance's execute hooks and
// converts errors and panics into a *command.BodyFaultError.
func (s *Service) runBody(ctx context.Context, inv *command.Invocation) (err error) {
	hook, _ := inv.Module().(command.ExecuteHook)
	defer func() {
		if r := recover(); r != nil {
			err = &command.BodyFaultError{Command: inv.Command.String(), Panic: r}
		}
		if hook != nil {
			hook.AfterExecute(ctx, inv, err)
		}
	}()

	if hook != nil {
		if err := hook.BeforeExecute(ctx, inv); err != nil {
			return &command.BodyFaultError{Command: inv.Command.String(), Cause: fmt.Errorf("before execute: %w", err)}
		}
	}
	if err := inv.Command.Handler()(ctx, inv); err != nil {
		return &command.BodyFaultError{Command: inv.Command.String(), Cause: err}
	}
	return nil
}

func (s *Service) finish(ctx context.Context, ictx command.Context, res Result) Result {
	if res.Kind() == command.KindBodyFault {
		s.log(ctx, SeverityError, "pipeline", res.err, "command %s faulted", res.Command)
	}
	s.publishExecuted(ctx, ictx, res)
	return res
}
