// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/entity"
	"github.com/invowk/textcmd/pkg/typereader"
)

type shade string

func (s shade) String() string               { return string(s) }
func (shade) EnumMembers() []typereader.Enum { return []typereader.Enum{shade("dark"), shade("light")} }

func TestExecute_EchoSay(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	rec := record(s)
	calls := &callRecorder{}

	echo := &command.ModuleBuilder{Name: "echo", Aliases: []string{"echo"}}
	echo.AddCommand(&command.CommandBuilder{
		Aliases:    []string{"say"},
		Parameters: []command.Parameter{command.Param[string]("text")},
		Handler:    calls.handler("say"),
	})
	mustAddModule(t, s, echo)

	res := mustExecute(t, s, "echo say hello")
	if !res.Success() {
		t.Fatalf("Execute() result error = %v", res.Err())
	}
	if got := calls.LastArgs(); !slices.Equal(got, []any{"hello"}) {
		t.Errorf("handler args = %v, want [hello]", got)
	}
	if res.Command.Alias() != "echo say" {
		t.Errorf("Result.Command = %s, want echo say", res.Command)
	}

	events := rec.Executed()
	if len(events) != 1 || events[0].Command != res.Command || !events[0].Result.Success() {
		t.Errorf("Executed events = %+v, want one successful event", events)
	}
}

func TestExecute_HigherPriorityEliminatedByPrecondition(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}

	m := &command.ModuleBuilder{Name: "net"}
	m.AddCommand(&command.CommandBuilder{
		Aliases:       []string{"ping"},
		Priority:      10,
		Preconditions: []command.Precondition{deny("not today")},
		Handler:       calls.handler("high"),
	})
	m.AddCommand(&command.CommandBuilder{
		Aliases:  []string{"ping"},
		Priority: 1,
		Handler:  calls.handler("low"),
	})
	mustAddModule(t, s, m)

	res := mustExecute(t, s, "ping")
	if !res.Success() {
		t.Fatalf("Execute() result error = %v", res.Err())
	}
	if got := calls.Calls(); !slices.Equal(got, []string{"low"}) {
		t.Errorf("calls = %v, want [low]", got)
	}
}

func TestExecute_PriorityDominatesParseQuality(t *testing.T) {
	t.Parallel()

	type token string
	s := newTestService(t, nil)
	calls := &callRecorder{}

	m := &command.ModuleBuilder{}
	m.AddCommand(&command.CommandBuilder{
		Aliases:  []string{"go"},
		Priority: 0,
		Parameters: []command.Parameter{{
			Name: "t", Type: reflect.TypeFor[token](),
			Reader: fixedReader(command.Candidate{Value: token("x"), Weight: 1}),
		}},
		Handler: calls.handler("perfect-parse"),
	})
	m.AddCommand(&command.CommandBuilder{
		Aliases:  []string{"go"},
		Priority: 1,
		Parameters: []command.Parameter{{
			Name: "t", Type: reflect.TypeFor[token](),
			Reader: fixedReader(command.Candidate{Value: token("x"), Weight: 0}),
		}},
		Handler: calls.handler("high-priority"),
	})
	mustAddModule(t, s, m)

	res := mustExecute(t, s, "go anything")
	if got := calls.Calls(); !slices.Equal(got, []string{"high-priority"}) {
		t.Errorf("calls = %v, want [high-priority]", got)
	}
	if res.Score < 1 || res.Score >= 2 {
		t.Errorf("Score = %v, want in [1, 2)", res.Score)
	}
}

func TestExecute_SamePriorityBetterParseWins(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}

	m := &command.ModuleBuilder{}
	m.AddCommand(&command.CommandBuilder{
		Aliases:    []string{"show"},
		Parameters: []command.Parameter{{Name: "v", Type: reflect.TypeFor[string](), Reader: fixedReader(command.Candidate{Value: "a", Weight: 0.4})}},
		Handler:    calls.handler("weak"),
	})
	m.AddCommand(&command.CommandBuilder{
		Aliases:    []string{"show"},
		Parameters: []command.Parameter{{Name: "v", Type: reflect.TypeFor[string](), Reader: fixedReader(command.Candidate{Value: "a", Weight: 0.9})}},
		Handler:    calls.handler("strong"),
	})
	mustAddModule(t, s, m)

	mustExecute(t, s, "show it")
	if got := calls.Calls(); !slices.Equal(got, []string{"strong"}) {
		t.Errorf("calls = %v, want [strong]", got)
	}
}

func TestExecute_EqualScoresKeepRegistrationOrder(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}

	first := &command.ModuleBuilder{}
	first.AddCommand(&command.CommandBuilder{Aliases: []string{"dup"}, Handler: calls.handler("first")})
	second := &command.ModuleBuilder{}
	second.AddCommand(&command.CommandBuilder{Aliases: []string{"dup"}, Handler: calls.handler("second")})
	mustAddModule(t, s, first)
	mustAddModule(t, s, second)

	mustExecute(t, s, "dup")
	if got := calls.Calls(); !slices.Equal(got, []string{"first"}) {
		t.Errorf("calls = %v, want [first]", got)
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	rec := record(s)
	m := &command.ModuleBuilder{Aliases: []string{"echo"}}
	m.AddCommand(&command.CommandBuilder{Aliases: []string{"say"}, Handler: (&callRecorder{}).handler("say")})
	mustAddModule(t, s, m)

	for _, input := range []string{"ec", "", "echoes say", "unrelated"} {
		res := mustExecute(t, s, input)
		if res.Kind() != command.KindUnknownCommand {
			t.Errorf("Execute(%q).Kind() = %q, want UnknownCommand", input, res.Kind())
		}
		if !errors.Is(res.Err(), command.ErrUnknownCommand) {
			t.Errorf("Execute(%q).Err() = %v, want ErrUnknownCommand", input, res.Err())
		}
	}
	if got := s.Search("ec"); got.Err() == nil || len(got.Matches) != 0 {
		t.Errorf("Search(ec) = %+v, want no matches", got)
	}
	if n := len(rec.Executed()); n != 4 {
		t.Errorf("Executed events = %d, want 4", n)
	}
}

func TestExecute_AllPreconditionsFail(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	m := &command.ModuleBuilder{}
	m.AddCommand(&command.CommandBuilder{Aliases: []string{"x"}, Priority: 1, Preconditions: []command.Precondition{deny("low reason")}, Handler: (&callRecorder{}).handler("low")})
	m.AddCommand(&command.CommandBuilder{Aliases: []string{"x"}, Priority: 5, Preconditions: []command.Precondition{deny("high reason")}, Handler: (&callRecorder{}).handler("high")})
	mustAddModule(t, s, m)

	res := mustExecute(t, s, "x")
	if res.Kind() != command.KindPreconditionFailed {
		t.Fatalf("Kind() = %q, want PreconditionFailed", res.Kind())
	}
	if res.Reason() != "high reason" {
		t.Errorf("Reason() = %q, want the highest-priority failure", res.Reason())
	}
	if res.Command == nil || res.Command.Priority() != 5 {
		t.Errorf("Result.Command = %v, want the priority 5 command", res.Command)
	}
}

func TestExecute_ModulePreconditionsApply(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}
	sub := &command.ModuleBuilder{Aliases: []string{"ban"}}
	sub.AddCommand(&command.CommandBuilder{Handler: calls.handler("ban")})
	root := &command.ModuleBuilder{Aliases: []string{"admin"}, Preconditions: []command.Precondition{command.RequireHumanAuthor()}}
	root.AddSubmodule(sub)
	mustAddModule(t, s, root)

	res, err := s.Execute(t.Context(), command.BasicContext{User: entity.BasicUser{UserID: "1", IsBot: true}}, "admin ban", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !errors.Is(res.Err(), command.ErrBotAuthor) {
		t.Errorf("Err() = %v, want ErrBotAuthor", res.Err())
	}

	res, err = s.Execute(t.Context(), command.BasicContext{User: entity.BasicUser{UserID: "2"}}, "admin ban", nil)
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %v, %v; want success", res.Err(), err)
	}
	if got := calls.Calls(); !slices.Equal(got, []string{"ban"}) {
		t.Errorf("calls = %v, want [ban]", got)
	}
}

func TestExecute_ParseFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  []command.Parameter
		input   string
		mutate  func(*Options)
		want    command.ParseFailure
		success bool
	}{
		{"too few", []command.Parameter{command.Param[int]("a"), command.Param[int]("b")}, "add 1", nil, command.ArgumentCountMismatch, false},
		{"too many", []command.Parameter{command.Param[int]("a")}, "add 1 2", nil, command.ArgumentCountMismatch, false},
		{"too many ignored", []command.Parameter{command.Param[int]("a")}, "add 1 2", func(o *Options) { o.IgnoreExtraArgs = true }, "", true},
		{"bad conversion", []command.Parameter{command.Param[int]("a")}, "add one", nil, command.ConversionFailed, false},
		{"unclosed quote", []command.Parameter{command.Param[string]("a")}, `add "open`, nil, command.ArgumentCountMismatch, false},
		{"multiple without tokens", []command.Parameter{{Name: "xs", Type: reflect.TypeFor[int](), Multiple: true}}, "add", nil, command.ArgumentCountMismatch, false},
		{"remainder without input", []command.Parameter{{Name: "rest", Type: reflect.TypeFor[string](), Remainder: true}}, "add", nil, command.ArgumentCountMismatch, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestService(t, tt.mutate)
			m := &command.ModuleBuilder{}
			m.AddCommand(&command.CommandBuilder{Aliases: []string{"add"}, Parameters: tt.params, Handler: (&callRecorder{}).handler("add")})
			mustAddModule(t, s, m)

			res := mustExecute(t, s, tt.input)
			if tt.success {
				if !res.Success() {
					t.Fatalf("Execute(%q) error = %v, want success", tt.input, res.Err())
				}
				return
			}
			if res.Kind() != command.KindParseFailed || res.ParseFailure() != tt.want {
				t.Errorf("Execute(%q) = %q/%q (%v), want ParseFailed/%q", tt.input, res.Kind(), res.ParseFailure(), res.Err(), tt.want)
			}
		})
	}
}

func TestExecute_ParseFailureOfHighestPriorityReported(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	m := &command.ModuleBuilder{}
	m.AddCommand(&command.CommandBuilder{Aliases: []string{"n"}, Priority: 1, Parameters: []command.Parameter{command.Param[int]("a")}, Handler: (&callRecorder{}).handler("one")})
	m.AddCommand(&command.CommandBuilder{Aliases: []string{"n"}, Priority: 9, Parameters: []command.Parameter{command.Param[int]("a"), command.Param[int]("b")}, Handler: (&callRecorder{}).handler("two")})
	mustAddModule(t, s, m)

	res := mustExecute(t, s, "n x")
	if res.Command == nil || res.Command.Priority() != 9 {
		t.Fatalf("Result.Command = %v, want the priority 9 command", res.Command)
	}
	if res.ParseFailure() != command.ArgumentCountMismatch {
		t.Errorf("ParseFailure() = %q, want ArgumentCountMismatch", res.ParseFailure())
	}
}

func TestExecute_MultiMatchPolicy(t *testing.T) {
	t.Parallel()

	reader := fixedReader(
		command.Candidate{Value: "low", Weight: 0.2},
		command.Candidate{Value: "high", Weight: 0.8},
	)
	build := func(t *testing.T, policy MultiMatchPolicy) (*Service, *callRecorder) {
		t.Helper()
		s := newTestService(t, func(o *Options) { o.MultiMatch = policy })
		calls := &callRecorder{}
		m := &command.ModuleBuilder{}
		m.AddCommand(&command.CommandBuilder{
			Aliases:    []string{"pick"},
			Parameters: []command.Parameter{{Name: "v", Type: reflect.TypeFor[string](), Reader: reader}},
			Handler:    calls.handler("pick"),
		})
		mustAddModule(t, s, m)
		return s, calls
	}

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		s, calls := build(t, MultiMatchError)
		res := mustExecute(t, s, "pick x")
		if res.ParseFailure() != command.MultipleMatches {
			t.Errorf("ParseFailure() = %q, want MultipleMatches", res.ParseFailure())
		}
		if len(calls.Calls()) != 0 {
			t.Error("handler should not run")
		}
	})

	t.Run("best", func(t *testing.T) {
		t.Parallel()
		s, calls := build(t, MultiMatchBest)
		res := mustExecute(t, s, "pick x")
		if !res.Success() {
			t.Fatalf("Execute() error = %v", res.Err())
		}
		if got := calls.LastArgs(); !slices.Equal(got, []any{"high"}) {
			t.Errorf("args = %v, want [high]", got)
		}
	})
}

func TestExecute_ParameterShapes(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}
	m := &command.ModuleBuilder{Aliases: []string{"p"}}
	m.AddCommand(&command.CommandBuilder{
		Aliases: []string{"opt"},
		Parameters: []command.Parameter{
			command.Param[string]("name"),
			{Name: "count", Type: reflect.TypeFor[int](), Optional: true, Default: 3},
			{Name: "verbose", Type: reflect.TypeFor[bool](), Optional: true},
		},
		Handler: calls.handler("opt"),
	})
	m.AddCommand(&command.CommandBuilder{
		Aliases: []string{"say"},
		Parameters: []command.Parameter{
			command.Param[time.Duration]("after"),
			{Name: "text", Type: reflect.TypeFor[string](), Remainder: true},
		},
		Handler: calls.handler("say"),
	})
	m.AddCommand(&command.CommandBuilder{
		Aliases: []string{"sum"},
		Parameters: []command.Parameter{
			{Name: "xs", Type: reflect.TypeFor[int](), Multiple: true},
		},
		Handler: calls.handler("sum"),
	})
	mustAddModule(t, s, m)

	tests := []struct {
		input string
		want  []any
	}{
		{"p opt bob", []any{"bob", 3, false}},
		{"p opt bob 7 true", []any{"bob", 7, true}},
		{`p opt "bob smith" 1`, []any{"bob smith", 1, false}},
		{"p say 1s hello   there world", []any{time.Second, "hello   there world"}},
		{`p say 2m "quoted" whole`, []any{2 * time.Minute, `"quoted" whole`}},
		{"p sum 1 2 3", []any{[]int{1, 2, 3}}},
	}
	for _, tt := range tests {
		res := mustExecute(t, s, tt.input)
		if !res.Success() {
			t.Errorf("Execute(%q) error = %v", tt.input, res.Err())
			continue
		}
		if got := calls.LastArgs(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Execute(%q) args = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

type point struct{ X, Y int }

func pointReader() command.TypeReader {
	return command.TypeReaderFunc(func(_ context.Context, _ command.Context, input string, _ command.Services) ([]command.Candidate, error) {
		var p point
		if _, err := fmt.Sscanf(input, "%d,%d", &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("%q is not a point", input)
		}
		return command.Single(p, 1), nil
	})
}

func TestExecute_NullableCompanion(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	s.AddTypeReader(reflect.TypeFor[point](), pointReader())
	calls := &callRecorder{}

	m := &command.ModuleBuilder{}
	m.AddCommand(&command.CommandBuilder{
		Aliases:    []string{"move"},
		Parameters: []command.Parameter{command.Param[*point]("to")},
		Handler:    calls.handler("move"),
	})
	mustAddModule(t, s, m)

	res := mustExecute(t, s, `move ""`)
	if !res.Success() {
		t.Fatalf(`Execute(move "") error = %v`, res.Err())
	}
	if p, ok := calls.LastArgs()[0].(*point); !ok || p != nil {
		t.Errorf("arg = %#v, want nil *point", calls.LastArgs()[0])
	}

	mustExecute(t, s, "move 1,2")
	if p := calls.LastArgs()[0].(*point); p == nil || *p != (point{1, 2}) {
		t.Errorf("arg = %#v, want &point{1, 2}", p)
	}
}

func TestExecute_OptionalNullableEnum(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}

	m := &command.ModuleBuilder{}
	m.AddCommand(&command.CommandBuilder{
		Aliases:    []string{"paint"},
		Parameters: []command.Parameter{{Name: "shade", Type: reflect.TypeFor[*shade](), Optional: true}},
		Handler:    calls.handler("paint"),
	})
	mustAddModule(t, s, m)

	mustExecute(t, s, "paint LIGHT")
	if p, ok := calls.LastArgs()[0].(*shade); !ok || p == nil || *p != "light" {
		t.Errorf("arg = %#v, want light", calls.LastArgs()[0])
	}

	mustExecute(t, s, "paint")
	if p, ok := calls.LastArgs()[0].(*shade); !ok || p != nil {
		t.Errorf("arg = %#v, want nil *shade", calls.LastArgs()[0])
	}

	if res := mustExecute(t, s, "paint null"); !res.Success() {
		t.Errorf("Execute(paint null) error = %v", res.Err())
	}
}

func TestAddModule_RejectsParameterWithoutReader(t *testing.T) {
	t.Parallel()

	type opaque struct{ v int }
	s := newTestService(t, nil)
	m := &command.ModuleBuilder{}
	m.AddCommand(&command.CommandBuilder{
		Aliases:    []string{"x"},
		Parameters: []command.Parameter{command.Param[opaque]("o")},
		Handler:    (&callRecorder{}).handler("x"),
	})
	if _, err := s.AddModule(m); !errors.Is(err, command.ErrModuleBuild) {
		t.Fatalf("AddModule() error = %v, want ErrModuleBuild", err)
	}
	if len(s.Modules()) != 0 {
		t.Error("a failed build should not register anything")
	}
}

func TestExecute_EntityParameter(t *testing.T) {
	t.Parallel()

	dir := entity.NewMemoryDirectory()
	if err := dir.Add(entity.KindUser, entity.BasicUser{UserID: "42", UserName: "alice"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	svc := command.Provide[entity.Directory](command.ServiceMap{}, dir)

	s := newTestService(t, nil)
	calls := &callRecorder{}
	m := &command.ModuleBuilder{}
	m.AddCommand(&command.CommandBuilder{
		Aliases:    []string{"whois"},
		Parameters: []command.Parameter{command.Param[entity.User]("user")},
		Handler:    calls.handler("whois"),
	})
	mustAddModule(t, s, m)

	for _, input := range []string{"whois <@42>", "whois 42", "whois ALICE"} {
		res, err := s.Execute(t.Context(), command.BasicContext{}, input, svc)
		if err != nil || !res.Success() {
			t.Fatalf("Execute(%q) = %v, %v", input, res.Err(), err)
		}
		if u := calls.LastArgs()[0].(entity.User); u.ID() != "42" {
			t.Errorf("Execute(%q) bound user %s, want 42", input, u.ID())
		}
	}
}

func TestExecute_BodyFaultBlocking(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name      string
		throw     bool
		handler   command.Handler
		wantPanic bool
	}{
		{"error thrown", true, func(context.Context, *command.Invocation) error { return boom }, false},
		{"error captured", false, func(context.Context, *command.Invocation) error { return boom }, false},
		{"panic thrown", true, func(context.Context, *command.Invocation) error { panic("kaput") }, true},
		{"panic captured", false, func(context.Context, *command.Invocation) error { panic("kaput") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestService(t, func(o *Options) { o.ThrowOnError = tt.throw })
			rec := record(s)
			m := &command.ModuleBuilder{}
			m.AddCommand(&command.CommandBuilder{Aliases: []string{"fail"}, Handler: tt.handler})
			mustAddModule(t, s, m)

			res, err := s.Execute(t.Context(), command.BasicContext{}, "fail", nil)
			if tt.throw != (err != nil) {
				t.Errorf("Execute() error = %v, want thrown = %v", err, tt.throw)
			}
			if res.Kind() != command.KindBodyFault {
				t.Fatalf("Kind() = %q, want BodyFault", res.Kind())
			}
			var fault *command.BodyFaultError
			if !errors.As(res.Err(), &fault) {
				t.Fatalf("Err() = %v, want *BodyFaultError", res.Err())
			}
			if tt.wantPanic != (fault.Panic != nil) {
				t.Errorf("Panic = %v, wantPanic %v", fault.Panic, tt.wantPanic)
			}
			if !tt.wantPanic && !errors.Is(res.Err(), boom) {
				t.Errorf("Err() = %v, want wrapped boom", res.Err())
			}
			if events := rec.Executed(); len(events) != 1 || events[0].Result.Kind() != command.KindBodyFault {
				t.Errorf("Executed events = %+v, want one body fault", events)
			}
			if len(rec.Logs(SeverityError)) == 0 {
				t.Error("a body fault should be reported on the log stream")
			}
		})
	}
}

func TestExecute_DetachedFaultReachesObserversOnly(t *testing.T) {
	t.Parallel()

	s := newTestService(t, func(o *Options) { o.DefaultRunMode = command.RunModeDetached })
	rec := record(s)
	release := make(chan struct{})

	m := &command.ModuleBuilder{}
	m.AddCommand(&command.CommandBuilder{
		Aliases: []string{"bg"},
		Handler: func(ctx context.Context, _ *command.Invocation) error {
			<-release
			if ctx.Err() != nil {
				return errors.New("body context should outlive the caller")
			}
			panic("background failure")
		},
	})
	mustAddModule(t, s, m)

	ctx, cancel := context.WithCancel(t.Context())
	res, err := s.Execute(ctx, command.BasicContext{}, "bg", nil)
	cancel()
	if err != nil || !res.Success() || !res.Detached {
		t.Fatalf("Execute() = %+v, %v; want detached success", res, err)
	}
	if len(rec.Executed()) != 0 {
		t.Error("a detached invocation should publish only when its body completes")
	}

	close(release)
	s.Wait()

	events := rec.Executed()
	if len(events) != 1 {
		t.Fatalf("Executed events = %d, want 1", len(events))
	}
	var fault *command.BodyFaultError
	if !errors.As(events[0].Result.Err(), &fault) || fault.Panic != "background failure" {
		t.Errorf("detached result = %v, want the recovered panic", events[0].Result.Err())
	}
}

func TestExecute_ObserverFailureIsLogged(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	rec := record(s)
	reached := false
	s.OnExecuted(func(context.Context, Executed) error { return errors.New("sink down") })
	s.OnExecuted(func(context.Context, Executed) error {
		reached = true
		return nil
	})

	mustExecute(t, s, "nothing")
	if !reached {
		t.Error("later subscribers should still be called")
	}
	found := false
	for _, l := range rec.Logs(SeverityError) {
		if l.Source == "observer" && strings.Contains(l.Err.Error(), "sink down") {
			found = true
		}
	}
	if !found {
		t.Error("observer failure should be reported on the log stream")
	}
}

type hookedModule struct {
	calls  *callRecorder
	before error
	after  []error
}

func (h *hookedModule) BeforeExecute(context.Context, *command.Invocation) error {
	h.calls.calls = append(h.calls.calls, "before")
	return h.before
}

func (h *hookedModule) AfterExecute(_ context.Context, _ *command.Invocation, err error) {
	h.calls.calls = append(h.calls.calls, "after")
	h.after = append(h.after, err)
}

func TestExecute_ExecuteHooks(t *testing.T) {
	t.Parallel()

	calls := &callRecorder{}
	inst := &hookedModule{calls: calls}
	s := newTestService(t, nil)

	mt := command.ModuleType{
		Key: "hooked",
		Describe: func(b *command.ModuleBuilder) error {
			b.Aliases = []string{"h"}
			b.AddCommand(&command.CommandBuilder{
				Aliases: []string{"run"},
				Handler: func(_ context.Context, inv *command.Invocation) error {
					calls.calls = append(calls.calls, "body")
					if inv.Module() != inst {
						return errors.New("invocation should expose the module instance")
					}
					return nil
				},
			})
			return nil
		},
		New: func(context.Context, command.Services) (any, error) { return inst, nil },
	}
	if _, err := s.AddModuleType(t.Context(), mt, nil); err != nil {
		t.Fatalf("AddModuleType() error = %v", err)
	}

	if res := mustExecute(t, s, "h run"); !res.Success() {
		t.Fatalf("Execute() error = %v", res.Err())
	}
	if got := calls.Calls(); !slices.Equal(got, []string{"before", "body", "after"}) {
		t.Errorf("calls = %v, want before, body, after", got)
	}

	calls.calls = nil
	inst.before = errors.New("not ready")
	res, err := s.Execute(t.Context(), command.BasicContext{}, "h run", nil)
	if err == nil || res.Kind() != command.KindBodyFault || !errors.Is(res.Err(), inst.before) {
		t.Errorf("Execute() = %v, %v; want body fault wrapping the hook error", res.Err(), err)
	}
	if got := calls.Calls(); !slices.Equal(got, []string{"before", "after"}) {
		t.Errorf("calls = %v, want before, after", got)
	}
}

func TestExecute_CaseSensitivity(t *testing.T) {
	t.Parallel()

	for _, sensitive := range []bool{false, true} {
		s := newTestService(t, func(o *Options) { o.CaseSensitive = sensitive })
		m := &command.ModuleBuilder{Aliases: []string{"Echo"}}
		m.AddCommand(&command.CommandBuilder{Aliases: []string{"Say"}, Handler: (&callRecorder{}).handler("say")})
		mustAddModule(t, s, m)

		res := mustExecute(t, s, "echo say")
		if got := res.Success(); got == sensitive {
			t.Errorf("CaseSensitive=%v: Execute(echo say) success = %v", sensitive, got)
		}
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	build := func(priority int, params ...command.Parameter) *command.Command {
		m, err := (&command.ModuleBuilder{Aliases: []string{"s"}}).AddCommand(&command.CommandBuilder{
			Priority: priority, Parameters: params, Handler: (&callRecorder{}).handler("s"),
		}).Build(command.BuildOptions{DefaultRunMode: command.RunModeBlocking})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		return m.Commands()[0]
	}
	cands := func(ws ...float64) []command.Candidate {
		out := make([]command.Candidate, len(ws))
		for i, w := range ws {
			out[i] = command.Candidate{Value: i, Weight: w}
		}
		return out
	}

	tests := []struct {
		name string
		r    ParseResult
		want float64
	}{
		{"no parameters", ParseResult{Match: Match{Command: build(3)}}, 3},
		{
			"positional only",
			ParseResult{Match: Match{Command: build(0)}, Positional: [][]command.Candidate{cands(1), cands(0.5, 0.2)}},
			0.99 * (0.75 / 2),
		},
		{
			"both kinds",
			ParseResult{
				Match:      Match{Command: build(2)},
				Positional: [][]command.Candidate{cands(1)},
				Variadic:   [][]command.Candidate{cands(0.5), cands(0.5)},
			},
			2 + 0.99*0.75,
		},
	}
	for _, tt := range tests {
		if got := Score(tt.r); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Score() = %v, want %v", tt.name, got, tt.want)
		}
	}

	perfect := ParseResult{
		Match:      Match{Command: build(0)},
		Positional: [][]command.Candidate{cands(1)},
		Variadic:   [][]command.Candidate{cands(1)},
	}
	if Score(perfect) >= 1 {
		t.Errorf("parse quality contribution %v should stay below 1", Score(perfect))
	}
}
