// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"testing"

	"github.com/invowk/textcmd/pkg/command"
)

type hookInstance struct {
	err   error
	built *command.Module
}

func (h *hookInstance) OnModuleBuilt(_ context.Context, m *command.Module, _ command.Services) error {
	h.built = m
	return h.err
}

func echoType(key string, calls *callRecorder) command.ModuleType {
	return command.ModuleType{
		Key: key,
		Describe: func(b *command.ModuleBuilder) error {
			b.Name = key
			b.Aliases = []string{key}
			b.AddCommand(&command.CommandBuilder{
				Aliases:    []string{"say"},
				Parameters: []command.Parameter{command.Param[string]("text")},
				Handler:    calls.handler(key),
			})
			return nil
		},
	}
}

func TestAddModuleType_DuplicateKey(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}
	original, err := s.AddModuleType(t.Context(), echoType("echo", calls), nil)
	if err != nil {
		t.Fatalf("AddModuleType() error = %v", err)
	}

	replacement := echoType("echo", calls)
	replacement.Describe = func(b *command.ModuleBuilder) error {
		b.Aliases = []string{"other"}
		b.AddCommand(&command.CommandBuilder{Aliases: []string{"cmd"}, Handler: calls.handler("other")})
		return nil
	}
	_, err = s.AddModuleType(t.Context(), replacement, nil)
	if !errors.Is(err, command.ErrDuplicateModule) {
		t.Fatalf("AddModuleType(duplicate) error = %v, want ErrDuplicateModule", err)
	}
	var dup *command.DuplicateModuleError
	if !errors.As(err, &dup) || dup.Key != "echo" {
		t.Errorf("errors.As(*DuplicateModuleError) failed for %v", err)
	}

	if got, _ := s.Module("echo"); got != original {
		t.Error("the existing registration should be untouched")
	}
	if len(s.Modules()) != 1 {
		t.Errorf("Modules() = %d, want 1", len(s.Modules()))
	}
	if res := s.Search("other cmd"); res.Err() == nil {
		t.Error("the rejected module should not be searchable")
	}
	if res := mustExecute(t, s, "echo say hi"); !res.Success() {
		t.Errorf("original module should still execute, got %v", res.Err())
	}
}

func TestAddModuleType_PostBuildFaultKeepsRegistration(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}
	hookErr := errors.New("hook failed")
	inst := &hookInstance{err: hookErr}

	mt := echoType("echo", calls)
	mt.New = func(context.Context, command.Services) (any, error) { return inst, nil }

	m, err := s.AddModuleType(t.Context(), mt, nil)
	if !errors.Is(err, command.ErrModuleBuild) || !errors.Is(err, hookErr) {
		t.Fatalf("AddModuleType() error = %v, want ModuleBuildError wrapping hook error", err)
	}
	var buildErr *command.ModuleBuildError
	if !errors.As(err, &buildErr) || buildErr.Module == nil || buildErr.Module != m {
		t.Fatalf("ModuleBuildError.Module = %v, want the registered module", buildErr)
	}
	if inst.built != m {
		t.Error("OnModuleBuilt should receive the registered module")
	}
	if m.Instance() != inst {
		t.Error("the instance should be attached before the hook runs")
	}

	// The structural entry survives the hook failure.
	if got, ok := s.Module("echo"); !ok || got != m {
		t.Fatal("module should remain registered after a post-build fault")
	}
	if res := mustExecute(t, s, "echo say hi"); !res.Success() {
		t.Errorf("module should still execute, got %v", res.Err())
	}
	if _, err := s.AddModuleType(t.Context(), echoType("echo", calls), nil); !errors.Is(err, command.ErrDuplicateModule) {
		t.Errorf("re-adding the key should report a duplicate, got %v", err)
	}
}

func TestAddModuleType_FactoryFailureKeepsRegistration(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	factoryErr := errors.New("no database")
	mt := echoType("echo", &callRecorder{})
	mt.New = func(context.Context, command.Services) (any, error) { return nil, factoryErr }

	m, err := s.AddModuleType(t.Context(), mt, nil)
	if !errors.Is(err, factoryErr) {
		t.Fatalf("AddModuleType() error = %v, want factory error", err)
	}
	if m == nil || m.Instance() != nil {
		t.Errorf("module = %v, want registered module without instance", m)
	}
	if _, ok := s.Module("echo"); !ok {
		t.Error("module should remain registered after a factory fault")
	}
}

func TestAddModuleType_FactoryReceivesServices(t *testing.T) {
	t.Parallel()

	type config struct{ name string }
	svc := command.Provide(command.ServiceMap{}, config{name: "prod"})
	s := newTestService(t, nil)

	var got config
	mt := echoType("echo", &callRecorder{})
	mt.New = func(_ context.Context, svc command.Services) (any, error) {
		got, _ = command.Resolve[config](svc)
		return struct{}{}, nil
	}
	if _, err := s.AddModuleType(t.Context(), mt, svc); err != nil {
		t.Fatalf("AddModuleType() error = %v", err)
	}
	if got.name != "prod" {
		t.Errorf("factory saw %+v, want the supplied service", got)
	}
}

func TestAddModuleType_BuildFailuresChangeNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mt   command.ModuleType
	}{
		{"missing key", command.ModuleType{Describe: func(*command.ModuleBuilder) error { return nil }}},
		{"describe error", command.ModuleType{Key: "k", Describe: func(*command.ModuleBuilder) error { return errors.New("bad") }}},
		{"missing handler", command.ModuleType{Key: "k", Describe: func(b *command.ModuleBuilder) error {
			b.AddCommand(&command.CommandBuilder{Aliases: []string{"x"}})
			return nil
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestService(t, nil)
			m, err := s.AddModuleType(t.Context(), tt.mt, nil)
			if !errors.Is(err, command.ErrModuleBuild) || m != nil {
				t.Fatalf("AddModuleType() = %v, %v; want nil, ErrModuleBuild", m, err)
			}
			if len(s.Modules()) != 0 || len(s.Commands()) != 0 {
				t.Error("a failed build should not register anything")
			}
		})
	}
}

func TestRemoveModule_RemovesSubmoduleCommands(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}
	sub := &command.ModuleBuilder{Aliases: []string{"role"}}
	sub.AddCommand(&command.CommandBuilder{Aliases: []string{"add"}, Handler: calls.handler("role add")})
	root := &command.ModuleBuilder{Aliases: []string{"admin"}}
	root.AddCommand(&command.CommandBuilder{Aliases: []string{"ban"}, Handler: calls.handler("ban")})
	root.AddSubmodule(sub)
	m := mustAddModule(t, s, root)

	other := &command.ModuleBuilder{Aliases: []string{"misc"}}
	other.AddCommand(&command.CommandBuilder{Aliases: []string{"ping"}, Handler: calls.handler("ping")})
	mustAddModule(t, s, other)

	if len(s.Commands()) != 3 {
		t.Fatalf("Commands() = %d, want 3", len(s.Commands()))
	}
	if !s.RemoveModule(m) {
		t.Fatal("RemoveModule() = false, want true")
	}
	if s.RemoveModule(m) {
		t.Error("second RemoveModule() should report false")
	}
	for _, input := range []string{"admin ban", "admin role add"} {
		if res := mustExecute(t, s, input); res.Kind() != command.KindUnknownCommand {
			t.Errorf("Execute(%q).Kind() = %q, want UnknownCommand", input, res.Kind())
		}
	}
	if res := mustExecute(t, s, "misc ping"); !res.Success() {
		t.Errorf("unrelated module should remain, got %v", res.Err())
	}
	if len(s.Commands()) != 1 {
		t.Errorf("Commands() = %d, want 1", len(s.Commands()))
	}
}

func TestRemoveModule_SubmoduleIsNotARegistration(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	sub := &command.ModuleBuilder{Aliases: []string{"b"}}
	sub.AddCommand(&command.CommandBuilder{Aliases: []string{"c"}, Handler: (&callRecorder{}).handler("c")})
	root := (&command.ModuleBuilder{Aliases: []string{"a"}}).AddSubmodule(sub)
	m := mustAddModule(t, s, root)

	if s.RemoveModule(m.Submodules()[0]) {
		t.Error("RemoveModule(submodule) should report false")
	}
	if s.RemoveModule(nil) {
		t.Error("RemoveModule(nil) should report false")
	}
}

func TestRemoveModuleKey(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	if _, err := s.AddModuleType(t.Context(), echoType("echo", &callRecorder{}), nil); err != nil {
		t.Fatalf("AddModuleType() error = %v", err)
	}
	if s.RemoveModuleKey("missing") {
		t.Error("RemoveModuleKey(missing) should report false")
	}
	if !s.RemoveModuleKey("echo") {
		t.Fatal("RemoveModuleKey(echo) = false, want true")
	}
	if res := mustExecute(t, s, "echo say hi"); res.Kind() != command.KindUnknownCommand {
		t.Errorf("Kind() = %q, want UnknownCommand after removal", res.Kind())
	}
	if _, err := s.AddModuleType(t.Context(), echoType("echo", &callRecorder{}), nil); err != nil {
		t.Errorf("re-adding a removed key error = %v", err)
	}
}

func TestAddModules_Batch(t *testing.T) {
	t.Parallel()

	calls := &callRecorder{}
	s := newTestService(t, nil)
	src := command.ModuleSourceFunc(func(context.Context) ([]command.ModuleType, error) {
		return []command.ModuleType{echoType("a", calls), echoType("b", calls), echoType("a", calls), echoType("c", calls)}, nil
	})

	added, err := s.AddModules(t.Context(), src, nil)
	if !errors.Is(err, command.ErrDuplicateModule) {
		t.Fatalf("AddModules() error = %v, want ErrDuplicateModule", err)
	}
	keys := make([]string, len(added))
	for i, m := range added {
		keys[i] = m.Key()
	}
	if !slices.Equal(keys, []string{"a", "b"}) {
		t.Errorf("added = %v, want [a b]", keys)
	}
	if _, ok := s.Module("c"); ok {
		t.Error("modules after the failure should not be added")
	}

	srcErr := errors.New("scan failed")
	if _, err := s.AddModules(t.Context(), command.ModuleSourceFunc(func(context.Context) ([]command.ModuleType, error) {
		return nil, srcErr
	}), nil); !errors.Is(err, srcErr) {
		t.Errorf("AddModules() error = %v, want source error", err)
	}
}

func TestTypeReaders_Enumeration(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	s.AddTypeReader(reflect.TypeFor[point](), pointReader())
	s.AddTypeReaderExact(reflect.TypeFor[[]point](), pointReader())

	readers := s.TypeReaders()
	for _, typ := range []reflect.Type{reflect.TypeFor[point](), reflect.TypeFor[*point](), reflect.TypeFor[[]point]()} {
		if len(readers[typ]) != 1 {
			t.Errorf("TypeReaders()[%s] = %d readers, want 1", typ, len(readers[typ]))
		}
	}
	if len(s.ResolveReaders(reflect.TypeFor[int]())) != 1 {
		t.Error("ResolveReaders(int) should return the default reader")
	}
}

func TestService_ConcurrentExecuteAndMutation(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil)
	calls := &callRecorder{}
	if _, err := s.AddModuleType(t.Context(), echoType("stable", calls), nil); err != nil {
		t.Fatalf("AddModuleType() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("m%d", i)
			if _, err := s.AddModuleType(context.Background(), echoType(key, calls), nil); err != nil {
				errs <- err
				return
			}
			s.RemoveModuleKey(key)
		}()
		go func() {
			defer wg.Done()
			res, err := s.Execute(context.Background(), command.BasicContext{}, "stable say hi", nil)
			if err != nil || !res.Success() {
				errs <- fmt.Errorf("execute: %v, %w", res.Err(), err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if len(s.Modules()) != 1 {
		t.Errorf("Modules() = %d, want only the stable module", len(s.Modules()))
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Options)
		target error
	}{
		{"empty separator", func(o *Options) { o.Separator = "" }, ErrInvalidOptions},
		{"default run mode default", func(o *Options) { o.DefaultRunMode = command.RunModeDefault }, ErrInvalidOptions},
		{"unknown run mode", func(o *Options) { o.DefaultRunMode = "eventually" }, command.ErrInvalidRunMode},
		{"unknown multi-match", func(o *Options) { o.MultiMatch = "first" }, ErrInvalidMultiMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := DefaultOptions()
			tt.mutate(&opts)
			if _, err := New(opts); !errors.Is(err, tt.target) {
				t.Errorf("New() error = %v, want %v", err, tt.target)
			}
		})
	}

	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("DefaultOptions().Validate() = %v", err)
	}
}
