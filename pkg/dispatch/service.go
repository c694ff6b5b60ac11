// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/invowk/textcmd/internal/aliasindex"
	"github.com/invowk/textcmd/internal/event"
	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/typereader"
)

type (
	// Service is the module/command registry and the execution pipeline.
	//
	// Structural mutations (modules and type readers) are serialized by one
	// mutex. Enumeration, Search and Execute read immutable snapshots and are
	// never blocked by a mutation; they observe the state as of the last
	// completed mutation, or the one before it when racing.
	Service struct {
		opts    Options
		readers *typereader.Registry
		index   *aliasindex.Index

		mu    sync.Mutex
		state atomic.Pointer[registryState]

		logs     event.Hub[LogMessage]
		executed event.Hub[Executed]
		detached sync.WaitGroup
	}

	registryState struct {
		modules []*command.Module
		byKey   map[string]*command.Module
	}
)

// New creates a Service with validated options.
func New(opts Options) (*Service, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		opts:    opts,
		readers: typereader.NewRegistry(),
		index:   aliasindex.New(aliasindex.Options{CaseSensitive: opts.CaseSensitive, Separator: opts.Separator}),
	}
	s.state.Store(&registryState{byKey: map[string]*command.Module{}})
	return s, nil
}

// Options returns the service options.
func (s *Service) Options() Options { return s.opts }

// AddTypeReader registers reader for t, along with a nullable companion
// for value-semantic types.
func (s *Service) AddTypeReader(t reflect.Type, reader command.TypeReader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers.Add(t, reader)
}

// AddTypeReaderExact registers reader for t only.
func (s *Service) AddTypeReaderExact(t reflect.Type, reader command.TypeReader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers.AddExact(t, reader)
}

// TypeReaders returns the explicitly registered type readers.
func (s *Service) TypeReaders() map[reflect.Type][]command.TypeReader {
	return s.readers.Readers()
}

// ResolveReaders returns every reader applicable to t.
func (s *Service) ResolveReaders(t reflect.Type) []command.TypeReader {
	return s.readers.Resolve(t)
}

// AddModule builds b and registers the resulting module.
func (s *Service) AddModule(b *command.ModuleBuilder) (*command.Module, error) {
	s.mu.Lock()
	m, err := b.Build(s.buildOptions(""))
	if err == nil {
		s.register(m)
	}
	s.mu.Unlock()

	if err != nil {
		return nil, &command.ModuleBuildError{Name: b.Name, Cause: err}
	}
	s.log(context.Background(), SeverityDebug, "registry", nil, "added module %q with %d commands", m.Name(), len(m.AllCommands()))
	return m, nil
}

// AddModuleType registers the module described by t under t.Key.
//
// A duplicate key fails with *DuplicateModuleError and changes nothing.
// Describe or build failures fail with *ModuleBuildError and change
// nothing. Once the module is registered, t.New constructs its instance
// and a BuildHook instance is notified; a failure there is returned as a
// *ModuleBuildError carrying the module, which stays registered.
func (s *Service) AddModuleType(ctx context.Context, t command.ModuleType, svc command.Services) (*command.Module, error) {
	m, err := s.addModuleType(t)
	if err != nil {
		return nil, err
	}
	s.log(ctx, SeverityDebug, "registry", nil, "added module %q with %d commands", t.Key, len(m.AllCommands()))

	if t.New == nil {
		return m, nil
	}
	inst, err := t.New(ctx, svc)
	if err != nil {
		return m, &command.ModuleBuildError{Name: m.Name(), Key: t.Key, Module: m, Cause: fmt.Errorf("construct instance: %w", err)}
	}
	m.SetInstance(inst)
	if hook, ok := inst.(command.BuildHook); ok {
		if err := hook.OnModuleBuilt(ctx, m, svc); err != nil {
			return m, &command.ModuleBuildError{Name: m.Name(), Key: t.Key, Module: m, Cause: fmt.Errorf("post-build hook: %w", err)}
		}
	}
	return m, nil
}

func (s *Service) addModuleType(t command.ModuleType) (*command.Module, error) {
	if t.Key == "" {
		return nil, &command.ModuleBuildError{Cause: errors.New("module type key is required")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.Load().byKey[t.Key]; exists {
		return nil, &command.DuplicateModuleError{Key: t.Key}
	}
	b := &command.ModuleBuilder{}
	if t.Describe != nil {
		if err := t.Describe(b); err != nil {
			return nil, &command.ModuleBuildError{Key: t.Key, Cause: err}
		}
	}
	m, err := b.Build(s.buildOptions(t.Key))
	if err != nil {
		return nil, &command.ModuleBuildError{Name: b.Name, Key: t.Key, Cause: err}
	}
	s.register(m)
	return m, nil
}

// AddModules registers every module type src yields, in order. It stops at
// the first failure and returns the modules registered so far, including a
// partially initialized module when the failure came from its instance
// construction or post-build hook.
func (s *Service) AddModules(ctx context.Context, src command.ModuleSource, svc command.Services) ([]*command.Module, error) {
	types, err := src.ModuleTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate module types: %w", err)
	}

	added := make([]*command.Module, 0, len(types))
	for _, t := range types {
		m, err := s.AddModuleType(ctx, t, svc)
		if m != nil {
			added = append(added, m)
		}
		if err != nil {
			return added, err
		}
	}
	return added, nil
}

// RemoveModule unregisters m, a module returned by one of the Add methods,
// with all its submodules. It reports whether m was registered.
func (s *Service) RemoveModule(m *command.Module) bool {
	if m == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unregister(m)
}

// RemoveModuleKey unregisters the module registered under key.
func (s *Service) RemoveModuleKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.state.Load().byKey[key]
	if !ok {
		return false
	}
	return s.unregister(m)
}

// Module returns the module registered under key.
func (s *Service) Module(key string) (*command.Module, bool) {
	m, ok := s.state.Load().byKey[key]
	return m, ok
}

// Modules returns the registered top-level modules in registration order.
func (s *Service) Modules() []*command.Module {
	return slices.Clone(s.state.Load().modules)
}

// Commands returns every registered command, submodules included.
func (s *Service) Commands() []*command.Command {
	var out []*command.Command
	for _, m := range s.state.Load().modules {
		out = append(out, m.AllCommands()...)
	}
	return out
}

// Wait blocks until every detached command body has returned.
func (s *Service) Wait() {
	s.detached.Wait()
}

func (s *Service) buildOptions(key string) command.BuildOptions {
	return command.BuildOptions{
		Key:            key,
		Separator:      s.opts.Separator,
		DefaultRunMode: s.opts.DefaultRunMode,
		HasReader:      s.readers.Has,
	}
}

// register must be called with s.mu held.
func (s *Service) register(m *command.Module) {
	cur := s.state.Load()
	next := &registryState{
		modules: append(slices.Clip(cur.modules), m),
		byKey:   maps.Clone(cur.byKey),
	}
	if m.Key() != "" {
		next.byKey[m.Key()] = m
	}
	s.index.Add(m.AllCommands()...)
	s.state.Store(next)
}

// unregister must be called with s.mu held.
func (s *Service) unregister(m *command.Module) bool {
	cur := s.state.Load()
	i := slices.Index(cur.modules, m)
	if i < 0 {
		return false
	}
	next := &registryState{
		modules: slices.Delete(slices.Clone(cur.modules), i, i+1),
		byKey:   maps.Clone(cur.byKey),
	}
	if m.Key() != "" {
		delete(next.byKey, m.Key())
	}
	s.state.Store(next)
	s.index.Remove(m.AllCommands()...)
	return true
}
