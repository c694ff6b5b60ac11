// SPDX-License-Identifier: MPL-2.0

package aliasindex

import (
	"maps"
	"slices"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/invowk/textcmd/pkg/command"
)

type (
	// Options configures alias matching.
	Options struct {
		// CaseSensitive disables case folding of aliases and input.
		CaseSensitive bool
		// Separator delimits alias segments and arguments.
		Separator string
	}

	// Match is one command whose full alias prefixes the looked-up text.
	Match struct {
		Command *command.Command
		// Alias is the registered full alias that matched.
		Alias string
		// Consumed is the byte length of the text matched by Alias.
		Consumed int
		// Remaining is the argument input following the alias.
		Remaining string
		// Seq orders commands by registration.
		Seq uint64
	}

	// Index maps full command aliases to commands.
	//
	// Add and Remove must be serialized by the owner. Lookup reads an
	// immutable snapshot and may run concurrently with them; a lookup racing
	// a removal may or may not observe the removed command.
	Index struct {
		opts Options
		seq  uint64
		snap atomic.Pointer[snapshot]
	}

	snapshot struct {
		byKey map[string][]entry
		seqOf map[*command.Command]uint64
	}

	entry struct {
		cmd   *command.Command
		alias string
		seq   uint64
	}
)

// New creates an empty index.
func New(opts Options) *Index {
	if opts.Separator == "" {
		opts.Separator = command.DefaultSeparator
	}
	idx := &Index{opts: opts}
	idx.snap.Store(&snapshot{
		byKey: map[string][]entry{},
		seqOf: map[*command.Command]uint64{},
	})
	return idx
}

// Options returns the matching options.
func (idx *Index) Options() Options { return idx.opts }

// Add inserts every full alias of the given commands. Commands already
// present keep their original registration order.
func (idx *Index) Add(cmds ...*command.Command) {
	cur := idx.snap.Load()
	next := &snapshot{byKey: maps.Clone(cur.byKey), seqOf: maps.Clone(cur.seqOf)}
	touched := map[string]bool{}

	for _, cmd := range cmds {
		if _, ok := next.seqOf[cmd]; ok {
			continue
		}
		idx.seq++
		next.seqOf[cmd] = idx.seq
		for _, alias := range cmd.Aliases() {
			if alias == "" {
				continue
			}
			key := idx.key(alias)
			if !touched[key] {
				next.byKey[key] = slices.Clone(next.byKey[key])
				touched[key] = true
			}
			next.byKey[key] = append(next.byKey[key], entry{cmd: cmd, alias: alias, seq: idx.seq})
		}
	}
	idx.snap.Store(next)
}

// Remove deletes every alias of the given commands. It reports whether any
// of them was present.
func (idx *Index) Remove(cmds ...*command.Command) bool {
	cur := idx.snap.Load()
	next := &snapshot{byKey: maps.Clone(cur.byKey), seqOf: maps.Clone(cur.seqOf)}
	found := false

	for _, cmd := range cmds {
		if _, ok := next.seqOf[cmd]; !ok {
			continue
		}
		found = true
		delete(next.seqOf, cmd)
		for _, alias := range cmd.Aliases() {
			key := idx.key(alias)
			kept := slices.DeleteFunc(slices.Clone(next.byKey[key]), func(e entry) bool { return e.cmd == cmd })
			if len(kept) == 0 {
				delete(next.byKey, key)
			} else {
				next.byKey[key] = kept
			}
		}
	}
	if found {
		idx.snap.Store(next)
	}
	return found
}

// Contains reports whether cmd is indexed.
func (idx *Index) Contains(cmd *command.Command) bool {
	_, ok := idx.snap.Load().seqOf[cmd]
	return ok
}

// Len returns the number of indexed commands.
func (idx *Index) Len() int { return len(idx.snap.Load().seqOf) }

// Lookup returns every indexed command whose full alias is a prefix of text
// ending at a separator, whitespace or the end of text, in registration
// order. Leading whitespace of text is ignored.
func (idx *Index) Lookup(text string) []Match {
	snap := idx.snap.Load()
	if len(snap.byKey) == 0 {
		return nil
	}
	lead := len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
	body := text[lead:]

	var out []Match
	for _, end := range idx.boundaries(body) {
		for _, e := range snap.byKey[idx.key(body[:end])] {
			out = append(out, Match{
				Command:   e.cmd,
				Alias:     e.alias,
				Consumed:  lead + end,
				Remaining: idx.trimArgs(body[end:]),
				Seq:       e.seq,
			})
		}
	}
	slices.SortStableFunc(out, func(a, b Match) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})
	return out
}

// boundaries returns the byte offsets in s where an alias may end.
func (idx *Index) boundaries(s string) []int {
	var out []int
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if i > 0 && (unicode.IsSpace(r) || strings.HasPrefix(s[i:], idx.opts.Separator)) {
			out = append(out, i)
		}
		i += size
	}
	if len(s) > 0 {
		out = append(out, len(s))
	}
	return out
}

func (idx *Index) trimArgs(s string) string {
	for {
		trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
		trimmed = strings.TrimPrefix(trimmed, idx.opts.Separator)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

func (idx *Index) key(alias string) string {
	if idx.opts.CaseSensitive {
		return alias
	}
	return cases.Fold().String(alias)
}
