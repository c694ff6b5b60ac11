// SPDX-License-Identifier: MPL-2.0

package aliasindex

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/invowk/textcmd/pkg/command"
)

func buildCommands(t *testing.T, sep string, module []string, aliases ...[]string) []*command.Command {
	t.Helper()

	b := &command.ModuleBuilder{Aliases: module}
	for _, a := range aliases {
		b.AddCommand(&command.CommandBuilder{
			Aliases: a,
			Handler: func(context.Context, *command.Invocation) error { return nil },
		})
	}
	m, err := b.Build(command.BuildOptions{Separator: sep, DefaultRunMode: command.RunModeBlocking})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m.Commands()
}

func matchedAliases(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Alias
	}
	return out
}

func TestLookup_PrefixAtWordBoundary(t *testing.T) {
	t.Parallel()

	cmds := buildCommands(t, " ", []string{"echo"}, []string{"say"}, []string{"s"}, []string{""})
	idx := New(Options{Separator: " "})
	idx.Add(cmds...)

	tests := []struct {
		text          string
		wantAliases   []string
		wantRemaining []string
	}{
		{"echo say hello", []string{"echo say", "echo"}, []string{"hello", "say hello"}},
		{"echo s", []string{"echo s", "echo"}, []string{"", "s"}},
		{"echo sayhello", []string{"echo"}, []string{"sayhello"}},
		{"echoes", nil, nil},
		{"ech", nil, nil},
		{"", nil, nil},
		{"  echo say x  ", []string{"echo say", "echo"}, []string{"x  ", "say x  "}},
		{"echo   say x", []string{"echo"}, []string{"say x"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			got := idx.Lookup(tt.text)
			if !slices.Equal(matchedAliases(got), tt.wantAliases) {
				t.Fatalf("Lookup(%q) aliases = %v, want %v", tt.text, matchedAliases(got), tt.wantAliases)
			}
			for i, m := range got {
				if m.Remaining != tt.wantRemaining[i] {
					t.Errorf("Lookup(%q)[%d].Remaining = %q, want %q", tt.text, i, m.Remaining, tt.wantRemaining[i])
				}
			}
		})
	}
}

func TestLookup_RegistrationOrder(t *testing.T) {
	t.Parallel()

	first := buildCommands(t, " ", nil, []string{"ping"})
	second := buildCommands(t, " ", nil, []string{"ping"})
	idx := New(Options{Separator: " "})
	idx.Add(first...)
	idx.Add(second...)

	got := idx.Lookup("ping")
	if len(got) != 2 || got[0].Command != first[0] || got[1].Command != second[0] {
		t.Fatalf("Lookup(ping) should return both commands in registration order, got %v", got)
	}
	if got[0].Seq >= got[1].Seq {
		t.Errorf("Seq not increasing: %d, %d", got[0].Seq, got[1].Seq)
	}

	// Re-adding keeps the original position.
	idx.Add(first...)
	if got := idx.Lookup("ping"); got[0].Command != first[0] {
		t.Error("re-adding a command should not change its order")
	}
}

func TestLookup_CaseFolding(t *testing.T) {
	t.Parallel()

	cmds := buildCommands(t, " ", []string{"Straße"}, []string{"Info"})

	insensitive := New(Options{Separator: " "})
	insensitive.Add(cmds...)
	for _, text := range []string{"straße info", "STRASSE INFO", "StraSSe iNfO now"} {
		if got := insensitive.Lookup(text); len(got) != 1 {
			t.Errorf("case-insensitive Lookup(%q) = %d matches, want 1", text, len(got))
		}
	}
	if got := insensitive.Lookup("STRASSE INFO now"); got[0].Remaining != "now" || got[0].Consumed != len("STRASSE INFO") {
		t.Errorf("Lookup() = %+v, want Remaining now and Consumed measured on the input", got[0])
	}

	sensitive := New(Options{CaseSensitive: true, Separator: " "})
	sensitive.Add(cmds...)
	if got := sensitive.Lookup("straße info"); len(got) != 0 {
		t.Errorf("case-sensitive Lookup() = %v, want no matches", got)
	}
	if got := sensitive.Lookup("Straße Info"); len(got) != 1 {
		t.Errorf("case-sensitive exact Lookup() = %v, want 1 match", got)
	}
}

func TestLookup_CustomSeparator(t *testing.T) {
	t.Parallel()

	cmds := buildCommands(t, ".", []string{"admin"}, []string{"ban"})
	idx := New(Options{Separator: "."})
	idx.Add(cmds...)

	got := idx.Lookup("admin.ban.alice")
	if len(got) != 1 || got[0].Alias != "admin.ban" || got[0].Remaining != "alice" {
		t.Fatalf("Lookup(admin.ban.alice) = %+v", got)
	}
	if got := idx.Lookup("admin.ban alice"); len(got) != 1 || got[0].Remaining != "alice" {
		t.Errorf("whitespace after the alias should also end it, got %+v", got)
	}
	if got := idx.Lookup("admin ban"); len(got) != 0 {
		t.Errorf("Lookup(admin ban) = %+v, want none with a dot separator", got)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	cmds := buildCommands(t, " ", []string{"tag"}, []string{"get", "g"}, []string{"set"})
	idx := New(Options{Separator: " "})
	idx.Add(cmds...)

	if !idx.Remove(cmds[0]) {
		t.Fatal("Remove() should report the command as found")
	}
	if idx.Remove(cmds[0]) {
		t.Error("second Remove() should report false")
	}
	if got := idx.Lookup("tag get x"); len(got) != 0 {
		t.Errorf("Lookup after Remove = %v, want none", got)
	}
	if got := idx.Lookup("tag g"); len(got) != 0 {
		t.Errorf("Lookup of secondary alias after Remove = %v, want none", got)
	}
	if got := idx.Lookup("tag set"); len(got) != 1 {
		t.Errorf("unrelated command should remain, got %v", got)
	}
	if idx.Contains(cmds[0]) || !idx.Contains(cmds[1]) || idx.Len() != 1 {
		t.Error("Contains/Len inconsistent after Remove")
	}
}

// TestLookup_MatchesExactlyThePrefixAliases checks Lookup against a brute
// force scan over a generated alias set.
func TestLookup_MatchesExactlyThePrefixAliases(t *testing.T) {
	t.Parallel()

	words := []string{"a", "ab", "b", "Ab", "abc"}
	var aliases [][]string
	for _, w1 := range words {
		for _, w2 := range words {
			aliases = append(aliases, []string{w1 + " " + w2})
		}
		aliases = append(aliases, []string{w1})
	}
	cmds := buildCommands(t, " ", nil, aliases...)
	idx := New(Options{Separator: " "})
	idx.Add(cmds...)

	for _, w1 := range words {
		for _, w2 := range words {
			text := w1 + " " + w2 + " tail"
			var want []string
			for _, c := range cmds {
				alias := c.Alias()
				folded := strings.ToLower(text)
				if strings.HasPrefix(folded, strings.ToLower(alias)) &&
					(len(alias) == len(text) || text[len(alias)] == ' ') {
					want = append(want, alias)
				}
			}
			got := matchedAliases(idx.Lookup(text))
			if !slices.Equal(got, want) {
				t.Errorf("Lookup(%q) = %v, want %v", text, got, want)
			}
		}
	}
}

func TestIndex_ConcurrentLookup(t *testing.T) {
	t.Parallel()

	idx := New(Options{Separator: " "})
	var aliases [][]string
	for i := range 16 {
		aliases = append(aliases, []string{fmt.Sprintf("cmd%d", i)})
	}
	all := buildCommands(t, " ", nil, aliases...)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cmds := all[i : i+1]
			mu.Lock()
			idx.Add(cmds...)
			mu.Unlock()
		}()
		go func() {
			defer wg.Done()
			_ = idx.Lookup(fmt.Sprintf("cmd%d arg", i))
		}()
	}
	wg.Wait()

	if idx.Len() != 16 {
		t.Errorf("Len() = %d, want 16", idx.Len())
	}
}
