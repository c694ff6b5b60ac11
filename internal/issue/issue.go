// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"

	"github.com/invowk/textcmd/pkg/command"
)

const (
	ConfigLoadFailedId Id = iota + 1
	DescriptorLoadFailedId
	DuplicateModuleId
	ModuleBuildFailedId
	UnknownCommandId
	PreconditionFailedId
	ArgumentCountMismatchId
	ConversionFailedId
	MultipleMatchesId
	BodyFaultId
	ScriptFailedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
	}
)

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the CUE syntax of your config file
- Show the effective configuration:
~~~
$ textcmd config show
~~~
- Point at a different file:
~~~
$ textcmd --config ./config.cue list
~~~`,
	}

	descriptorLoadFailedIssue = &Issue{
		id: DescriptorLoadFailedId,
		mdMsg: `
# Failed to load a module descriptor!

Descriptors are ` + "`*.textcmd.cue`" + ` or ` + "`*.textcmd.toml`" + ` files matched by ` + "`modules.paths`" + `.

## Common issues:
- A command without a script
- An unknown parameter type (valid: string, bool, int, int64, uint, float,
  duration, time, uuid, user, channel, role, message, with an optional ` + "`?`" + ` suffix)
- Two modules sharing the same key

## Example descriptor:
~~~cue
modules: [{
  key: "greet"
  aliases: ["greet", "hello"]
  commands: [{
    aliases: ["user"]
    parameters: [{name: "who", type: "string"}]
    script: "echo hello $1"
  }]
}]
~~~`,
	}

	duplicateModuleIssue = &Issue{
		id: DuplicateModuleId,
		mdMsg: `
# Module registered twice!

A module key must be unique across all descriptor files.

## Things you can try:
- Rename the ` + "`key`" + ` of one of the modules
- Check that two globs in ` + "`modules.paths`" + ` do not match the same file`,
	}

	moduleBuildFailedIssue = &Issue{
		id: ModuleBuildFailedId,
		mdMsg: `
# Module could not be built!

## Common issues:
- A command has no alias and its module has no prefix
- A remainder or multiple parameter that is not the last one
- A parameter type without a type reader`,
	}

	unknownCommandIssue = &Issue{
		id: UnknownCommandId,
		mdMsg: `
# Command not found!

No registered alias is a prefix of the input.

## Things you can try:
- List all available commands:
~~~
$ textcmd list
~~~
- Show the candidates for an input:
~~~
$ textcmd search "your input"
~~~`,
	}

	preconditionFailedIssue = &Issue{
		id: PreconditionFailedId,
		mdMsg: `
# Command not allowed here!

Every matching command rejected the invocation context.

## Things you can try:
- Pass an author or channel with ` + "`--author`" + ` and ` + "`--channel`" + `
- Check the ` + "`preconditions`" + ` of the command and its modules`,
	}

	argumentCountMismatchIssue = &Issue{
		id: ArgumentCountMismatchId,
		mdMsg: `
# Wrong number of arguments!

## Things you can try:
- Show the parameters of the command:
~~~
$ textcmd help "command alias"
~~~
- Quote arguments containing spaces: ` + "`\"two words\"`" + `
- Close every opened quote`,
	}

	conversionFailedIssue = &Issue{
		id: ConversionFailedId,
		mdMsg: `
# Argument has the wrong type!

No type reader accepted one of the arguments.

## Things you can try:
- Check the parameter types with ` + "`textcmd help`" + `
- Durations use Go syntax (` + "`1h30m`" + `), times use RFC 3339`,
	}

	multipleMatchesIssue = &Issue{
		id: MultipleMatchesId,
		mdMsg: `
# Ambiguous argument!

An argument matched more than one value equally well.

## Things you can try:
- Use a mention or an ID instead of a name
- Set ` + "`dispatch.multi_match: \"best\"`" + ` to pick the highest-weight value`,
	}

	bodyFaultIssue = &Issue{
		id: BodyFaultId,
		mdMsg: `
# Command failed!

The command was selected and started, but its body reported an error.`,
	}

	scriptFailedIssue = &Issue{
		id: ScriptFailedId,
		mdMsg: `
# Script exited with an error!

## Things you can try:
- Run with ` + "`--verbose`" + ` to see the script output and exit status
- Arguments are available as ` + "`$1..$n`" + ` and ` + "`TEXTCMD_ARG_<NAME>`" + ``,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		descriptorLoadFailedIssue.Id():  descriptorLoadFailedIssue,
		duplicateModuleIssue.Id():       duplicateModuleIssue,
		moduleBuildFailedIssue.Id():     moduleBuildFailedIssue,
		unknownCommandIssue.Id():        unknownCommandIssue,
		preconditionFailedIssue.Id():    preconditionFailedIssue,
		argumentCountMismatchIssue.Id(): argumentCountMismatchIssue,
		conversionFailedIssue.Id():      conversionFailedIssue,
		multipleMatchesIssue.Id():       multipleMatchesIssue,
		bodyFaultIssue.Id():             bodyFaultIssue,
		scriptFailedIssue.Id():          scriptFailedIssue,
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue as terminal markdown using the named glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

// Values returns every known issue ordered by Id.
func Values() []*Issue {
	ids := slices.Sorted(maps.Keys(issues))
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// ScriptFailure is implemented by errors from descriptor scripts so they can
// be told apart from other body faults.
type ScriptFailure interface {
	error
	ExitStatus() uint8
}

// ForError returns the issue describing err, or nil when none applies.
func ForError(err error) *Issue {
	if err == nil {
		return nil
	}
	var (
		parseErr  *command.ParseError
		scriptErr ScriptFailure
	)
	switch {
	case errors.As(err, &parseErr):
		switch parseErr.Failure {
		case command.ArgumentCountMismatch:
			return Get(ArgumentCountMismatchId)
		case command.ConversionFailed:
			return Get(ConversionFailedId)
		case command.MultipleMatches:
			return Get(MultipleMatchesId)
		}
		return nil
	case errors.Is(err, command.ErrUnknownCommand):
		return Get(UnknownCommandId)
	case errors.Is(err, command.ErrPreconditionFailed):
		return Get(PreconditionFailedId)
	case errors.As(err, &scriptErr):
		return Get(ScriptFailedId)
	case errors.Is(err, command.ErrBodyFault):
		return Get(BodyFaultId)
	case errors.Is(err, command.ErrDuplicateModule):
		return Get(DuplicateModuleId)
	case errors.Is(err, command.ErrModuleBuild):
		return Get(ModuleBuildFailedId)
	}
	return nil
}
