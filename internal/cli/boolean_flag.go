package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	literalBoolTypeName     = "bool"
	literalBoolImplicit     = "true"
	literalBoolAccepted     = "true, false, yes, no, on, off, 1, 0"
	errorLiteralBoolFormat  = "invalid boolean value %q for --%s; accepted values: %s"
	longFlagPrefix          = "--"
	flagAssignmentSeparator = "="
)

var booleanLiterals = map[string]bool{
	"true": true, "t": true, "1": true, "yes": true, "y": true, "on": true,
	"false": false, "f": false, "0": false, "no": false, "n": false, "off": false,
}

func parseBooleanLiteral(text string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return true, true
	}
	value, known := booleanLiterals[normalized]
	return value, known
}

// literalBool is a boolean flag that also accepts yes/no and on/off spellings.
type literalBool struct {
	target *bool
	name   string
}

func (flag *literalBool) Set(input string) error {
	value, known := parseBooleanLiteral(input)
	if !known {
		return fmt.Errorf(errorLiteralBoolFormat, input, flag.name, literalBoolAccepted)
	}
	*flag.target = value
	return nil
}

func (flag *literalBool) String() string {
	if flag.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*flag.target)
}

func (flag *literalBool) Type() string {
	return literalBoolTypeName
}

// bindLiteralBool registers a literalBool flag that may be given bare ("--copy").
func bindLiteralBool(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&literalBool{target: target, name: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(defaultValue)
	registered.NoOptDefVal = literalBoolImplicit
}

// joinBooleanArguments rewrites "--flag no" into "--flag=no" for boolean flags of command
// and its subcommands, so a bare boolean flag can still take a separate literal.
func joinBooleanArguments(command *cobra.Command, arguments []string) []string {
	names := map[string]struct{}{}
	collectBooleanFlags(command, names)
	joined := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == longFlagPrefix {
			joined = append(joined, arguments[index:]...)
			break
		}
		name := strings.TrimPrefix(argument, longFlagPrefix)
		_, isBoolean := names[name]
		if isBoolean && name != argument && !strings.Contains(name, flagAssignmentSeparator) && index+1 < len(arguments) {
			next := arguments[index+1]
			if _, known := booleanLiterals[strings.ToLower(strings.TrimSpace(next))]; known {
				joined = append(joined, argument+flagAssignmentSeparator+next)
				index++
				continue
			}
		}
		joined = append(joined, argument)
	}
	return joined
}

func collectBooleanFlags(command *cobra.Command, names map[string]struct{}) {
	record := func(flag *pflag.Flag) {
		if flag.Value.Type() == literalBoolTypeName {
			names[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(record)
	command.Flags().VisitAll(record)
	for _, child := range command.Commands() {
		collectBooleanFlags(child, names)
	}
}
