package astcheck

import (
	"fmt"
	"strings"
)

// Message keys.
const (
	MsgNestedIfDepth          = "nested.if.depth"
	MsgNestedTryDepth         = "nested.try.depth"
	MsgArrayTrailingComma     = "array.trailing.comma"
	MsgNoTrailingComma        = "no.trailing.comma"
	MsgDoubleBraceInit        = "avoid.double.brace.init"
	MsgOutdatedAPI            = "outdated.api"
	MsgRedundantTypeArguments = "redundant.type.arguments"
	MsgMethodLength           = "method.length"
	MsgParameterNumber        = "parameter.number"
	MsgEmptyCatchBlock        = "empty.catch.block"
)

var catalog = map[string]string{
	MsgNestedIfDepth:          "Nested if-else depth is %s (max allowed is %s).",
	MsgNestedTryDepth:         "Nested try depth is %s (max allowed is %s).",
	MsgArrayTrailingComma:     "Array should contain trailing comma.",
	MsgNoTrailingComma:        "Trailing comma is not allowed here.",
	MsgDoubleBraceInit:        "Avoid double brace initialization.",
	MsgOutdatedAPI:            "Usage of outdated API %s: %s.",
	MsgRedundantTypeArguments: "Redundant type arguments %s, inferable from %s.",
	MsgMethodLength:           "Method length is %s lines (max allowed is %s).",
	MsgParameterNumber:        "More than %[2]s parameters (found %[1]s).",
	MsgEmptyCatchBlock:        "Empty catch block.",
}

var descriptions = map[string]string{
	"nested-if-depth":             "Restricts nested if-else blocks to a specified depth.",
	"nested-try-depth":            "Restricts nested try blocks to a specified depth.",
	"array-trailing-comma":        "Requires a trailing comma in multi-line array initializers.",
	"no-trailing-comma":           "Forbids a trailing comma in array initializers and enum constant lists.",
	"double-brace-initialization": "Detects double brace initialization of anonymous classes.",
	"outdated-api":                "Detects calls to deprecated or outdated JDK APIs.",
	"redundant-type-arguments":    "Detects record pattern type arguments that repeat the matched type.",
	"method-length":               "Restricts the number of lines in a method or constructor.",
	"parameter-number":            "Restricts the number of parameters of a method or constructor.",
	"empty-catch-block":           "Detects catch blocks with no statements.",
}

// Describe returns a one-line description of a built-in check, or "" if
// the check is unknown.
func Describe(check string) string {
	return descriptions[check]
}

// Render formats a message key with its arguments. Unknown keys render as the
// key followed by the arguments.
func Render(key string, args []string) string {
	format, ok := catalog[key]
	if !ok {
		if len(args) == 0 {
			return key
		}
		return key + " " + strings.Join(args, ", ")
	}
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return fmt.Sprintf(format, vals...)
}
