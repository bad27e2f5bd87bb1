package sanelog

import "strings"

// sanitizeLine strips every double quote from a finished record line. The
// collector version this output targets cannot parse literal embedded quotes,
// so they are removed outright rather than escaped, including the quotes that
// belong to the JSON syntax itself. Escaped quotes inside values go first,
// together with their backslash, so quoted words in a message collapse
// cleanly (`saying "hi"` becomes `saying hi`). The result can be a malformed
// JSON line; the collector tolerates it and the behavior is part of the wire
// contract.
//
// The rule lives in this one function so a future collector upgrade can swap
// it without touching the handler.
func sanitizeLine(line string) string {
	line = strings.ReplaceAll(line, `\"`, "")
	return strings.ReplaceAll(line, `"`, "")
}
