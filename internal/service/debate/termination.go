package debate

import "strings"

// TerminalPhrase ends the debate when the facilitator says it.
const TerminalPhrase = "that is the answer"

// IsTerminal reports whether a facilitator message closes the debate.
func IsTerminal(message string) bool {
	return strings.Contains(strings.ToLower(message), TerminalPhrase)
}
