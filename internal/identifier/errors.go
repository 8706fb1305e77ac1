package identifier

import (
	"fmt"
	"strings"
)

// MalformedError reports a token that cannot be classified.
type MalformedError struct {
	Token  string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed identifier %q: %s", e.Token, e.Reason)
}

// DuplicateIdentifierError rejects a batch containing repeated tokens.
type DuplicateIdentifierError struct {
	Tokens []string // Offending tokens, in first-seen order
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate identifiers: %s", strings.Join(e.Tokens, ", "))
}
