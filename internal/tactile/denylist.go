package tactile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCommandDenied marks a diagnostic command rejected by the denylist.
var ErrCommandDenied = errors.New("command denied")

// DefaultDenylist contains the tokens that reject a diagnostic command.
var DefaultDenylist = []string{
	"rm", "del", "format", "mkfs", "dd", "mv", "cp", ">", ">>", "sudo",
}

// CheckDiagnostic rejects commands containing any denylisted token. Matching
// is substring-based and deliberately conservative: `scp` is blocked because
// it contains `cp`.
func CheckDiagnostic(command string, denylist []string) error {
	if len(denylist) == 0 {
		denylist = DefaultDenylist
	}
	lowered := strings.ToLower(command)
	for _, token := range denylist {
		if strings.Contains(lowered, strings.ToLower(token)) {
			return fmt.Errorf("%w: contains %q", ErrCommandDenied, token)
		}
	}
	return nil
}
