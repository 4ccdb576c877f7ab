package markov

import (
	"errors"
	"fmt"
)

// ErrConfigIntegrity marks model data that breaks the closure invariant. It
// aborts the generation in flight and is never patched over.
var ErrConfigIntegrity = errors.New("model integrity fault")

// IntegrityError describes one integrity problem.
type IntegrityError struct {
	State  State
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: state %q: %s", ErrConfigIntegrity, string(e.State), e.Reason)
}

// Is makes errors.Is(err, ErrConfigIntegrity) hold.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrConfigIntegrity
}
