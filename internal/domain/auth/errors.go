package auth

import "errors"

// ErrFlowCompleted is returned for callbacks that arrive after the flow has
// already been resolved.
var ErrFlowCompleted = errors.New("authorization flow already completed")
