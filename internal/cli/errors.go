package cli

import "errors"

// ErrPromptCancelled is returned when the user backs out of a
// confirmation prompt before answering. Callers treat it as a decline,
// not a failure.
var ErrPromptCancelled = errors.New("prompt cancelled")
