package cli

// Prompter asks the user yes/no questions before destructive operations.
type Prompter interface {
	Confirm(label string, defaultYes bool) (bool, error)
}
