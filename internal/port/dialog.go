package port

import "context"

// Dialog defines the interface to the human collaborator. Content is an
// ordered list of display lines; rendering is out of scope.
type Dialog interface {
	// Alert shows an informational dialog. The response carries no value.
	Alert(ctx context.Context, content []string) error

	// Confirm shows a yes/no confirmation and reports the choice.
	Confirm(ctx context.Context, content []string) (bool, error)

	// Prompt shows a free-text prompt seeded with placeholder. ok is false
	// when the human cancelled the dialog, which is distinct from submitting
	// an empty string.
	Prompt(ctx context.Context, content []string, placeholder string) (value string, ok bool, err error)
}
