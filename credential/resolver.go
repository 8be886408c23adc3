package credential

import (
	"errors"
	"fmt"

	"github.com/pithecene-io/stevedore/types"
)

// Resolution errors. ErrAborted is a user-initiated halt, not a failure.
var (
	// ErrAborted indicates the operator declined to supply a secret.
	ErrAborted = errors.New("credential entry aborted")

	// ErrAlreadyResolved indicates a second Resolve call within one
	// invocation. The resolver is single-use.
	ErrAlreadyResolved = errors.New("credentials already resolved this invocation")
)

// Prompter collects interactive input from the operator.
// The interactive UI is a collaborator; the resolver only sees this boundary.
type Prompter interface {
	// Input reads a visible line of input.
	Input(label string) (string, error)
	// Secret reads a line without echo.
	Secret(label string) (string, error)
}

// Resolver resolves exactly one credential pair per invocation.
//
// States: Unresolved -> Found -> Ready when the store holds exactly one
// pair; Unresolved -> Prompted -> (Stored|Aborted) otherwise. A Ready
// resolver refuses further Resolve calls.
type Resolver struct {
	store    Store
	prompt   Prompter
	resolved bool
}

// NewResolver creates a single-use resolver over the given store and prompter.
func NewResolver(store Store, prompt Prompter) *Resolver {
	return &Resolver{store: store, prompt: prompt}
}

// Resolve returns the operator's credential pair, prompting and persisting
// if the store has no usable entry. Returns ErrAborted when the operator
// declines secret entry; nothing beyond already-persisted state is changed
// in that case.
func (r *Resolver) Resolve() (*types.Credentials, error) {
	if r.resolved {
		return nil, ErrAlreadyResolved
	}
	r.resolved = true

	stored, err := r.store.List()
	if err != nil {
		return nil, err
	}

	// Exactly one stored pair is unambiguous: use it without prompting.
	if len(stored) == 1 {
		return &types.Credentials{KeyID: stored[0].Account, Secret: stored[0].Secret}, nil
	}

	label := "Access key ID"
	if len(stored) > 1 {
		label = fmt.Sprintf("Access key ID (%d stored, choose one)", len(stored))
	}
	keyID, err := r.prompt.Input(label)
	if err != nil {
		return nil, err
	}
	if keyID == "" {
		return nil, ErrAborted
	}

	secret, err := r.store.Get(keyID)
	switch {
	case err == nil:
		return &types.Credentials{KeyID: keyID, Secret: secret}, nil
	case errors.Is(err, ErrNotFound):
		// Fall through to secret entry.
	default:
		return nil, err
	}

	secret, err = r.prompt.Secret("Secret access key")
	if err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, ErrAborted
	}

	// Persist before use so the next invocation resolves without prompting.
	if err := r.store.Set(keyID, secret); err != nil {
		return nil, err
	}
	return &types.Credentials{KeyID: keyID, Secret: secret}, nil
}
