// Package credential resolves operator credentials for a publish attempt.
//
// Credentials live in the platform's native secret store, reached through a
// docker-credential-helpers program. Entries are namespaced under a fixed
// service URL so logout can clear exactly this tool's credentials.
package credential

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/docker/docker-credential-helpers/client"
	"github.com/docker/docker-credential-helpers/credentials"
)

// ServiceURL is the fixed namespace under which credentials are stored.
// Individual accounts append their key ID as a path segment.
const ServiceURL = "https://registry.pithecene.io/stevedore"

// Sentinel errors for store access.
var (
	// ErrNotFound indicates no secret is stored for the account.
	// Distinct from an empty stored secret.
	ErrNotFound = errors.New("credential not found")

	// ErrStoreUnavailable indicates the secret store backend failed.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// StoredCredential is one account/secret pair held by the store.
type StoredCredential struct {
	Account string
	Secret  string
}

// Store is the persistent credential store boundary.
// Implementations are namespaced under ServiceURL.
type Store interface {
	// Get returns the secret for account, or ErrNotFound.
	Get(account string) (string, error)
	// Set persists the secret for account, overwriting any previous value.
	Set(account, secret string) error
	// List returns all stored pairs in this tool's namespace.
	List() ([]StoredCredential, error)
	// Delete removes the stored pair for account.
	Delete(account string) error
}

// helperStore is a Store backed by a docker-credential-helpers program.
type helperStore struct {
	program client.ProgramFunc
}

// NewHelperStore returns a Store backed by the named credential helper
// (e.g. "secretservice"). An empty name selects the platform default.
func NewHelperStore(helper string) Store {
	if helper == "" {
		helper = defaultHelper()
	}
	return &helperStore{program: client.NewShellProgramFunc("docker-credential-" + helper)}
}

// defaultHelper picks the conventional helper binary for the platform.
func defaultHelper() string {
	switch runtime.GOOS {
	case "darwin":
		return "osxkeychain"
	case "windows":
		return "wincred"
	default:
		return "secretservice"
	}
}

func accountURL(account string) string {
	return ServiceURL + "/" + account
}

func (s *helperStore) Get(account string) (string, error) {
	creds, err := client.Get(s.program, accountURL(account))
	if err != nil {
		if credentials.IsErrCredentialsNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return creds.Secret, nil
}

func (s *helperStore) Set(account, secret string) error {
	err := client.Store(s.program, &credentials.Credentials{
		ServerURL: accountURL(account),
		Username:  account,
		Secret:    secret,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *helperStore) List() ([]StoredCredential, error) {
	all, err := client.List(s.program)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var accounts []string
	for serverURL := range all {
		if strings.HasPrefix(serverURL, ServiceURL+"/") {
			accounts = append(accounts, strings.TrimPrefix(serverURL, ServiceURL+"/"))
		}
	}
	sort.Strings(accounts)

	stored := make([]StoredCredential, 0, len(accounts))
	for _, account := range accounts {
		secret, err := s.Get(account)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		stored = append(stored, StoredCredential{Account: account, Secret: secret})
	}
	return stored, nil
}

func (s *helperStore) Delete(account string) error {
	if err := client.Erase(s.program, accountURL(account)); err != nil {
		if credentials.IsErrCredentialsNotFound(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear removes every stored pair in this tool's namespace.
// Used by the logout command.
func Clear(store Store) (int, error) {
	stored, err := store.List()
	if err != nil {
		return 0, err
	}
	for _, sc := range stored {
		if err := store.Delete(sc.Account); err != nil {
			return 0, err
		}
	}
	return len(stored), nil
}
