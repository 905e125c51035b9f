// Package credentials stores provider API keys in credentials.toml and
// resolves the key a provider should be called with.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/papermind/pkg/dotdir"
	"github.com/papercomputeco/papermind/pkg/llm/provider"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

var envVars = map[string]string{
	provider.DeepSeek: "DEEPSEEK_API_KEY",
	provider.OpenAI:   "OPENAI_API_KEY",
}

var (
	// ErrEmptyKey is returned when storing a blank API key.
	ErrEmptyKey = errors.New("API key cannot be empty")

	// ErrUnsupportedProvider is returned for a provider papermind cannot call.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// Manager reads and writes credentials.toml in a .papermind/ directory.
type Manager struct {
	path string
}

// NewManager keeps credentials.toml in the directory dotdir.Resolve picks
// for override.
func NewManager(override string) (*Manager, error) {
	dir, err := dotdir.Resolve(override)
	if err != nil {
		return nil, err
	}
	return &Manager{path: filepath.Join(dir, credentialsFile)}, nil
}

// Path returns the credentials file location.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the credentials file. A missing file yields an empty File.
func (m *Manager) Load() (*File, error) {
	f := &File{Version: currentVersion}

	data, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("parsing credentials %s: %w", m.path, err)
		}
	}

	if f.Providers == nil {
		f.Providers = make(map[string]Entry)
	}
	return f, nil
}

// Save replaces the credentials file with an owner-only copy of f.
func (m *Manager) Save(f *File) error {
	if f == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := dotdir.WriteFile(m.path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

func (m *Manager) update(fn func(*File)) error {
	f, err := m.Load()
	if err != nil {
		return err
	}
	fn(f)
	return m.Save(f)
}

// SetKey stores key for a supported provider. Surrounding whitespace is
// trimmed from both.
func (m *Manager) SetKey(name, key string) error {
	name = Normalize(name)
	if !IsSupportedProvider(name) {
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	return m.update(func(f *File) {
		f.Providers[name] = Entry{APIKey: key}
	})
}

// GetKey returns the stored key for a provider, or "" when none is stored.
func (m *Manager) GetKey(name string) (string, error) {
	f, err := m.Load()
	if err != nil {
		return "", err
	}
	return f.Providers[Normalize(name)].APIKey, nil
}

// RemoveKey deletes a provider's stored key. Removing an absent key is not
// an error.
func (m *Manager) RemoveKey(name string) error {
	return m.update(func(f *File) {
		delete(f.Providers, Normalize(name))
	})
}

// ListProviders returns the sorted names of providers with a stored key.
func (m *Manager) ListProviders() ([]string, error) {
	f, err := m.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(f.Providers))
	for name, e := range f.Providers {
		if e.APIKey != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Resolve picks the key to call a provider with: the stored key, else the
// provider's environment variable.
func (m *Manager) Resolve(name string) (Resolved, error) {
	name = Normalize(name)

	key, err := m.GetKey(name)
	if err != nil {
		return Resolved{}, err
	}
	if key != "" {
		return Resolved{Key: key, Source: SourceStored, EnvVar: envVars[name]}, nil
	}
	return FromEnv(name), nil
}

// FromEnv resolves a provider's key from its environment variable only.
func FromEnv(name string) Resolved {
	r := Resolved{EnvVar: envVars[Normalize(name)]}
	if r.EnvVar == "" {
		return r
	}
	if key := strings.TrimSpace(os.Getenv(r.EnvVar)); key != "" {
		r.Key = key
		r.Source = SourceEnv
	}
	return r
}

// EnvVarForProvider returns the environment variable holding a provider's
// key, or "" for an unknown provider.
func EnvVarForProvider(name string) string {
	return envVars[Normalize(name)]
}

// SupportedProviders returns the providers that take an API key, sorted.
func SupportedProviders() []string {
	names := slices.Clone(provider.SupportedProviders())
	slices.Sort(names)
	return names
}

// IsSupportedProvider reports whether name is a supported provider.
func IsSupportedProvider(name string) bool {
	return slices.Contains(provider.SupportedProviders(), Normalize(name))
}

// Normalize lowercases and trims a provider name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
