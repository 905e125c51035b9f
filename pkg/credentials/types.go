package credentials

// File is the on-disk shape of credentials.toml.
type File struct {
	Version   int              `toml:"version"`
	Providers map[string]Entry `toml:"providers"`
}

// Entry is the stored credential of one provider.
type Entry struct {
	APIKey string `toml:"api_key"`
}

// Source tells where a resolved API key came from.
type Source string

const (
	SourceNone   Source = ""
	SourceStored Source = "stored"
	SourceEnv    Source = "env"
)

// Resolved is the API key chosen for a provider.
type Resolved struct {
	Key    string
	Source Source

	// EnvVar is the provider's environment variable, whether or not it
	// supplied the key.
	EnvVar string
}
