package completion

import "fmt"

// genericErrorMessage is reported when an error response carries no
// message of its own.
const genericErrorMessage = "API request failed"

// ConfigError reports a setting required before any request can be sent.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured: store a key with \"papermind auth\" or set PAPERMIND_LLM_API_KEY", e.Setting)
}

// TransportError reports a request the upstream API did not accept.
// StatusCode is zero when no response was received, in which case Err holds
// the connection failure.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("sending request: %v", e.Err)
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
