// Package api provides an HTTP API server that streams explanations and
// reading reports to browser clients.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// ExplainContextLimit and ReportContextLimit cap the document context
	// sent upstream, in characters. Zero uses the prompt defaults.
	ExplainContextLimit int
	ReportContextLimit  int
}
