package estester

import "fmt"

// ConfigurationError reports a malformed fixture declaration. It is always
// surfaced before any backend call is attempted, so a bad fixture never
// leaves a partially provisioned index behind.
type ConfigurationError struct {
	Index  string // index the fixture belongs to (may be empty)
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Index != "" {
		return fmt.Sprintf("invalid fixture for index %q: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid fixture: %s", e.Reason)
}

// BackendError reports a request Elasticsearch rejected. Type and Reason
// carry the decoded error object from the response body when the backend
// provided one.
type BackendError struct {
	StatusCode int
	Type       string
	Reason     string
}

func (e *BackendError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("elasticsearch error [%d] %s: %s", e.StatusCode, e.Type, e.Reason)
	}
	return fmt.Sprintf("elasticsearch error [%d]: %s", e.StatusCode, e.Reason)
}
