package invoker

import (
	"encoding/json"
)

// TransportFailureDetail is the detail attached to results whose request never got a response.
const TransportFailureDetail = "Connection refused - API endpoint not accessible"

// ErrorResult is the uniform failure payload returned to the tool host.
// Status is 0 when no HTTP response was received.
type ErrorResult struct {
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
	Status int    `json:"status"`
}

// Result is either a successful response body or an ErrorResult.
type Result struct {
	// Body holds the raw JSON response on success.
	Body    json.RawMessage
	Failure *ErrorResult
}

// IsError reports whether the call failed at the transport or HTTP level.
func (r Result) IsError() bool {
	return r.Failure != nil
}

// MarshalJSON encodes the failure payload or the response body. An empty body encodes as {}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	if len(r.Body) == 0 {
		return []byte("{}"), nil
	}
	return r.Body, nil
}

// Decode unmarshals the success body into v.
func (r Result) Decode(v any) error {
	data, err := r.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
