// Package invoker executes tool calls as HTTP requests against the target API
// and normalizes every outcome into a Result.
package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/apibridge/internal/catalog"
	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// maxResponseSize caps the API response body.
const maxResponseSize = 50 << 20

// ErrUnknownTool is returned when the tool name has no metadata entry.
var ErrUnknownTool = errors.New("unknown tool")

// Lookup resolves tool names to invocation metadata.
type Lookup interface {
	Lookup(name string) (catalog.ToolMetadata, bool)
}

// Invoker sends tool calls to the API.
type Invoker struct {
	client  *http.Client
	baseURL string
	logger  *common.Logger
}

// New creates an Invoker. client is shared and must not be nil.
func New(client *http.Client, baseURL string, logger *common.Logger) *Invoker {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Invoker{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Invoke calls the tool name with args. The only error returned is
// ErrUnknownTool; transport and HTTP failures come back as a Result.
// args is not modified.
func (inv *Invoker) Invoke(ctx context.Context, tools Lookup, name string, args map[string]any) (Result, error) {
	md, ok := tools.Lookup(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	working := make(map[string]any, len(args))
	for k, v := range args {
		working[k] = v
	}

	path := md.Path
	for _, param := range md.PathParams {
		v, present := working[param]
		if !present || v == nil {
			continue
		}
		path = strings.ReplaceAll(path, "{"+param+"}", url.PathEscape(textValue(v)))
		delete(working, param)
	}

	logger := inv.logger.WithCorrelationId(uuid.NewString())
	req, err := inv.newRequest(ctx, md.Method, path, working)
	if err != nil {
		logger.Warn().Str("tool", name).Err(err).Msg("failed to build api request")
		return Result{Failure: &ErrorResult{
			Error:  err.Error(),
			Detail: "Request could not be built",
			Status: 0,
		}}, nil
	}

	logger.Debug().Str("tool", name).Str("method", req.Method).Str("url", req.URL.String()).Msg("api request")

	start := time.Now()
	resp, err := inv.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		logger.Warn().Str("tool", name).Int64("duration_ms", duration.Milliseconds()).Err(err).Msg("api request failed")
		return Result{Failure: &ErrorResult{
			Error:  err.Error(),
			Detail: TransportFailureDetail,
			Status: 0,
		}}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		logger.Warn().Str("tool", name).Err(err).Msg("failed to read api response")
	}

	logger.Debug().Str("tool", name).Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("api response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failure := &ErrorResult{
			Error:  statusMessage(req, resp.StatusCode),
			Status: resp.StatusCode,
		}
		if detail := jsonBody(body); detail != nil {
			failure.Detail = detail
		}
		return Result{Failure: failure}, nil
	}

	return Result{Body: jsonBody(body)}, nil
}

func (inv *Invoker) newRequest(ctx context.Context, method, path string, args map[string]any) (*http.Request, error) {
	target := inv.baseURL + path
	var body io.Reader
	if method == http.MethodGet {
		if q := encodeQuery(args); q != "" {
			target += "?" + q
		}
	} else {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// jsonBody returns data when it is a valid non-null JSON document, else nil.
func jsonBody(data []byte) json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return nil
	}
	if gjson.ParseBytes(data).Type == gjson.Null {
		return nil
	}
	return json.RawMessage(data)
}

// statusMessage describes a non-success response.
func statusMessage(req *http.Request, status int) string {
	kind := "Client error"
	if status >= 500 {
		kind = "Server error"
	} else if status < 400 {
		kind = "Unexpected response"
	}
	return fmt.Sprintf("%s: %s %s resulted in a %d %s response",
		kind, req.Method, req.URL.String(), status, http.StatusText(status))
}
