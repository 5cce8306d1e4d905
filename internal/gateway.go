package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// HeaderOptions controls which headers BuildHeaders emits. API key and
// bearer token are included by default; callers opt out per request.
// JSON must stay false for multipart bodies so the Content-Type set by the
// multipart writer is not clobbered.
type HeaderOptions struct {
	JSON        bool
	SkipAPIKey  bool
	SkipAuth    bool
	ContentType string // explicit override, used for multipart boundaries
}

// BuildHeaders assembles request headers from the connection config and token
func BuildHeaders(cfg ConnectionConfig, token string, opts HeaderOptions) http.Header {
	headers := http.Header{}
	if opts.JSON {
		headers.Set("Content-Type", "application/json")
	}
	if opts.ContentType != "" {
		headers.Set("Content-Type", opts.ContentType)
	}
	if !opts.SkipAPIKey && cfg.APIKey != "" {
		headers.Set("X-API-Key", cfg.APIKey)
	}
	if !opts.SkipAuth && token != "" {
		headers.Set("Authorization", "Bearer "+token)
	}
	return headers
}

// Response is the normalized result of a request. Non-2xx statuses are not
// errors at this layer; callers inspect OK and raise their own domain error.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status code is in the 2xx range
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into v, reporting whether decoding succeeded.
// An unparseable body on a 2xx response is tolerated: the caller sees
// zero values and renders placeholders.
func (r *Response) JSON(v interface{}) bool {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return false
	}
	return json.Unmarshal(r.Body, v) == nil
}

// Do performs a request against baseURL+path. It returns an error only for
// transport failures; every HTTP response, success or not, becomes a
// Response for the caller to inspect.
func Do(ctx context.Context, client *http.Client, baseURL, path, method string, headers http.Header, body io.Reader) (*Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, body)
	if err != nil {
		return nil, err
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	LogDebug("%s %s", method, path)
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: res.StatusCode, Body: data}, nil
}

// ExtractDetail derives a user-facing message from an error response body.
// Preference order: detail (string, list of {msg} items joined with spaces,
// or an object re-marshalled verbatim), then message, then error. Returns
// empty when nothing usable exists; never fails.
func ExtractDetail(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		var plain string
		if json.Unmarshal(body, &plain) == nil {
			return plain
		}
		return ""
	}
	switch detail := payload["detail"].(type) {
	case string:
		return detail
	case []interface{}:
		parts := make([]string, 0, len(detail))
		for _, item := range detail {
			entry, ok := item.(map[string]interface{})
			if !ok {
				if raw, err := json.Marshal(item); err == nil {
					parts = append(parts, string(raw))
				}
				continue
			}
			if msg, ok := entry["msg"].(string); ok && msg != "" {
				parts = append(parts, msg)
			} else if msg, ok := entry["message"].(string); ok && msg != "" {
				parts = append(parts, msg)
			} else if raw, err := json.Marshal(entry); err == nil {
				parts = append(parts, string(raw))
			}
		}
		return strings.Join(parts, " ")
	case map[string]interface{}:
		if raw, err := json.Marshal(detail); err == nil {
			return string(raw)
		}
	}
	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := payload["error"].(string); ok && msg != "" {
		return msg
	}
	return ""
}
