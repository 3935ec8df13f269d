package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPExecutor invokes tools whose implementation kind is http: the
// impl_config carries the url and method, params are sent as a JSON body.
type HTTPExecutor struct {
	Client *http.Client
}

func NewHTTPExecutor() *HTTPExecutor {
	return &HTTPExecutor{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (h *HTTPExecutor) Execute(ctx context.Context, t Tool, params map[string]any) (any, error) {
	url, _ := t.ImplConfig["url"].(string)
	method, _ := t.ImplConfig["method"].(string)
	if method == "" {
		method = http.MethodPost
	}
	if url == "" {
		return nil, fmt.Errorf("tool %q has no impl_config.url", t.Name)
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http tool %q returned status %d: %s", t.Name, resp.StatusCode, out)
	}

	var decoded any
	if err := json.Unmarshal(out, &decoded); err != nil {
		return string(out), nil
	}
	return decoded, nil
}
