package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

// SaveClient is the client side of the save protocol. It implements
// interfaces.DocumentSaver over HTTP, so an autosave coordinator can run
// against a remote server.
type SaveClient struct {
	baseURL string
	http    *http.Client
}

var _ interfaces.DocumentSaver = (*SaveClient)(nil)

// NewSaveClient creates a client for the server at baseURL.
func NewSaveClient(baseURL string) *SaveClient {
	return &SaveClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Save sends the document content to the server. A 409 response is decoded
// into *model.ConflictError carrying the server state.
func (c *SaveClient) Save(ctx context.Context, req *model.SaveRequest) (*model.SaveResult, error) {
	body, err := json.Marshal(SaveDocumentRequest{
		Content:         req.Content,
		WordCount:       req.WordCount,
		BaseFingerprint: req.BaseFingerprint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode save request: %w", err)
	}

	endpoint := c.baseURL + "/documents/" + url.PathEscape(req.DocumentID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build save request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("save request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res model.SaveResult
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, fmt.Errorf("failed to decode save result: %w", err)
		}
		return &res, nil
	case http.StatusConflict:
		var conflict SaveConflictResponse
		if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
			return nil, fmt.Errorf("failed to decode conflict response: %w", err)
		}
		return nil, &model.ConflictError{Conflict: conflict.Conflict}
	default:
		var apiErr ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return nil, fmt.Errorf("save rejected with status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("save rejected with status %d", resp.StatusCode)
	}
}
