package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/desertthunder/signx/internal/xmljson"
)

// APIResponse is a raw API response with status and body.
//
// Bodies are decoded opportunistically: JSON into JSONData, XML into Tree. Neither is an error.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
	IsXML      bool
	Tree       map[string]any
}

// Data returns whichever decoded form is present, or the body as a string.
func (r *APIResponse) Data() any {
	switch {
	case r.IsJSON:
		return r.JSONData
	case r.IsXML:
		return r.Tree
	default:
		return string(r.Body)
	}
}

// Get performs a GET request to path (relative to the base URL) and returns the raw response.
// Non-2xx statuses are returned as data, not errors.
func (c *Client) Get(ctx context.Context, path string) (*APIResponse, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	body, status, headers, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return newAPIResponse(status, headers, body), nil
}

func newAPIResponse(status int, headers http.Header, body []byte) *APIResponse {
	resp := &APIResponse{StatusCode: status, Headers: headers, Body: body}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		resp.IsJSON = true
		resp.JSONData = jsonData
		return resp
	}

	if tree, err := xmljson.Decode(body); err == nil {
		resp.IsXML = true
		resp.Tree = tree
	}
	return resp
}
