package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError carries a backend-reported failure. Message holds the JSON
// message/error/detail field when the backend sent one; it stays empty when
// the response carried no usable text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.UserMessage(), e.Status)
}

// UserMessage is the text surfaced to the visitor, verbatim when the backend
// supplied one and "HTTP <status>" otherwise.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}
	if len(body) == 0 {
		return apiErr
	}
	var payload struct {
		Message string `json:"message"`
		Err     string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, msg := range []string{payload.Message, payload.Err, payload.Detail} {
			if strings.TrimSpace(msg) != "" {
				apiErr.Message = strings.TrimSpace(msg)
				break
			}
		}
	}
	return apiErr
}
