package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/grinbergai/internal/errors"
)

// classify converts a go-openai error into one of the typed variants.
// Context cancellation is passed through so callers can tell it apart.
func classify(ctx context.Context, endpoint string, err error) error {
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return apierrors.NewTimeoutError(endpoint)
		}
		return fmt.Errorf("%s: %w", endpoint, ctxErr)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(endpoint, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := errorMessageFromBody(reqErr.Body)
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return statusError(endpoint, reqErr.HTTPStatusCode, msg)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apierrors.NewParseError(err.Error(), endpoint)
	}

	return apierrors.NewNetworkError(endpoint, err)
}

func statusError(endpoint string, status int, message string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &apierrors.AuthError{Message: message, StatusCode: status}
	case 0:
		return apierrors.NewNetworkError(endpoint, errors.New(message))
	default:
		return apierrors.NewAPIError(status, endpoint, message)
	}
}

// errorMessageFromBody pulls the message out of an error payload go-openai
// could not decode itself, e.g. one produced by a proxy in front of the API.
func errorMessageFromBody(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error.message", "message", "error"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}
