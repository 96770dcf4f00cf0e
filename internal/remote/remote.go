// Package remote executes outbound HTTP calls behind a circuit breaker and
// normalizes their failures into NetworkError, UpstreamError and
// MalformedResponseError.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
)

// maxErrorBody bounds how much of a failed response body is kept in errors.
const maxErrorBody = 512

var validate = validator.New()

// Client bundles an HTTP client with a named circuit breaker.
type Client struct {
	http    *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a Client. Calls are never retried: each failure is
// terminal for that attempt.
func NewClient(name string, httpClient *http.Client) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{http: httpClient, circuit: cb}
}

type result struct {
	status int
	body   []byte
}

// Do executes the request produced by buildRequest and returns the body of a
// 2xx response.
func (c *Client) Do(ctx context.Context, op string, buildRequest func() (*http.Request, error)) ([]byte, error) {
	if c == nil || c.http == nil {
		return nil, &NetworkError{Op: op, Err: errNoHTTPClient}
	}

	req, err := buildRequest()
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req = req.WithContext(ctx)

	out, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.http.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}

		// Only server-side trouble counts against the breaker; a 4xx is a
		// valid answer that the caller classifies below.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: excerpt(body)}
		}
		return result{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &NetworkError{Op: op, Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return nil, ue
		}
		return nil, &NetworkError{Op: op, Err: err}
	}

	res, ok := out.(result)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type from circuit breaker", op)
	}
	if res.status < 200 || res.status >= 300 {
		return nil, &UpstreamError{Op: op, StatusCode: res.status, Body: excerpt(res.body)}
	}
	return res.body, nil
}

// Decode unmarshals body into out and checks its `validate` tags. Slices are
// validated element by element.
func Decode(op string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	if err := validateShape(out); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	return nil
}

func validateShape(v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Struct:
		return validate.Struct(rv.Interface())
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			if err := validateShape(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

func excerpt(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
