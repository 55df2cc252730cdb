package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// rawResponse is a fully read HTTP response.
type rawResponse struct {
	status int
	body   []byte
}

// serverError carries a 5xx response through the breaker so it counts as a failure while
// the caller can still classify the body.
type serverError struct {
	resp rawResponse
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: status %d", e.resp.status)
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequest sends req through the circuit breaker and reads the body. Transport failures
// and an open breaker come back as errors; any HTTP response, 5xx included, comes back as
// a rawResponse.
func doRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (rawResponse, error) {
	if client == nil {
		return rawResponse{}, errNoHTTPClient
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, readErr
		}
		raw := rawResponse{status: resp.StatusCode, body: body}
		if resp.StatusCode >= 500 {
			return nil, &serverError{resp: raw}
		}
		return raw, nil
	})

	if err == nil {
		raw, ok := result.(rawResponse)
		if !ok {
			return rawResponse{}, fmt.Errorf("unexpected result type from circuit breaker")
		}
		return raw, nil
	}

	var se *serverError
	if errors.As(err, &se) {
		return se.resp, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return rawResponse{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	return rawResponse{}, err
}
