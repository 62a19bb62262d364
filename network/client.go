package network

import (
	"context"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// NewHTTPClient returns the client every call of the flow goes through.
// A failed call is final: nothing is retried, non-2xx responses are handed back to the caller as they are.
// Request logs never show the query of a URL.
func NewHTTPClient(logger log.Logger) *retryablehttp.Client {
	client := retryhttp.NewClient(logger)
	client.Logger = &redactingLogAdaptor{logger: logger}
	client.RetryMax = 0
	client.CheckRetry = noRetryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

func noRetryPolicy(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return false, nil
}
