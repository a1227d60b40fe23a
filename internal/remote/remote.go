// Package remote holds one thin service per resource of the SmartTenders REST
// API. Services translate calls into requests and unwrap response payloads;
// they hold no state.
package remote

import (
	"context"
	"net/url"

	"github.com/simp-lee/smarttenders/internal/apiclient"
)

// API is the subset of the HTTP client used by the services.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

var _ API = (*apiclient.Client)(nil)
