package fetcher

import (
	"context"
	"net/http"
)

// BrowserBackend is the name of the backend that executes page scripts.
const BrowserBackend = "browser"

// Request is one page retrieval handed to a Backend.
type Request struct {
	URL    string
	Header http.Header
}

// Response is the raw outcome of a Backend fetch.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Backend retrieves a page. Implementations report transport failures as
// errors and leave status interpretation to the PageFetcher.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, req Request) (Response, error)
}
