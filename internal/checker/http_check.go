package checker

import (
	"errors"
	"net/http"
	"time"
)

const maxRedirects = 5

// HTTPCheckFunc performs one reachability request and returns the response
// status code. Any received status is a successful call; network and
// timeout problems are the only errors.
type HTTPCheckFunc func(url string) (int, error)

// NewHTTPCheck returns an HTTPCheckFunc that issues a single GET with the
// given timeout, following at most five redirects.
func NewHTTPCheck(timeout time.Duration) HTTPCheckFunc {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}

	return func(url string) (int, error) {
		resp, err := client.Get(url)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		return resp.StatusCode, nil
	}
}
