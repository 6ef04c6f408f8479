package crawler

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrResolution is returned when an href cannot be turned into an absolute URL.
var ErrResolution = errors.New("cannot resolve link")

// Resolve converts href discovered on the page at base into an absolute URL.
//
// An href that already carries a scheme and a host is returned unchanged.
// Otherwise the result is the base's scheme and host concatenated with the raw
// href text. No path merging, dot-segment removal or query handling is done:
// "/abc/4" against "http://www.test.com/1" yields "http://www.test.com/abc/4",
// while "abc/4" yields "http://www.test.comabc/4".
func Resolve(base, href string) (string, error) {
	if isAbsolute(href) {
		return href, nil
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: base %q: %w", ErrResolution, base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: base %q is not an absolute URL", ErrResolution, base)
	}

	return u.Scheme + "://" + u.Host + href, nil
}

// isAbsolute reports whether s parses as a URL with both scheme and host.
func isAbsolute(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
