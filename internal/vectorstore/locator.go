package vectorstore

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
)

var collectionPattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Locator is a parsed vector store address:
//
//	<scheme>://[user[:password]@]host[:port][/path][?collection=<name>&...]
//
// For file backends (chromem, sqlite) everything between "://" and "?" is a
// filesystem path, so "chromem://./data/kb" and "chromem:///var/kb" both work.
type Locator struct {
	Scheme     string
	Collection string
	URL        *url.URL
	raw        string
}

// ParseLocator validates raw and splits out its collection parameter.
// Malformed locators fail with domain.ErrUnsupportedBackend.
func ParseLocator(raw string) (Locator, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" || rest == "" {
		return Locator{}, fmt.Errorf("%w: malformed locator", domain.ErrUnsupportedBackend)
	}
	scheme = strings.ToLower(scheme)

	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: malformed locator: %v", domain.ErrUnsupportedBackend, redactError(err))
	}

	q := u.Query()
	collection := q.Get("collection")
	if collection != "" && !collectionPattern.MatchString(collection) {
		return Locator{}, fmt.Errorf("%w: invalid collection name %q", domain.ErrUnsupportedBackend, collection)
	}

	return Locator{Scheme: scheme, Collection: collection, URL: u, raw: raw}, nil
}

// WithCollection returns a copy addressing another collection
func (l Locator) WithCollection(name string) Locator {
	u := *l.URL
	q := u.Query()
	q.Set("collection", name)
	u.RawQuery = q.Encode()

	raw := l.raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	return Locator{
		Scheme:     l.Scheme,
		Collection: name,
		URL:        &u,
		raw:        raw + "?" + u.RawQuery,
	}
}

// String returns the full locator including credentials
func (l Locator) String() string {
	return l.raw
}

// Redacted returns the locator with any password or API key masked
func (l Locator) Redacted() string {
	if l.URL == nil {
		return ""
	}
	u := *l.URL
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		} else if u.User.Username() != "" {
			u.User = url.User("xxxxx")
		}
	}
	q := u.Query()
	for _, k := range []string{"api_key", "password"} {
		if q.Has(k) {
			q.Set(k, "xxxxx")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// FilePath returns the filesystem part of a file-backed locator
func (l Locator) FilePath() string {
	_, rest, _ := strings.Cut(l.raw, "://")
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// Param returns a query parameter other than collection
func (l Locator) Param(name string) string {
	return l.URL.Query().Get(name)
}

// url.Parse errors echo the input, which may contain a password.
func redactError(err error) string {
	if uerr, ok := err.(*url.Error); ok {
		return uerr.Err.Error()
	}
	return "invalid url"
}
