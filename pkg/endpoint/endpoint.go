// Package endpoint builds request targets for the cards API.
package endpoint

import (
	"fmt"
	"net/url"
	"strings"

	fetcherrors "github.com/samvad-hq/mtg-card-harvester/pkg/errors"
)

const scheme = "https"

// PathKind enumerates the known API routes.
type PathKind int

const (
	// PathCards is the card search route.
	PathCards PathKind = iota
	// PathUnreachable is a route the API never serves; used for negative checks.
	PathUnreachable
)

var pathLiterals = map[PathKind]string{
	PathCards:       "/v1/cards",
	PathUnreachable: "/v0/neverfindable",
}

var pathNames = map[string]PathKind{
	"cards":       PathCards,
	"unreachable": PathUnreachable,
}

// Literal returns the fixed path string for the kind.
func (p PathKind) Literal() (string, bool) {
	lit, ok := pathLiterals[p]
	return lit, ok
}

// String returns the literal path, or a placeholder for unknown kinds.
func (p PathKind) String() string {
	if lit, ok := p.Literal(); ok {
		return lit
	}
	return fmt.Sprintf("PathKind(%d)", int(p))
}

// ParsePathKind resolves a configured route name ("cards", "unreachable").
func ParsePathKind(name string) (PathKind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return PathCards, nil
	}
	if p, ok := pathNames[key]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown path %q", name)
}

// QueryParam is one name/value pair of the query string.
type QueryParam struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Endpoint is the full target of one request. The zero value has no host and
// fails to build.
type Endpoint struct {
	host  string
	path  PathKind
	query []QueryParam
}

// New returns an Endpoint holding its own copy of query.
func New(host string, path PathKind, query ...QueryParam) Endpoint {
	return Endpoint{
		host:  host,
		path:  path,
		query: append([]QueryParam(nil), query...),
	}
}

func (e Endpoint) Host() string   { return e.host }
func (e Endpoint) Path() PathKind { return e.path }

// Query returns a copy of the ordered query parameters.
func (e Endpoint) Query() []QueryParam {
	return append([]QueryParam(nil), e.query...)
}

// URL builds the request target for the endpoint.
func (e Endpoint) URL() (*url.URL, error) {
	return Build(e.host, e.path, e.query)
}

// Build constructs https://{host}{path}?{query} with the parameters in the
// order given. Values are escaped so they reach the server literally.
func Build(host string, path PathKind, query []QueryParam) (*url.URL, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fetcherrors.NewInvalidURL("host is empty", nil)
	}
	literal, ok := path.Literal()
	if !ok {
		return nil, fetcherrors.NewInvalidURL(fmt.Sprintf("unknown path kind %d", int(path)), nil)
	}

	rawQuery, err := EncodeQuery(query)
	if err != nil {
		return nil, fetcherrors.NewInvalidURL("encode query", err)
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(literal)
	if rawQuery != "" {
		b.WriteByte('?')
		b.WriteString(rawQuery)
	}

	u, err := url.Parse(b.String())
	if err != nil {
		return nil, fetcherrors.NewInvalidURL("parse request target", err)
	}
	if u.User != nil || u.Host != host || u.Path != literal || u.Fragment != "" {
		return nil, fetcherrors.NewInvalidURL(fmt.Sprintf("host %q does not form a valid request target", host), nil)
	}
	return u, nil
}

// EncodeQuery serializes params in order as name=value pairs joined by '&'.
func EncodeQuery(params []QueryParam) (string, error) {
	if len(params) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(params))
	for i, p := range params {
		if p.Name == "" {
			return "", fmt.Errorf("query[%d]: name is empty", i)
		}
		parts = append(parts, escape(p.Name)+"="+escape(p.Value))
	}
	return strings.Join(parts, "&"), nil
}

// ParseQuery decodes a raw query string back into ordered parameters.
func ParseQuery(raw string) ([]QueryParam, error) {
	if raw == "" {
		return nil, nil
	}
	pairs := strings.Split(raw, "&")
	out := make([]QueryParam, 0, len(pairs))
	for _, pair := range pairs {
		name, value, _ := strings.Cut(pair, "=")
		n, err := url.QueryUnescape(name)
		if err != nil {
			return nil, fmt.Errorf("unescape name %q: %w", name, err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("unescape value %q: %w", value, err)
		}
		out = append(out, QueryParam{Name: n, Value: v})
	}
	return out, nil
}

// escape percent-encodes s for a query component; spaces become %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
