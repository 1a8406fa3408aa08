// Package queries loads the named card searches the harvester runs.
package queries

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/mtg-card-harvester/pkg/configfile"
	"github.com/samvad-hq/mtg-card-harvester/pkg/endpoint"
)

// Query is one named card search.
type Query struct {
	ID             string                `json:"id" yaml:"id"`
	Name           string                `json:"name" yaml:"name"`
	Host           string                `json:"host" yaml:"host"`
	Path           string                `json:"path" yaml:"path"`
	Params         []endpoint.QueryParam `json:"params" yaml:"params"`
	RequestDelayMs int                   `json:"request_delay_ms" yaml:"request_delay_ms"`
}

type registryFile struct {
	Queries []Query `json:"queries" yaml:"queries"`
}

const defaultRequestDelayMs = 500

// Registry holds the loaded queries in file order. It is read-only after
// construction.
type Registry struct {
	queries []Query
	idx     map[string]Query
}

// LoadRegistry loads queries from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	var file registryFile
	if err := configfile.Decode(path, &file); err != nil {
		return nil, fmt.Errorf("load queries: %w", err)
	}
	if len(file.Queries) == 0 {
		return nil, errors.New("queries file contains no queries entries")
	}
	return NewRegistry(file.Queries...)
}

// NewRegistry sanitizes and validates queries and indexes them by id.
func NewRegistry(qs ...Query) (*Registry, error) {
	reg := &Registry{
		queries: make([]Query, 0, len(qs)),
		idx:     make(map[string]Query, len(qs)),
	}
	for i := range qs {
		q := sanitizeQuery(qs[i])
		if err := validateQuery(q); err != nil {
			return nil, fmt.Errorf("query[%d]: %w", i, err)
		}
		if _, exists := reg.idx[q.ID]; exists {
			return nil, fmt.Errorf("duplicate query id %q", q.ID)
		}
		reg.queries = append(reg.queries, q)
		reg.idx[q.ID] = q
	}
	return reg, nil
}

// sanitizeQuery trims identifiers; parameter values are kept verbatim.
func sanitizeQuery(q Query) Query {
	q.ID = strings.TrimSpace(q.ID)
	q.Name = strings.TrimSpace(q.Name)
	q.Host = strings.TrimSpace(q.Host)
	q.Path = strings.ToLower(strings.TrimSpace(q.Path))
	if q.Path == "" {
		q.Path = "cards"
	}

	params := make([]endpoint.QueryParam, len(q.Params))
	for i, p := range q.Params {
		params[i] = endpoint.QueryParam{Name: strings.TrimSpace(p.Name), Value: p.Value}
	}
	q.Params = params

	if q.RequestDelayMs <= 0 {
		q.RequestDelayMs = defaultRequestDelayMs
	}
	return q
}

func validateQuery(q Query) error {
	if q.ID == "" {
		return errors.New("id is required")
	}
	if q.Name == "" {
		return fmt.Errorf("name is required for query %q", q.ID)
	}
	if _, err := endpoint.ParsePathKind(q.Path); err != nil {
		return fmt.Errorf("query %q: %w", q.ID, err)
	}
	for i, p := range q.Params {
		if p.Name == "" {
			return fmt.Errorf("query %q: params[%d] name is required", q.ID, i)
		}
	}
	return nil
}

// All returns a copy of the loaded queries in file order.
func (r *Registry) All() []Query {
	if r == nil {
		return nil
	}
	out := make([]Query, len(r.queries))
	copy(out, r.queries)
	return out
}

// ByID returns the query with the given id.
func (r *Registry) ByID(id string) (Query, bool) {
	if r == nil {
		return Query{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Query{}, false
	}

	q, ok := r.idx[id]
	return q, ok
}

// unresolvedPath has no literal, so an endpoint carrying it fails to build.
const unresolvedPath endpoint.PathKind = -1

// Endpoint builds the request target for q, using defaultHost when the query
// does not pin its own host. An unknown path yields an endpoint whose URL()
// fails with an invalid URL error.
func (q Query) Endpoint(defaultHost string) endpoint.Endpoint {
	host := q.Host
	if host == "" {
		host = defaultHost
	}
	path, err := endpoint.ParsePathKind(q.Path)
	if err != nil {
		path = unresolvedPath
	}
	return endpoint.New(host, path, q.Params...)
}

// RequestDelay returns the pause to apply after running the query.
func (q Query) RequestDelay() time.Duration {
	if q.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(q.RequestDelayMs) * time.Millisecond
}
