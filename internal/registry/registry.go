// Package registry implements the upstream registry (C3): it owns the
// domestic and foreign default upstream clients plus any per-domain routes,
// and resolves a query name to the upstream that should serve it.
//
// The exact/wildcard lookup shape is grounded on the teacher's
// engine.UserMatcher (engine/user.go), which matches a client against an
// exact map before falling back to an ordered scan — generalized here from
// matching IPs/MACs against users to matching domain names against
// upstreams.
package registry

import (
	"strings"

	"splithorizon/internal/dnsname"
	"splithorizon/internal/upstream"
)

type wildcardRoute struct {
	suffix string
	client upstream.Client
}

// Registry holds the domestic/foreign defaults and the per-domain routing
// table. Immutable after construction: concurrent unsynchronized reads are
// safe.
type Registry struct {
	Domestic upstream.Client
	Foreign  upstream.Client

	exact     map[string]upstream.Client
	wildcards []wildcardRoute
}

// New builds an empty Registry around the two default legs. Use Register to
// add per-domain routes before the registry is shared with request
// handlers.
func New(domestic, foreign upstream.Client) *Registry {
	return &Registry{
		Domestic: domestic,
		Foreign:  foreign,
		exact:    make(map[string]upstream.Client),
	}
}

// Register routes domain to client. A domain starting with "*." is
// registered as a wildcard (suffix = domain minus the leading "*"),
// appended in call order so earlier registrations win ties. Anything else
// is registered as an exact match.
func (r *Registry) Register(domain string, client upstream.Client) {
	domain = dnsname.Normalize(domain)
	if suffix, ok := strings.CutPrefix(domain, "*"); ok {
		r.wildcards = append(r.wildcards, wildcardRoute{suffix: suffix, client: client})
		return
	}
	r.exact[domain] = client
}

// Get returns the upstream registered for name, if any. Exact matches take
// precedence over wildcards; wildcards are scanned in registration order
// and the first suffix match wins.
func (r *Registry) Get(name string) (upstream.Client, bool) {
	name = dnsname.Normalize(name)
	if c, ok := r.exact[name]; ok {
		return c, true
	}
	for _, w := range r.wildcards {
		if strings.HasSuffix(name, w.suffix) {
			return w.client, true
		}
	}
	return nil, false
}
