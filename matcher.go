package peel

import (
	"fmt"
	"slices"
	"strings"
)

// builtins returns the built-in adapter set in priority order.
func builtins() []Adapter {
	return []Adapter{
		&zipAdapter{},
		&tarAdapter{},
		&decompressAdapter{},
	}
}

// activeAdapters resolves the configured adapter set in priority order:
// custom adapters first, then built-ins filtered by the name list.
// Empty list means every built-in marked EnabledByDefault. Entries
// prefixed with "-" subtract from that default set; bare names select
// exactly the named set.
func activeAdapters(cfg *Config) ([]Adapter, error) {
	active := slices.Clone(cfg.Custom)
	all := builtins()

	if len(cfg.Adapters) == 0 {
		for _, a := range all {
			if a.Meta().EnabledByDefault {
				active = append(active, a)
			}
		}
		return active, nil
	}

	subtract := strings.HasPrefix(cfg.Adapters[0], "-")
	names := make(map[string]bool, len(cfg.Adapters))
	for _, n := range cfg.Adapters {
		if strings.HasPrefix(n, "-") != subtract {
			return nil, fmt.Errorf("peel: adapter list mixes additive and subtractive entries: %q", cfg.Adapters)
		}
		names[strings.TrimPrefix(n, "-")] = true
	}

	known := make(map[string]bool, len(all))
	for _, a := range all {
		known[a.Meta().Name] = true
	}
	for n := range names {
		if !known[n] {
			return nil, fmt.Errorf("peel: unknown adapter %q", n)
		}
	}

	for _, a := range all {
		m := a.Meta()
		if subtract {
			if m.EnabledByDefault && !names[m.Name] {
				active = append(active, a)
			}
		} else if names[m.Name] {
			active = append(active, a)
		}
	}
	return active, nil
}

// FileMeta carries the matching inputs for one unit.
type FileMeta struct {
	// Name is the base name of the unit's path hint.
	Name string

	// MIME is the sniffed content type. Empty when sniffing is
	// disabled or no content was available.
	MIME string
}

// Registry holds the active adapters and resolves which one applies to
// a unit. Configuration order is priority order; the first adapter with
// an eligible match wins, extension matchers tried before MIME
// matchers within each adapter.
type Registry struct {
	adapters []Adapter
	sniff    bool
}

// NewRegistry builds a registry from the configured adapter set.
func NewRegistry(cfg *Config) (*Registry, error) {
	active, err := activeAdapters(cfg)
	if err != nil {
		return nil, err
	}
	return &Registry{adapters: active, sniff: cfg.Sniff}, nil
}

// Active returns the active adapters in priority order.
func (r *Registry) Active() []Adapter {
	return r.adapters
}

// Match resolves the first adapter applying to meta, with the reason it
// was chosen. ok is false when no adapter matches.
func (r *Registry) Match(meta FileMeta) (Adapter, *Match, bool) {
	name := strings.ToLower(meta.Name)
	mime := normalizeMIME(meta.MIME)
	for _, a := range r.adapters {
		m := a.Meta()
		if !r.sniff || m.KeepExtensionsWhenSniffing {
			for _, ext := range m.Extensions {
				if strings.HasSuffix(name, "."+ext) {
					return a, &Match{Kind: MatchExtension, Value: ext}, true
				}
			}
		}
		if mime == "" {
			continue
		}
		for _, mt := range m.MIMETypes {
			if mime == mt {
				return a, &Match{Kind: MatchMIME, Value: mt}, true
			}
		}
	}
	return nil, nil, false
}

// normalizeMIME strips parameters, e.g. "text/plain; charset=utf-8"
// becomes "text/plain".
func normalizeMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}
