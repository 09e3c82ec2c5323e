package peel

// Adapter is one extraction capability: given a matched source, it
// produces the nested sources contained within. Archive adapters yield
// one source per entry; transcoding adapters yield a single transformed
// source. Every yielded source is re-dispatched by the recursion
// engine, so adapters never need to unpack more than one level.
type Adapter interface {
	// Meta returns the adapter's static descriptor. The returned value
	// must be the same for the process lifetime.
	Meta() *Meta

	// Adapt consumes src and returns a lazy sequence of the sources it
	// contains. The sequence owns src.Reader from this point on.
	Adapt(src *Source, reason *Match) (Iter, error)
}

// Meta is an adapter's static descriptor. Name and Version together
// identify the cache partition for its results: bumping Version orphans
// everything cached under the old one.
type Meta struct {
	// Name uniquely identifies the adapter.
	Name string

	// Version participates in cache invalidation. Increment it whenever
	// the adapter's output for unchanged input may change.
	Version int

	// Description is a human-readable summary for diagnostics.
	Description string

	// Recurses marks adapters whose output can contain further
	// containers. Their cache keys cover every active adapter, since
	// the expansion beneath them may invoke any of it.
	Recurses bool

	// Extensions lists file extensions (without dot) matched against
	// the path hint. No content read is required for these.
	Extensions []string

	// MIMETypes lists content types matched against the sniffed
	// mimetype when sniffing is enabled.
	MIMETypes []string

	// KeepExtensionsWhenSniffing keeps Extensions in play even when
	// content sniffing is enabled. Adapters whose extension matches are
	// unreliable (e.g. ".zip" also covers office documents) leave this
	// false so the sniffed type decides.
	KeepExtensionsWhenSniffing bool

	// EnabledByDefault includes the adapter in the active set when the
	// configuration names no adapters explicitly.
	EnabledByDefault bool
}

// MatchKind says which matcher selected an adapter.
type MatchKind uint8

const (
	// MatchExtension means the path hint's extension matched; no
	// content was read.
	MatchExtension MatchKind = iota

	// MatchMIME means the mimetype sniffed from a content prefix
	// matched.
	MatchMIME
)

func (k MatchKind) String() string {
	switch k {
	case MatchExtension:
		return "extension"
	case MatchMIME:
		return "mimetype"
	default:
		return "unknown"
	}
}

// Match records why an adapter was selected. It is immutable and used
// for diagnostics and cache-key shape decisions.
type Match struct {
	// Kind is the matcher category that fired.
	Kind MatchKind

	// Value is the matched extension or MIME type.
	Value string
}
