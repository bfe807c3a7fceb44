package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. The CLI uses it to keep
// the keys of different log databases apart in one cache.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(daxHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(daxHash, opts)
}

func (k *ScopedKeyer) SeriesKey(sessionID string, opts SeriesKeyOpts) string {
	return k.prefix + k.inner.SeriesKey(sessionID, opts)
}

func (k *ScopedKeyer) DurationsKey(opts DurationsKeyOpts) string {
	return k.prefix + k.inner.DurationsKey(opts)
}

func (k *ScopedKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(contentHash, opts)
}
