package cache

// Keyer builds cache keys for the artifacts wflens derives.
type Keyer interface {
	// LayoutKey identifies the layout of one workflow file.
	LayoutKey(daxHash string, opts LayoutKeyOpts) string
	// SeriesKey identifies the stacked series of one log session.
	SeriesKey(sessionID string, opts SeriesKeyOpts) string
	// DurationsKey identifies the per-task duration statistics.
	DurationsKey(opts DurationsKeyOpts) string
	// ArtifactKey identifies a rendered file derived from hashed content.
	ArtifactKey(contentHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the options that change a layout.
type LayoutKeyOpts struct {
	Dist float64 `json:"dist"`
}

// SeriesKeyOpts holds the options that change a session's series. Entries
// is the session's log entry count, so a growing session gets a new key.
type SeriesKeyOpts struct {
	Order   []string `json:"order,omitempty"`
	Palette []string `json:"palette,omitempty"`
	Entries int      `json:"entries"`
}

// DurationsKeyOpts holds the options that change duration statistics.
type DurationsKeyOpts struct {
	MinSamples int `json:"min_samples"`
	Entries    int `json:"entries"`
}

// ArtifactKeyOpts holds the options that change a rendered file.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// DefaultKeyer hashes every option into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(daxHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", daxHash, opts)
}

func (DefaultKeyer) SeriesKey(sessionID string, opts SeriesKeyOpts) string {
	return hashKey("series", sessionID, opts)
}

func (DefaultKeyer) DurationsKey(opts DurationsKeyOpts) string {
	return hashKey("durations", opts)
}

func (DefaultKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", contentHash, opts)
}
