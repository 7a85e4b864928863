package epub

// OPF represents the parsed Open Package Format document
type OPF struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Guide         []GuideReference
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Title    string
	Language string
	CoverID  string // EPUB 2.0 cover image manifest item ID (from meta name="cover")
}

// ManifestItem represents an item in the manifest.
// Href is joined with the OPF directory and keyed by forward slashes.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// GuideReference represents a reference element in the OPF guide
type GuideReference struct {
	Type  string
	Title string
	Href  string
}
