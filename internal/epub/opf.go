package epub

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// opfPackage represents the OPF XML structure
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Guide    opfGuide    `xml:"guide"`
}

// opfMetadata represents the metadata section
type opfMetadata struct {
	Title    []string  `xml:"http://purl.org/dc/elements/1.1/ title"`
	Language []string  `xml:"http://purl.org/dc/elements/1.1/ language"`
	Meta     []opfMeta `xml:"meta"`
}

// opfMeta represents a meta element (EPUB 2.0 name/content pair)
type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

// opfManifest represents the manifest section
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents an item in the manifest
type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// opfGuide represents the guide section
type opfGuide struct {
	References []opfGuideReference `xml:"reference"`
}

// opfGuideReference represents a reference element in the guide
type opfGuideReference struct {
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

// ParseOPF parses an OPF file content and returns the OPF structure.
// opfDir is the directory containing the OPF file (e.g., "OEBPS");
// manifest and guide hrefs are joined against it so they address the
// archive root.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		Manifest: make(map[string]ManifestItem),
	}

	if len(pkg.Metadata.Title) > 0 {
		opf.Metadata.Title = pkg.Metadata.Title[0]
	}
	if len(pkg.Metadata.Language) > 0 {
		opf.Metadata.Language = pkg.Metadata.Language[0]
	}
	for _, m := range pkg.Metadata.Meta {
		if m.Name == "cover" && m.Content != "" {
			opf.Metadata.CoverID = m.Content
			break
		}
	}

	// Manifest, preserving document order for the first-match heuristics
	for _, item := range pkg.Manifest.Items {
		manifestItem := ManifestItem{
			ID:        item.ID,
			Href:      joinPath(opfDir, item.Href),
			MediaType: item.MediaType,
		}

		// Properties are space-separated
		if item.Properties != "" {
			manifestItem.Properties = strings.Fields(item.Properties)
		}

		if _, dup := opf.Manifest[item.ID]; !dup {
			opf.ManifestOrder = append(opf.ManifestOrder, item.ID)
		}
		opf.Manifest[item.ID] = manifestItem
	}

	for _, ref := range pkg.Guide.References {
		opf.Guide = append(opf.Guide, GuideReference{
			Type:  ref.Type,
			Title: ref.Title,
			Href:  joinPath(opfDir, ref.Href),
		})
	}

	return opf, nil
}

// joinPath joins the OPF directory with a relative href and normalizes
// backslashes to forward slashes (archives are keyed by forward-slash
// paths).
func joinPath(base, rel string) string {
	rel = strings.ReplaceAll(rel, `\`, "/")
	if base == "" || base == "." {
		return path.Clean(rel)
	}
	return path.Join(base, rel)
}
