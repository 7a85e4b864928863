package epub

import (
	"bytes"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CoverInfo holds information about the resolved cover image.
type CoverInfo struct {
	ManifestID      string
	Href            string
	MediaType       string
	DetectionMethod string // "meta", "properties", "guide", "name", "first-image"
}

type fileReader interface {
	ReadFile(path string) ([]byte, error)
}

// DetectCover resolves the cover image from the OPF using an ordered
// list of heuristics; the first one to yield a candidate wins and no
// backtracking occurs. Within a heuristic the first matching manifest
// item in document order is used.
//
//  1. meta name="cover" content id -> manifest item
//  2. item with properties containing "cover-image"
//  3. guide reference type="cover" (image item directly, or the first
//     <img> of a referenced XHTML cover page)
//  4. item whose id or href contains "cover" and whose media type
//     starts with "image"
//  5. first item in document order whose media type starts with "image"
//
// reader is only consulted for the guide heuristic; it may be nil.
// Returns nil if no heuristic matches.
func DetectCover(opf *OPF, reader fileReader) *CoverInfo {
	if opf == nil {
		return nil
	}

	heuristics := []func() *CoverInfo{
		func() *CoverInfo { return detectCoverByMeta(opf) },
		func() *CoverInfo { return detectCoverByProperty(opf) },
		func() *CoverInfo { return detectCoverByGuide(opf, reader) },
		func() *CoverInfo { return detectCoverByName(opf) },
		func() *CoverInfo { return detectFirstImage(opf) },
	}

	for _, match := range heuristics {
		if info := match(); info != nil {
			return info
		}
	}
	return nil
}

func detectCoverByMeta(opf *OPF) *CoverInfo {
	if opf.Metadata.CoverID == "" {
		return nil
	}
	item, ok := opf.Manifest[opf.Metadata.CoverID]
	if !ok {
		return nil
	}
	return &CoverInfo{
		ManifestID:      item.ID,
		Href:            item.Href,
		MediaType:       item.MediaType,
		DetectionMethod: "meta",
	}
}

func detectCoverByProperty(opf *OPF) *CoverInfo {
	for _, item := range orderedManifestItems(opf) {
		for _, prop := range item.Properties {
			if strings.EqualFold(prop, "cover-image") {
				return &CoverInfo{
					ManifestID:      item.ID,
					Href:            item.Href,
					MediaType:       item.MediaType,
					DetectionMethod: "properties",
				}
			}
		}
	}
	return nil
}

func detectCoverByGuide(opf *OPF, reader fileReader) *CoverInfo {
	for _, ref := range opf.Guide {
		if !strings.EqualFold(ref.Type, "cover") {
			continue
		}

		target := stripFragment(ref.Href)
		if target == "" {
			continue
		}

		if item, ok := findManifestByHref(opf, target); ok && isImageMediaType(item.MediaType) {
			return &CoverInfo{
				ManifestID:      item.ID,
				Href:            item.Href,
				MediaType:       item.MediaType,
				DetectionMethod: "guide",
			}
		}

		if reader == nil || !looksLikeXHTML(target) {
			continue
		}

		data, err := reader.ReadFile(target)
		if err != nil {
			continue
		}

		imgHref := firstImageInPage(target, data)
		if imgHref == "" {
			continue
		}
		if item, ok := findManifestByHref(opf, imgHref); ok && isImageMediaType(item.MediaType) {
			return &CoverInfo{
				ManifestID:      item.ID,
				Href:            item.Href,
				MediaType:       item.MediaType,
				DetectionMethod: "guide",
			}
		}
	}
	return nil
}

func detectCoverByName(opf *OPF) *CoverInfo {
	for _, item := range orderedManifestItems(opf) {
		if !isImageMediaType(item.MediaType) {
			continue
		}
		id := strings.ToLower(item.ID)
		href := strings.ToLower(item.Href)
		if strings.Contains(id, "cover") || strings.Contains(href, "cover") {
			return &CoverInfo{
				ManifestID:      item.ID,
				Href:            item.Href,
				MediaType:       item.MediaType,
				DetectionMethod: "name",
			}
		}
	}
	return nil
}

func detectFirstImage(opf *OPF) *CoverInfo {
	for _, item := range orderedManifestItems(opf) {
		if !isImageMediaType(item.MediaType) {
			continue
		}
		return &CoverInfo{
			ManifestID:      item.ID,
			Href:            item.Href,
			MediaType:       item.MediaType,
			DetectionMethod: "first-image",
		}
	}
	return nil
}

// firstImageInPage parses an XHTML cover page and returns the src of
// its first <img>, resolved against the page's directory. Returns ""
// when the page has no image or cannot be parsed.
func firstImageInPage(pagePath string, data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	src, exists := doc.Find("img[src]").First().Attr("src")
	if !exists || strings.TrimSpace(src) == "" {
		return ""
	}

	return joinPath(path.Dir(pagePath), src)
}

// orderedManifestItems returns manifest items in document order.
func orderedManifestItems(opf *OPF) []ManifestItem {
	items := make([]ManifestItem, 0, len(opf.ManifestOrder))
	for _, id := range opf.ManifestOrder {
		item, ok := opf.Manifest[id]
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

func findManifestByHref(opf *OPF, href string) (ManifestItem, bool) {
	normalized := stripFragment(path.Clean(href))
	for _, item := range orderedManifestItems(opf) {
		if stripFragment(path.Clean(item.Href)) == normalized {
			return item, true
		}
	}
	return ManifestItem{}, false
}

func stripFragment(href string) string {
	pathPart, _, _ := strings.Cut(href, "#")
	return pathPart
}

// isImageMediaType checks if a media type declares an image.
func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image")
}

func looksLikeXHTML(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".xhtml") || strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}
