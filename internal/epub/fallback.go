package epub

// fallbackCoverPaths lists conventional cover locations probed when the
// manifest yields nothing, in priority order.
var fallbackCoverPaths = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"images/cover.jpg", "images/cover.jpeg", "images/cover.png",
	"OEBPS/cover.jpg", "OEBPS/cover.jpeg", "OEBPS/cover.png",
	"OEBPS/images/cover.jpg", "OEBPS/images/cover.jpeg", "OEBPS/images/cover.png",
}

// FindFallbackCover probes the conventional cover paths and returns the
// path and bytes of the first entry present in the archive. Returns
// ErrCoverNotFound when none of them exist.
func FindFallbackCover(r *Reader) (string, []byte, error) {
	for _, p := range fallbackCoverPaths {
		if !r.Has(p) {
			continue
		}
		data, err := r.ReadFile(p)
		if err != nil {
			continue
		}
		return p, data, nil
	}
	return "", nil, ErrCoverNotFound
}
