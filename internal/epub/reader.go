package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reader provides access to the contents of an EPUB archive.
type Reader struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File
	opfPath   string
}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

var (
	ErrBadArchive         = errors.New("not a valid EPUB/ZIP archive")
	ErrContainerMissing   = errors.New("META-INF/container.xml not found")
	ErrContainerMalformed = errors.New("malformed container.xml")
	ErrCoverNotFound      = errors.New("cover image not found")
)

// Open opens an EPUB file and locates its package document.
// Any ZIP archive carrying a usable container.xml is accepted; no
// further EPUB conformance checking is done.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}

	r := &Reader{
		zipReader: zr,
		files:     make(map[string]*zip.File),
	}

	// Build file map with normalized paths
	for _, f := range zr.File {
		r.files[normalizePath(f.Name)] = f
	}

	if err := r.parseContainer(); err != nil {
		zr.Close()
		return nil, err
	}

	return r, nil
}

// Close closes the underlying archive.
func (r *Reader) Close() error {
	return r.zipReader.Close()
}

// OPFPath returns the archive path of the package document.
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// Has reports whether the archive contains an entry at path.
func (r *Reader) Has(path string) bool {
	_, ok := r.files[normalizePath(path)]
	return ok
}

// ReadFile reads the contents of an archive entry.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	path = normalizePath(path)
	f, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// parseContainer parses container.xml to extract the OPF path.
func (r *Reader) parseContainer() error {
	content, err := r.ReadFile("META-INF/container.xml")
	if err != nil {
		return ErrContainerMissing
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("%w: %v", ErrContainerMalformed, err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType != "application/oebps-package+xml" && rf.MediaType != "" {
			continue
		}
		if rf.FullPath == "" {
			continue
		}
		r.opfPath = normalizePath(rf.FullPath)
		return nil
	}

	// If no media-type match, use the first rootfile that has a path
	if len(c.Rootfiles.Rootfile) > 0 && c.Rootfiles.Rootfile[0].FullPath != "" {
		r.opfPath = normalizePath(c.Rootfiles.Rootfile[0].FullPath)
		return nil
	}

	return fmt.Errorf("%w: no rootfile full-path", ErrContainerMalformed)
}

// normalizePath normalizes archive entry paths (removes ./ prefix).
func normalizePath(path string) string {
	return strings.TrimPrefix(path, "./")
}
