package epub

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type zipEntry struct {
	name string
	data string
}

// writeZip creates a ZIP archive at path with the given entries.
func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	for _, e := range entries {
		ew, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("failed to create entry %s: %v", e.name, err)
		}
		if _, err := ew.Write([]byte(e.data)); err != nil {
			t.Fatalf("failed to write entry %s: %v", e.name, err)
		}
	}
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const minimalOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chapter1"/>
  </spine>
</package>`

// createTestEPUB creates a minimal EPUB file for testing.
func createTestEPUB(t *testing.T, dir string) string {
	t.Helper()
	epubPath := filepath.Join(dir, "test.epub")
	writeZip(t, epubPath, []zipEntry{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", minimalOPF},
		{"OEBPS/chapter1.xhtml", "<html><body><p>Hello</p></body></html>"},
	})
	return epubPath
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	epubPath := createTestEPUB(t, dir)

	reader, err := Open(epubPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer reader.Close()

	if reader.OPFPath() != "OEBPS/content.opf" {
		t.Errorf("OPFPath() = %q, want %q", reader.OPFPath(), "OEBPS/content.opf")
	}
}

func TestOpen_FileNotFound(t *testing.T) {
	_, err := Open("/nonexistent/file.epub")
	if err == nil {
		t.Fatal("Open() should fail for nonexistent file")
	}
}

func TestOpen_NotAZip(t *testing.T) {
	dir := t.TempDir()
	fakePath := filepath.Join(dir, "fake.epub")
	if err := os.WriteFile(fakePath, []byte("this is not a zip archive"), 0o644); err != nil {
		t.Fatalf("failed to write fake epub: %v", err)
	}

	_, err := Open(fakePath)
	if !errors.Is(err, ErrBadArchive) {
		t.Fatalf("Open() error = %v, want ErrBadArchive", err)
	}
}

func TestOpen_MissingContainer(t *testing.T) {
	dir := t.TempDir()
	epubPath := filepath.Join(dir, "no_container.epub")
	writeZip(t, epubPath, []zipEntry{
		{"mimetype", "application/epub+zip"},
	})

	_, err := Open(epubPath)
	if !errors.Is(err, ErrContainerMissing) {
		t.Fatalf("Open() error = %v, want ErrContainerMissing", err)
	}
}

func TestOpen_MalformedContainerXML(t *testing.T) {
	dir := t.TempDir()
	epubPath := filepath.Join(dir, "bad_container.epub")
	writeZip(t, epubPath, []zipEntry{
		{"META-INF/container.xml", "<container><unclosed"},
	})

	_, err := Open(epubPath)
	if !errors.Is(err, ErrContainerMalformed) {
		t.Fatalf("Open() error = %v, want ErrContainerMalformed", err)
	}
}

func TestOpen_ContainerWithoutRootfile(t *testing.T) {
	dir := t.TempDir()
	epubPath := filepath.Join(dir, "no_rootfile.epub")
	writeZip(t, epubPath, []zipEntry{
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles></rootfiles>
</container>`},
	})

	_, err := Open(epubPath)
	if !errors.Is(err, ErrContainerMalformed) {
		t.Fatalf("Open() error = %v, want ErrContainerMalformed", err)
	}
}

func TestOpen_ContainerWithoutFullPath(t *testing.T) {
	dir := t.TempDir()
	epubPath := filepath.Join(dir, "no_fullpath.epub")
	writeZip(t, epubPath, []zipEntry{
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`},
	})

	_, err := Open(epubPath)
	if !errors.Is(err, ErrContainerMalformed) {
		t.Fatalf("Open() error = %v, want ErrContainerMalformed", err)
	}
}

// A ZIP without a mimetype entry is still accepted; only the container
// matters for cover extraction.
func TestOpen_NoMimetype(t *testing.T) {
	dir := t.TempDir()
	epubPath := filepath.Join(dir, "no_mimetype.epub")
	writeZip(t, epubPath, []zipEntry{
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", minimalOPF},
	})

	reader, err := Open(epubPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	reader.Close()
}

func TestOpen_PathNormalization(t *testing.T) {
	dir := t.TempDir()
	epubPath := filepath.Join(dir, "normalized.epub")
	writeZip(t, epubPath, []zipEntry{
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="./OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`},
		{"OEBPS/content.opf", minimalOPF},
	})

	reader, err := Open(epubPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer reader.Close()

	if reader.OPFPath() != "OEBPS/content.opf" {
		t.Errorf("OPFPath() = %q, want %q (path should be normalized)", reader.OPFPath(), "OEBPS/content.opf")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	epubPath := createTestEPUB(t, dir)

	reader, err := Open(epubPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer reader.Close()

	content, err := reader.ReadFile("mimetype")
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if string(content) != "application/epub+zip" {
		t.Errorf("ReadFile() = %q, want %q", string(content), "application/epub+zip")
	}
}

func TestReadFile_NotFound(t *testing.T) {
	dir := t.TempDir()
	epubPath := createTestEPUB(t, dir)

	reader, err := Open(epubPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.ReadFile("nonexistent.txt"); err == nil {
		t.Fatal("ReadFile() should fail for nonexistent entry")
	}
}

func TestHas(t *testing.T) {
	dir := t.TempDir()
	epubPath := createTestEPUB(t, dir)

	reader, err := Open(epubPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer reader.Close()

	if !reader.Has("OEBPS/chapter1.xhtml") {
		t.Error("Has(OEBPS/chapter1.xhtml) = false, want true")
	}
	if !reader.Has("./OEBPS/chapter1.xhtml") {
		t.Error("Has(./OEBPS/chapter1.xhtml) = false, want true (normalized lookup)")
	}
	if reader.Has("OEBPS/missing.xhtml") {
		t.Error("Has(OEBPS/missing.xhtml) = true, want false")
	}
}
