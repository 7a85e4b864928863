package thumbnail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"epubthumb/internal/epub"
)

// Options holds options for the extraction pipeline.
type Options struct {
	InputPath string
	Force     bool // overwrite an existing thumbnail
	Logger    *slog.Logger
}

// Pipeline orchestrates cover extraction from a single EPUB.
type Pipeline struct {
	Options  Options
	Renderer *Renderer

	logger *slog.Logger
}

// NewPipeline creates an extraction pipeline.
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Options:  opts,
		Renderer: NewRenderer(),
		logger:   logger,
	}
}

// ThumbnailPath returns the output path for an EPUB's thumbnail:
// <epub-dir>/thumb/<epub-filename>.png. The original filename keeps its
// .epub suffix, so Book.epub maps to thumb/Book.epub.png.
func ThumbnailPath(epubPath string) string {
	return filepath.Join(filepath.Dir(epubPath), "thumb", filepath.Base(epubPath)+".png")
}

// Run executes the extraction pipeline. A thumbnail that already exists
// at the target path is a no-op success unless Force is set. The
// existence check is not atomic with the write; concurrent invocations
// on the same output may race.
func (p *Pipeline) Run() error {
	reader, err := epub.Open(p.Options.InputPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	coverPath, coverData, err := p.resolveCover(reader)
	if err != nil {
		return err
	}

	target := ThumbnailPath(p.Options.InputPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	if !p.Options.Force {
		if _, err := os.Stat(target); err == nil {
			p.logger.Info("thumbnail already exists, skipping", "path", target)
			return nil
		}
	}

	thumb, err := p.Renderer.Render(coverData)
	if err != nil {
		return fmt.Errorf("cover %s: %w", coverPath, err)
	}

	if err := os.WriteFile(target, thumb.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}

	p.logger.Info("thumbnail written",
		"path", target,
		"width", thumb.Width,
		"height", thumb.Height,
	)
	return nil
}

// resolveCover locates the cover image bytes, first through the OPF
// manifest heuristics and then through conventional-path probing. An
// unparseable OPF downgrades to a warning and triggers the fallback;
// a resolved manifest href that is absent from the archive is fatal.
func (p *Pipeline) resolveCover(reader *epub.Reader) (string, []byte, error) {
	opfData, err := reader.ReadFile(reader.OPFPath())
	if err != nil {
		return "", nil, fmt.Errorf("failed to read OPF: %w", err)
	}

	opfDir := filepath.ToSlash(filepath.Dir(reader.OPFPath()))
	opf, err := epub.ParseOPF(opfData, opfDir)
	if err != nil {
		p.logger.Warn("could not parse OPF, trying conventional paths", "error", err)
		opf = nil
	} else if opf.Metadata.Title != "" {
		p.logger.Debug("processing", "title", opf.Metadata.Title)
	}

	if info := epub.DetectCover(opf, reader); info != nil {
		p.logger.Info("cover detected", "path", info.Href, "method", info.DetectionMethod)
		data, err := reader.ReadFile(info.Href)
		if err != nil {
			return "", nil, fmt.Errorf("cover image not found at path %s: %w", info.Href, err)
		}
		return info.Href, data, nil
	}

	p.logger.Warn("no cover image in OPF manifest, trying conventional paths")
	coverPath, data, err := epub.FindFallbackCover(reader)
	if err != nil {
		return "", nil, err
	}
	p.logger.Info("cover detected", "path", coverPath, "method", "fallback")
	return coverPath, data, nil
}
