package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"epubthumb/internal/thumbnail"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epubthumb <epub-file>",
		Short: "Extract a cover thumbnail from an EPUB file",
		Long: `epubthumb extracts the cover image embedded in an EPUB and writes a
PNG thumbnail (bounded to 122x150 pixels) next to the input file, at
<epub-dir>/thumb/<epub-filename>.png.

The cover is resolved from the OPF manifest through ordered heuristics
(meta cover id, cover-image property, guide reference, filename
pattern, first image), falling back to conventional archive paths when
the manifest yields nothing.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			return thumbnail.NewPipeline(opts).Run()
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing thumbnail")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "text", "Log format (text, json)")
	cmd.Flags().BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")

	return cmd
}

// readCLIOptions validates the CLI surface and assembles pipeline
// options. Validation failures (missing file, wrong extension, bad
// flag values) are returned as errors so the process exits non-zero.
func readCLIOptions(cmd *cobra.Command, args []string) (thumbnail.Options, error) {
	inputPath := args[0]

	if _, err := os.Stat(inputPath); err != nil {
		return thumbnail.Options{}, fmt.Errorf("file not found: %s", inputPath)
	}
	if !strings.EqualFold(filepath.Ext(inputPath), ".epub") {
		return thumbnail.Options{}, fmt.Errorf("file must be an EPUB file (.epub extension): %s", inputPath)
	}

	force, _ := cmd.Flags().GetBool("force")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	verbose, _ := cmd.Flags().GetBool("verbose")

	switch strings.ToLower(logLevel) {
	case "debug", "info", "warn", "error":
	default:
		return thumbnail.Options{}, fmt.Errorf("invalid --log-level %q (want debug, info, warn or error)", logLevel)
	}
	switch strings.ToLower(logFormat) {
	case "text", "json":
	default:
		return thumbnail.Options{}, fmt.Errorf("invalid --log-format %q (want text or json)", logFormat)
	}

	if verbose {
		logLevel = "debug"
	}

	return thumbnail.Options{
		InputPath: inputPath,
		Force:     force,
		Logger:    buildLogger(os.Stderr, logLevel, logFormat),
	}, nil
}

// buildLogger constructs the slog logger for the run. Unknown level or
// format strings fall back to info/text.
func buildLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
