// Package render rasterizes PDF pages to PNG files with pdftoppm.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultDPI is used when the configured resolution is not positive.
const DefaultDPI = 300

// Rasterizer renders the pages of one PDF into ImagesDir. Existing images
// are reused, so an interrupted run picks up where it stopped.
type Rasterizer struct {
	PDFPath   string
	ImagesDir string
	DPI       int

	// Command is the pdftoppm binary; empty means "pdftoppm" on PATH.
	Command string
	Log     *slog.Logger
}

// Summary reports what RenderAll did.
type Summary struct {
	Pages     int `json:"pages"`
	Reused    int `json:"reused"`
	Converted int `json:"converted"`
}

// PageCount returns the number of pages in the PDF.
func (r *Rasterizer) PageCount() (int, error) {
	f, err := os.Open(r.PDFPath)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count for %s: %w", r.PDFPath, err)
	}
	return n, nil
}

// ImagePath is where the image for a zero-based page index lives.
func (r *Rasterizer) ImagePath(pageIndex int) string {
	return filepath.Join(r.ImagesDir, fmt.Sprintf("page_%d.png", pageIndex+1))
}

// Render writes the image for one page and returns its path.
func (r *Rasterizer) Render(ctx context.Context, pageIndex int) (string, error) {
	path, _, err := r.render(ctx, pageIndex)
	return path, err
}

// RenderAll renders every page of the PDF.
func (r *Rasterizer) RenderAll(ctx context.Context) (Summary, error) {
	n, err := r.PageCount()
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Pages: n}
	for i := 0; i < n; i++ {
		_, reused, err := r.render(ctx, i)
		if err != nil {
			return sum, err
		}
		if reused {
			sum.Reused++
		} else {
			sum.Converted++
		}
	}
	r.logger().Info("pages rendered", "pdf", r.PDFPath, "reused", sum.Reused, "converted", sum.Converted)
	return sum, nil
}

func (r *Rasterizer) render(ctx context.Context, pageIndex int) (string, bool, error) {
	if pageIndex < 0 {
		return "", false, fmt.Errorf("invalid page index %d", pageIndex)
	}
	dst := r.ImagePath(pageIndex)
	if _, err := os.Stat(dst); err == nil {
		return dst, true, nil
	}

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	default:
	}

	if err := os.MkdirAll(r.ImagesDir, 0o755); err != nil {
		return "", false, fmt.Errorf("create images dir: %w", err)
	}

	// -singlefile writes <prefix>.png without a page-number suffix.
	prefix := filepath.Join(r.ImagesDir, fmt.Sprintf(".render-%d", pageIndex+1))
	pageStr := strconv.Itoa(pageIndex + 1)
	cmd := exec.CommandContext(ctx, r.command(),
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(r.dpi()),
		"-singlefile",
		r.PDFPath,
		prefix,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", false, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	if err := os.Rename(prefix+".png", dst); err != nil {
		return "", false, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	r.logger().Debug("page rendered", "page", pageIndex+1, "path", dst)
	return dst, false, nil
}

func (r *Rasterizer) command() string {
	if r.Command == "" {
		return "pdftoppm"
	}
	return r.Command
}

func (r *Rasterizer) dpi() int {
	if r.DPI <= 0 {
		return DefaultDPI
	}
	return r.DPI
}

func (r *Rasterizer) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}
