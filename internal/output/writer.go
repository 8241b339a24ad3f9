package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"clusterlog-go/internal/processing"
	"clusterlog-go/internal/types"
)

// WritePixels writes one row per pixel of every frame to
// <runTimestamp>_<source>_pixels.txt and returns the file path.
func WritePixels(outputDir string, runTimestamp string, source string, frames []types.FrameRecord) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	if source == "" {
		source = "unknown"
	}
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s_pixels.txt", runTimestamp, source))
	f, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	w := bufio.NewWriter(f)

	_, _ = fmt.Fprintln(w, "frame, key, x, y, linear_index, count, capture_time")
	for _, frame := range frames {
		for _, p := range frame.Pixels {
			_, _ = fmt.Fprintf(
				w,
				"%d, %d, %d, %d, %d, %d, %.6f\n",
				frame.Index,
				p.Key,
				p.X,
				p.Y,
				p.LinearIndex(),
				p.Count,
				frame.CaptureTime,
			)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return "", err
	}
	return filename, f.Close()
}

// WriteHitmap writes the non-empty hitmap cells to
// <runTimestamp>_hitmap_<seq>.txt.
func WriteHitmap(outputDir string, runTimestamp string, seq int, snap types.HitmapSnapshot) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_hitmap_%03d.txt", runTimestamp, seq))
	f, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	w := bufio.NewWriter(f)

	_, _ = fmt.Fprintf(w, "# frames=%d dropped=%d\n", snap.Frames, snap.Dropped)
	_, _ = fmt.Fprintln(w, "linear_index, x, y, hits, count")
	for idx, count := range snap.Counts {
		if snap.Hits[idx] == 0 {
			continue
		}
		_, _ = fmt.Fprintf(
			w,
			"%d, %d, %d, %d, %d\n",
			idx,
			idx%processing.ChipWidth,
			idx/processing.ChipWidth,
			snap.Hits[idx],
			count,
		)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return "", err
	}
	return filename, f.Close()
}
