package facade

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EncodePNG writes img to w as a PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportPNG renders the scene and returns it PNG-encoded.
func (e *Editor) ExportPNG() ([]byte, error) {
	if _, ok := e.scene.Background(); !ok {
		return nil, ErrNoBackground
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, e.Render()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFile renders the scene and writes it to dir as
// <label>-<unix millis>.png, creating dir if needed. Returns the path
// written.
func (e *Editor) ExportFile(dir, label string) (string, error) {
	data, err := e.ExportPNG()
	if err != nil {
		return "", err
	}
	path, err := WritePNGFile(dir, label, data)
	if err != nil {
		return "", err
	}
	e.log.WithField("path", path).Info("exported")
	return path, nil
}

// WritePNGFile writes already encoded PNG data to dir as
// <label>-<unix millis>.png with the label made safe for file names.
func WritePNGFile(dir, label string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: mkdir %s: %w", dir, err)
	}
	name := fmt.Sprintf("%s-%d.png", sanitizeLabel(label), time.Now().UnixMilli())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "facade" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "facade"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
