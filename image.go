package facade

import (
	"fmt"
	"image"
	"path"
	"strings"
)

// Image is a decoded picture together with the reference it was loaded from.
// The reference is what snapshots store; the pixels stay in the scene's image
// registry so that restored overlays can be rendered again.
type Image struct {
	Ref    string
	Pixels image.Image
}

// Size returns the pixel dimensions of the image, or (0, 0) when it has no
// pixels.
func (img Image) Size() (w, h int) {
	if img.Pixels == nil {
		return 0, 0
	}
	b := img.Pixels.Bounds()
	return b.Dx(), b.Dy()
}

// validate rejects images that cannot take part in a scene.
func (img Image) validate() error {
	if img.Ref == "" {
		return fmt.Errorf("%w: empty reference", ErrInvalidImage)
	}
	if img.Pixels == nil {
		return fmt.Errorf("%w: %s: no pixel data", ErrInvalidImage, img.Ref)
	}
	w, h := img.Size()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %s: degenerate size %dx%d", ErrInvalidImage, img.Ref, w, h)
	}
	return nil
}

// baseName returns the file name of ref without directory or extension.
// Works for file paths and URLs alike.
func baseName(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	name := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	if ext := path.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" || name == "." || name == "/" {
		return "scene"
	}
	return name
}
