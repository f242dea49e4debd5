package facade

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp" // register WebP decoder
)

// Loader resolves an image reference into decoded pixels. Implementations
// must return an error wrapping ErrInvalidImage for anything that cannot be
// used as a scene image.
type Loader interface {
	Load(ctx context.Context, ref string) (Image, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, ref string) (Image, error)

// Load calls f(ctx, ref).
func (f LoaderFunc) Load(ctx context.Context, ref string) (Image, error) {
	return f(ctx, ref)
}

// RefLoader loads images from the local file system or, for http(s)
// references, over HTTP. Relative paths are resolved against Root.
type RefLoader struct {
	Root   string
	Client *http.Client
}

// Load implements Loader.
func (l RefLoader) Load(ctx context.Context, ref string) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	var (
		rc  io.ReadCloser
		err error
	)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		rc, err = l.fetch(ctx, ref)
	} else {
		rc, err = os.Open(l.resolve(ref))
	}
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrInvalidImage, ref, err)
	}
	defer rc.Close()
	return DecodeImage(ref, rc)
}

func (l RefLoader) resolve(ref string) string {
	if l.Root == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(l.Root, ref)
}

func (l RefLoader) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

// DecodeImage decodes a PNG, JPEG or WebP stream and validates the result.
func DecodeImage(ref string, r io.Reader) (Image, error) {
	pixels, _, err := image.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("%w: decode %s: %v", ErrInvalidImage, ref, err)
	}
	img := Image{Ref: ref, Pixels: pixels}
	if err := img.validate(); err != nil {
		return Image{}, err
	}
	return img, nil
}
