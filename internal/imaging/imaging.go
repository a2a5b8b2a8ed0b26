// Package imaging normalizes uploaded item photos.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/erazemk/premiki/internal/model"
)

const (
	// MaxUploadSize caps the raw upload accepted for an item photo.
	MaxUploadSize = 10 << 20
	// MaxDimension bounds the width and height of stored photos.
	MaxDimension = 800
	// JPEGQuality is used when re-encoding photos.
	JPEGQuality = 82
)

// Photo is a normalized image ready to store.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// ItemPhoto decodes a JPEG or PNG upload, shrinks it to fit MaxDimension and
// re-encodes it as JPEG. The format is sniffed from the content; client
// supplied types are ignored. Bad input yields an error wrapping
// model.ErrValidation.
func ItemPhoto(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, model.Validationf("photo larger than %d bytes", MaxUploadSize)
	}

	switch mime := http.DetectContentType(data); mime {
	case "image/jpeg", "image/png":
	default:
		return nil, model.Validationf("unsupported photo format %s", mime)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.Validationf("decoding photo: %v", err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), MaxDimension)
	img := src
	if w != src.Bounds().Dx() || h != src.Bounds().Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg", Width: w, Height: h}, nil
}

// fit scales w×h down to fit a limit×limit box, keeping the aspect ratio.
// Images already inside the box are returned unchanged.
func fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}
