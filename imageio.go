package tilerender

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// LoadImage decodes a tile or canvas image. PNG, JPEG, BMP and TIFF are
// recognised by content.
func LoadImage(path string) (image.Image, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	img, _, err := image.Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// imageEncoders maps output file extensions to their encoder. A path
// without an extension is written as PNG.
var imageEncoders = map[string]func(io.Writer, image.Image) error{
	"":      png.Encode,
	".png":  png.Encode,
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// canEncode reports whether SaveImage can write a file with extension ext.
func canEncode(ext string) bool {
	_, ok := imageEncoders[strings.ToLower(ext)]
	return ok
}

func encodeImage(w io.Writer, ext string, img image.Image) error {
	encode, ok := imageEncoders[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return encode(w, img)
}

// SaveImage encodes img according to the extension of path. The image is
// written to a temporary file in the same directory and renamed over path,
// so readers never observe a half written file.
func SaveImage(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encodeImage(tmp, filepath.Ext(path), img); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Thumbnail scales img to fit inside maxW x maxH keeping its aspect ratio.
// Images already small enough are returned as is.
func Thumbnail(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || (b.Dx() <= maxW && b.Dy() <= maxH) {
		return img
	}

	scale := min(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
