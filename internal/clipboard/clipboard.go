// Package clipboard moves annotations and rendered images through the
// system clipboard. Images travel as PNG, annotations as their JSON export.
package clipboard

import (
	"bytes"
	"errors"
	"image"
	"strings"

	"github.com/example/d4scope/internal/annotation"
	"github.com/example/d4scope/internal/imageres"
)

var (
	errNoImage = errors.New("clipboard does not contain image data")
	errNoText  = errors.New("clipboard does not contain text data")
)

// WriteImage encodes img as PNG and publishes it to the clipboard.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	data, err := imageres.EncodeBytes(img, imageres.FormatPNG)
	if err != nil {
		return err
	}
	return writeImage(data)
}

// ReadImage decodes the clipboard image into a ready resource.
func ReadImage() (*imageres.Resource, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data := readImage()
	if len(data) == 0 {
		return nil, errNoImage
	}
	return imageres.Decode("clipboard.png", bytes.NewReader(data))
}

// WriteText writes UTF-8 text to the clipboard.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return writeText([]byte(text))
}

// ReadText returns UTF-8 text from the clipboard.
func ReadText() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	data := readText()
	if len(data) == 0 {
		return "", errNoText
	}
	return string(data), nil
}

// WriteAnnotations copies exp as indented JSON.
func WriteAnnotations(exp annotation.Export) error {
	var buf bytes.Buffer
	if err := annotation.Encode(&buf, exp); err != nil {
		return err
	}
	return WriteText(buf.String())
}

// ReadAnnotations parses clipboard text as an annotation export.
func ReadAnnotations() (annotation.Export, error) {
	text, err := ReadText()
	if err != nil {
		return annotation.Export{}, err
	}
	return annotation.Decode(strings.NewReader(text))
}
