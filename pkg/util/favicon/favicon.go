// Package favicon provides the server list icon type.
package favicon

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/nfnt/resize"
	"gopkg.in/yaml.v3"
)

// Favicon is the icon shown next to a server entry in the client's
// server list. On the wire it is a png data uri, at most 64x64 pixels.
type Favicon string

const (
	uriPrefix = "data:image/"
	pngPrefix = uriPrefix + "png;base64,"
)

// Parse accepts either a ready-made data uri or the path of an image
// file on disk. An empty string yields an empty Favicon.
func Parse(s string) (Favicon, error) {
	switch {
	case s == "":
		return "", nil
	case strings.HasPrefix(s, uriPrefix):
		return Favicon(s), nil
	}
	if stat, err := os.Stat(s); err != nil || stat.IsDir() {
		return "", fmt.Errorf("favicon: invalid format or file not found: %s", s)
	}
	f, err := FromFile(s)
	if err != nil {
		return "", fmt.Errorf("favicon: %w", err)
	}
	return f, nil
}

// FromFile reads and decodes the image file at filename.
func FromFile(filename string) (Favicon, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", err
	}
	return FromImage(img)
}

// FromImage encodes img as a png data uri,
// scaling it down to 64x64 when it is larger.
func FromImage(img image.Image) (Favicon, error) {
	bounds := img.Bounds()
	if bounds.Dx() > 64 || bounds.Dy() > 64 {
		img = resize.Resize(64, 64, img, resize.NearestNeighbor)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return FromBytes(buf.Bytes()), nil
}

// FromBytes wraps raw png bytes into a data uri.
func FromBytes(b []byte) Favicon {
	b = bytes.TrimPrefix(b, []byte(pngPrefix))
	return Favicon(pngPrefix + base64.StdEncoding.EncodeToString(b))
}

// Bytes returns the decoded png bytes of the favicon.
func (f Favicon) Bytes() []byte {
	b, _ := base64.StdEncoding.DecodeString(
		strings.TrimPrefix(string(f), pngPrefix))
	return b
}

var (
	_ yaml.Unmarshaler = (*Favicon)(nil)
	_ json.Unmarshaler = (*Favicon)(nil)
)

// UnmarshalJSON implements json.Unmarshaler.
func (f *Favicon) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	var err error
	*f, err = Parse(s)
	return err
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Favicon) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	var err error
	*f, err = Parse(s)
	return err
}
