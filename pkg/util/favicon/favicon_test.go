package favicon

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromImage_resizes(t *testing.T) {
	// Oversized icons are scaled down to 64x64.
	f, err := FromImage(image.NewRGBA(image.Rect(0, 0, 128, 128)))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(f), "data:image/png;base64,"))

	img, err := png.Decode(bytes.NewReader(f.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 64, img.Bounds().Max.X)
	require.Equal(t, 64, img.Bounds().Max.Y)
}

func TestParse(t *testing.T) {
	// Data uris pass through untouched.
	const uri = "data:image/png;base64,AAAA"
	f, err := Parse(uri)
	require.NoError(t, err)
	require.Equal(t, Favicon(uri), f)

	// Empty config value means no favicon.
	f, err = Parse("")
	require.NoError(t, err)
	require.Empty(t, f)

	_, err = Parse("no-such-file.png")
	require.Error(t, err)
}
