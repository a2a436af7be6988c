package imgio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoadMat(t *testing.T) {
	mat, err := LoadMat(writePNG(t))
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 8, mat.Cols())
	assert.Equal(t, 6, mat.Rows())
	assert.Equal(t, 3, mat.Channels())

	// BGR order.
	assert.Equal(t, uint8(50), mat.GetUCharAt(0, 0))
	assert.Equal(t, uint8(100), mat.GetUCharAt(0, 1))
	assert.Equal(t, uint8(200), mat.GetUCharAt(0, 2))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestGrayToMat(t *testing.T) {
	img, err := Load(writePNG(t))
	require.NoError(t, err)

	mat, err := GrayToMat(img)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 1, mat.Channels())
	// BT.601 luma of (200, 100, 50).
	expected := uint8((299*200 + 587*100 + 114*50) / 1000)
	assert.Equal(t, expected, mat.GetUCharAt(2, 3))
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("scan.TIF"))
	assert.True(t, IsSupportedFormat("photo.jpeg"))
	assert.True(t, IsSupportedFormat("shot.png"))
	assert.False(t, IsSupportedFormat("doc.pdf"))
	assert.False(t, IsSupportedFormat("noext"))
}
