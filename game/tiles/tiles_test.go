package tiles

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/obstacle-course/game/engine"
)

// gridImage paints each 4x4 cell with a color derived from its position
func gridImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	tw, th := w/engine.GridSize, h/engine.GridSize
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, c := y/th, x/tw
			if r >= engine.GridSize || c >= engine.GridSize {
				img.Set(x, y, color.White)
				continue
			}
			img.Set(x, y, cellColor(r, c))
		}
	}
	return img
}

func cellColor(r, c int) color.RGBA {
	return color.RGBA{R: uint8(r * 60), G: uint8(c * 60), B: 100, A: 255}
}

func TestSliceNativeSize(t *testing.T) {
	set, err := Slice(gridImage(40, 80), 0)
	require.NoError(t, err)

	assert.Equal(t, 10, set.TileWidth)
	assert.Equal(t, 20, set.TileHeight)
	for r := 0; r < engine.GridSize; r++ {
		for c := 0; c < engine.GridSize; c++ {
			tile := set.Parts[r][c]
			require.NotNil(t, tile)
			assert.Equal(t, image.Rect(0, 0, 10, 20), tile.Bounds())
			assert.Equal(t, cellColor(r, c), tile.RGBAAt(5, 10), "tile %d,%d", r, c)
		}
	}
}

func TestSliceDropsRemainderPixels(t *testing.T) {
	set, err := Slice(gridImage(43, 41), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, set.TileWidth)
	assert.Equal(t, 10, set.TileHeight)
}

func TestSliceResizesToCanvas(t *testing.T) {
	set, err := Slice(gridImage(123, 77), DefaultCanvasSize)
	require.NoError(t, err)

	assert.Equal(t, 100, set.TileWidth)
	assert.Equal(t, 100, set.TileHeight)
	assert.Equal(t, image.Rect(0, 0, 100, 100), set.Blank.Bounds())
}

func TestBlankTileIsBlack(t *testing.T) {
	set, err := Slice(gridImage(8, 8), 0)
	require.NoError(t, err)

	for y := 0; y < set.TileHeight; y++ {
		for x := 0; x < set.TileWidth; x++ {
			assert.Equal(t, color.RGBA{A: 255}, set.Blank.RGBAAt(x, y))
		}
	}
}

func TestSliceTooSmall(t *testing.T) {
	_, err := Slice(image.NewRGBA(image.Rect(0, 0, 3, 3)), 0)
	assert.ErrorIs(t, err, ErrImageTooSmall)
}

func TestSquareTile(t *testing.T) {
	set, err := Slice(gridImage(40, 40), 0)
	require.NoError(t, err)

	// Square 13 sits at row 1, column 1.
	tile, ok := set.SquareTile(13)
	require.True(t, ok)
	assert.Equal(t, cellColor(1, 1), tile.RGBAAt(0, 0))

	_, ok = set.SquareTile(17)
	assert.False(t, ok)
	_, ok = set.Tile(engine.Position{Row: 4, Col: 0})
	assert.False(t, ok)
}

func TestLoadFileAndEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gridImage(64, 64)))

	path := filepath.Join(t.TempDir(), "image_1.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	set, err := LoadFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "png", set.Format)
	assert.Equal(t, 16, set.TileWidth)

	data, err := EncodePNG(set.Parts[0][0])
	require.NoError(t, err)
	decoded, format, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 16, 16), decoded.Bounds())
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := Decode(strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.png"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
