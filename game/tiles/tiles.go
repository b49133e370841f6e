package tiles

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/wricardo/obstacle-course/game/engine"
)

// DefaultCanvasSize is the square canvas every image is scaled to before slicing
const DefaultCanvasSize = 400

var (
	ErrImageTooSmall = errors.New("image too small to tile")
	ErrDecode        = errors.New("cannot decode image")
)

// Set holds the 4x4 tiles of one image plus the placeholder shown for
// incorrectly answered squares.
type Set struct {
	Parts      [engine.GridSize][engine.GridSize]*image.RGBA
	Blank      *image.RGBA
	TileWidth  int
	TileHeight int
	Format     string
}

// Decode reads an image in any registered format
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// LoadFile decodes an image file and slices it
func LoadFile(path string, canvas int) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	set, err := Slice(img, canvas)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	set.Format = format
	return set, nil
}

// Resize scales an image to size x size using Catmull-Rom resampling
func Resize(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// Slice cuts an image into a 4x4 grid. When canvas is positive the image is
// first scaled to canvas x canvas; otherwise its native size is used. Tile
// sizes use truncating division, so trailing pixels are dropped.
func Slice(img image.Image, canvas int) (*Set, error) {
	if canvas > 0 {
		img = Resize(img, canvas)
	}

	b := img.Bounds()
	tw, th := b.Dx()/engine.GridSize, b.Dy()/engine.GridSize
	if tw == 0 || th == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooSmall, b.Dx(), b.Dy())
	}

	set := &Set{TileWidth: tw, TileHeight: th}
	for r := 0; r < engine.GridSize; r++ {
		for c := 0; c < engine.GridSize; c++ {
			tile := image.NewRGBA(image.Rect(0, 0, tw, th))
			origin := image.Pt(b.Min.X+c*tw, b.Min.Y+r*th)
			draw.Draw(tile, tile.Bounds(), img, origin, draw.Src)
			set.Parts[r][c] = tile
		}
	}

	set.Blank = image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.Draw(set.Blank, set.Blank.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	return set, nil
}

// Tile returns the tile at a grid position
func (s *Set) Tile(pos engine.Position) (*image.RGBA, bool) {
	if pos.Row < 0 || pos.Row >= engine.GridSize || pos.Col < 0 || pos.Col >= engine.GridSize {
		return nil, false
	}
	return s.Parts[pos.Row][pos.Col], true
}

// SquareTile returns the tile that belongs to a square number
func (s *Set) SquareTile(square int) (*image.RGBA, bool) {
	pos, ok := engine.SquarePosition(square)
	if !ok {
		return nil, false
	}
	return s.Tile(pos)
}

// EncodePNG renders an image as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
