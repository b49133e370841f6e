// Package tiles cuts a picture into the 4x4 tiles revealed on the board.
//
// Images are decoded from PNG, JPEG, GIF, BMP or WebP, scaled to a square
// canvas (400x400 by default) and sliced row by row. A solid black tile of
// the same size stands in for squares that were answered incorrectly.
package tiles
