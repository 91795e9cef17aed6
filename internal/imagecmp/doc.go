// Package imagecmp compares screenshots pixel by pixel.
//
// Images are decoded from PNG into a Grid of non-premultiplied 8-bit RGBA
// pixels. MatchGrids scans the first grid in row-major order, counting
// positions whose pixel differs in the second grid, and stops the moment the
// count exceeds the threshold.
package imagecmp
