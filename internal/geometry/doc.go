// Package geometry computes how an arbitrary source frame is mapped onto the
// vertical Shorts canvas.
//
// Fit decides whether a landscape source should be rotated 90 degrees, picks
// a uniform scale factor, and resolves the overflow or deficit with a centered
// crop window or a centered pad offset. The result is always exactly the
// target size. Everything here is pure arithmetic; the transform package turns
// a Plan into an encoder filter chain.
package geometry
