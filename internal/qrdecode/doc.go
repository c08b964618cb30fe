// Package qrdecode extracts candidate QR code texts from photographs.
//
// Photographed receipts defeat QR detectors through poor contrast and small
// module size, so decoding runs as a fixed fallback chain, cheapest first:
//
//  1. the original color image
//  2. a grayscale copy
//  3. upscaled copies (1.5x, 2x, 3x) of the color and grayscale images
//  4. one adaptive threshold (locally binarized) copy of the grayscale image
//
// Stages 1 and 2 stop the chain as soon as they find anything. Stages 3 and
// 4 are exhaustive and their results are merged. Candidates are yielded
// lazily, de-duplicated in first-seen order.
//
// A detector failure on any single variant counts as "nothing found" and the
// chain moves on. Only a detector that cannot be constructed at all is an
// error (domain.ErrDecoderUnavailable).
package qrdecode
