// Package preview implements the preview-encoder component (spec
// §4.7): a ref-counted activation gate guarding an otherwise-skipped
// JPEG encode, with two atomically-swapped slots (raw, corrected) that
// readers copy out without ever blocking the pipeline.
package preview

import (
	"bytes"
	"image"
	"image/jpeg"
	"sync/atomic"
)

const jpegQuality = 85

// Encoder holds the current JPEG bytes for the raw (post-decode,
// pre-warp) and corrected (post-warp) slots, refcounted by
// Activate/Deactivate.
type Encoder struct {
	refcount  atomic.Int32
	raw       atomic.Pointer[[]byte]
	corrected atomic.Pointer[[]byte]
}

// Activate increments the refcount; the stage starts encoding on the
// next pipeline iteration once refcount > 0.
func (e *Encoder) Activate() int32 {
	return e.refcount.Add(1)
}

// Deactivate decrements the refcount, floored at zero.
func (e *Encoder) Deactivate() int32 {
	for {
		cur := e.refcount.Load()
		if cur <= 0 {
			return 0
		}
		if e.refcount.CompareAndSwap(cur, cur-1) {
			return cur - 1
		}
	}
}

// Active reports whether the stage should run this iteration.
func (e *Encoder) Active() bool {
	return e.refcount.Load() > 0
}

// EncodeIfActive JPEG-encodes raw and corrected (packed RGB24 at
// width x height) into their respective slots, but only when Active.
// When inactive it is a no-op, per spec §4.7's latency-optimization
// requirement.
func (e *Encoder) EncodeIfActive(raw, corrected []byte, width, height int) error {
	if !e.Active() {
		return nil
	}

	rawJPEG, err := encodeRGB24(raw, width, height)
	if err != nil {
		return err
	}
	e.raw.Store(&rawJPEG)

	correctedJPEG, err := encodeRGB24(corrected, width, height)
	if err != nil {
		return err
	}
	e.corrected.Store(&correctedJPEG)

	return nil
}

func encodeRGB24(rgb []byte, width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 3
			o := img.PixOffset(x, y)
			img.Pix[o+0] = rgb[off+0]
			img.Pix[o+1] = rgb[off+1]
			img.Pix[o+2] = rgb[off+2]
			img.Pix[o+3] = 255
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadRaw copies out the most recent raw-slot JPEG bytes. ok is false
// if nothing has been encoded yet (spec §6 "404 if not yet encoded").
func (e *Encoder) ReadRaw() (data []byte, ok bool) {
	return readSlot(&e.raw)
}

// ReadCorrected copies out the most recent corrected-slot JPEG bytes.
func (e *Encoder) ReadCorrected() (data []byte, ok bool) {
	return readSlot(&e.corrected)
}

func readSlot(slot *atomic.Pointer[[]byte]) ([]byte, bool) {
	p := slot.Load()
	if p == nil {
		return nil, false
	}
	return append([]byte(nil), (*p)...), true
}
