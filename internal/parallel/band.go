package parallel

import "image"

// Bands splits r into at most n horizontal bands of at least minRows rows
// each. The bands cover r exactly and are returned top to bottom.
func Bands(r image.Rectangle, n, minRows int) []image.Rectangle {
	if r.Empty() {
		return nil
	}
	minRows = max(1, minRows)
	n = max(1, min(n, r.Dy()/minRows))
	bands := make([]image.Rectangle, 0, n)
	h := r.Dy()
	y := r.Min.Y
	for i := range n {
		rows := h / n
		if i < h%n {
			rows++
		}
		bands = append(bands, image.Rect(r.Min.X, y, r.Max.X, y+rows))
		y += rows
	}
	return bands
}

// ForEachBand calls fn for every band of r in parallel and waits for all of
// them. Regions shorter than two bands run on the calling goroutine.
func (p *WorkerPool) ForEachBand(r image.Rectangle, minRows int, fn func(band image.Rectangle)) {
	bands := Bands(r, p.workers, minRows)
	if len(bands) <= 1 {
		if !r.Empty() {
			fn(r)
		}
		return
	}
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b) }
	}
	p.ExecuteAll(work)
}
