package pdf

// A4 page size in millimetres.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
)

// Placement is where an image lands on the page, in page units.
type Placement struct {
	X, Y, Width, Height float64
}

// FitToPage scales an image of imgW x imgH to the largest size that fits the
// page without changing its aspect ratio, and centers it on both axes.
func FitToPage(imgW, imgH, pageW, pageH float64) Placement {
	if imgW <= 0 || imgH <= 0 || pageW <= 0 || pageH <= 0 {
		return Placement{Width: pageW, Height: pageH}
	}

	var w, h float64
	if imgW/imgH > pageW/pageH {
		w = pageW
		h = pageW * imgH / imgW
	} else {
		h = pageH
		w = pageH * imgW / imgH
	}

	return Placement{
		X:      (pageW - w) / 2,
		Y:      (pageH - h) / 2,
		Width:  w,
		Height: h,
	}
}
