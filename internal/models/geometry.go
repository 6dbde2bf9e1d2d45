package models

// Rect is a rectangle in the mount point's coordinate space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// InsetTop moves the top edge down by top, keeping the bottom edge fixed.
func (r Rect) InsetTop(top float64) Rect {
	if top < 0 {
		top = 0
	}
	if top > r.Height {
		top = r.Height
	}
	r.Y += top
	r.Height -= top
	return r
}

// DisplayMode is how the renderer lays out pages.
type DisplayMode string

const (
	DisplaySinglePage           DisplayMode = "single-page"
	DisplaySinglePageContinuous DisplayMode = "single-page-continuous"
	DisplayTwoUp                DisplayMode = "two-up"
)

// DisplayDirection is the scroll axis.
type DisplayDirection string

const (
	DirectionVertical   DisplayDirection = "vertical"
	DirectionHorizontal DisplayDirection = "horizontal"
)

// DisplayOptions configure how the renderer fits the document into the overlay.
type DisplayOptions struct {
	AutoScales     bool
	Mode           DisplayMode
	Direction      DisplayDirection
	DisplaysAsBook bool
}

// FitWidthContinuous fits pages to the overlay width in one vertical column.
func FitWidthContinuous() DisplayOptions {
	return DisplayOptions{
		AutoScales: true,
		Mode:       DisplaySinglePageContinuous,
		Direction:  DirectionVertical,
	}
}
