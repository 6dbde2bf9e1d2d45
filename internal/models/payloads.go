package models

import "strings"

// These structs define the JSON payloads exchanged between the host
// application and the viewer bridge.

// OpenRequest is the input for the Open function.
type OpenRequest struct {
	URL          string   `json:"url"`
	Title        string   `json:"title,omitempty"`
	Top          *float64 `json:"top,omitempty"`
	MarginTop    *float64 `json:"marginTop,omitempty"`
	DefaultToEnd bool     `json:"defaultToEnd,omitempty"`
}

// Locator returns the trimmed document locator.
func (r OpenRequest) Locator() string {
	return strings.TrimSpace(r.URL)
}

// TopInset resolves the vertical inset: top, then marginTop, then fallback.
// Negative values clamp to zero.
func (r OpenRequest) TopInset(fallback float64) float64 {
	top := fallback
	switch {
	case r.Top != nil:
		top = *r.Top
	case r.MarginTop != nil:
		top = *r.MarginTop
	}
	if top < 0 {
		return 0
	}
	return top
}

// StatusSnapshot is the point-in-time read of the viewer returned by GetStatus.
type StatusSnapshot struct {
	IsOpen    bool `json:"isOpen"`
	IsAtEnd   bool `json:"isAtEnd"`
	Page      int  `json:"page"`
	PageCount int  `json:"pageCount"`
}

// StorageObjectEvent is the data payload of a Cloud Storage CloudEvent.
type StorageObjectEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}
