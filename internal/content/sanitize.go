// Package content cleans question markup produced by the AI provider.
// Questions may carry math markup (passed through as text) and inline SVG figures.
package content

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var svgElements = []string{
	"svg", "g", "path", "circle", "ellipse", "line", "rect", "polygon", "polyline",
	"text", "tspan", "defs", "marker", "title",
}

// Attribute names are lowercase because the tokenizer lowercases them.
var svgAttrs = []string{
	"viewbox", "width", "height", "fill", "stroke", "stroke-width", "stroke-dasharray",
	"d", "cx", "cy", "r", "rx", "ry", "x", "y", "x1", "y1", "x2", "y2", "points",
	"transform", "font-size", "font-family", "text-anchor", "dominant-baseline",
	"marker-end", "marker-start", "markerwidth", "markerheight", "refx", "refy", "orient", "id",
}

// Geometry and paint values only. No colons, so no scheme-bearing values.
var svgValue = regexp.MustCompile(`^[a-zA-Z0-9#%.,\-\s()/]*$`)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func questionPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements(svgElements...)
		p.AllowAttrs(svgAttrs...).Matching(svgValue).OnElements(svgElements...)
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers and unknown markup from question
// content while keeping basic formatting and inline SVG figures.
func Sanitize(s string) string {
	return strings.TrimSpace(questionPolicy().Sanitize(s))
}

// Plain strips all markup, for option texts and titles. The result is
// unescaped text; templates escape it again on output.
func Plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(s)))
}
