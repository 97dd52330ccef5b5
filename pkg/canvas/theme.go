// Package canvas paints render snapshots onto a raster surface and exports
// whole layouts as SVG, PNG, or DOT documents.
//
// The renderer is dirty-flag driven: mutations mark it dirty and Render is
// a no-op on clean frames, so an idle graph costs nothing per frame.
package canvas

import (
	"image/color"

	"github.com/gitscape/gitscape/pkg/errors"
)

// Theme holds every color the renderer uses. It is derived from host style
// variables so the canvas follows the application's light/dark switching;
// changing the theme marks the renderer dirty without a data reload.
type Theme struct {
	Background   color.RGBA
	Foreground   color.RGBA
	MutedText    color.RGBA
	Selection    color.RGBA
	Hover        color.RGBA
	SearchMatch  color.RGBA
	MergeOutline color.RGBA
	HeadOutline  color.RGBA

	// Lanes is the repeating per-lane palette for lines, nodes, and
	// color-matched commit messages.
	Lanes []color.RGBA

	// Ref pill fills by kind.
	LocalBranch  color.RGBA
	RemoteBranch color.RGBA
	Tag          color.RGBA
}

// Lane returns the palette color for a lane, cycling past the palette end.
func (t Theme) Lane(lane int) color.RGBA {
	if len(t.Lanes) == 0 {
		return t.Foreground
	}
	if lane < 0 {
		lane = 0
	}
	return t.Lanes[lane%len(t.Lanes)]
}

// DarkTheme is the default theme when the host provides no style variables.
func DarkTheme() Theme {
	return Theme{
		Background:   mustHex("#1e1e24"),
		Foreground:   mustHex("#e4e4e8"),
		MutedText:    mustHex("#8a8a94"),
		Selection:    mustHex("#3b82f6"),
		Hover:        mustHex("#60a5fa"),
		SearchMatch:  mustHex("#fbbf24"),
		MergeOutline: mustHex("#9ca3af"),
		HeadOutline:  mustHex("#22c55e"),
		Lanes: []color.RGBA{
			mustHex("#60a5fa"),
			mustHex("#f472b6"),
			mustHex("#34d399"),
			mustHex("#fbbf24"),
			mustHex("#a78bfa"),
			mustHex("#f87171"),
			mustHex("#22d3ee"),
			mustHex("#a3e635"),
		},
		LocalBranch:  mustHex("#2563eb"),
		RemoteBranch: mustHex("#7c3aed"),
		Tag:          mustHex("#d97706"),
	}
}

// LightTheme is the light counterpart of [DarkTheme].
func LightTheme() Theme {
	t := DarkTheme()
	t.Background = mustHex("#ffffff")
	t.Foreground = mustHex("#1f2933")
	t.MutedText = mustHex("#6b7280")
	t.MergeOutline = mustHex("#6b7280")
	return t
}

// Style variable names recognized by [ThemeFromVars].
const (
	VarBackground   = "graph-background"
	VarForeground   = "graph-foreground"
	VarMutedText    = "graph-muted"
	VarSelection    = "graph-selection"
	VarHover        = "graph-hover"
	VarSearchMatch  = "graph-search-match"
	VarMergeOutline = "graph-merge-outline"
	VarHeadOutline  = "graph-head-outline"
	VarLocalBranch  = "ref-local-branch"
	VarRemoteBranch = "ref-remote-branch"
	VarTag          = "ref-tag"
	VarLanePrefix   = "graph-lane-" // graph-lane-0, graph-lane-1, ...
)

// ThemeFromVars builds a theme from host style variables, starting from base
// and overriding every recognized variable that parses as a hex color.
// Unknown names and malformed values are ignored, so a partially themed
// host still renders.
func ThemeFromVars(base Theme, vars map[string]string) Theme {
	t := base
	assign := func(name string, dst *color.RGBA) {
		v, ok := vars[name]
		if !ok {
			return
		}
		if c, err := ParseHex(v); err == nil {
			*dst = c
		}
	}

	assign(VarBackground, &t.Background)
	assign(VarForeground, &t.Foreground)
	assign(VarMutedText, &t.MutedText)
	assign(VarSelection, &t.Selection)
	assign(VarHover, &t.Hover)
	assign(VarSearchMatch, &t.SearchMatch)
	assign(VarMergeOutline, &t.MergeOutline)
	assign(VarHeadOutline, &t.HeadOutline)
	assign(VarLocalBranch, &t.LocalBranch)
	assign(VarRemoteBranch, &t.RemoteBranch)
	assign(VarTag, &t.Tag)

	lanes := make([]color.RGBA, len(t.Lanes))
	copy(lanes, t.Lanes)
	for i := range lanes {
		assign(VarLanePrefix+itoa(i), &lanes[i])
	}
	t.Lanes = lanes
	return t
}

// ParseHex parses #RGB, #RRGGBB, or #RRGGBBAA into an RGBA color.
func ParseHex(s string) (color.RGBA, error) {
	if err := errors.ValidateHexColor(s); err != nil {
		return color.RGBA{}, err
	}
	hexVal := func(b byte) uint8 {
		switch {
		case b >= '0' && b <= '9':
			return b - '0'
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10
		default:
			return b - 'A' + 10
		}
	}

	c := color.RGBA{A: 0xff}
	switch len(s) {
	case 4: // #rgb
		c.R = hexVal(s[1]) * 17
		c.G = hexVal(s[2]) * 17
		c.B = hexVal(s[3]) * 17
	case 7: // #rrggbb
		c.R = hexVal(s[1])<<4 | hexVal(s[2])
		c.G = hexVal(s[3])<<4 | hexVal(s[4])
		c.B = hexVal(s[5])<<4 | hexVal(s[6])
	case 9: // #rrggbbaa
		c.R = hexVal(s[1])<<4 | hexVal(s[2])
		c.G = hexVal(s[3])<<4 | hexVal(s[4])
		c.B = hexVal(s[5])<<4 | hexVal(s[6])
		c.A = hexVal(s[7])<<4 | hexVal(s[8])
	}
	return c, nil
}

func mustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
