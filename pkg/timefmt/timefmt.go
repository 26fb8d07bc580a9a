// Package timefmt compiles date patterns written with the conventional
// letter syntax (dd-MMM-yyyy HH:mm:ss) into Go reference layouts and keeps
// the compiled layouts in a small per-worker cache.
package timefmt

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultCacheSize is the number of compiled layouts a Cache keeps before it
// starts evicting the least recently used one.
const DefaultCacheSize = 8

// Layout is a compiled date pattern bound to a time zone. Parsing accepts
// numeric fields without their zero padding; formatting always pads them.
type Layout struct {
	pattern      string
	parseLayout  string
	formatLayout string
	location     *time.Location
}

// Pattern returns the source pattern the layout was compiled from.
func (l *Layout) Pattern() string {
	return l.pattern
}

// Parse interprets value in the layout's time zone.
func (l *Layout) Parse(value string) (time.Time, error) {
	return time.ParseInLocation(l.parseLayout, strings.TrimSpace(value), l.location)
}

// Format renders t in the layout's time zone.
func (l *Layout) Format(t time.Time) string {
	return t.In(l.location).Format(l.formatLayout)
}

// element is the pair of Go layout elements a run of pattern letters
// compiles to.
type element struct {
	parse  string
	format string
}

// patternTokens maps runs of pattern letters to Go layout elements. Numeric
// fields parse with the non-padded elements so single-digit values are
// accepted.
var patternTokens = map[string]element{
	"d":    {"2", "2"},
	"dd":   {"2", "02"},
	"M":    {"1", "1"},
	"MM":   {"1", "01"},
	"MMM":  {"Jan", "Jan"},
	"MMMM": {"January", "January"},
	"yy":   {"06", "06"},
	"yyyy": {"2006", "2006"},
	"H":    {"15", "15"},
	"HH":   {"15", "15"},
	"h":    {"3", "3"},
	"hh":   {"3", "03"},
	"m":    {"4", "4"},
	"mm":   {"4", "04"},
	"s":    {"5", "5"},
	"ss":   {"5", "05"},
	"S":    {"0", "0"},
	"SS":   {"00", "00"},
	"SSS":  {"000", "000"},
	"a":    {"PM", "PM"},
	"E":    {"Mon", "Mon"},
	"EEE":  {"Mon", "Mon"},
	"EEEE": {"Monday", "Monday"},
	"z":    {"MST", "MST"},
	"Z":    {"-0700", "-0700"},
	"X":    {"Z07", "Z07"},
	"XX":   {"Z0700", "Z0700"},
	"XXX":  {"Z07:00", "Z07:00"},
}

// Compile translates pattern into a Go layout interpreted in loc. Text
// enclosed in single quotes is copied literally; two consecutive quotes
// produce a single quote.
func Compile(pattern string, loc *time.Location) (*Layout, error) {
	if loc == nil {
		loc = time.UTC
	}

	var parse, format strings.Builder
	runes := []rune(pattern)

	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case r == '\'':
			if i+1 < len(runes) && runes[i+1] == '\'' {
				parse.WriteRune('\'')
				format.WriteRune('\'')
				i += 2
				continue
			}
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end >= len(runes) {
				return nil, fmt.Errorf("pattern %q: unterminated quote at %d", pattern, i)
			}
			literal := string(runes[i+1 : end])
			parse.WriteString(literal)
			format.WriteString(literal)
			i = end + 1

		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			j := i
			for j < len(runes) && runes[j] == r {
				j++
			}
			run := string(runes[i:j])
			elem, ok := patternTokens[run]
			if !ok {
				return nil, fmt.Errorf("pattern %q: unsupported field %q", pattern, run)
			}
			parse.WriteString(elem.parse)
			format.WriteString(elem.format)
			i = j

		default:
			parse.WriteRune(r)
			format.WriteRune(r)
			i++
		}
	}

	return &Layout{
		pattern:      pattern,
		parseLayout:  parse.String(),
		formatLayout: format.String(),
		location:     loc,
	}, nil
}

// Cache holds compiled layouts keyed by pattern. A Cache belongs to exactly
// one worker and is not safe for concurrent use; entries are evicted when the
// cache is full and rebuilt on the next lookup.
type Cache struct {
	location *time.Location
	layouts  *simplelru.LRU[string, *Layout]
	compiles int
}

// NewCache returns a cache that compiles layouts in UTC and keeps at most
// size of them. A non-positive size selects DefaultCacheSize.
func NewCache(size int) *Cache {
	return NewCacheIn(size, time.UTC)
}

// NewCacheIn is like NewCache with an explicit time zone.
func NewCacheIn(size int, loc *time.Location) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if loc == nil {
		loc = time.UTC
	}

	// NewLRU only fails for a non-positive size.
	layouts, _ := simplelru.NewLRU[string, *Layout](size, nil)

	return &Cache{
		location: loc,
		layouts:  layouts,
	}
}

// Layout returns the compiled layout for pattern, compiling it on a miss.
func (c *Cache) Layout(pattern string) (*Layout, error) {
	if layout, ok := c.layouts.Get(pattern); ok {
		return layout, nil
	}

	layout, err := Compile(pattern, c.location)
	if err != nil {
		return nil, err
	}
	c.compiles++
	c.layouts.Add(pattern, layout)
	return layout, nil
}

// Len returns the number of cached layouts.
func (c *Cache) Len() int {
	return c.layouts.Len()
}

// Compiles returns how many times a pattern had to be compiled.
func (c *Cache) Compiles() int {
	return c.compiles
}
