// Package pixeltobin converts categorized image and text samples into a
// compact, self-describing binary representation. Samples live under four
// domain roots (pixelart, text, mixed/pixelart, mixed/text) as numbered
// S#<index> folders, each holding one or more images and a config.json.
package pixeltobin

import "fmt"

// Domain identifies the category a sample belongs to. Mixed samples carry
// an inner refinement (pixelart or text) that decides how their assets are
// loaded; a sample never belongs to both refinements at once.
type Domain uint8

const (
	DomainPixelArt Domain = iota
	DomainText
	DomainMixedPixelArt
	DomainMixedText
)

// Domains returns every domain in the fixed traversal order used by
// discovery and by artifact output.
func Domains() []Domain {
	return []Domain{DomainPixelArt, DomainText, DomainMixedPixelArt, DomainMixedText}
}

// ParseDomain parses the string form used in config.json and on disk.
func ParseDomain(s string) (Domain, error) {
	switch s {
	case "pixelart":
		return DomainPixelArt, nil
	case "text":
		return DomainText, nil
	case "mixed/pixelart":
		return DomainMixedPixelArt, nil
	case "mixed/text":
		return DomainMixedText, nil
	}
	return 0, fmt.Errorf("unknown domain %q", s)
}

// String returns the config.json form, which is also the relative
// directory of the domain root.
func (d Domain) String() string {
	switch d {
	case DomainPixelArt:
		return "pixelart"
	case DomainText:
		return "text"
	case DomainMixedPixelArt:
		return "mixed/pixelart"
	case DomainMixedText:
		return "mixed/text"
	}
	return fmt.Sprintf("domain(%d)", uint8(d))
}

// Tag returns the one-byte wire tag written into artifact headers.
func (d Domain) Tag() uint8 { return uint8(d) }

// DomainFromTag is the inverse of Tag.
func DomainFromTag(tag uint8) (Domain, error) {
	if tag > uint8(DomainMixedText) {
		return 0, fmt.Errorf("unknown domain tag %d", tag)
	}
	return Domain(tag), nil
}

// Mixed reports whether the domain carries an inner refinement.
func (d Domain) Mixed() bool {
	return d == DomainMixedPixelArt || d == DomainMixedText
}

// Text reports whether the sample's assets are text glyph images. For
// mixed domains this resolves the inner tag.
func (d Domain) Text() bool {
	return d == DomainText || d == DomainMixedText
}

func (d Domain) valid() bool { return d <= DomainMixedText }
