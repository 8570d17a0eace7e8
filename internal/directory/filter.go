package directory

import (
	"slices"
	"strings"

	"github.com/notepid/club_companion/internal/domain"
)

// SizeBucket groups clubs by member count.
type SizeBucket int

const (
	SizeAny SizeBucket = iota
	SizeSmall
	SizeMedium
	SizeLarge
)

// SizeBuckets lists the buckets in display order.
var SizeBuckets = []SizeBucket{SizeAny, SizeSmall, SizeMedium, SizeLarge}

func (b SizeBucket) String() string {
	switch b {
	case SizeSmall:
		return "Small (<30)"
	case SizeMedium:
		return "Medium (30-59)"
	case SizeLarge:
		return "Large (60+)"
	default:
		return "Any size"
	}
}

// Contains reports whether a club with members fits the bucket.
func (b SizeBucket) Contains(members int) bool {
	switch b {
	case SizeSmall:
		return members < 30
	case SizeMedium:
		return members >= 30 && members < 60
	case SizeLarge:
		return members >= 60
	default:
		return true
	}
}

// Filter narrows the directory. The zero value matches every club.
type Filter struct {
	Text      string
	Interests []string
	Size      SizeBucket
}

// Empty reports whether f matches everything.
func (f Filter) Empty() bool {
	return f.Text == "" && len(f.Interests) == 0 && f.Size == SizeAny
}

// Match reports whether c passes every criterion of f.
func Match(c domain.Club, f Filter) bool {
	if f.Text != "" {
		text := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(c.Name), text) &&
			!strings.Contains(strings.ToLower(c.Description), text) {
			return false
		}
	}
	if len(f.Interests) > 0 && !slices.ContainsFunc(c.Interests, func(tag string) bool {
		return slices.Contains(f.Interests, tag)
	}) {
		return false
	}
	return f.Size.Contains(c.MemberCount)
}

// Apply returns the clubs matching f in their original order.
func Apply(clubs []domain.Club, f Filter) []domain.Club {
	out := make([]domain.Club, 0, len(clubs))
	for _, c := range clubs {
		if Match(c, f) {
			out = append(out, c)
		}
	}
	return out
}
