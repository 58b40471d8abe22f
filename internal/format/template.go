// Package format renders user templates and play times for presence texts.
//
// Templates use %-prefixed keys:
//
//	%a artist    %l album     %t title    %g genre
//	%y date      %u duration  %p position %% literal percent
//
// Unknown keys are left untouched.
package format

import (
	"strings"

	"github.com/genricoloni/cmusrpc/internal/domain"
)

// Render substitutes every key in tmpl with the matching field of s.
// Substitution happens in a single left-to-right pass, so "%%" always yields
// one "%" and substituted values are never expanded again.
func Render(tmpl string, s domain.Status) string {
	if !strings.Contains(tmpl, "%") {
		return tmpl
	}
	return strings.NewReplacer(
		"%%", "%",
		"%a", s.Artist,
		"%l", s.Album,
		"%t", s.Title,
		"%g", s.Genre,
		"%y", s.Date,
		"%u", Duration(s.Duration),
		"%p", Duration(s.Position),
	).Replace(tmpl)
}
