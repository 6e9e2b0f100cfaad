package forecast

import (
	"context"
	"regexp"
	"strings"
)

var (
	stationCodeRegex = regexp.MustCompile(`^[A-Za-z0-9]{4}$`)
	iataCodeRegex    = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// Resolver maps free-form airport labels to canonical 4-character station
// identifiers, consulting the airport directory when the label is not
// already a code.
type Resolver struct {
	dir StationDirectory
}

func NewResolver(dir StationDirectory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the canonical station for a label and an optional pre-known
// hint from a linked airport record. An empty result means no weather is
// available for this endpoint; it is not an error.
//
// Bare 3-letter codes get a K prefix. That heuristic is right for US
// general-aviation fields and wrong for most 3-letter codes elsewhere; it is
// kept because the directory lookup below covers the labels that matter.
func (r *Resolver) Resolve(ctx context.Context, label, hint string) string {
	hint = strings.TrimSpace(hint)
	if stationCodeRegex.MatchString(hint) {
		return strings.ToUpper(hint)
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	if stationCodeRegex.MatchString(label) {
		return strings.ToUpper(label)
	}
	if iataCodeRegex.MatchString(label) {
		return "K" + strings.ToUpper(label)
	}

	if r.dir == nil {
		return ""
	}
	preferred, err := r.dir.PreferredStation(ctx, label)
	if err != nil || preferred == "" {
		return ""
	}
	return normalizeStation(preferred)
}

func normalizeStation(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch {
	case stationCodeRegex.MatchString(code):
		return code
	case iataCodeRegex.MatchString(code):
		return "K" + code
	default:
		return ""
	}
}
