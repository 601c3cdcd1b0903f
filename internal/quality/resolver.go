// Package quality resolves a requested quality token against the quality
// tokens one video actually exposes. Two vocabularies exist with no shared
// convention: coarse tiers (best/half/worst) and resolutions (720p, 1080p,
// qualitative high/low markers). The resolver reconciles a request from
// either vocabulary against an availability list from either vocabulary.
package quality

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// Sort classes for resolution tokens, highest first. "high" markers outrank
// every numeric token, "low" markers sit under them, and tokens with no
// numeric content at all sort last.
const (
	classOther = iota
	classLow
	classNumeric
	classHigh
)

var digitRun = regexp.MustCompile(`\d+`)

// tierForResolution maps a resolution-style request onto a tier when the
// video only exposes tier tokens.
var tierForResolution = map[string]string{
	"720p":  domain.QualityBest,
	"1080p": domain.QualityBest,
	"1440p": domain.QualityBest,
	"2160p": domain.QualityBest,
	"480p":  domain.QualityHalf,
	"540p":  domain.QualityHalf,
}

// Resolve picks the available token that best satisfies the requested one.
// The result is always an element of available (or the empty string when
// available is empty); it never invents a token the provider did not offer
// and never resolves above a concrete numeric request except when nothing
// at or below it exists.
func Resolve(requested string, available []string) string {
	if len(available) == 0 {
		return ""
	}
	if tierBased(available) {
		return resolveTier(requested, available)
	}
	return resolveResolution(requested, available)
}

// tierBased reports whether the availability list speaks the tier
// vocabulary. A single tier token anywhere makes the whole call tier-based.
func tierBased(available []string) bool {
	for _, a := range available {
		switch strings.ToLower(a) {
		case domain.QualityBest, domain.QualityHalf, domain.QualityWorst:
			return true
		}
	}
	return false
}

func resolveTier(requested string, available []string) string {
	req := strings.ToLower(strings.TrimSpace(requested))
	switch req {
	case domain.QualityBest, domain.QualityHalf, domain.QualityWorst:
		return pickTier(req, available)
	}

	tier, ok := tierForResolution[req]
	if !ok {
		tier = domain.QualityWorst
	}
	return pickTier(tier, available)
}

// pickTier returns the wanted tier when offered, falling back to best and
// finally to whatever the provider listed first.
func pickTier(want string, available []string) string {
	for _, a := range available {
		if strings.EqualFold(a, want) {
			return a
		}
	}
	for _, a := range available {
		if strings.EqualFold(a, domain.QualityBest) {
			return a
		}
	}
	return available[0]
}

type token struct {
	raw   string
	class int
	value int
}

func classify(raw string) token {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "high") {
		return token{raw: raw, class: classHigh}
	}
	if strings.Contains(lower, "low") {
		return token{raw: raw, class: classLow}
	}
	if m := digitRun.FindString(lower); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return token{raw: raw, class: classNumeric, value: n}
		}
	}
	return token{raw: raw, class: classOther, value: -1}
}

func resolveResolution(requested string, available []string) string {
	toks := make([]token, 0, len(available))
	for _, a := range available {
		toks = append(toks, classify(a))
	}
	sort.SliceStable(toks, func(i, j int) bool {
		if toks[i].class != toks[j].class {
			return toks[i].class > toks[j].class
		}
		return toks[i].value > toks[j].value
	})

	req := strings.ToLower(strings.TrimSpace(requested))
	switch req {
	case domain.QualityBest:
		return toks[0].raw
	case domain.QualityWorst:
		return toks[len(toks)-1].raw
	case domain.QualityHalf:
		return toks[len(toks)/2].raw
	}

	// Exact match wins, then case-insensitive.
	for _, a := range available {
		if a == requested {
			return a
		}
	}
	for _, a := range available {
		if strings.EqualFold(a, requested) {
			return a
		}
	}

	m := digitRun.FindString(req)
	if m == "" {
		// Not parseable as a resolution at all; hand back the top.
		return toks[0].raw
	}
	want, err := strconv.Atoi(m)
	if err != nil {
		return toks[0].raw
	}

	// Closest below or equal: first numeric token not above the request in
	// descending order. Nothing at or below it means the list only has
	// higher qualities, so take the lowest available instead of silently
	// upgrading the request.
	for _, tk := range toks {
		if tk.class == classNumeric && tk.value <= want {
			return tk.raw
		}
	}
	return toks[len(toks)-1].raw
}
