// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"regexp"
	"strings"
)

// sponsorTokens are commercial prefixes/suffixes the provider's raceName
// routinely carries (e.g. "FORMULA 1 ROLEX AUSTRALIAN GRAND PRIX 2026").
// Stripping them gives a cleaner round name for the query builder (§4.2).
// Only the stripped name is stored; the raw name is not kept.
var sponsorTokens = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bFORMULA\s*1\b`),
	regexp.MustCompile(`(?i)\bROLEX\b`),
	regexp.MustCompile(`(?i)\bHEINEKEN\b`),
	regexp.MustCompile(`(?i)\bLENOVO\b`),
	regexp.MustCompile(`(?i)\bQATAR\s*AIRWAYS\b`),
	regexp.MustCompile(`(?i)\bPIRELLI\b`),
	regexp.MustCompile(`(?i)\bAWS\b`),
	regexp.MustCompile(`(?i)\bDHL\b`),
	regexp.MustCompile(`(?i)\bMSC\s*CRUISES\b`),
}

var multiSpace = regexp.MustCompile(`\s+`)

// stripSponsorTokens removes known sponsor tokens from a raw race name,
// collapsing resulting whitespace. The caller stores the result as the
// round name and does not keep the raw input as an alias.
func stripSponsorTokens(raw string) string {
	s := raw
	for _, re := range sponsorTokens {
		s = re.ReplaceAllString(s, "")
	}
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
