// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// sessionPattern finds the first session keyword in a tokenized title,
// independent of how the surrounding year/round/venue tokens are laid out
// (§4.4's example regex assumes a rigid Formula-prefixed structure, but
// indexers mix in shorthand forms like "F1 2025 Bahrain Qualifying ..."
// that still need a session classification).
var sessionPattern = regexp.MustCompile(
	`(?i)\b(Race|Qualifying|Sprint\s?Qualifying|Sprint|FP[123]|Practice(?:\s(?:One|Two|Three))?|Preview|Notebook|Post.Race)\b`,
)

// yearPattern finds a plausible championship year token.
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// roundPattern finds an explicit "RoundNN" token.
var roundPattern = regexp.MustCompile(`(?i)Round\.?\s?(\d{1,2})`)

// tvStylePattern extracts a TV-style SxxxxEyy tag used by some indexers that
// index F1 broadcasts as episodic TV (§4.4).
var tvStylePattern = regexp.MustCompile(`(?i)S(\d{4})E(\d{2,3})`)

var resolutionPattern = regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p)\b`)
var codecPattern = regexp.MustCompile(`(?i)\b(x265|x264|hevc|avc|h\.?264|h\.?265)\b`)
var hdrPattern = regexp.MustCompile(`(?i)\b(hdr10?\+?|hlg)\b`)
var groupPattern = regexp.MustCompile(`-([A-Za-z0-9]+)$`)
var sizeBytesPattern = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s?(GB|MB)\b`)

// sessionCanon maps a raw session token (lowercased, dots/underscores
// already replaced with spaces) to one of the eight canonical tags.
var sessionCanon = map[string]models.SessionType{
	"race":              models.SessionRace,
	"qualifying":        models.SessionQualifying,
	"sprint":            models.SessionSprint,
	"sprint qualifying": models.SessionSprintQualifying,
	"fp1":               models.SessionFP1,
	"fp2":               models.SessionFP2,
	"fp3":               models.SessionFP3,
	"practice one":      models.SessionFP1,
	"practice two":      models.SessionFP2,
	"practice three":    models.SessionFP3,
	"practice":          models.SessionOther,
	"preview":           models.SessionOther,
	"notebook":          models.SessionOther,
	"post race":         models.SessionOther,
}

// Classified is the result of tokenizing and regex-matching one release
// title (§4.4).
type Classified struct {
	Title      string // raw title, kept for venue substring matching
	Year       int
	HasYear    bool
	Round      int
	HasRound   bool
	Session    models.SessionType
	RawSession string // the raw matched token, for Preview/Notebook detection
	Resolution string
	Codec      string
	Group      string
	HDR        bool
	SizeBytes  int64
}

// tokenize replaces the `._` separators with spaces ahead of regex
// matching, case preserved (matching is case-insensitive via regex flags).
func tokenize(title string) string {
	r := strings.NewReplacer(".", " ", "_", " ")
	return r.Replace(title)
}

// Classify applies the §4.4 regexes to a raw release title.
func Classify(title string) Classified {
	c := Classified{Title: title}
	tok := tokenize(title)

	if m := yearPattern.FindString(tok); m != "" {
		if v, err := strconv.Atoi(m); err == nil {
			c.Year = v
			c.HasYear = true
		}
	}

	if m := roundPattern.FindStringSubmatch(tok); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			c.Round = v
			c.HasRound = true
		}
	} else if m := tvStylePattern.FindStringSubmatch(tok); m != nil {
		if !c.HasYear {
			if v, err := strconv.Atoi(m[1]); err == nil {
				c.Year = v
				c.HasYear = true
			}
		}
		if v, err := strconv.Atoi(m[2]); err == nil {
			c.Round = v
			c.HasRound = true
		}
	}

	if m := sessionPattern.FindString(tok); m != "" {
		c.RawSession = m
		c.Session = canonicalizeSession(m)
	} else {
		c.Session = models.SessionOther
	}

	if m := resolutionPattern.FindStringSubmatch(tok); m != nil {
		c.Resolution = strings.ToLower(m[1])
	}
	if m := codecPattern.FindStringSubmatch(tok); m != nil {
		c.Codec = normalizeCodec(m[1])
	}
	c.HDR = hdrPattern.MatchString(tok)
	if m := groupPattern.FindStringSubmatch(strings.TrimSpace(title)); m != nil {
		c.Group = m[1]
	}
	if m := sizeBytesPattern.FindStringSubmatch(tok); m != nil {
		c.SizeBytes = parseSizeToBytes(m[1], m[2])
	}

	return c
}

func canonicalizeSession(raw string) models.SessionType {
	key := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if v, ok := sessionCanon[key]; ok {
		return v
	}
	return models.SessionOther
}

func normalizeCodec(raw string) string {
	switch strings.ToLower(strings.ReplaceAll(raw, ".", "")) {
	case "x265", "hevc", "h265":
		return "x265"
	case "x264", "avc", "h264":
		return "x264"
	default:
		return strings.ToLower(raw)
	}
}

func parseSizeToBytes(numStr, unit string) int64 {
	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(unit) {
	case "GB":
		return int64(f * 1024 * 1024 * 1024)
	case "MB":
		return int64(f * 1024 * 1024)
	default:
		return 0
	}
}

// IsPreviewOrNotebook reports whether the release is a Preview or Notebook
// (§4.4 scoring penalty): either the matched session token is one of those
// words, or the title carries one as a standalone word next to another
// session name ("Qualifying Preview").
func (c Classified) IsPreviewOrNotebook() bool {
	key := strings.ToLower(c.RawSession)
	if key == "preview" || key == "notebook" {
		return true
	}
	for _, f := range strings.Fields(strings.ToLower(tokenize(c.Title))) {
		if f == "preview" || f == "notebook" {
			return true
		}
	}
	return false
}

// SizeBucket buckets SizeBytes into coarse ranges used by the canonical
// key so near-identical releases of the same encode still merge.
func (c Classified) SizeBucket() string {
	const step = 256 * 1024 * 1024 // 256MB buckets
	if c.SizeBytes <= 0 {
		return "unknown"
	}
	bucket := c.SizeBytes / step
	return strconv.FormatInt(bucket, 10)
}
