// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package roundcache

import (
	"testing"

	"github.com/pitlane-grab/pitlane/internal/models"
)

func TestFingerprintIsOrderIndependent(t *testing.T) {
	a := Fingerprint([]models.SessionType{models.SessionRace, models.SessionQualifying, models.SessionFP1})
	b := Fingerprint([]models.SessionType{models.SessionFP1, models.SessionRace, models.SessionQualifying})
	checkStringEqual(t, a, b)
	checkStringEqual(t, a, "fp1,qualifying,race")
}

func TestFingerprintDedupes(t *testing.T) {
	a := Fingerprint([]models.SessionType{models.SessionRace, models.SessionRace})
	checkStringEqual(t, a, "race")
}

func TestFingerprintEmptyAllowlist(t *testing.T) {
	checkStringEqual(t, Fingerprint(nil), "")
}

func TestIntersectRestrictsToRoundSessions(t *testing.T) {
	allowlist := []models.SessionType{models.SessionRace, models.SessionQualifying, models.SessionSprint}
	roundSessions := []models.SessionType{models.SessionRace, models.SessionQualifying, models.SessionFP1}

	got := Intersect(allowlist, roundSessions)
	checkIntEqual(t, len(got), 2)
	checkStringEqual(t, Fingerprint(got), "qualifying,race")
}
