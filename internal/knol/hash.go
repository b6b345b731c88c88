package knol

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/conorfennell/memcurve/internal/domain"
	"github.com/conorfennell/memcurve/internal/fsrs"
)

// Normalize renders a parameter table canonically: each weight in its
// shortest round-tripping decimal form, one per line. Negative zero is
// rendered as zero.
func Normalize(p *fsrs.Params) string {
	weights := p.Weights()
	parts := make([]string, len(weights))
	for i, w := range weights {
		if w == 0 {
			w = 0
		}
		parts[i] = strconv.FormatFloat(w, 'g', -1, 64)
	}
	return strings.Join(parts, "\n")
}

// Hash returns the SHA-256 fingerprint of a parameter table as a hex string.
func Hash(p *fsrs.Params) string {
	return hexSum(Normalize(p))
}

// ScenarioHash fingerprints a scenario by its name and grade sequence, so a
// renamed file with the same content still maps to the same history.
func ScenarioHash(s domain.Scenario) string {
	grades := make([]string, len(s.Grades))
	for i, g := range s.Grades {
		grades[i] = g.String()
	}
	return hexSum(strings.ToLower(strings.TrimSpace(s.Name)) + "\n" + strings.Join(grades, " "))
}

func hexSum(s string) string {
	hashBytes := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", hashBytes)
}
