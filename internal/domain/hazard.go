package domain

import (
	"fmt"
	"strings"
)

// Wind warning thresholds in m/s, from the Icelandic road safety guidelines.
const (
	warning1WindMS = 20.0
	warning2WindMS = 24.0
	warning3WindMS = 28.0
	warning1GustMS = 26.0
	warning2GustMS = 30.0
	warning3GustMS = 35.0

	lowVisibilityM = 1000.0
	freezingTempC  = 0.0
)

// hazardsHeader prefixes every hazard list so API consumers can render it as
// a titled section.
const hazardsHeader = "Official Weather Warnings (Icelandic Road Safety Office):"

// DetectHazards evaluates each station's worst-case facts against fixed
// thresholds and returns formatted hazard statements in corridor order,
// prefixed with a section header. Each signal fires at most once per station
// at its highest qualifying level; wind and gust are independent signals and
// can both fire for the same station. Stations with no qualifying signal
// contribute nothing.
func DetectHazards(facts []StationFacts) []string {
	hazards := []string{hazardsHeader}

	for _, f := range facts {
		name := f.StationName

		if f.MaxWindMS != nil {
			wind := *f.MaxWindMS
			switch {
			case wind >= warning3WindMS:
				hazards = append(hazards, fmt.Sprintf("Warning Level 3: Wind %.1f m/s at %s - Unconditional stop recommended", wind, name))
			case wind >= warning2WindMS:
				hazards = append(hazards, fmt.Sprintf("Warning Level 2: Wind %.1f m/s at %s - Reduce speed significantly", wind, name))
			case wind >= warning1WindMS:
				hazards = append(hazards, fmt.Sprintf("Warning Level 1: Wind %.1f m/s at %s - Drive carefully", wind, name))
			}
		}

		if f.MaxGustMS != nil {
			gust := *f.MaxGustMS
			switch {
			case gust >= warning3GustMS:
				hazards = append(hazards, fmt.Sprintf("Severe gusts %.1f m/s at %s - Extreme caution", gust, name))
			case gust >= warning2GustMS:
				hazards = append(hazards, fmt.Sprintf("Strong gusts %.1f m/s at %s", gust, name))
			case gust >= warning1GustMS:
				hazards = append(hazards, fmt.Sprintf("Gusts %.1f m/s at %s - Reduced stability", gust, name))
			}
		}

		if f.MinVisM != nil && *f.MinVisM < lowVisibilityM {
			hazards = append(hazards, fmt.Sprintf("Low visibility %.0fm at %s - Reduced reaction time", *f.MinVisM, name))
		}

		if f.MinTempC != nil && *f.MinTempC <= freezingTempC && isPrecipitation(f.PrecipType) {
			hazards = append(hazards, fmt.Sprintf("Freezing conditions %.1f°C with %s at %s - Ice risk", *f.MinTempC, f.PrecipType, name))
		}
	}

	return hazards
}

// isPrecipitation reports whether a precip type counts for the ice-risk rule.
// Provider feeds use free-text codes, so this is a substring match.
func isPrecipitation(precipType string) bool {
	return strings.Contains(precipType, "snow") || strings.Contains(precipType, "rain")
}
