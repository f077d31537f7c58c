// Package classify assigns a category label to parsed calendar events using
// ordered, source-specific pattern rule sets. Classification is a pure
// function of the event text and the rule set, so re-runs are deterministic
// even as rule sets evolve.
package classify

import (
	"strings"

	"plannercal/internal/ics"
	"plannercal/internal/model"
)

// Rule maps a case-insensitive substring pattern to a category. Rules are
// evaluated in list order; the first match wins.
type Rule struct {
	Match    string         `yaml:"match"`
	Category model.Category `yaml:"category"`
}

// RuleSet is an ordered rule list plus the category assigned when no rule
// matches.
type RuleSet struct {
	Rules   []Rule
	Default model.Category
}

// Event is a parsed event together with its assigned category and, for
// observance feeds, a location label.
type Event struct {
	ics.RawEvent
	Category model.Category
	Place    string
}

// Classify matches the rules against the concatenated summary and
// description. First match in list order wins; no match yields the default.
func (rs RuleSet) Classify(summary, description string) model.Category {
	haystack := strings.ToLower(summary + " " + description)
	for _, r := range rs.Rules {
		if r.Match == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(r.Match)) {
			return r.Category
		}
	}
	return rs.Default
}

// ClassifyEvent wraps Classify for a RawEvent.
func (rs RuleSet) ClassifyEvent(ev ics.RawEvent) model.Category {
	return rs.Classify(ev.Summary, ev.Description)
}

// placeRule maps a category text pattern to an observance location label.
type placeRule struct {
	match string
	place string
}

// Observance location labels.
const (
	PlaceHome          = "Home"
	PlaceSynagogue     = "Synagogue"
	PlaceHomeSynagogue = "Home/Synagogue"
)

var placeRules = []placeRule{
	{match: "major holiday", place: PlaceHomeSynagogue},
	{match: "fast day", place: PlaceSynagogue},
	{match: "weekly observance", place: PlaceHome},
	{match: "minor holiday", place: PlaceHome},
}

// PlaceFor assigns the observance location label for a category, using the
// same first-match strategy as Classify, independent of how the category was
// arrived at. Unmatched categories default to Home.
func PlaceFor(cat model.Category) string {
	needle := strings.ToLower(string(cat))
	for _, r := range placeRules {
		if strings.Contains(needle, r.match) {
			return r.place
		}
	}
	return PlaceHome
}
