package classify

import "plannercal/internal/model"

// SchoolRules returns the default rule set for school district feeds.
// Feed owners can override the list per source in the config file; order is
// significant because ambiguous titles ("Holiday Concert - Minimum Day")
// resolve to the first matching rule.
func SchoolRules() RuleSet {
	return RuleSet{
		Rules: []Rule{
			{Match: "no school", Category: model.CategoryHoliday},
			{Match: "holiday", Category: model.CategoryHoliday},
			{Match: "break", Category: model.CategoryHoliday},
			{Match: "recess", Category: model.CategoryHoliday},
			{Match: "minimum day", Category: model.CategoryMinimumDay},
			{Match: "early release", Category: model.CategoryMinimumDay},
			{Match: "early dismissal", Category: model.CategoryMinimumDay},
			{Match: "staff development", Category: model.CategoryStaffDevelopment},
			{Match: "professional development", Category: model.CategoryStaffDevelopment},
			{Match: "teacher work", Category: model.CategoryStaffDevelopment},
			{Match: "back to school", Category: model.CategoryParentEvent},
			{Match: "open house", Category: model.CategoryParentEvent},
			{Match: "parent", Category: model.CategoryParentEvent},
			{Match: "pta", Category: model.CategoryParentEvent},
			{Match: "first day of school", Category: model.CategorySchoolYear},
			{Match: "last day of school", Category: model.CategorySchoolYear},
			{Match: "school year", Category: model.CategorySchoolYear},
		},
		Default: model.CategorySchoolEvent,
	}
}

// ObservanceRules returns the default rule set for the religious-observance
// feed (Hebcal).
func ObservanceRules() RuleSet {
	return RuleSet{
		Rules: []Rule{
			{Match: "rosh hashana", Category: model.CategoryMajorHoliday},
			{Match: "yom kippur", Category: model.CategoryMajorHoliday},
			{Match: "pesach", Category: model.CategoryMajorHoliday},
			{Match: "passover", Category: model.CategoryMajorHoliday},
			{Match: "sukkot", Category: model.CategoryMajorHoliday},
			{Match: "shavuot", Category: model.CategoryMajorHoliday},
			{Match: "shmini atzeret", Category: model.CategoryMajorHoliday},
			{Match: "simchat torah", Category: model.CategoryMajorHoliday},
			{Match: "chanukah", Category: model.CategoryMinorHoliday},
			{Match: "hanukkah", Category: model.CategoryMinorHoliday},
			{Match: "purim", Category: model.CategoryMinorHoliday},
			{Match: "tu bishvat", Category: model.CategoryMinorHoliday},
			{Match: "lag baomer", Category: model.CategoryMinorHoliday},
			{Match: "rosh chodesh", Category: model.CategoryMinorHoliday},
			{Match: "tish'a b'av", Category: model.CategoryFastDay},
			{Match: "tisha b'av", Category: model.CategoryFastDay},
			{Match: "tzom", Category: model.CategoryFastDay},
			{Match: "fast", Category: model.CategoryFastDay},
			{Match: "ta'anit", Category: model.CategoryFastDay},
			{Match: "candle lighting", Category: model.CategoryWeeklyObservance},
			{Match: "havdalah", Category: model.CategoryWeeklyObservance},
			{Match: "shabbat", Category: model.CategoryWeeklyObservance},
		},
		Default: model.CategoryOther,
	}
}

// RulesForKind returns the default rule set for a source kind. Unknown kinds
// fall back to the school rule set.
func RulesForKind(kind string) RuleSet {
	if kind == "observance" {
		return ObservanceRules()
	}
	return SchoolRules()
}
