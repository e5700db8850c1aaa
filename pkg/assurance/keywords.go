package assurance

import "strings"

// methodologyKeyword is one vocabulary entry in the fixed scoring table
// (§4.3). Keywords are matched case-insensitively against the
// concatenation of a control's description and evidence.
type methodologyKeyword struct {
	phrase string
	level  Level
}

// methodologyVocabulary is deliberately ordered from highest to lowest
// level so scoreMethodology can return on first match: a control whose
// text contains both "attested by auditor" and "documented" should score
// at the higher level, not the first phrase encountered positionally.
var methodologyVocabulary = []methodologyKeyword{
	{"attested by auditor", LevelAttested},
	{"observed over period", LevelObserved},
	{"demonstrated", LevelDemonstrated},
	{"tested", LevelDemonstrated},
	{"configured", LevelConfigured},
	{"enabled", LevelConfigured},
	{"documented", LevelDocumented},
}

// scoreMethodology returns the highest methodology level whose keyword
// appears in text, and the keyword that matched (for the rule trace). A
// control whose text matches nothing scores L0: undocumented claims get
// no credit beyond having been entered at all.
func scoreMethodology(description, evidence string) (Level, string) {
	text := strings.ToLower(description + " " + evidence)
	for _, kw := range methodologyVocabulary {
		if strings.Contains(text, kw.phrase) {
			return kw.level, kw.phrase
		}
	}
	return LevelDocumented, "(no methodology keyword matched)"
}
