package assurance

import "strings"

// boilerplateCorpus is the fixed set of canonical phrases auditors and
// tool vendors fall back on when they have nothing control-specific to
// say. A match is a non-blocking classification flag: it surfaces for
// reviewer attention but never changes the declared level.
var boilerplateCorpus = []string{
	"control is operating effectively",
	"no exceptions noted",
	"management has implemented appropriate controls",
	"designed and operating effectively",
	"in accordance with company policy",
}

const boilerplateFlag = "generic-boilerplate"

// isBoilerplate reports whether description matches the canonical
// boilerplate corpus closely enough to flag.
func isBoilerplate(description string) bool {
	text := strings.ToLower(strings.TrimSpace(description))
	if text == "" {
		return false
	}
	for _, phrase := range boilerplateCorpus {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
