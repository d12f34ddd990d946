package intent

import "regexp"

// Pattern order matters: within a category the first match wins.

var searchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`busco?\s+(.+)`),
	regexp.MustCompile(`quiero\s+(.+)`),
	regexp.MustCompile(`necesito\s+(.+)`),
	regexp.MustCompile(`tienes?\s+(.+)`),
	regexp.MustCompile(`productos?\s+de\s+(.+)`),
	regexp.MustCompile(`me\s+recomiendan?\s+(.+)`),
	regexp.MustCompile(`(.+)\s+disponible`),
}

// searchStopWords are captures too generic to search the catalog with.
var searchStopWords = map[string]struct{}{
	"algo":        {},
	"ayuda":       {},
	"información": {},
	"que":         {},
	"para":        {},
}

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`presupuesto\s+de\s+\$?(\d+)`),
	regexp.MustCompile(`tengo\s+\$?(\d+)`),
	regexp.MustCompile(`hasta\s+\$?(\d+)`),
	regexp.MustCompile(`máximo\s+\$?(\d+)`),
	regexp.MustCompile(`con\s+\$?(\d+)`),
}

var catalogPatterns = []*regexp.Regexp{
	regexp.MustCompile(`productos?\s+disponibles?`),
	regexp.MustCompile(`qué\s+venden?`),
	regexp.MustCompile(`qué\s+productos?\s+tienen?`),
	regexp.MustCompile(`catálogo`),
	regexp.MustCompile(`lista\s+de\s+productos?`),
	regexp.MustCompile(`todo\s+lo\s+que\s+tienen?`),
	regexp.MustCompile(`productos?\s+que\s+ofrecen?`),
}

var lookupPattern = regexp.MustCompile(`producto\s+(\d+)`)
