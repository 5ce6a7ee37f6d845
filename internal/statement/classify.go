package statement

import (
	"regexp"
	"strings"
)

type rule struct {
	pattern *regexp.Regexp
	kind    Kind
}

// rules is evaluated top to bottom and the first match wins. The order is
// part of the contract: DROP TABLE must be tried before DROP DATABASE and
// both CREATE rules before anything that could shadow them.
var rules = []rule{
	{regexp.MustCompile(`(?i)^CREATE\s+DATABASE`), KindCreateDatabase},
	{regexp.MustCompile(`(?i)^SHOW\s+DATABASES`), KindShowDatabases},
	{regexp.MustCompile(`(?i)^CREATE\s+TABLE`), KindCreateTable},
	{regexp.MustCompile(`(?i)^SHOW\s+TABLES`), KindShowTables},
	{regexp.MustCompile(`(?i)^ALTER\s+TABLE`), KindAlterTable},
	{regexp.MustCompile(`(?i)^DROP\s+TABLE`), KindDropTable},
	{regexp.MustCompile(`(?i)^INSERT\s+INTO`), KindInsertValues},
	{regexp.MustCompile(`(?i)^DELETE\s+FROM`), KindDeleteValues},
	{regexp.MustCompile(`(?i)^UPDATE\s+`), KindUpdateValues},
	{regexp.MustCompile(`(?i)^DROP\s+DATABASE`), KindDropDatabase},
}

// Classify determines which statement kind the text represents
func Classify(text string) (Kind, error) {
	q := strings.TrimSpace(text)
	for _, r := range rules {
		if r.pattern.MatchString(q) {
			return r.kind, nil
		}
	}
	return KindUnknown, ErrUnsupportedStatement
}
