// Package keyword filters records with chains of wildcard keyword conditions.
package keyword

import (
	"regexp"
	"strings"

	"github.com/atikulmunna/syslens/internal/model"
)

// Compile converts a wildcard keyword into a case-insensitive matcher that
// finds the keyword anywhere in the text. '*' matches any run of characters
// and '?' exactly one; everything else is literal. Compile never fails.
func Compile(keyword string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + WildcardToRegexp(keyword))
}

// WildcardToRegexp returns the unanchored pattern text for keyword.
func WildcardToRegexp(keyword string) string {
	// Invalid UTF-8 would not compile; the loader drops it from records too.
	escaped := regexp.QuoteMeta(strings.ToValidUTF8(keyword, ""))
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	escaped = strings.ReplaceAll(escaped, `\?`, ".")
	return escaped
}

// SearchText joins the searchable fields (hostname, app name, message) with
// single spaces. Missing fields contribute empty strings.
func SearchText(r model.LogRecord) string {
	return r.Hostname + " " + r.AppName + " " + r.Message
}

// Match evaluates conds against every record and returns one bool per record.
//
// The chain is a strict left fold: the first condition seeds the result (an
// empty first keyword matches everything), each later non-empty condition is
// combined with the running result using its own operator, and empty later
// conditions are skipped.
func Match(c model.Collection, conds []model.Condition) []bool {
	result := make([]bool, len(c))
	for i := range result {
		result[i] = true
	}
	if len(c) == 0 || len(conds) == 0 {
		return result
	}

	texts := make([]string, len(c))
	for i, r := range c {
		texts[i] = SearchText(r)
	}

	if kw := strings.TrimSpace(conds[0].Keyword); kw != "" {
		re := Compile(kw)
		for i, text := range texts {
			result[i] = re.MatchString(text)
		}
	}

	for _, cond := range conds[1:] {
		kw := strings.TrimSpace(cond.Keyword)
		if kw == "" {
			continue
		}
		re := Compile(kw)
		for i, text := range texts {
			switch cond.Operator {
			case model.Or:
				result[i] = result[i] || re.MatchString(text)
			default:
				result[i] = result[i] && re.MatchString(text)
			}
		}
	}

	return result
}

// Filter returns the records selected by conds, in their original order.
func Filter(c model.Collection, conds []model.Condition) model.Collection {
	return c.Select(Match(c, conds))
}
