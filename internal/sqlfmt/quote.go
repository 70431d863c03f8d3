package sqlfmt

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeIdentifier returns name in Unicode normalization form C, so that
// identifiers differing only in composition quote to the same bytes.
func NormalizeIdentifier(name string) string {
	return norm.NFC.String(name)
}

// QuoteLiteral renders s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// needsQuoting reports whether an identifier must be quoted in ANSI SQL:
// empty, not a plain [A-Za-z_][A-Za-z0-9_]* word, or reserved.
func needsQuoting(name string) bool {
	if name == "" {
		return true
	}
	c := name[0]
	if !isLetter(c) && c != '_' {
		return true
	}
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}
	return reserved[strings.ToUpper(name)]
}

var reserved = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		ALL AND AS ASC BETWEEN BY CASE CHECK COLUMN CONSTRAINT CREATE CROSS
		DEFAULT DELETE DESC DISTINCT DROP ELSE END EXISTS FALSE FETCH FOREIGN
		FROM GROUP HAVING IN INDEX INNER INSERT INTO IS JOIN KEY LEFT LIKE
		LIMIT NOT NULL OFFSET ON OR ORDER OUTER PRIMARY REFERENCES RIGHT ROWS
		SELECT SET TABLE THEN TOP TRUE UNION UNIQUE UPDATE USER VALUES WHEN
		WHERE WITH`) {
		reserved[w] = true
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
