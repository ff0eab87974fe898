// Package naming holds the identifier helpers shared by the metamodel and
// the generators: case conversion, pluralization, humanized titles and SQL
// identifier quoting.
//
// All helpers are pure. AddAcronym mutates the shared ruleset and must only
// be called during program initialization.
package naming

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"github.com/lib/pq"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/domgen/dialect"
)

var (
	rules    = ruleset()
	acronyms = make(map[string]struct{})
	title    = cases.Title(language.English)
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	// Common initialisms, as golint knows them.
	for _, w := range []string{
		"ACL", "API", "ASCII", "CPU", "CSS", "DAO", "DNS", "EOF", "GUID",
		"HTML", "HTTP", "HTTPS", "ID", "IP", "JPA", "JSON", "QPS", "RAM",
		"RPC", "SKU", "SLA", "SMTP", "SQL", "SSH", "TCP", "TLS", "TTL",
		"UDP", "UI", "UID", "URI", "URL", "UTF8", "UUID", "VM", "XML",
	} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

// AddAcronym registers an additional initialism for Pascal and Camel.
func AddAcronym(word string) {
	word = strings.ToUpper(word)
	acronyms[word] = struct{}{}
	rules.AddAcronym(word)
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
}

func pascalWords(words []string) string {
	for i, w := range words {
		upper := strings.ToUpper(w)
		if _, ok := acronyms[upper]; ok {
			words[i] = upper
		} else {
			words[i] = rules.Capitalize(w)
		}
	}
	return strings.Join(words, "")
}

// Pascal converts a snake_case, kebab-case or camelCase name to PascalCase.
//
//	Pascal("user_id")   // UserID
//	Pascal("orderLine") // OrderLine
func Pascal(s string) string {
	return pascalWords(words(s))
}

// Camel converts a name to camelCase. A leading initialism is lowered as a
// whole.
//
//	Camel("user_id")  // userID
//	Camel("ID")       // id
//	Camel("UserName") // userName
func Camel(s string) string {
	ws := words(s)
	if len(ws) == 0 {
		return ""
	}
	first := ws[0]
	if _, ok := acronyms[strings.ToUpper(first)]; ok {
		first = strings.ToLower(first)
	} else {
		r := []rune(first)
		r[0] = unicode.ToLower(r[0])
		first = string(r)
	}
	return first + pascalWords(ws[1:])
}

// Snake converts a PascalCase or camelCase name into snake_case.
//
//	Snake("UserInfo")  // user_info
//	Snake("HTTPCode")  // http_code
func Snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, current letter is
		// uppercase, and previous is lowercase (cases like: "UserInfo"), or
		// next letter is also a lowercase and previous letter is not "_".
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		if r == '-' || r == ' ' {
			r = '_'
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Constant converts a name to UPPER_SNAKE_CASE.
func Constant(s string) string {
	return strings.ToUpper(Snake(s))
}

// Pluralize returns the plural form of a word.
func Pluralize(s string) string {
	return rules.Pluralize(s)
}

// Singularize returns the singular form of a word.
func Singularize(s string) string {
	return rules.Singularize(s)
}

// Humanize turns an identifier into space separated, title cased words.
//
//	Humanize("order_line") // Order Line
//	Humanize("OrderLine")  // Order Line
func Humanize(s string) string {
	return title.String(strings.ReplaceAll(Snake(s), "_", " "))
}

// Sanitize removes the characters that are not allowed in generated file
// and resource names: brackets, dots and colons.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '.', ':':
			return -1
		}
		return r
	}, s)
}

// Quote quotes an SQL identifier for the given dialect.
//
//	Quote(dialect.MSSQL, "User")    // [User]
//	Quote(dialect.Postgres, "User") // "User"
//	Quote(dialect.MySQL, "User")    // `User`
func Quote(d, ident string) string {
	switch d {
	case dialect.Postgres:
		return pq.QuoteIdentifier(ident)
	case dialect.MySQL, dialect.SQLite:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

// QuoteQualified quotes a namespace qualified identifier. An empty
// namespace yields the quoted name alone.
func QuoteQualified(d, namespace, ident string) string {
	if namespace == "" {
		return Quote(d, ident)
	}
	return Quote(d, namespace) + "." + Quote(d, ident)
}

// Literal renders s as a single quoted SQL string literal.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
