package catalog

import (
	"fmt"
	"strings"

	"github.com/sqlcheck/sqlcheck/pkg/sqltype"
)

// parseCreateTable parses the body of a single "CREATE TABLE name (...)"
// statement (spec §4.1). Table constraints (PRIMARY KEY, UNIQUE, FOREIGN
// KEY, CHECK) are recognized and discarded for inference, except that a
// PRIMARY KEY constraint (inline or table-level) marks its columns NOT
// NULL, per spec's nullability rule.
func parseCreateTable(stmt string) (*Table, error) {
	upper := strings.ToUpper(stmt)
	tableKw := strings.Index(upper, "TABLE")
	if tableKw < 0 {
		return nil, fmt.Errorf("expected TABLE keyword")
	}
	rest := stmt[tableKw+len("TABLE"):]

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return nil, fmt.Errorf("expected '(' after table name")
	}
	nameToks := tokenize(rest[:open])
	name, _ := stripIfNotExists(nameToks)
	if name == "" {
		return nil, fmt.Errorf("missing table name")
	}

	body, _, err := extractBalanced(rest[open:])
	if err != nil {
		return nil, err
	}

	items := splitTopLevel(body)

	tbl := &Table{
		Name:   unqualify(name),
		byName: make(map[string]int),
		isPK:   make(map[string]bool),
	}
	var tablePKCols []string

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		toks := tokenize(item)
		if len(toks) == 0 {
			continue
		}
		if isTableConstraint(toks) {
			cols, isPrimary := parseTableConstraint(toks)
			if isPrimary {
				tablePKCols = append(tablePKCols, cols...)
			}
			continue
		}
		col, err := parseColumnDef(toks)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", item, err)
		}
		tbl.byName[strings.ToLower(col.Name)] = len(tbl.Columns)
		tbl.Columns = append(tbl.Columns, col)
		for k := 1; k+1 < len(toks); k++ {
			if strings.EqualFold(toks[k].text, "PRIMARY") && strings.EqualFold(toks[k+1].text, "KEY") {
				tbl.isPK[strings.ToLower(col.Name)] = true
				break
			}
		}
	}

	for _, c := range tablePKCols {
		key := strings.ToLower(stripQuotes(c))
		tbl.isPK[key] = true
		if idx, ok := tbl.byName[key]; ok {
			tbl.Columns[idx].Nullable = false
		}
	}

	return tbl, nil
}

func unqualify(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func stripIfNotExists(toks []token) (name string, hadIfNotExists bool) {
	i := 0
	if i < len(toks) && strings.EqualFold(toks[i].text, "IF") &&
		i+2 < len(toks) && strings.EqualFold(toks[i+1].text, "NOT") && strings.EqualFold(toks[i+2].text, "EXISTS") {
		i += 3
		hadIfNotExists = true
	}
	if i < len(toks) {
		name = toks[i].text
	}
	return name, hadIfNotExists
}

// --- tokenizer ---

type tokKind int

const (
	tokIdent tokKind = iota
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokKind
	text string
}

func tokenize(s string) []token {
	var out []token
	runes := []rune(s)
	n := len(runes)
	for i := 0; i < n; i++ {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			continue
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			var sb strings.Builder
			for j < n {
				if runes[j] == quote {
					if j+1 < n && runes[j+1] == quote {
						sb.WriteRune(quote)
						j += 2
						continue
					}
					break
				}
				sb.WriteRune(runes[j])
				j++
			}
			kind := tokString
			if quote == '"' {
				kind = tokIdent
			}
			out = append(out, token{kind: kind, text: sb.String()})
			i = j
		case r == '(' || r == ')' || r == ',':
			out = append(out, token{kind: tokPunct, text: string(r)})
		case isIdentStart(r):
			j := i
			for j < n && isIdentPart(runes[j]) {
				j++
			}
			out = append(out, token{kind: tokIdent, text: string(runes[i:j])})
			i = j - 1
		case isDigit(r):
			j := i
			for j < n && (isDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			out = append(out, token{kind: tokNumber, text: string(runes[i:j])})
			i = j - 1
		default:
			out = append(out, token{kind: tokPunct, text: string(r)})
		}
	}
	return out
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r) || r == '.'
}
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"') {
		return s[1 : len(s)-1]
	}
	return s
}

// --- paren-aware splitting ---

// extractBalanced returns the content inside the first balanced "( ... )"
// span starting at s[0] (which must be '('), plus the remainder of s.
func extractBalanced(s string) (inner string, remainder string, err error) {
	if len(s) == 0 || s[0] != '(' {
		return "", "", fmt.Errorf("expected '('")
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("unbalanced parentheses")
}

// splitTopLevel splits s on commas that are not inside a nested "(...)" or
// a quoted string.
func splitTopLevel(s string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	runes := []rune(s)
	n := len(runes)
	for i := 0; i < n; i++ {
		r := runes[i]
		switch {
		case r == '\'' || r == '"':
			quote := r
			cur.WriteRune(r)
			i++
			for i < n {
				cur.WriteRune(runes[i])
				if runes[i] == quote {
					break
				}
				i++
			}
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			depth--
			cur.WriteRune(r)
		case r == ',' && depth == 0:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		out = append(out, cur.String())
	}
	return out
}

// --- table constraints ---

var tableConstraintKeywords = map[string]bool{
	"PRIMARY": true, "UNIQUE": true, "FOREIGN": true, "CHECK": true, "CONSTRAINT": true,
}

func isTableConstraint(toks []token) bool {
	i := 0
	if i < len(toks) && strings.EqualFold(toks[i].text, "CONSTRAINT") {
		// CONSTRAINT name <kind> ...
		i += 2
	}
	if i >= len(toks) {
		return false
	}
	return tableConstraintKeywords[strings.ToUpper(toks[i].text)]
}

// parseTableConstraint returns the referenced column list and whether this
// is a PRIMARY KEY constraint (spec §4.1: "table constraints ... parsed and
// discarded for analysis ... but must not abort parsing", except PRIMARY
// KEY feeds the nullability rule).
func parseTableConstraint(toks []token) (cols []string, isPrimary bool) {
	i := 0
	if i < len(toks) && strings.EqualFold(toks[i].text, "CONSTRAINT") {
		i += 2
	}
	if i >= len(toks) {
		return nil, false
	}
	kw := strings.ToUpper(toks[i].text)
	if kw == "PRIMARY" {
		isPrimary = true
		i += 2 // PRIMARY KEY
	} else if kw == "UNIQUE" {
		i++
	} else {
		return nil, false // FOREIGN KEY / CHECK: discarded entirely
	}
	if i < len(toks) && toks[i].text == "(" {
		depth := 1
		i++
		for i < len(toks) && depth > 0 {
			switch toks[i].text {
			case "(":
				depth++
			case ")":
				depth--
			default:
				if depth == 1 && toks[i].kind != tokPunct {
					cols = append(cols, toks[i].text)
				}
			}
			i++
		}
	}
	return cols, isPrimary
}

// --- column definitions ---

// multiWordTypes lists type spellings that span more than one identifier
// token, longest-prefix first so e.g. "timestamp with time zone" is
// preferred over "timestamp".
var multiWordTypes = []struct {
	words []string
	name  string
}{
	{[]string{"DOUBLE", "PRECISION"}, "double precision"},
	{[]string{"TIMESTAMP", "WITH", "TIME", "ZONE"}, "timestamp with time zone"},
	{[]string{"TIMESTAMP", "WITHOUT", "TIME", "ZONE"}, "timestamp"},
	{[]string{"TIME", "WITH", "TIME", "ZONE"}, "time with time zone"},
	{[]string{"TIME", "WITHOUT", "TIME", "ZONE"}, "time"},
	{[]string{"CHARACTER", "VARYING"}, "varchar"},
}

func parseColumnDef(toks []token) (Column, error) {
	if len(toks) == 0 {
		return Column{}, fmt.Errorf("empty column definition")
	}
	name := stripQuotes(toks[0].text)
	i := 1
	if i >= len(toks) {
		return Column{}, fmt.Errorf("missing type for column %q", name)
	}

	typeName, arrayDims, next := parseTypeName(toks, i)
	i = next

	sqlT, err := sqltype.FromTypeName(typeName, arrayDims)
	if err != nil {
		return Column{}, err
	}

	col := Column{Name: name, Type: sqlT, Nullable: true}

	for i < len(toks) {
		kw := strings.ToUpper(toks[i].text)
		switch kw {
		case "NOT":
			if i+1 < len(toks) && strings.EqualFold(toks[i+1].text, "NULL") {
				col.Nullable = false
				i += 2
				continue
			}
			i++
		case "NULL":
			col.Nullable = true
			i++
		case "DEFAULT":
			col.HasDefault = true
			i++
			// Skip the default expression up to the next recognized
			// keyword or end of tokens, respecting nested parens.
			depth := 0
			for i < len(toks) {
				t := toks[i]
				if t.text == "(" {
					depth++
				} else if t.text == ")" {
					depth--
				} else if depth == 0 && isColumnKeyword(t.text) {
					break
				}
				i++
			}
		case "PRIMARY":
			col.Nullable = false
			i += 2 // PRIMARY KEY
		case "UNIQUE", "REFERENCES", "CHECK", "CONSTRAINT", "COLLATE", "GENERATED":
			// Discarded for inference; skip this keyword and any
			// parenthesized argument that immediately follows.
			i++
			if i < len(toks) && toks[i].text == "(" {
				depth := 0
				for i < len(toks) {
					if toks[i].text == "(" {
						depth++
					} else if toks[i].text == ")" {
						depth--
						if depth == 0 {
							i++
							break
						}
					}
					i++
				}
			}
		default:
			i++
		}
	}

	return col, nil
}

func isColumnKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "NOT", "NULL", "DEFAULT", "PRIMARY", "UNIQUE", "REFERENCES", "CHECK", "CONSTRAINT", "COLLATE", "GENERATED":
		return true
	}
	return false
}

// parseTypeName consumes the type spelling starting at toks[i], returning
// the canonicalized (lower-case, synonym-collapsed) name, the number of
// "[]" array dimensions, and the index just past what it consumed.
func parseTypeName(toks []token, i int) (name string, arrayDims int, next int) {
	// Try multi-word spellings first.
	for _, mw := range multiWordTypes {
		if matchesWords(toks, i, mw.words) {
			name = mw.name
			i += len(mw.words)
			return finishTypeName(toks, i, name)
		}
	}
	name = strings.ToLower(toks[i].text)
	i++
	return finishTypeName(toks, i, name)
}

func finishTypeName(toks []token, i int, name string) (string, int, int) {
	// Optional precision/length modifier: "(p[,s])" or "(n)".
	if i < len(toks) && toks[i].text == "(" {
		depth := 0
		for i < len(toks) {
			if toks[i].text == "(" {
				depth++
			} else if toks[i].text == ")" {
				depth--
				i++
				if depth == 0 {
					break
				}
				continue
			}
			i++
		}
	}
	dims := 0
	for i < len(toks) && toks[i].text == "[" {
		i++
		for i < len(toks) && toks[i].text != "]" {
			i++
		}
		if i < len(toks) {
			i++
		}
		dims++
	}
	return name, dims, i
}

func matchesWords(toks []token, i int, words []string) bool {
	if i+len(words) > len(toks) {
		return false
	}
	for k, w := range words {
		if !strings.EqualFold(toks[i+k].text, w) {
			return false
		}
	}
	return true
}
