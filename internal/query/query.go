package query

import "strings"

// Field is an attribute a predicate can constrain.
type Field string

const (
	FieldTag      Field = "tag"
	FieldURL      Field = "url"
	FieldCategory Field = "category"
)

// Predicate is a single #field=value clause.
type Predicate struct {
	Field Field
	Value string
}

// Query is the structured form of a raw search string: a free-text phrase
// plus zero or more field predicates, all combined with AND. Repeated
// #tag= predicates are conjunctive.
type Query struct {
	FreeText   string
	Predicates []Predicate
}

// IsEmpty reports whether the query matches everything visible.
func (q Query) IsEmpty() bool {
	return q.FreeText == "" && len(q.Predicates) == 0
}

// TagValues returns the values of all tag predicates in input order.
func (q Query) TagValues() []string {
	var values []string
	for _, p := range q.Predicates {
		if p.Field == FieldTag {
			values = append(values, p.Value)
		}
	}
	return values
}

// Parse converts a raw search string into a structured query.
//
// The raw string is split on whitespace. A token of the form #field=value
// with a known field and a non-empty value becomes a predicate; every other
// token, including unknown #field= forms, joins the free-text phrase in its
// original order. Parse never fails: malformed input degrades to free text.
func Parse(raw string) Query {
	q := Query{}

	var freeTokens []string
	for _, token := range strings.Fields(raw) {
		if pred, ok := parsePredicate(token); ok {
			q.Predicates = append(q.Predicates, pred)
			continue
		}
		freeTokens = append(freeTokens, token)
	}

	q.FreeText = strings.Join(freeTokens, " ")
	return q
}

func parsePredicate(token string) (Predicate, bool) {
	if !strings.HasPrefix(token, "#") {
		return Predicate{}, false
	}

	field, value, found := strings.Cut(token[1:], "=")
	if !found || value == "" {
		return Predicate{}, false
	}

	switch Field(field) {
	case FieldTag, FieldURL, FieldCategory:
		return Predicate{Field: Field(field), Value: value}, true
	}
	return Predicate{}, false
}
