package sqlfmt

import "strings"

// Function-like words (CAST, REPLACE, RANGE, FIRST, ...) are left out on
// purpose so calls keep their original spelling.
var keywords = map[string]struct{}{
	"ALL": {}, "ALTER": {}, "AND": {}, "ANTI": {}, "ANY": {}, "AS": {}, "ASC": {}, "ASOF": {},
	"BETWEEN": {}, "BY": {},
	"CASE": {}, "CREATE": {}, "CROSS": {}, "CURRENT": {},
	"DELETE": {}, "DESC": {}, "DISTINCT": {}, "DROP": {},
	"ELSE": {}, "END": {}, "ESCAPE": {}, "EXCEPT": {}, "EXCLUDE": {}, "EXISTS": {},
	"FALSE": {}, "FILTER": {}, "FOLLOWING": {}, "FROM": {}, "FULL": {},
	"GLOB": {}, "GROUP": {},
	"HAVING": {},
	"ILIKE": {}, "IN": {}, "INNER": {}, "INSERT": {}, "INTERSECT": {}, "INTERVAL": {}, "INTO": {}, "IS": {},
	"JOIN": {},
	"LATERAL": {}, "LEFT": {}, "LIKE": {}, "LIMIT": {},
	"NATURAL": {}, "NOT": {}, "NULL": {}, "NULLS": {},
	"OFFSET": {}, "ON": {}, "OR": {}, "ORDER": {}, "OUTER": {}, "OVER": {},
	"PARTITION": {}, "PIVOT": {}, "POSITIONAL": {}, "PRECEDING": {},
	"QUALIFY": {},
	"RECURSIVE": {}, "RIGHT": {},
	"SELECT": {}, "SEMI": {}, "SET": {}, "SIMILAR": {},
	"TABLE": {}, "THEN": {}, "TRUE": {},
	"UNBOUNDED": {}, "UNION": {}, "UNPIVOT": {}, "UPDATE": {}, "USING": {},
	"VALUES": {}, "VIEW": {},
	"WHEN": {}, "WHERE": {}, "WINDOW": {}, "WITH": {}, "WITHIN": {},
}

func isKeyword(word string) bool {
	_, ok := keywords[strings.ToUpper(word)]
	return ok
}
