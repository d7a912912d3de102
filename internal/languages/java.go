package languages

import "strings"

// JavaQuery matches method and constructor declarations
const JavaQuery = `
[
  (method_declaration
    name: (identifier) @name
    parameters: (formal_parameters) @params
  )
  (constructor_declaration
    name: (identifier) @name
    parameters: (formal_parameters) @params
  )
]
`

// ExtractFunctionsFromJava extracts method names and parameter names from Java matches
func ExtractFunctionsFromJava(matches []map[string]string) []FunctionMatch {
	return extractAll(matches, javaParams)
}

// javaParams takes the last word of each declaration, so annotations,
// final and generic or array types are ignored.
func javaParams(list string) []Param {
	var params []Param
	for _, seg := range splitParams(list, true, `"`) {
		fields := strings.Fields(seg.text)
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimSuffix(fields[len(fields)-1], "[]")
		if name == "this" || !isIdentifier(name) {
			continue
		}
		params = append(params, Param{Name: name, Row: seg.row})
	}
	return params
}
