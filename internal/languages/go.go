package languages

import "strings"

// GoQuery matches function and method declarations. Receivers are not captured.
const GoQuery = `
[
  (function_declaration
    name: (identifier) @name
    parameters: (parameter_list) @params
  )
  (method_declaration
    name: (field_identifier) @name
    parameters: (parameter_list) @params
  )
]
`

// ExtractFunctionsFromGo extracts function names and parameter names from Go matches
func ExtractFunctionsFromGo(matches []map[string]string) []FunctionMatch {
	return extractAll(matches, goParams)
}

// goParams handles grouped names such as (a, b int). A list in which no entry has
// a type after the name, like (int, string), declares no names at all.
func goParams(list string) []Param {
	segments := splitParams(list, false, "\"`")

	named := false
	for _, seg := range segments {
		if len(strings.Fields(seg.text)) > 1 {
			named = true
			break
		}
	}
	if !named {
		return nil
	}

	var params []Param
	for _, seg := range segments {
		name := strings.Fields(seg.text)[0]
		if name == "_" || !isIdentifier(name) {
			continue
		}
		params = append(params, Param{Name: name, Row: seg.row})
	}
	return params
}
