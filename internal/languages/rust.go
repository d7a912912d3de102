package languages

import "strings"

// RustQuery matches free functions, methods and trait functions with a body
const RustQuery = `
(function_item
  name: (identifier) @name
  parameters: (parameters) @params
)
`

// ExtractFunctionsFromRust extracts function names and parameter names from Rust matches.
// self receivers and tuple or struct patterns are skipped.
func ExtractFunctionsFromRust(matches []map[string]string) []FunctionMatch {
	return extractAll(matches, rustParams)
}

func rustParams(list string) []Param {
	var params []Param
	for _, seg := range splitParams(list, true, `"`) {
		pattern := strings.TrimPrefix(cutAny(seg.text, ":"), "&")
		pattern = strings.TrimSpace(strings.TrimPrefix(pattern, "mut "))
		if pattern == "_" || pattern == "self" || !isIdentifier(pattern) {
			continue
		}
		params = append(params, Param{Name: pattern, Row: seg.row})
	}
	return params
}
