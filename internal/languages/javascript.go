package languages

import "strings"

// JavaScriptQuery matches function declarations, methods and arrow functions
// assigned to a variable
const JavaScriptQuery = `
[
  (function_declaration
    name: (identifier) @name
    parameters: (formal_parameters) @params
  )
  (method_definition
    name: (property_identifier) @name
    parameters: (formal_parameters) @params
  )
  (variable_declarator
    name: (identifier) @name
    value: (arrow_function
      parameters: (formal_parameters) @params
    )
  )
]
`

// TypeScriptQuery is JavaScriptQuery; the TypeScript grammar uses the same node names
const TypeScriptQuery = JavaScriptQuery

// TypeScript accessibility and parameter-property modifiers
var tsModifiers = map[string]bool{
	"public":    true,
	"private":   true,
	"protected": true,
	"readonly":  true,
	"override":  true,
}

// ExtractFunctionsFromJS extracts function names and parameter names from
// JavaScript or TypeScript matches. Destructured parameters are skipped.
func ExtractFunctionsFromJS(matches []map[string]string) []FunctionMatch {
	return extractAll(matches, jsParams)
}

func jsParams(list string) []Param {
	var params []Param
	for _, seg := range splitParams(list, true, "\"'`") {
		text := strings.TrimPrefix(seg.text, "...")
		fields := strings.Fields(cutAny(text, ":="))
		for len(fields) > 1 && tsModifiers[fields[0]] {
			fields = fields[1:]
		}
		if len(fields) != 1 {
			continue
		}
		name := strings.TrimSuffix(fields[0], "?")
		if name == "this" || !isIdentifier(name) {
			continue
		}
		params = append(params, Param{Name: name, Row: seg.row})
	}
	return params
}
