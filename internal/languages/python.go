package languages

import "strings"

// PythonQuery matches def and async def, including methods and nested functions
const PythonQuery = `
(function_definition
  name: (identifier) @name
  parameters: (parameters) @params
)
`

// ExtractFunctionsFromPython extracts function names and parameter names from Python matches
func ExtractFunctionsFromPython(matches []map[string]string) []FunctionMatch {
	return extractAll(matches, pythonParams)
}

func pythonParams(list string) []Param {
	var params []Param
	for _, seg := range splitParams(list, false, `"'`) {
		text := strings.TrimLeft(seg.text, "*")
		name := cutAny(text, ":=")
		if name == "self" || name == "cls" || !isIdentifier(name) {
			continue
		}
		params = append(params, Param{Name: name, Row: seg.row})
	}
	return params
}
