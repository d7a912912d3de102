package languages

import "strings"

// Param is one declared parameter of a function
type Param struct {
	Name string
	Row  int // Line offset of the parameter within the captured parameter list
}

// FunctionMatch is a function definition found by a query
type FunctionMatch struct {
	Name   string
	Params []Param
}

// LanguageInfo contains query and extraction function for a language.
// Every query captures the function name as @name and its parameter list as @params.
type LanguageInfo struct {
	Query     string
	Extractor func([]map[string]string) []FunctionMatch
}

// GetLanguageInfo returns the query and extractor for a given language
func GetLanguageInfo(lang string) *LanguageInfo {
	switch lang {
	case "javascript":
		return &LanguageInfo{Query: JavaScriptQuery, Extractor: ExtractFunctionsFromJS}
	case "typescript":
		return &LanguageInfo{Query: TypeScriptQuery, Extractor: ExtractFunctionsFromJS}
	case "go":
		return &LanguageInfo{Query: GoQuery, Extractor: ExtractFunctionsFromGo}
	case "python":
		return &LanguageInfo{Query: PythonQuery, Extractor: ExtractFunctionsFromPython}
	case "rust":
		return &LanguageInfo{Query: RustQuery, Extractor: ExtractFunctionsFromRust}
	case "java":
		return &LanguageInfo{Query: JavaQuery, Extractor: ExtractFunctionsFromJava}
	default:
		return nil
	}
}

// Supported lists the languages GetLanguageInfo knows about
func Supported() []string {
	return []string{"go", "java", "javascript", "python", "rust", "typescript"}
}

// segment is one top-level entry of a parameter list
type segment struct {
	text string
	row  int
}

// splitParams strips the surrounding parentheses of a parameter list and splits it
// on top-level commas. Nested brackets and the quote characters in quotes are
// respected; angle brackets count as brackets only when angle is set.
func splitParams(list string, angle bool, quotes string) []segment {
	list = strings.TrimPrefix(list, "(")
	list = strings.TrimSuffix(list, ")")

	var (
		row      int
		segments []segment
		current  strings.Builder
		depth    int
		quote    rune
		startRow = -1
	)

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			segments = append(segments, segment{text: text, row: startRow})
		}
		current.Reset()
		startRow = -1
	}

	runes := []rune(list)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' {
			row++
		}
		if startRow < 0 && r != ' ' && r != '\t' && r != '\n' && r != '\r' && r != ',' {
			startRow = row
		}

		if quote != 0 {
			current.WriteRune(r)
			if r == '\\' && i+1 < len(runes) {
				i++
				current.WriteRune(runes[i])
			} else if r == quote {
				quote = 0
			}
			continue
		}

		if strings.ContainsRune(quotes, r) {
			quote = r
			current.WriteRune(r)
			continue
		}

		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '<':
			if angle {
				depth++
			}
		case '>':
			if angle && depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush()
				continue
			}
		}
		current.WriteRune(r)
	}
	flush()

	return segments
}

// cutAny returns s up to the first top-level occurrence of any byte in seps
func cutAny(s, seps string) string {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if depth == 0 && strings.IndexByte(seps, s[i]) >= 0 {
				return strings.TrimSpace(s[:i])
			}
		}
	}
	return strings.TrimSpace(s)
}

// isIdentifier reports whether s is a plain identifier
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		case r > 127:
		default:
			return false
		}
	}
	return true
}

// extractAll applies extract to every match that carries a name and a parameter list
func extractAll(matches []map[string]string, extract func(string) []Param) []FunctionMatch {
	var results []FunctionMatch
	for _, match := range matches {
		name, nameOk := match["name"]
		params, paramsOk := match["params"]
		if !nameOk || !paramsOk || name == "" {
			continue
		}
		results = append(results, FunctionMatch{Name: name, Params: extract(params)})
	}
	return results
}
