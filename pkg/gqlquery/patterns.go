package gqlquery

import "regexp"

var (
	fragmentHeaderPattern = regexp.MustCompile(`(?i)\bfragment\s+([A-Za-z0-9_]+)\s+on\s+([A-Za-z0-9_]+)`)

	// $name: Type[!][= default][,]
	parameterDefinitionPattern = regexp.MustCompile(`\s*\$([A-Za-z0-9_]+)\s*:\s*([A-Za-z0-9_]+)\s*!?\s*(?:,|\s*=\s*[A-Za-z0-9_"!]+\s*,?)?`)

	// argName: $varName[,]
	variableUsagePattern = regexp.MustCompile(`\s*([A-Za-z0-9_]+)\s*:\s*\$([A-Za-z0-9_]+)\s*,?`)
)

const (
	fragmentTypeGroup      = 2
	parameterNameGroup     = 1
	parameterTypeGroup     = 2
	variableUsageNameGroup = 2
)

// VariableUsages returns every variable referenced as an argument value in text, in order of appearance.
// Duplicates are kept.
func VariableUsages(text string) []string {
	matches := variableUsagePattern.FindAllStringSubmatch(text, -1)
	usages := make([]string, 0, len(matches))
	for _, m := range matches {
		usages = append(usages, m[variableUsageNameGroup])
	}
	return usages
}

// ParameterDefinitions returns the variable declarations found in an operation header, in order.
func ParameterDefinitions(header string) []ParameterDefinition {
	matches := parameterDefinitionPattern.FindAllStringSubmatchIndex(header, -1)
	definitions := make([]ParameterDefinition, 0, len(matches))
	for _, m := range matches {
		definitions = append(definitions, ParameterDefinition{
			Name:       header[m[2*parameterNameGroup]:m[2*parameterNameGroup+1]],
			Type:       header[m[2*parameterTypeGroup]:m[2*parameterTypeGroup+1]],
			Definition: header[m[0]:m[1]],
			Start:      m[0],
			End:        m[1],
		})
	}
	return definitions
}

func fragmentType(header string) (string, bool) {
	m := fragmentHeaderPattern.FindStringSubmatch(header)
	if m == nil {
		return "", false
	}
	return m[fragmentTypeGroup], true
}
