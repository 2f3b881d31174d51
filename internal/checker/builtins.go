package checker

import (
	"regexp"
	"strings"
)

// builtins is the closed set of predefined names from spec §4.4. Any
// identifier beginning with "config/" is also treated as a builtin.
var builtins = map[string]bool{
	"now":     true,
	"true":    true,
	"false":   true,
	"null":    true,
	"verify":  true,
	"send":    true,
	"notify":  true,
	"__array": true,
}

func isBuiltin(name string) bool {
	if builtins[name] {
		return true
	}
	return strings.HasPrefix(name, "config/")
}

// lowercaseWordPattern matches the bare lowercase-underscore identifiers
// treated as probable enum members (enum-context) or probable variables
// (enum checker's lowercase exemption), per spec §4.4/§4.5.
var lowercaseWordPattern = regexp.MustCompile(`^[a-z][a-z_]*$`)

func looksLikeLowercaseWord(name string) bool {
	return lowercaseWordPattern.MatchString(name)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
