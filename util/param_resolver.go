package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenPattern = regexp.MustCompile("{(.*?)}")

// ResolveAttributeExpressions replaces every {$.path} token in value with the
// matching entry of attrs. Tokens whose path does not resolve become empty,
// tokens not starting with $ are left as they are.
func ResolveAttributeExpressions(attrs map[string]string, value string) string {
	data := make(map[string]any, len(attrs))
	for k, v := range attrs {
		data[k] = v
	}
	return resolveTokens(data, value)
}

func resolveTokens(data map[string]any, value string) string {
	tokens := tokenPattern.FindAllString(value, -1)
	if len(tokens) == 0 {
		return value
	}
	tokenMap := make(map[string]string)
	for _, token := range tokens {
		tmatch := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
		if !strings.HasPrefix(tmatch, "$") {
			continue
		}
		resolved, err := jsonpath.JsonPathLookup(data, tmatch)
		if err != nil || resolved == nil {
			tokenMap[token] = ""
			continue
		}
		tokenMap[token] = fmt.Sprintf("%v", resolved)
	}
	newStr := value
	for t, tv := range tokenMap {
		newStr = strings.ReplaceAll(newStr, t, tv)
	}
	return newStr
}
