package fileio

import "strings"

// camelCase converts a snake_case table name to the camelCase key used
// for root/child keys in the nested file layout, grounded on the
// toCamelCase/splitWords helper used for GraphQL field naming elsewhere
// in the pack.
func camelCase(s string) string {
	words := splitSnakeWords(s)
	for i, w := range words {
		if i == 0 {
			words[i] = strings.ToLower(w)
		} else if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, "")
}

func splitSnakeWords(s string) []string {
	var words []string
	var cur strings.Builder
	for _, r := range s {
		if r == '_' || r == '-' {
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}
