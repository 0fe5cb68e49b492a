package sqlutil

import "strings"

const likeEscape = "!"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// ContainsPattern builds a lower-cased LIKE pattern matching term anywhere.
// The pattern must be used with ESCAPE '!'.
func ContainsPattern(term string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// PrefixPattern builds a LIKE pattern matching values that start with prefix.
// Case is preserved. The pattern must be used with ESCAPE '!'.
func PrefixPattern(prefix string) string {
	return likeReplacer.Replace(strings.TrimSpace(prefix)) + "%"
}
