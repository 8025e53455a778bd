package vault

import "strings"

// pathCleaner strips shell-hostile characters from derived paths and
// turns spaces into underscores, so every stored path is safe to handle
// in scripts without quoting. Forward slashes are kept as separators.
var pathCleaner = strings.NewReplacer(
	"`", "", "~", "", "!", "", "@", "", "#", "", "$", "",
	"%", "", "^", "", "&", "", "*", "", "(", "", ")", "",
	"{", "", "}", "", "[", "", "]", "", "|", "", "\\", "",
	":", "", ";", "", "'", "", `"`, "", "<", "", ">", "",
	",", "", "?", "",
	" ", "_",
)

// Sanitize removes special characters from a derived storage path.
// The result contains only characters safe for unquoted shell use, and
// sanitizing an already-sanitized path changes nothing.
func Sanitize(path string) string {
	return pathCleaner.Replace(path)
}
