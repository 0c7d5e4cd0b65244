package u

import (
	"github.com/tidwall/pretty"
)

// PrettyPrintJSON returns d formatted for humans (indented, one
// key per line). Returns d unchanged if it's not valid JSON.
func PrettyPrintJSON(d []byte) []byte {
	return pretty.Pretty(d)
}

// CompactJSON is the inverse of PrettyPrintJSON: removes insignificant
// whitespace
func CompactJSON(d []byte) []byte {
	return pretty.Ugly(d)
}
