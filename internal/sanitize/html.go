// Package sanitize is the boundary for seed-provided HTML (hint bodies and
// objectives) before it reaches a client that renders it as markup.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// HTML strips scripts, event handlers and other unsafe markup
func HTML(raw string) string {
	return policy.Sanitize(raw)
}
