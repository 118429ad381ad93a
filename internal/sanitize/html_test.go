package sanitize

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	t.Parallel()

	got := HTML(`<p onclick="steal()">Look under the <b>rug</b></p><script>alert(1)</script>`)

	if strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Errorf("unsafe markup survived: %s", got)
	}
	if !strings.Contains(got, "<b>rug</b>") {
		t.Errorf("expected formatting to survive, got %s", got)
	}
}
