package priority

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/jg-phare/hookprio/pkg/types"
)

// TestProperty_DeduplicateKeepsFirstOccurrences checks that the result holds
// every distinct name exactly once, in first-seen order.
func TestProperty_DeduplicateKeepsFirstOccurrences(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOf(rapid.SampledFrom([]string{
			"security-scan", "quality-check", "memory-context", "mode-suggestion",
		})).Draw(t, "names")
		ctx := types.Context{
			types.KeyToolName:    rapid.StringMatching(`[A-Z][a-z]{2,6}`).Draw(t, "tool"),
			types.KeyFilePath:    rapid.StringMatching(`/[a-z]{1,8}\.go`).Draw(t, "path"),
			types.KeyUserMessage: rapid.String().Draw(t, "message"),
		}

		got := Deduplicate(names, ctx)

		var want []string
		seen := map[string]bool{}
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				want = append(want, n)
			}
		}
		if len(got) != len(want) {
			t.Fatalf("Deduplicate(%v) = %v, want %v", names, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Deduplicate(%v)[%d] = %q, want %q", names, i, got[i], want[i])
			}
		}
	})
}

// TestProperty_FingerprintIgnoresExtraKeys checks that keys outside the
// fingerprint never change it.
func TestProperty_FingerprintIgnoresExtraKeys(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := types.Context{
			types.KeyToolName:    rapid.String().Draw(t, "tool"),
			types.KeyUserMessage: rapid.String().Draw(t, "message"),
		}
		extra := base.Clone()
		extra[rapid.StringMatching(`x_[a-z]{1,8}`).Draw(t, "key")] = rapid.Int().Draw(t, "value")

		if Fingerprint(base) != Fingerprint(extra) {
			t.Fatalf("fingerprint changed after adding an unrelated key")
		}
	})
}
