package vault

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/sentinel/internal/storage"
)

const secretMask = "********"

// DescribeEdit renders a line diff between an entry before and after an
// edit. Secrets are never shown; a changed secret is only flagged.
func DescribeEdit(before, after Entry) string {
	afterSecret := secretMask
	if before.Secret != after.Secret {
		afterSecret += " (changed)"
	}

	oldText := describe(before, secretMask)
	newText := describe(after, afterSecret)

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}

func describe(e Entry, secret string) string {
	var b strings.Builder
	b.WriteString("username:  " + e.Username + "\n")
	b.WriteString("secret:    " + secret + "\n")
	b.WriteString("timestamp: " + e.Timestamp.Format(storage.TimestampLayout) + "\n")
	return b.String()
}
