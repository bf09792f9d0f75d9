// Package topic compiles colon-separated topic patterns and indexes values by
// pattern for lookup against concrete topics.
//
// A pattern is a list of segments separated by ":". Each segment is one of:
//
//   - a literal, matched case-insensitively using Unicode full case folding
//   - "*", which matches exactly one non-empty segment
//   - "#", which matches zero or more whole segments
//
// Matching is anchored at both ends: the whole topic must be consumed.
// Every wildcard produces one capture, left to right. A "#" that matches zero
// segments captures the empty string, so "orders:#" matches "orders" with
// captures [""]. A trailing separator is tolerated: "orders:" matches too.
//
// Literal segments are opaque text. Characters such as ".", "+", "(" or "$"
// have no special meaning; only a segment that is exactly "*" or "#" is a wildcard.
//
// Basic usage:
//
//	p := topic.Compile("orders:*:status")
//	caps, ok := p.Match("orders:42:status")
//	// caps == []string{"42"}, ok == true
//
// The Index keeps one entry per distinct pattern string in insertion order:
//
//	ix := topic.NewIndex[[]string]()
//	ix.GetOrCreate("orders:#", func() []string { return nil })
//	for m := range ix.Lookup("orders:42:status") {
//		fmt.Println(m.Entry.Name(), m.Captures)
//	}
//
// Index is not safe for concurrent use. Owners serialize access.
package topic
