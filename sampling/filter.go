package sampling

import "unicode/utf8"

// WithinLimit reports whether text is present and at most max characters long.
// Length is measured in runes. Empty text counts as missing and is excluded.
func WithinLimit(text string, max int) bool {
	if text == "" {
		return false
	}
	return utf8.RuneCountInString(text) <= max
}

// FilterCounts records what a filter pass kept and why the rest was dropped.
type FilterCounts struct {
	Total          int `json:"total" yaml:"total"`
	Kept           int `json:"kept" yaml:"kept"`
	DroppedMissing int `json:"dropped_missing" yaml:"dropped_missing"`
	DroppedTooLong int `json:"dropped_too_long" yaml:"dropped_too_long"`
}

func (c *FilterCounts) observe(text string, max int) bool {
	c.Total++
	switch {
	case text == "":
		c.DroppedMissing++
		return false
	case utf8.RuneCountInString(text) > max:
		c.DroppedTooLong++
		return false
	default:
		c.Kept++
		return true
	}
}

// FilterStats covers both tables.
type FilterStats struct {
	Submissions FilterCounts `json:"submissions" yaml:"submissions"`
	Comments    FilterCounts `json:"comments" yaml:"comments"`
}

// FilterSubmissions keeps submissions whose body is within max characters, in input order.
func FilterSubmissions(subs []Submission, max int) ([]Submission, FilterCounts) {
	var counts FilterCounts
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		if counts.observe(s.Selftext, max) {
			out = append(out, s)
		}
	}
	return out, counts
}

// FilterComments keeps comments whose message is within max characters, in input order.
func FilterComments(comments []Comment, max int) ([]Comment, FilterCounts) {
	var counts FilterCounts
	out := make([]Comment, 0, len(comments))
	for _, c := range comments {
		if counts.observe(c.Message, max) {
			out = append(out, c)
		}
	}
	return out, counts
}
