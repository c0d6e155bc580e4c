package sampling

import "sort"

// CommentIndex groups comments by submission external id, preserving input order.
type CommentIndex struct {
	bySubmission map[string][]Comment
}

// NewCommentIndex builds the index once per run.
func NewCommentIndex(comments []Comment) *CommentIndex {
	idx := &CommentIndex{bySubmission: make(map[string][]Comment)}
	for _, c := range comments {
		idx.bySubmission[c.SubmissionID] = append(idx.bySubmission[c.SubmissionID], c)
	}
	return idx
}

// For returns the comments of one submission. The slice must not be modified.
func (idx *CommentIndex) For(submissionID string) []Comment {
	if idx == nil {
		return nil
	}
	return idx.bySubmission[submissionID]
}

// CommentStats summarises the comments attached to one submission.
type CommentStats struct {
	Count int
	// AvgScore is nil when Count is 0.
	AvgScore *float64
}

// Aggregate computes count and mean score.
func Aggregate(comments []Comment) CommentStats {
	if len(comments) == 0 {
		return CommentStats{}
	}
	sum := 0.0
	for _, c := range comments {
		sum += float64(c.Score)
	}
	avg := sum / float64(len(comments))
	return CommentStats{Count: len(comments), AvgScore: &avg}
}

// TopComments returns up to k comments ordered by score desc, then created time asc, then
// comment id asc. The input is not modified.
func TopComments(comments []Comment, k int) []Comment {
	if k <= 0 || len(comments) == 0 {
		return nil
	}
	sorted := append([]Comment(nil), comments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.CreatedUTC != b.CreatedUTC {
			return a.CreatedUTC < b.CreatedUTC
		}
		return a.CommentID < b.CommentID
	})
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}
