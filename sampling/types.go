package sampling

// Submission is one row of the submissions table. It is never mutated by the sampler;
// derived columns live on EnrichedSubmission.
type Submission struct {
	ID           int64  `json:"id" db:"id"`
	SubmissionID string `json:"submission_id" db:"submission_id"`
	Title        string `json:"title" db:"title"`
	Selftext     string `json:"selftext" db:"selftext"`
	CreatedUTC   int64  `json:"created_utc" db:"created_utc"`
	Permalink    string `json:"permalink" db:"permalink"`
	Score        int    `json:"score" db:"score"`
}

// Comment is one row of the comments table. SubmissionID references Submission.SubmissionID.
type Comment struct {
	ID           int64  `json:"id" db:"id"`
	SubmissionID string `json:"submission_id" db:"submission_id"`
	Message      string `json:"message" db:"message"`
	CommentID    string `json:"comment_id" db:"comment_id"`
	ParentID     string `json:"parent_id" db:"parent_id"`
	CreatedUTC   int64  `json:"created_utc" db:"created_utc"`
	Score        int    `json:"score" db:"score"`
}

// Dataset is an in-memory snapshot of both tables.
type Dataset struct {
	Submissions []Submission
	Comments    []Comment

	// Defaulted counts null or blank numeric cells that loaded as 0, keyed "table.column".
	Defaulted map[string]int
}

// EnrichedSubmission is a sampled submission plus the columns computed during a run.
type EnrichedSubmission struct {
	Submission

	CommentCount int `json:"comment_count"`
	// AvgCommentScore is nil when the submission has no (filtered) comments.
	AvgCommentScore *float64 `json:"avg_comment_score"`

	EngagementTier  string  `json:"engagement_tier,omitempty"`
	DominantVerdict Verdict `json:"dominant_verdict,omitempty"`
	VerdictCount    int     `json:"verdict_count,omitempty"`
}

// SampledComment is a comment attached to a sampled submission.
type SampledComment struct {
	Comment

	Stratum string  `json:"stratum"`
	Rank    int     `json:"rank"`
	Verdict Verdict `json:"verdict"`
}

// SampleRecord is the unit handed to curation: one sampled submission, its stratum,
// its rank within that stratum (1-based) and its top comments.
type SampleRecord struct {
	Stratum     string             `json:"stratum"`
	Rank        int                `json:"rank"`
	Submission  EnrichedSubmission `json:"submission"`
	TopComments []SampledComment   `json:"top_comments"`
}

// Stratum is a labelled group of submission external ids, in input order.
type Stratum struct {
	Label   string   `json:"label" yaml:"label"`
	Members []string `json:"-" yaml:"-"`
}

// StrataDefinition records how strata were derived for a run.
type StrataDefinition struct {
	Mode   StratificationMode `json:"mode" yaml:"mode"`
	Labels []string           `json:"labels" yaml:"labels"`
	// Boundaries holds the engagement quantile edges (len(Labels)+1 values); empty in verdict mode.
	Boundaries        []float64 `json:"boundaries,omitempty" yaml:"boundaries,omitempty"`
	ExcludedNoVerdict int       `json:"excluded_no_verdict,omitempty" yaml:"excluded_no_verdict,omitempty"`
}
