package dto

// QuestionStat aggregates per-question performance across submissions.
type QuestionStat struct {
	QuestionID  string  `json:"question_id"`
	Text        string  `json:"text"`
	Attempts    int     `json:"attempts"`
	Correct     int     `json:"correct"`
	CorrectRate float64 `json:"correct_rate"`
}

// DifficultyStat aggregates performance per difficulty tier.
type DifficultyStat struct {
	Difficulty  string  `json:"difficulty"`
	Attempts    int     `json:"attempts"`
	Correct     int     `json:"correct"`
	CorrectRate float64 `json:"correct_rate"`
}

// AssignmentAnalyticsResponse summarizes how a class performed on an assignment.
type AssignmentAnalyticsResponse struct {
	AssignmentID      uint           `json:"assignment_id"`
	SubmissionCount   int            `json:"submission_count"`
	GradedCount       int            `json:"graded_count"`
	LateCount         int            `json:"late_count"`
	AveragePercentage float64        `json:"average_percentage"`
	QuestionStats     []QuestionStat `json:"question_stats,omitempty"`
}

// DPPAnalyticsResponse summarizes how a class performed on a practice problem.
type DPPAnalyticsResponse struct {
	DPPID           uint             `json:"dpp_id"`
	SubmissionCount int              `json:"submission_count"`
	AverageScore    float64          `json:"average_score"`
	MaxScore        int              `json:"max_score"`
	QuestionStats   []QuestionStat   `json:"question_stats,omitempty"`
	DifficultyStats []DifficultyStat `json:"difficulty_stats,omitempty"`
}
