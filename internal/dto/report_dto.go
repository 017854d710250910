package dto

import "time"

// ExamInfoResponse heads the performance report.
type ExamInfoResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Code        string  `json:"code"`
	Date        string  `json:"date"`
	CourseName  string  `json:"course_name,omitempty"`
	TotalPoints float64 `json:"total_points"`
}

// PerformanceStatsResponse is the numeric summary of an exam's outcomes.
type PerformanceStatsResponse struct {
	TotalStudents int     `json:"total_students"`
	Submitted     int     `json:"submitted"`
	Graded        int     `json:"graded"`
	AverageScore  float64 `json:"average_score"`
	HighestScore  float64 `json:"highest_score"`
	LowestScore   float64 `json:"lowest_score"`
	PassRate      float64 `json:"pass_rate"`
}

// GradeBucketResponse is one letter-grade histogram bucket.
type GradeBucketResponse struct {
	Grade      string  `json:"grade"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ScoreRangeResponse is one percentage-range histogram bucket.
type ScoreRangeResponse struct {
	Range      string  `json:"range"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PerformanceReportResponse is the full per-exam performance projection.
type PerformanceReportResponse struct {
	ExamInfo          ExamInfoResponse         `json:"exam_info"`
	Statistics        PerformanceStatsResponse `json:"statistics"`
	GradeDistribution []GradeBucketResponse    `json:"grade_distribution"`
	ScoreRanges       []ScoreRangeResponse     `json:"score_ranges"`
	GeneratedAt       time.Time                `json:"generated_at"`
	CacheHit          bool                     `json:"cache_hit"`
}

// CompletedExamResponse is one row of the completed-exams overview.
type CompletedExamResponse struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Code          string  `json:"code"`
	Date          string  `json:"date"`
	CourseName    string  `json:"course_name,omitempty"`
	TotalStudents int     `json:"total_students"`
	Submitted     int     `json:"submitted"`
	Graded        int     `json:"graded"`
	AverageScore  float64 `json:"average_score"`
}
