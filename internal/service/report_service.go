package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/grading"
	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/observability"
	"github.com/examhub/examhub-api/internal/repository"
)

// letterOrder fixes the bucket order of the grade distribution.
var letterOrder = []string{"A+", "A", "B", "C", "D", "F"}

// scoreRangeLabels fixes the percentage histogram buckets, highest first.
var scoreRangeLabels = []string{
	"90-100", "80-89", "70-79", "60-69", "50-59",
	"40-49", "30-39", "20-29", "10-19", "0-9",
}

// ReportService builds read-only projections over graded submissions.
type ReportService interface {
	Performance(ctx context.Context, examID uint) (dto.PerformanceReportResponse, error)
	CompletedExams(ctx context.Context, courseID uint) ([]dto.CompletedExamResponse, error)
}

type reportService struct {
	exams          repository.ExamRepository
	questions      repository.QuestionRepository
	submissions    repository.SubmissionRepository
	students       repository.StudentRepository
	cache          *redis.Client
	ttl            time.Duration
	passingPercent float64
	logger         zerolog.Logger
	now            func() time.Time
}

// NewReportService constructs the report service. The cache client may be nil,
// in which case every report is computed fresh.
func NewReportService(exams repository.ExamRepository, questions repository.QuestionRepository, submissions repository.SubmissionRepository, students repository.StudentRepository, cache *redis.Client, ttl time.Duration, passingPercent float64, logger zerolog.Logger) ReportService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if passingPercent <= 0 || passingPercent > 100 {
		passingPercent = grading.DefaultPassingPercent
	}
	return &reportService{
		exams:          exams,
		questions:      questions,
		submissions:    submissions,
		students:       students,
		cache:          cache,
		ttl:            ttl,
		passingPercent: passingPercent,
		logger:         logger.With().Str("component", "report_service").Logger(),
		now:            time.Now,
	}
}

// Performance computes the per-exam performance report. Statistics cover only
// fully graded submissions; an exam with no graded submissions yields zeroed
// stats and empty-count buckets rather than an error.
func (s *reportService) Performance(ctx context.Context, examID uint) (dto.PerformanceReportResponse, error) {
	start := time.Now()
	defer func() {
		observability.ReportLatency().Observe(time.Since(start).Seconds())
	}()

	cacheKey := fmt.Sprintf("reports:performance:v1:%d", examID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var report dto.PerformanceReportResponse
			if err := json.Unmarshal([]byte(cached), &report); err == nil {
				report.CacheHit = true
				observability.ReportRequests().WithLabelValues("hit").Inc()
				return report, nil
			}
		}
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PerformanceReportResponse{}, ErrExamNotFound
		}
		observability.ReportRequests().WithLabelValues("error").Inc()
		return dto.PerformanceReportResponse{}, err
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return dto.PerformanceReportResponse{}, err
	}
	submissions, err := s.submissions.ListByExam(ctx, examID)
	if err != nil {
		return dto.PerformanceReportResponse{}, err
	}
	enrolled, err := s.students.ListEnrolledByCourse(ctx, exam.CourseID)
	if err != nil {
		return dto.PerformanceReportResponse{}, err
	}

	totalPoints := 0.0
	for _, question := range questions {
		totalPoints += question.Marks
	}

	report := dto.PerformanceReportResponse{
		ExamInfo: dto.ExamInfoResponse{
			ID:          exam.ID,
			Title:       exam.Title,
			Code:        exam.Code,
			Date:        exam.Date.Format("2006-01-02"),
			TotalPoints: totalPoints,
		},
		Statistics:  s.buildStats(submissions, len(enrolled)),
		GeneratedAt: s.now(),
	}
	if exam.Course.ID != 0 {
		report.ExamInfo.CourseName = exam.Course.Name
	}

	graded := gradedPercentages(submissions)
	report.GradeDistribution = buildGradeDistribution(graded)
	report.ScoreRanges = buildScoreRanges(graded)

	if s.cache != nil {
		if encoded, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Uint("exam_id", examID).Msg("failed to cache performance report")
			}
		}
	}

	observability.ReportRequests().WithLabelValues("miss").Inc()
	return report, nil
}

// CompletedExams summarizes every completed exam of a course.
func (s *reportService) CompletedExams(ctx context.Context, courseID uint) ([]dto.CompletedExamResponse, error) {
	exams, err := s.exams.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.students.ListEnrolledByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	completed := make([]dto.CompletedExamResponse, 0, len(exams))
	for _, exam := range exams {
		if exam.Status != models.ExamStatusCompleted {
			continue
		}

		submissions, err := s.submissions.ListByExam(ctx, exam.ID)
		if err != nil {
			return nil, err
		}
		stats := s.buildStats(submissions, len(enrolled))

		row := dto.CompletedExamResponse{
			ID:            exam.ID,
			Title:         exam.Title,
			Code:          exam.Code,
			Date:          exam.Date.Format("2006-01-02"),
			TotalStudents: stats.TotalStudents,
			Submitted:     stats.Submitted,
			Graded:        stats.Graded,
			AverageScore:  stats.AverageScore,
		}
		if exam.Course.ID != 0 {
			row.CourseName = exam.Course.Name
		}
		completed = append(completed, row)
	}
	return completed, nil
}

// buildStats derives the numeric summary. Scores are expressed as percentages
// so exams with different point totals stay comparable.
func (s *reportService) buildStats(submissions []models.Submission, totalStudents int) dto.PerformanceStatsResponse {
	stats := dto.PerformanceStatsResponse{
		TotalStudents: totalStudents,
		Submitted:     len(submissions),
	}

	graded := gradedPercentages(submissions)
	stats.Graded = len(graded)
	if len(graded) == 0 {
		return stats
	}

	sum := 0.0
	highest := graded[0]
	lowest := graded[0]
	passed := 0
	for _, pct := range graded {
		sum += pct
		if pct > highest {
			highest = pct
		}
		if pct < lowest {
			lowest = pct
		}
		if pct >= s.passingPercent {
			passed++
		}
	}

	stats.AverageScore = roundTo(sum/float64(len(graded)), 2)
	stats.HighestScore = roundTo(highest, 2)
	stats.LowestScore = roundTo(lowest, 2)
	stats.PassRate = roundTo(float64(passed)/float64(len(graded))*100, 2)
	return stats
}

// gradedPercentages extracts the percentage score of each fully graded
// submission. Submissions over an empty exam count as zero percent.
func gradedPercentages(submissions []models.Submission) []float64 {
	graded := make([]float64, 0, len(submissions))
	for _, submission := range submissions {
		if !submission.IsGraded() {
			continue
		}
		pct := 0.0
		if submission.MaxScore > 0 {
			pct = submission.TotalScore / submission.MaxScore * 100
		}
		graded = append(graded, pct)
	}
	return graded
}

func buildGradeDistribution(percentages []float64) []dto.GradeBucketResponse {
	counts := make(map[string]int, len(letterOrder))
	for _, pct := range percentages {
		counts[grading.Letter(pct)]++
	}

	buckets := make([]dto.GradeBucketResponse, 0, len(letterOrder))
	for _, letter := range letterOrder {
		bucket := dto.GradeBucketResponse{Grade: letter, Count: counts[letter]}
		if len(percentages) > 0 {
			bucket.Percentage = roundTo(float64(bucket.Count)/float64(len(percentages))*100, 2)
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

func buildScoreRanges(percentages []float64) []dto.ScoreRangeResponse {
	counts := make([]int, len(scoreRangeLabels))
	for _, pct := range percentages {
		counts[rangeIndex(pct)]++
	}

	ranges := make([]dto.ScoreRangeResponse, 0, len(scoreRangeLabels))
	for i, label := range scoreRangeLabels {
		entry := dto.ScoreRangeResponse{Range: label, Count: counts[i]}
		if len(percentages) > 0 {
			entry.Percentage = roundTo(float64(entry.Count)/float64(len(percentages))*100, 2)
		}
		ranges = append(ranges, entry)
	}
	return ranges
}

// rangeIndex maps a percentage to its histogram bucket, index 0 being 90-100.
func rangeIndex(pct float64) int {
	if pct >= 90 {
		return 0
	}
	if pct < 0 {
		pct = 0
	}
	return len(scoreRangeLabels) - 1 - int(pct/10)
}
