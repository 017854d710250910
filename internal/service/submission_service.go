package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/dto"
	"github.com/examhub/examhub-api/internal/repository"
)

// SubmissionService exposes read access to submissions for students and
// instructors, plus the per-exam roster.
type SubmissionService interface {
	GetForStudent(ctx context.Context, submissionID, studentID uint) (dto.SubmissionDetailResponse, error)
	GetDetail(ctx context.Context, submissionID uint) (dto.SubmissionDetailResponse, error)
	GetResultForStudent(ctx context.Context, examID, studentID uint) (dto.SubmissionResultResponse, error)
	Roster(ctx context.Context, examID uint) ([]dto.RosterEntryResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	exams       repository.ExamRepository
	students    repository.StudentRepository
	logger      zerolog.Logger
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(submissions repository.SubmissionRepository, exams repository.ExamRepository, students repository.StudentRepository, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		exams:       exams,
		students:    students,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

// GetForStudent returns the submission only to its owner. A submission owned
// by someone else is reported as not found rather than forbidden, so the
// response does not leak that the id exists.
func (s *submissionService) GetForStudent(ctx context.Context, submissionID, studentID uint) (dto.SubmissionDetailResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetailResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionDetailResponse{}, err
	}
	if submission.StudentID != studentID {
		return dto.SubmissionDetailResponse{}, ErrSubmissionNotFound
	}
	return dto.NewSubmissionDetailResponse(submission), nil
}

// GetDetail returns a submission with answers for instructor review.
func (s *submissionService) GetDetail(ctx context.Context, submissionID uint) (dto.SubmissionDetailResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetailResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionDetailResponse{}, err
	}
	return dto.NewSubmissionDetailResponse(submission), nil
}

// GetResultForStudent returns the student's own result for a given exam.
func (s *submissionService) GetResultForStudent(ctx context.Context, examID, studentID uint) (dto.SubmissionResultResponse, error) {
	submission, err := s.submissions.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResultResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResultResponse{}, err
	}
	return dto.NewSubmissionResultResponse(submission), nil
}

// Roster lists every student enrolled in the exam's course with their
// submission state. Students without a submission appear as missed with no
// score fields at all.
func (s *submissionService) Roster(ctx context.Context, examID uint) ([]dto.RosterEntryResponse, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	enrolled, err := s.students.ListEnrolledByCourse(ctx, exam.CourseID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.submissions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[uint]int, len(submissions))
	for i, submission := range submissions {
		byStudent[submission.StudentID] = i
	}

	roster := make([]dto.RosterEntryResponse, 0, len(enrolled))
	for _, student := range enrolled {
		entry := dto.RosterEntryResponse{
			StudentID:     student.ID,
			StudentName:   student.Name,
			StudentEmail:  student.Email,
			StudentNumber: student.StudentNumber,
			Status:        dto.RosterStatusMissed,
		}

		if i, ok := byStudent[student.ID]; ok {
			submission := submissions[i]
			entry.Status = dto.RosterStatusSubmitted
			submissionID := submission.ID
			submittedAt := submission.SubmittedAt
			score := submission.TotalScore
			maxScore := submission.MaxScore
			entry.SubmissionID = &submissionID
			entry.SubmittedAt = &submittedAt
			entry.Score = &score
			entry.MaxScore = &maxScore
			if submission.LetterGrade != "" {
				letter := submission.LetterGrade
				entry.LetterGrade = &letter
			}
		}

		roster = append(roster, entry)
	}
	return roster, nil
}
