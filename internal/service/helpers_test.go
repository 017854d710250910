package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examhub/examhub-api/internal/models"
	"github.com/examhub/examhub-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeExamRepo struct {
	exams       map[uint]models.Exam
	codeTaken   bool
	overlapping bool
	created     []models.Exam
	updated     []models.Exam
	deleted     []uint
	nextID      uint
}

func newFakeExamRepo(exams ...models.Exam) *fakeExamRepo {
	repo := &fakeExamRepo{exams: make(map[uint]models.Exam), nextID: 100}
	for _, exam := range exams {
		repo.exams[exam.ID] = exam
	}
	return repo
}

func (f *fakeExamRepo) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	exam, ok := f.exams[id]
	if !ok {
		return models.Exam{}, gorm.ErrRecordNotFound
	}
	return exam, nil
}

func (f *fakeExamRepo) GetByCode(ctx context.Context, code string) (models.Exam, error) {
	for _, exam := range f.exams {
		if exam.Code == code {
			return exam, nil
		}
	}
	return models.Exam{}, gorm.ErrRecordNotFound
}

func (f *fakeExamRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.Exam, error) {
	exams := make([]models.Exam, 0)
	for _, exam := range f.exams {
		if exam.CourseID == courseID {
			exams = append(exams, exam)
		}
	}
	return exams, nil
}

func (f *fakeExamRepo) SearchByTitle(ctx context.Context, term string, limit int) ([]models.Exam, error) {
	exams := make([]models.Exam, 0)
	for _, exam := range f.exams {
		exams = append(exams, exam)
	}
	return exams, nil
}

func (f *fakeExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	f.nextID++
	exam.ID = f.nextID
	f.exams[exam.ID] = *exam
	f.created = append(f.created, *exam)
	return nil
}

func (f *fakeExamRepo) Update(ctx context.Context, exam *models.Exam) error {
	f.exams[exam.ID] = *exam
	f.updated = append(f.updated, *exam)
	return nil
}

func (f *fakeExamRepo) Delete(ctx context.Context, id uint) error {
	delete(f.exams, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeExamRepo) CodeExists(ctx context.Context, code string, excludeID uint) (bool, error) {
	return f.codeTaken, nil
}

func (f *fakeExamRepo) OverlapExists(ctx context.Context, courseID uint, date time.Time, startTime, endTime string, excludeID uint) (bool, error) {
	return f.overlapping, nil
}

type fakeCourseRepo struct {
	courses map[uint]models.Course
}

func newFakeCourseRepo(courses ...models.Course) *fakeCourseRepo {
	repo := &fakeCourseRepo{courses: make(map[uint]models.Course)}
	for _, course := range courses {
		repo.courses[course.ID] = course
	}
	return repo
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, id uint) (models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (f *fakeCourseRepo) ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error) {
	courses := make([]models.Course, 0)
	for _, course := range f.courses {
		if course.InstructorID == instructorID {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

type fakeQuestionRepo struct {
	questions  map[uint]models.Question
	textExists bool
	created    []models.Question
	updated    []models.Question
	deleted    []uint
	nextID     uint
}

func newFakeQuestionRepo(questions ...models.Question) *fakeQuestionRepo {
	repo := &fakeQuestionRepo{questions: make(map[uint]models.Question), nextID: 500}
	for _, question := range questions {
		repo.questions[question.ID] = question
	}
	return repo
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, id uint) (models.Question, error) {
	question, ok := f.questions[id]
	if !ok {
		return models.Question{}, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (f *fakeQuestionRepo) ListByExam(ctx context.Context, examID uint) ([]models.Question, error) {
	questions := make([]models.Question, 0)
	for _, question := range f.questions {
		if question.ExamID == examID {
			questions = append(questions, question)
		}
	}
	return questions, nil
}

func (f *fakeQuestionRepo) Create(ctx context.Context, question *models.Question) error {
	f.nextID++
	question.ID = f.nextID
	f.questions[question.ID] = *question
	f.created = append(f.created, *question)
	return nil
}

func (f *fakeQuestionRepo) Update(ctx context.Context, question *models.Question) error {
	f.questions[question.ID] = *question
	f.updated = append(f.updated, *question)
	return nil
}

func (f *fakeQuestionRepo) Delete(ctx context.Context, id uint) error {
	delete(f.questions, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeQuestionRepo) TextExists(ctx context.Context, examID uint, text string, excludeID uint) (bool, error) {
	return f.textExists, nil
}

type fakeSubmissionRepo struct {
	submissions    map[uint]models.Submission
	hasSubmissions bool
	createErr      error
	created        []models.Submission
	updated        []models.Submission
	answerScores   map[uint]float64
	answerFeedback map[uint]string
	nextID         uint
}

func newFakeSubmissionRepo(submissions ...models.Submission) *fakeSubmissionRepo {
	repo := &fakeSubmissionRepo{
		submissions:    make(map[uint]models.Submission),
		answerScores:   make(map[uint]float64),
		answerFeedback: make(map[uint]string),
		nextID:         900,
	}
	for _, submission := range submissions {
		repo.submissions[submission.ID] = submission
	}
	return repo
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.submissions {
		if existing.ExamID == submission.ExamID && existing.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	submission.ID = f.nextID
	f.submissions[submission.ID] = *submission
	f.created = append(f.created, *submission)
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.Submission, error) {
	for _, submission := range f.submissions {
		if submission.ExamID == examID && submission.StudentID == studentID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) ExistsForExam(ctx context.Context, examID uint) (bool, error) {
	if f.hasSubmissions {
		return true, nil
	}
	for _, submission := range f.submissions {
		if submission.ExamID == examID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubmissionRepo) ListByExam(ctx context.Context, examID uint) ([]models.Submission, error) {
	submissions := make([]models.Submission, 0)
	for _, submission := range f.submissions {
		if submission.ExamID == examID {
			submissions = append(submissions, submission)
		}
	}
	return submissions, nil
}

func (f *fakeSubmissionRepo) ListGradedByExam(ctx context.Context, examID uint) ([]models.Submission, error) {
	submissions := make([]models.Submission, 0)
	for _, submission := range f.submissions {
		if submission.ExamID == examID && submission.IsGraded() {
			submissions = append(submissions, submission)
		}
	}
	return submissions, nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	f.submissions[submission.ID] = *submission
	f.updated = append(f.updated, *submission)
	return nil
}

func (f *fakeSubmissionRepo) UpdateAnswerScore(ctx context.Context, answerID uint, score float64, feedback string) error {
	f.answerScores[answerID] = score
	f.answerFeedback[answerID] = feedback
	for id, submission := range f.submissions {
		for i := range submission.Answers {
			if submission.Answers[i].ID == answerID {
				value := score
				submission.Answers[i].Score = &value
				submission.Answers[i].Feedback = feedback
				f.submissions[id] = submission
			}
		}
	}
	return nil
}

type fakeStudentRepo struct {
	students map[uint]models.Student
	enrolled map[uint][]uint
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{
		students: make(map[uint]models.Student),
		enrolled: make(map[uint][]uint),
	}
}

func (f *fakeStudentRepo) addEnrollment(courseID uint, student models.Student) {
	f.students[student.ID] = student
	f.enrolled[courseID] = append(f.enrolled[courseID], student.ID)
}

func (f *fakeStudentRepo) GetByID(ctx context.Context, id uint) (models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (f *fakeStudentRepo) ListEnrolledByCourse(ctx context.Context, courseID uint) ([]models.Student, error) {
	students := make([]models.Student, 0, len(f.enrolled[courseID]))
	for _, id := range f.enrolled[courseID] {
		students = append(students, f.students[id])
	}
	return students, nil
}

func (f *fakeStudentRepo) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	for _, id := range f.enrolled[courseID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

type fakeRecorder struct {
	entries []ActivityEntry
}

func (f *fakeRecorder) Record(ctx context.Context, entry ActivityEntry) (models.ActivityLog, error) {
	f.entries = append(f.entries, entry)
	return models.ActivityLog{ID: uint(len(f.entries))}, nil
}

type fakeNotifier struct {
	notified []uint
}

func (f *fakeNotifier) NotifyGraded(ctx context.Context, submission models.Submission, exam models.Exam) {
	f.notified = append(f.notified, submission.ID)
}

var _ repository.ExamRepository = (*fakeExamRepo)(nil)
var _ repository.CourseRepository = (*fakeCourseRepo)(nil)
var _ repository.QuestionRepository = (*fakeQuestionRepo)(nil)
var _ repository.SubmissionRepository = (*fakeSubmissionRepo)(nil)
var _ repository.StudentRepository = (*fakeStudentRepo)(nil)
