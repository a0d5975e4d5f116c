package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classboard/classboard-api/internal/models"
	"github.com/classboard/classboard-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type recordingEvents struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEvents) Publish(ctx context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type enrollmentKey struct {
	classroomID uint
	studentID   uint
}

type stubClassroomRepo struct {
	classrooms  map[uint]models.Classroom
	enrollments map[enrollmentKey]models.Enrollment
	nextID      uint
}

func newStubClassroomRepo() *stubClassroomRepo {
	return &stubClassroomRepo{
		classrooms:  map[uint]models.Classroom{},
		enrollments: map[enrollmentKey]models.Enrollment{},
	}
}

func (s *stubClassroomRepo) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Classroom, error) {
	var result []models.Classroom
	for _, classroom := range s.classrooms {
		if classroom.TeacherID == teacherID {
			result = append(result, classroom)
		}
	}
	return result, nil
}

func (s *stubClassroomRepo) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	classroom, ok := s.classrooms[id]
	if !ok {
		return models.Classroom{}, gorm.ErrRecordNotFound
	}
	return classroom, nil
}

func (s *stubClassroomRepo) Create(ctx context.Context, classroom *models.Classroom) error {
	s.nextID++
	classroom.ID = s.nextID
	s.classrooms[classroom.ID] = *classroom
	return nil
}

func (s *stubClassroomRepo) Update(ctx context.Context, classroom *models.Classroom) error {
	s.classrooms[classroom.ID] = *classroom
	return nil
}

func (s *stubClassroomRepo) IncrementAssignmentCount(ctx context.Context, id uint) error {
	classroom, ok := s.classrooms[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	classroom.AssignmentCount++
	s.classrooms[id] = classroom
	return nil
}

func (s *stubClassroomRepo) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	key := enrollmentKey{enrollment.ClassroomID, enrollment.StudentID}
	if _, exists := s.enrollments[key]; exists {
		return repository.ErrDuplicateEnrollment
	}
	s.enrollments[key] = *enrollment
	return nil
}

func (s *stubClassroomRepo) GetEnrollment(ctx context.Context, classroomID, studentID uint) (models.Enrollment, error) {
	enrollment, ok := s.enrollments[enrollmentKey{classroomID, studentID}]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return enrollment, nil
}

func (s *stubClassroomRepo) seedClassroom(classroom models.Classroom) models.Classroom {
	if classroom.ID == 0 {
		s.nextID++
		classroom.ID = s.nextID
	}
	s.classrooms[classroom.ID] = classroom
	return classroom
}

func (s *stubClassroomRepo) seedEnrollment(classroomID, studentID uint, level string) {
	s.enrollments[enrollmentKey{classroomID, studentID}] = models.Enrollment{
		ClassroomID: classroomID,
		StudentID:   studentID,
		Level:       level,
	}
}

type stubAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{assignments: map[uint]models.Assignment{}}
}

func (s *stubAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	var result []models.Assignment
	for _, assignment := range s.assignments {
		if filter.ClassroomID != nil && assignment.ClassroomID != *filter.ClassroomID {
			continue
		}
		if filter.TeacherID != nil && assignment.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.PublishedOnly && !assignment.Published {
			continue
		}
		result = append(result, assignment)
	}
	return result, int64(len(result)), nil
}

func (s *stubAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := s.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (s *stubAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	s.nextID++
	assignment.ID = s.nextID
	s.assignments[assignment.ID] = *assignment
	return nil
}

func (s *stubAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	if _, ok := s.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.assignments[assignment.ID] = *assignment
	return nil
}

func (s *stubAssignmentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := s.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.assignments, id)
	return nil
}

func (s *stubAssignmentRepo) seedAssignment(assignment models.Assignment) models.Assignment {
	if assignment.ID == 0 {
		s.nextID++
		assignment.ID = s.nextID
	}
	s.assignments[assignment.ID] = assignment
	return assignment
}

type submissionKey struct {
	assignmentID uint
	studentID    uint
}

type stubSubmissionRepo struct {
	submissions map[uint]models.Submission
	byPair      map[submissionKey]uint
	assignments *stubAssignmentRepo
	nextID      uint
}

func newStubSubmissionRepo(assignments *stubAssignmentRepo) *stubSubmissionRepo {
	return &stubSubmissionRepo{
		submissions: map[uint]models.Submission{},
		byPair:      map[submissionKey]uint{},
		assignments: assignments,
	}
}

func (s *stubSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	var result []models.Submission
	for _, submission := range s.submissions {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		result = append(result, s.withAssignment(submission))
	}
	return result, nil
}

func (s *stubSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := s.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return s.withAssignment(submission), nil
}

func (s *stubSubmissionRepo) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	id, ok := s.byPair[submissionKey{assignmentID, studentID}]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return s.withAssignment(s.submissions[id]), nil
}

func (s *stubSubmissionRepo) CreateIfAbsent(ctx context.Context, submission *models.Submission) error {
	key := submissionKey{submission.AssignmentID, submission.StudentID}
	if _, exists := s.byPair[key]; exists {
		return repository.ErrSubmissionConflict
	}
	s.nextID++
	submission.ID = s.nextID
	s.submissions[submission.ID] = *submission
	s.byPair[key] = submission.ID
	return nil
}

func (s *stubSubmissionRepo) UpdateDraft(ctx context.Context, submission *models.Submission) error {
	existing, ok := s.submissions[submission.ID]
	if !ok || existing.Status != models.SubmissionStatusInProgress {
		return repository.ErrSubmissionConflict
	}
	existing.Content = submission.Content
	existing.Answers = submission.Answers
	existing.Status = submission.Status
	existing.IsLate = submission.IsLate
	existing.Score = submission.Score
	existing.Percentage = submission.Percentage
	existing.Feedback = submission.Feedback
	existing.GradedBy = submission.GradedBy
	existing.GradedAt = submission.GradedAt
	existing.SubmittedAt = submission.SubmittedAt
	s.submissions[submission.ID] = existing
	return nil
}

func (s *stubSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	if _, ok := s.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *submission
	stored.Assignment = models.Assignment{}
	s.submissions[submission.ID] = stored
	return nil
}

func (s *stubSubmissionRepo) withAssignment(submission models.Submission) models.Submission {
	if s.assignments != nil {
		if assignment, ok := s.assignments.assignments[submission.AssignmentID]; ok {
			submission.Assignment = assignment
		}
	}
	return submission
}

type dppSubmissionKey struct {
	dppID     uint
	studentID uint
}

type stubDPPRepo struct {
	dpps             map[uint]models.DailyPracticeProblem
	submissions      map[uint]models.DPPSubmission
	submissionByPair map[dppSubmissionKey]uint
	nextID           uint
	nextSubmissionID uint
}

func newStubDPPRepo() *stubDPPRepo {
	return &stubDPPRepo{
		dpps:             map[uint]models.DailyPracticeProblem{},
		submissions:      map[uint]models.DPPSubmission{},
		submissionByPair: map[dppSubmissionKey]uint{},
	}
}

func (s *stubDPPRepo) List(ctx context.Context, filter repository.DPPFilter) ([]models.DailyPracticeProblem, error) {
	var result []models.DailyPracticeProblem
	for _, dpp := range s.dpps {
		if filter.ClassroomID != nil && dpp.ClassroomID != *filter.ClassroomID {
			continue
		}
		if filter.TeacherID != nil && dpp.TeacherID != *filter.TeacherID {
			continue
		}
		result = append(result, dpp)
	}
	return result, nil
}

func (s *stubDPPRepo) GetByID(ctx context.Context, id uint) (models.DailyPracticeProblem, error) {
	dpp, ok := s.dpps[id]
	if !ok {
		return models.DailyPracticeProblem{}, gorm.ErrRecordNotFound
	}
	return dpp, nil
}

func (s *stubDPPRepo) Create(ctx context.Context, dpp *models.DailyPracticeProblem) error {
	s.nextID++
	dpp.ID = s.nextID
	s.dpps[dpp.ID] = *dpp
	return nil
}

func (s *stubDPPRepo) Update(ctx context.Context, dpp *models.DailyPracticeProblem) error {
	if _, ok := s.dpps[dpp.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.dpps[dpp.ID] = *dpp
	return nil
}

func (s *stubDPPRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := s.dpps[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.dpps, id)
	for key, submissionID := range s.submissionByPair {
		if key.dppID == id {
			delete(s.submissions, submissionID)
			delete(s.submissionByPair, key)
		}
	}
	return nil
}

func (s *stubDPPRepo) ListSubmissions(ctx context.Context, dppID uint) ([]models.DPPSubmission, error) {
	var result []models.DPPSubmission
	for _, submission := range s.submissions {
		if submission.DPPID == dppID {
			result = append(result, submission)
		}
	}
	return result, nil
}

func (s *stubDPPRepo) GetSubmission(ctx context.Context, dppID, studentID uint) (models.DPPSubmission, error) {
	id, ok := s.submissionByPair[dppSubmissionKey{dppID, studentID}]
	if !ok {
		return models.DPPSubmission{}, gorm.ErrRecordNotFound
	}
	return s.submissions[id], nil
}

func (s *stubDPPRepo) GetSubmissionByID(ctx context.Context, id uint) (models.DPPSubmission, error) {
	submission, ok := s.submissions[id]
	if !ok {
		return models.DPPSubmission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (s *stubDPPRepo) CreateSubmissionIfAbsent(ctx context.Context, submission *models.DPPSubmission) error {
	key := dppSubmissionKey{submission.DPPID, submission.StudentID}
	if _, exists := s.submissionByPair[key]; exists {
		return repository.ErrSubmissionConflict
	}
	s.nextSubmissionID++
	submission.ID = s.nextSubmissionID
	s.submissions[submission.ID] = *submission
	s.submissionByPair[key] = submission.ID
	return nil
}

func (s *stubDPPRepo) UpdateSubmission(ctx context.Context, submission *models.DPPSubmission) error {
	if _, ok := s.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.submissions[submission.ID] = *submission
	return nil
}

func (s *stubDPPRepo) DeleteSubmission(ctx context.Context, id uint) error {
	submission, ok := s.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.submissions, id)
	delete(s.submissionByPair, dppSubmissionKey{submission.DPPID, submission.StudentID})
	return nil
}

func (s *stubDPPRepo) seedDPP(dpp models.DailyPracticeProblem) models.DailyPracticeProblem {
	if dpp.ID == 0 {
		s.nextID++
		dpp.ID = s.nextID
	}
	s.dpps[dpp.ID] = dpp
	return dpp
}
