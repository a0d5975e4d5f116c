package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/internal/models"
)

func newAssignmentFixture(t *testing.T) (AssignmentService, *stubAssignmentRepo, *stubClassroomRepo, *recordingEvents, models.Classroom) {
	t.Helper()

	classrooms := newStubClassroomRepo()
	classroom := classrooms.seedClassroom(models.Classroom{TeacherID: 1, Name: "Chemistry"})

	assignments := newStubAssignmentRepo()
	events := &recordingEvents{}
	svc := NewAssignmentService(assignments, classrooms, validator.New(validator.WithRequiredStructEnabled()), events, testLogger())

	return svc, assignments, classrooms, events, classroom
}

func quizCreateRequest(classroomID uint) dto.AssignmentCreateRequest {
	return dto.AssignmentCreateRequest{
		ClassroomID: classroomID,
		Title:       "Stoichiometry quiz",
		Type:        models.AssignmentTypeQuiz,
		DueDate:     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		Questions: []dto.QuestionPayload{
			{Text: "Molar mass of water?", Options: []string{"18", "20"}, CorrectAnswer: "18", Points: 2},
			{Text: "Avogadro constant exponent?", Options: []string{"23", "24"}, CorrectAnswer: "23", Points: 3},
		},
	}
}

func TestCreateAssignmentDerivesTotalPoints(t *testing.T) {
	svc, _, _, _, classroom := newAssignmentFixture(t)

	resp, err := svc.Create(context.Background(), 1, quizCreateRequest(classroom.ID))
	require.NoError(t, err)
	require.Equal(t, 5, resp.TotalPoints)
	require.False(t, resp.Published)
	require.Len(t, resp.Questions, 2)
	require.NotEmpty(t, resp.Questions[0].ID)
}

func TestCreateAssignmentSanitizesDescription(t *testing.T) {
	svc, _, _, _, classroom := newAssignmentFixture(t)

	payload := quizCreateRequest(classroom.ID)
	payload.Description = "<script>alert('x')</script><p>Balance the equations below.</p>"

	resp, err := svc.Create(context.Background(), 1, payload)
	require.NoError(t, err)
	require.NotContains(t, resp.Description, "<script>")
	require.Contains(t, resp.Description, "Balance the equations below.")
}

func TestCreateAssignmentRejectsForeignClassroom(t *testing.T) {
	svc, _, _, _, classroom := newAssignmentFixture(t)

	_, err := svc.Create(context.Background(), 2, quizCreateRequest(classroom.ID))
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestPublishAssignment(t *testing.T) {
	svc, _, classrooms, events, classroom := newAssignmentFixture(t)

	created, err := svc.Create(context.Background(), 1, quizCreateRequest(classroom.ID))
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), created.ID, 1)
	require.NoError(t, err)
	require.True(t, published.Published)
	require.NotNil(t, published.PublishedAt)

	stored, err := classrooms.GetByID(context.Background(), classroom.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.AssignmentCount)

	require.Len(t, events.events, 1)
	require.Equal(t, EventAssignmentPublished, events.events[0].Type)
}

func TestPublishTwiceRejected(t *testing.T) {
	svc, _, _, _, classroom := newAssignmentFixture(t)

	created, err := svc.Create(context.Background(), 1, quizCreateRequest(classroom.ID))
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), created.ID, 1)
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), created.ID, 1)
	require.ErrorIs(t, err, ErrAlreadyPublished)
}

func TestStudentViewHidesCorrectAnswers(t *testing.T) {
	svc, _, classrooms, _, classroom := newAssignmentFixture(t)
	classrooms.seedEnrollment(classroom.ID, 10, models.LevelBeginner)

	created, err := svc.Create(context.Background(), 1, quizCreateRequest(classroom.ID))
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), created.ID, 1)
	require.NoError(t, err)

	studentView, err := svc.GetForStudent(context.Background(), created.ID, 10)
	require.NoError(t, err)
	require.Len(t, studentView.Questions, 2)
	for _, question := range studentView.Questions {
		require.Empty(t, question.CorrectAnswer)
	}

	teacherView, err := svc.GetForTeacher(context.Background(), created.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "18", teacherView.Questions[0].CorrectAnswer)
}

func TestStudentCannotSeeUnpublishedAssignment(t *testing.T) {
	svc, _, classrooms, _, classroom := newAssignmentFixture(t)
	classrooms.seedEnrollment(classroom.ID, 10, models.LevelBeginner)

	created, err := svc.Create(context.Background(), 1, quizCreateRequest(classroom.ID))
	require.NoError(t, err)

	_, err = svc.GetForStudent(context.Background(), created.ID, 10)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestLevelTargetingFiltersStudentList(t *testing.T) {
	svc, _, classrooms, _, classroom := newAssignmentFixture(t)
	classrooms.seedEnrollment(classroom.ID, 10, models.LevelBeginner)
	classrooms.seedEnrollment(classroom.ID, 11, models.LevelAdvanced)

	payload := quizCreateRequest(classroom.ID)
	payload.TargetLevels = []string{models.LevelAdvanced}

	created, err := svc.Create(context.Background(), 1, payload)
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), created.ID, 1)
	require.NoError(t, err)

	beginnerList, err := svc.ListForStudent(context.Background(), classroom.ID, 10)
	require.NoError(t, err)
	require.Empty(t, beginnerList)

	advancedList, err := svc.ListForStudent(context.Background(), classroom.ID, 11)
	require.NoError(t, err)
	require.Len(t, advancedList, 1)
}

func TestUntargetedAssignmentVisibleToAllLevels(t *testing.T) {
	svc, _, classrooms, _, classroom := newAssignmentFixture(t)
	classrooms.seedEnrollment(classroom.ID, 10, models.LevelBeginner)

	created, err := svc.Create(context.Background(), 1, quizCreateRequest(classroom.ID))
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), created.ID, 1)
	require.NoError(t, err)

	list, err := svc.ListForStudent(context.Background(), classroom.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteAssignmentRequiresOwner(t *testing.T) {
	svc, assignments, _, _, classroom := newAssignmentFixture(t)

	created, err := svc.Create(context.Background(), 1, quizCreateRequest(classroom.ID))
	require.NoError(t, err)

	err = svc.Delete(context.Background(), created.ID, 2)
	require.ErrorIs(t, err, ErrAccessDenied)
	require.Len(t, assignments.assignments, 1)

	err = svc.Delete(context.Background(), created.ID, 1)
	require.NoError(t, err)
	require.Empty(t, assignments.assignments)
}
