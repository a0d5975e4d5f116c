package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/internal/models"
)

func newClassroomService(repo *stubClassroomRepo) ClassroomService {
	return NewClassroomService(repo, validator.New(validator.WithRequiredStructEnabled()), testLogger())
}

func TestCreateClassroom(t *testing.T) {
	repo := newStubClassroomRepo()
	svc := newClassroomService(repo)

	created, err := svc.Create(context.Background(), 7, dto.ClassroomCreateRequest{Name: "Physics 101", Subject: "Physics"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, uint(7), created.TeacherID)
	require.Equal(t, "Physics 101", created.Name)
}

func TestCreateClassroomRejectsShortName(t *testing.T) {
	svc := newClassroomService(newStubClassroomRepo())

	_, err := svc.Create(context.Background(), 7, dto.ClassroomCreateRequest{Name: "ab"})
	require.Error(t, err)
}

func TestGetClassroomRequiresOwner(t *testing.T) {
	repo := newStubClassroomRepo()
	classroom := repo.seedClassroom(models.Classroom{Name: "Chemistry", TeacherID: 7})
	svc := newClassroomService(repo)

	_, err := svc.Get(context.Background(), classroom.ID, 8)
	require.ErrorIs(t, err, ErrAccessDenied)

	found, err := svc.Get(context.Background(), classroom.ID, 7)
	require.NoError(t, err)
	require.Equal(t, classroom.ID, found.ID)
}

func TestGetMissingClassroom(t *testing.T) {
	svc := newClassroomService(newStubClassroomRepo())

	_, err := svc.Get(context.Background(), 99, 7)
	require.ErrorIs(t, err, ErrClassroomNotFound)
}

func TestEnrollStudent(t *testing.T) {
	repo := newStubClassroomRepo()
	classroom := repo.seedClassroom(models.Classroom{Name: "Biology", TeacherID: 7})
	svc := newClassroomService(repo)

	_, err := svc.Enroll(context.Background(), classroom.ID, 7, dto.EnrollRequest{StudentID: 21, Level: models.LevelIntermediate})
	require.NoError(t, err)

	enrollment, err := repo.GetEnrollment(context.Background(), classroom.ID, 21)
	require.NoError(t, err)
	require.Equal(t, models.LevelIntermediate, enrollment.Level)
}

func TestEnrollTwiceRejected(t *testing.T) {
	repo := newStubClassroomRepo()
	classroom := repo.seedClassroom(models.Classroom{Name: "Biology", TeacherID: 7})
	svc := newClassroomService(repo)

	payload := dto.EnrollRequest{StudentID: 21, Level: models.LevelBeginner}
	_, err := svc.Enroll(context.Background(), classroom.ID, 7, payload)
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), classroom.ID, 7, payload)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestEnrollRequiresOwner(t *testing.T) {
	repo := newStubClassroomRepo()
	classroom := repo.seedClassroom(models.Classroom{Name: "Biology", TeacherID: 7})
	svc := newClassroomService(repo)

	_, err := svc.Enroll(context.Background(), classroom.ID, 8, dto.EnrollRequest{StudentID: 21, Level: models.LevelBeginner})
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestEnrollRejectsUnknownLevel(t *testing.T) {
	repo := newStubClassroomRepo()
	classroom := repo.seedClassroom(models.Classroom{Name: "Biology", TeacherID: 7})
	svc := newClassroomService(repo)

	_, err := svc.Enroll(context.Background(), classroom.ID, 7, dto.EnrollRequest{StudentID: 21, Level: "expert"})
	require.Error(t, err)
}

func TestListForTeacherFiltersOwnership(t *testing.T) {
	repo := newStubClassroomRepo()
	repo.seedClassroom(models.Classroom{Name: "Mine", TeacherID: 7})
	repo.seedClassroom(models.Classroom{Name: "Theirs", TeacherID: 8})
	svc := newClassroomService(repo)

	classrooms, err := svc.ListForTeacher(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, classrooms, 1)
	require.Equal(t, "Mine", classrooms[0].Name)
}
