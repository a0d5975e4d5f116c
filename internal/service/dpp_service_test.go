package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/internal/models"
)

type uploaderStub struct {
	uploads []string
	fail    bool
}

func (u *uploaderStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if u.fail {
		return "", fmt.Errorf("storage unavailable")
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	u.uploads = append(u.uploads, name)
	return "https://cdn.example.com/" + name, nil
}

type dppFixture struct {
	svc        DPPService
	dpps       *stubDPPRepo
	classrooms *stubClassroomRepo
	uploader   *uploaderStub
	events     *recordingEvents
	classroom  models.Classroom
}

func newDPPFixture(t *testing.T) *dppFixture {
	t.Helper()

	classrooms := newStubClassroomRepo()
	classroom := classrooms.seedClassroom(models.Classroom{TeacherID: 1, Name: "Biology"})
	classrooms.seedEnrollment(classroom.ID, 10, models.LevelIntermediate)

	dpps := newStubDPPRepo()
	uploader := &uploaderStub{}
	events := &recordingEvents{}

	svc := NewDPPService(dpps, classrooms, validator.New(validator.WithRequiredStructEnabled()), uploader, UploadLimits{
		MaxFileBytes:      1024,
		AllowedExtensions: []string{".pdf", ".txt"},
	}, events, testLogger())

	return &dppFixture{
		svc:        svc,
		dpps:       dpps,
		classrooms: classrooms,
		uploader:   uploader,
		events:     events,
		classroom:  classroom,
	}
}

func mcqCreateRequest(classroomID uint) dto.DPPCreateRequest {
	return dto.DPPCreateRequest{
		ClassroomID: classroomID,
		Title:       "Cell structure drill",
		Type:        models.DPPTypeMCQ,
		DueDate:     time.Now().Add(12 * time.Hour).Format(time.RFC3339),
		Questions: []dto.MCQQuestionPayload{
			{
				Text:       "Which organelle produces ATP?",
				Difficulty: models.DifficultyEasy,
				Options: []dto.MCQOptionPayload{
					{Text: "Mitochondria", IsCorrect: true},
					{Text: "Ribosome"},
				},
			},
			{
				Text:       "Which phase follows metaphase?",
				Difficulty: models.DifficultyHard,
				Options: []dto.MCQOptionPayload{
					{Text: "Anaphase", IsCorrect: true},
					{Text: "Prophase"},
				},
			},
		},
	}
}

func fileCreateRequest(classroomID uint) dto.DPPCreateRequest {
	return dto.DPPCreateRequest{
		ClassroomID: classroomID,
		Title:       "Lab report practice",
		Type:        models.DPPTypeFile,
		DueDate:     time.Now().Add(12 * time.Hour).Format(time.RFC3339),
		MaxFiles:    2,
		Files: []dto.PracticeFilePayload{
			{Name: "worksheet.pdf", URL: "https://cdn.example.com/worksheet.pdf", Difficulty: models.DifficultyMedium, Points: 10},
		},
	}
}

func buildUploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"files\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["files"]
	require.Len(t, files, 1)
	return files[0]
}

func TestCreateMCQDPPDerivesMaxScore(t *testing.T) {
	fixture := newDPPFixture(t)

	resp, err := fixture.svc.Create(context.Background(), 1, mcqCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	// easy defaults to 1 mark, hard to 3
	require.Equal(t, 4, resp.MaxScore)
	require.Len(t, resp.Questions, 2)

	require.Len(t, fixture.events.events, 1)
	require.Equal(t, EventDPPCreated, fixture.events.events[0].Type)
}

func TestCreateFileDPPDerivesMaxScoreFromPoints(t *testing.T) {
	fixture := newDPPFixture(t)

	resp, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)
	require.Equal(t, 10, resp.MaxScore)
}

func TestStudentViewHidesOptionCorrectness(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, mcqCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	studentView, err := fixture.svc.GetForStudent(context.Background(), created.ID, 10)
	require.NoError(t, err)
	for _, question := range studentView.Questions {
		for _, option := range question.Options {
			require.False(t, option.IsCorrect)
		}
	}
}

func TestSubmitMCQGradesSynchronously(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, mcqCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	teacherView, err := fixture.svc.GetForTeacher(context.Background(), created.ID, 1)
	require.NoError(t, err)

	answers := make([]dto.MCQAnswerPayload, 0, 2)
	for _, question := range teacherView.Questions {
		for _, option := range question.Options {
			if option.IsCorrect {
				answers = append(answers, dto.MCQAnswerPayload{QuestionID: question.ID, SelectedOptionID: option.ID})
			}
		}
	}

	resp, err := fixture.svc.SubmitMCQ(context.Background(), created.ID, 10, dto.MCQSubmitRequest{Answers: answers})
	require.NoError(t, err)
	require.Equal(t, 4, resp.Score)
	require.Equal(t, 4, resp.MaxScore)
	require.NotNil(t, resp.GradedAt)
	require.False(t, resp.IsLate)
}

func TestSubmitMCQTwiceRejected(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, mcqCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	teacherView, err := fixture.svc.GetForTeacher(context.Background(), created.ID, 1)
	require.NoError(t, err)
	answers := []dto.MCQAnswerPayload{{
		QuestionID:       teacherView.Questions[0].ID,
		SelectedOptionID: teacherView.Questions[0].Options[0].ID,
	}}

	_, err = fixture.svc.SubmitMCQ(context.Background(), created.ID, 10, dto.MCQSubmitRequest{Answers: answers})
	require.NoError(t, err)

	_, err = fixture.svc.SubmitMCQ(context.Background(), created.ID, 10, dto.MCQSubmitRequest{Answers: answers})
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitMCQWrongTypeRejected(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	_, err = fixture.svc.SubmitMCQ(context.Background(), created.ID, 10, dto.MCQSubmitRequest{
		Answers: []dto.MCQAnswerPayload{{QuestionID: "q", SelectedOptionID: "o"}},
	})
	require.ErrorIs(t, err, ErrWrongDPPType)
}

func TestSubmitFilesUploadsAll(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	files := []*multipart.FileHeader{
		buildUploadHeader(t, "report.pdf", []byte("%PDF-1.4 report")),
		buildUploadHeader(t, "notes.txt", []byte("observations")),
	}

	resp, err := fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.NoError(t, err)
	require.Len(t, resp.Files, 2)
	require.Equal(t, 0, resp.Score)
	require.Nil(t, resp.GradedAt)
	require.Len(t, fixture.uploader.uploads, 2)
}

func TestSubmitFilesRejectsTooMany(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	files := []*multipart.FileHeader{
		buildUploadHeader(t, "a.pdf", []byte("a")),
		buildUploadHeader(t, "b.pdf", []byte("b")),
		buildUploadHeader(t, "c.pdf", []byte("c")),
	}

	_, err = fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.ErrorIs(t, err, ErrTooManyFiles)
	require.Empty(t, fixture.uploader.uploads)
}

func TestSubmitFilesRejectsDisallowedExtension(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	files := []*multipart.FileHeader{buildUploadHeader(t, "malware.exe", []byte("MZ"))}

	_, err = fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.ErrorIs(t, err, ErrFileTypeNotAllowed)
}

func TestSubmitFilesRejectsMismatchedContent(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	disguised := append([]byte("MZ"), bytes.Repeat([]byte{0x90}, 62)...)
	files := []*multipart.FileHeader{buildUploadHeader(t, "report.pdf", disguised)}

	_, err = fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.ErrorIs(t, err, ErrFileTypeNotAllowed)
	require.Empty(t, fixture.uploader.uploads)
}

func TestSubmitFilesTwiceRejected(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	files := []*multipart.FileHeader{buildUploadHeader(t, "report.pdf", []byte("%PDF-1.4"))}
	_, err = fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.NoError(t, err)

	_, err = fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.ErrorIs(t, err, ErrAlreadySubmitted)
	require.Len(t, fixture.uploader.uploads, 1)
}

func TestSubmitFilesReleasesRowOnUploadFailure(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	files := []*multipart.FileHeader{buildUploadHeader(t, "report.pdf", []byte("%PDF-1.4"))}

	fixture.uploader.fail = true
	_, err = fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.Error(t, err)
	require.Empty(t, fixture.dpps.submissions)

	fixture.uploader.fail = false
	resp, err := fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)
}

func TestSubmitFilesWithoutStorageConfigured(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	svc := NewDPPService(fixture.dpps, fixture.classrooms, validator.New(validator.WithRequiredStructEnabled()), nil, UploadLimits{}, fixture.events, testLogger())

	files := []*multipart.FileHeader{buildUploadHeader(t, "report.pdf", []byte("%PDF-1.4"))}
	_, err = svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.ErrorIs(t, err, ErrFileStorageUnavailable)
}

func TestSubmitFilesRejectsOversized(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	files := []*multipart.FileHeader{buildUploadHeader(t, "big.pdf", bytes.Repeat([]byte("a"), 2048))}

	_, err = fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.ErrorIs(t, err, ErrFileTooLarge)
}

func TestGradeFileSubmissionEnforcesBounds(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, fileCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	files := []*multipart.FileHeader{buildUploadHeader(t, "report.pdf", []byte("%PDF-1.4"))}
	submitted, err := fixture.svc.SubmitFiles(context.Background(), created.ID, 10, files)
	require.NoError(t, err)

	_, err = fixture.svc.GradeFileSubmission(context.Background(), submitted.ID, 1, dto.DPPGradeRequest{Score: 11})
	require.ErrorIs(t, err, ErrScoreOutOfRange)

	graded, err := fixture.svc.GradeFileSubmission(context.Background(), submitted.ID, 1, dto.DPPGradeRequest{Score: 8})
	require.NoError(t, err)
	require.Equal(t, 8, graded.Score)
	require.NotNil(t, graded.GradedAt)
}

func TestDeleteDPPCascadesSubmissions(t *testing.T) {
	fixture := newDPPFixture(t)

	created, err := fixture.svc.Create(context.Background(), 1, mcqCreateRequest(fixture.classroom.ID))
	require.NoError(t, err)

	teacherView, err := fixture.svc.GetForTeacher(context.Background(), created.ID, 1)
	require.NoError(t, err)
	answers := []dto.MCQAnswerPayload{{
		QuestionID:       teacherView.Questions[0].ID,
		SelectedOptionID: teacherView.Questions[0].Options[0].ID,
	}}
	_, err = fixture.svc.SubmitMCQ(context.Background(), created.ID, 10, dto.MCQSubmitRequest{Answers: answers})
	require.NoError(t, err)

	err = fixture.svc.Delete(context.Background(), created.ID, 1)
	require.NoError(t, err)
	require.Empty(t, fixture.dpps.dpps)
	require.Empty(t, fixture.dpps.submissions)
}
