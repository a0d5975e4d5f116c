package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/internal/grading"
	"github.com/classboard/classboard-api/internal/models"
	"github.com/classboard/classboard-api/internal/repository"
)

// ErrDPPNotFound indicates a daily practice problem could not be found.
var ErrDPPNotFound = errors.New("daily practice problem not found")

// ErrWrongDPPType indicates the submit endpoint does not match the DPP type.
var ErrWrongDPPType = errors.New("wrong practice problem type for this endpoint")

// ErrTooManyFiles indicates the upload exceeds the per-DPP file count limit.
var ErrTooManyFiles = errors.New("too many files")

// ErrFileTooLarge indicates an uploaded file exceeds the size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// ErrFileTypeNotAllowed indicates an uploaded file has a forbidden extension
// or its content does not match the extension it claims.
var ErrFileTypeNotAllowed = errors.New("file type not allowed")

// ErrFileStorageUnavailable indicates no file storage backend is configured.
var ErrFileStorageUnavailable = errors.New("file storage unavailable")

// FileUploader stores a file and returns its public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadLimits bounds file submissions for file-type practice problems.
type UploadLimits struct {
	MaxFileBytes      int64
	AllowedExtensions []string
}

// DPPService manages daily practice problems and their submissions.
type DPPService interface {
	Create(ctx context.Context, teacherID uint, payload dto.DPPCreateRequest) (dto.DPPResponse, error)
	GetForTeacher(ctx context.Context, id, teacherID uint) (dto.DPPResponse, error)
	GetForStudent(ctx context.Context, id, studentID uint) (dto.DPPResponse, error)
	ListForClassroom(ctx context.Context, classroomID uint) ([]dto.DPPResponse, error)
	Delete(ctx context.Context, id, teacherID uint) error
	SubmitMCQ(ctx context.Context, dppID, studentID uint, payload dto.MCQSubmitRequest) (dto.DPPSubmissionResponse, error)
	SubmitFiles(ctx context.Context, dppID, studentID uint, files []*multipart.FileHeader) (dto.DPPSubmissionResponse, error)
	GradeFileSubmission(ctx context.Context, submissionID, teacherID uint, payload dto.DPPGradeRequest) (dto.DPPSubmissionResponse, error)
	ListSubmissions(ctx context.Context, dppID, teacherID uint) ([]dto.DPPSubmissionResponse, error)
}

type dppService struct {
	dpps       repository.DPPRepository
	classrooms repository.ClassroomRepository
	validator  *validator.Validate
	uploader   FileUploader
	limits     UploadLimits
	events     EventPublisher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDPPService constructs a DPPService instance.
func NewDPPService(dppRepo repository.DPPRepository, classroomRepo repository.ClassroomRepository, validate *validator.Validate, uploader FileUploader, limits UploadLimits, events EventPublisher, logger zerolog.Logger) DPPService {
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = 10 << 20
	}
	if len(limits.AllowedExtensions) == 0 {
		limits.AllowedExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".png", ".jpg", ".jpeg", ".zip"}
	}

	return &dppService{
		dpps:       dppRepo,
		classrooms: classroomRepo,
		validator:  validate,
		uploader:   uploader,
		limits:     limits,
		events:     events,
		logger:     logger.With().Str("component", "dpp_service").Logger(),
		now:        time.Now,
	}
}

// Create builds a practice problem. Unlike assignments there is no separate
// publish step: a DPP is visible to students immediately.
func (s *dppService) Create(ctx context.Context, teacherID uint, payload dto.DPPCreateRequest) (dto.DPPResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DPPResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, payload.ClassroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DPPResponse{}, ErrClassroomNotFound
		}
		return dto.DPPResponse{}, err
	}
	if !classroom.IsOwnedBy(teacherID) {
		return dto.DPPResponse{}, ErrAccessDenied
	}

	switch payload.Type {
	case models.DPPTypeMCQ:
		if len(payload.Questions) == 0 {
			return dto.DPPResponse{}, fmt.Errorf("mcq practice problems require questions")
		}
	case models.DPPTypeFile:
		if len(payload.Files) == 0 {
			return dto.DPPResponse{}, fmt.Errorf("file practice problems require attachments")
		}
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.DPPResponse{}, fmt.Errorf("invalid due date: %w", err)
	}

	dpp := models.DailyPracticeProblem{
		ClassroomID: payload.ClassroomID,
		TeacherID:   teacherID,
		Title:       payload.Title,
		Type:        payload.Type,
		DueDate:     dueDate,
		MaxFiles:    payload.MaxFiles,
	}
	if dpp.MaxFiles <= 0 {
		dpp.MaxFiles = 5
	}

	if payload.Type == models.DPPTypeMCQ {
		questions := buildMCQQuestions(payload.Questions)
		dpp.SetQuestions(questions)
		dpp.MaxScore = grading.MaxScore(questions)
	} else {
		files := buildPracticeFiles(payload.Files)
		dpp.SetFiles(files)
		dpp.MaxScore = grading.MaxFileScore(files)
	}

	if err := s.dpps.Create(ctx, &dpp); err != nil {
		return dto.DPPResponse{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, Event{
			Type:        EventDPPCreated,
			ClassroomID: dpp.ClassroomID,
			EntityID:    dpp.ID,
			ActorID:     teacherID,
		})
	}

	s.logger.Info().Uint("dpp_id", dpp.ID).Str("type", dpp.Type).Int("max_score", dpp.MaxScore).Msg("practice problem created")

	return dto.NewDPPResponse(dpp, true), nil
}

func (s *dppService) GetForTeacher(ctx context.Context, id, teacherID uint) (dto.DPPResponse, error) {
	dpp, err := s.getOwned(ctx, id, teacherID)
	if err != nil {
		return dto.DPPResponse{}, err
	}

	return dto.NewDPPResponse(dpp, true), nil
}

func (s *dppService) GetForStudent(ctx context.Context, id, studentID uint) (dto.DPPResponse, error) {
	dpp, err := s.dpps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DPPResponse{}, ErrDPPNotFound
		}
		return dto.DPPResponse{}, err
	}

	if _, err := authorizeStudent(ctx, s.classrooms, dpp.ClassroomID, studentID); err != nil {
		return dto.DPPResponse{}, err
	}

	return dto.NewDPPResponse(dpp, false), nil
}

func (s *dppService) ListForClassroom(ctx context.Context, classroomID uint) ([]dto.DPPResponse, error) {
	dpps, err := s.dpps.List(ctx, repository.DPPFilter{ClassroomID: &classroomID})
	if err != nil {
		return nil, err
	}

	return dto.NewDPPResponseSlice(dpps, false), nil
}

func (s *dppService) Delete(ctx context.Context, id, teacherID uint) error {
	if _, err := s.getOwned(ctx, id, teacherID); err != nil {
		return err
	}

	if err := s.dpps.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDPPNotFound
		}
		return err
	}

	s.logger.Info().Uint("dpp_id", id).Msg("practice problem deleted with submissions")

	return nil
}

// SubmitMCQ grades the student's option choices synchronously; the submission
// row is written once, already scored. Late answers are flagged, not rejected.
func (s *dppService) SubmitMCQ(ctx context.Context, dppID, studentID uint, payload dto.MCQSubmitRequest) (dto.DPPSubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DPPSubmissionResponse{}, err
	}

	dpp, err := s.loadForStudent(ctx, dppID, studentID)
	if err != nil {
		return dto.DPPSubmissionResponse{}, err
	}

	if dpp.Type != models.DPPTypeMCQ {
		return dto.DPPSubmissionResponse{}, ErrWrongDPPType
	}

	inputs := make([]grading.MCQAnswerInput, 0, len(payload.Answers))
	for _, answer := range payload.Answers {
		inputs = append(inputs, grading.MCQAnswerInput{
			QuestionID:       answer.QuestionID,
			SelectedOptionID: answer.SelectedOptionID,
		})
	}

	graded, earned := grading.GradeMCQ(dpp.QuestionList(), inputs)

	now := s.now()
	submission := models.DPPSubmission{
		DPPID:       dpp.ID,
		StudentID:   studentID,
		Score:       earned,
		MaxScore:    dpp.MaxScore,
		IsLate:      dpp.IsPastDue(now),
		SubmittedAt: now,
		GradedAt:    &now,
	}
	submission.SetAnswers(graded)

	if err := s.dpps.CreateSubmissionIfAbsent(ctx, &submission); err != nil {
		if errors.Is(err, repository.ErrSubmissionConflict) {
			return dto.DPPSubmissionResponse{}, ErrAlreadySubmitted
		}
		return dto.DPPSubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("dpp_id", dpp.ID).
		Uint("student_id", studentID).
		Int("score", earned).
		Msg("mcq practice submitted and graded")

	return dto.NewDPPSubmissionResponse(submission), nil
}

// SubmitFiles uploads the student's files after checking count, size,
// extension and content-type limits. The submission row is reserved before
// anything is uploaded, so a concurrent duplicate submit loses the insert
// race without leaving orphaned uploads behind. The score stays zero until
// a teacher grades it.
func (s *dppService) SubmitFiles(ctx context.Context, dppID, studentID uint, files []*multipart.FileHeader) (dto.DPPSubmissionResponse, error) {
	if s.uploader == nil {
		return dto.DPPSubmissionResponse{}, ErrFileStorageUnavailable
	}

	dpp, err := s.loadForStudent(ctx, dppID, studentID)
	if err != nil {
		return dto.DPPSubmissionResponse{}, err
	}

	if dpp.Type != models.DPPTypeFile {
		return dto.DPPSubmissionResponse{}, ErrWrongDPPType
	}

	if len(files) == 0 {
		return dto.DPPSubmissionResponse{}, fmt.Errorf("at least one file is required")
	}
	if len(files) > dpp.MaxFiles {
		return dto.DPPSubmissionResponse{}, ErrTooManyFiles
	}

	for _, file := range files {
		if err := s.validateFile(file); err != nil {
			return dto.DPPSubmissionResponse{}, err
		}
	}

	now := s.now()
	submission := models.DPPSubmission{
		DPPID:       dpp.ID,
		StudentID:   studentID,
		MaxScore:    dpp.MaxScore,
		IsLate:      dpp.IsPastDue(now),
		SubmittedAt: now,
	}

	if err := s.dpps.CreateSubmissionIfAbsent(ctx, &submission); err != nil {
		if errors.Is(err, repository.ErrSubmissionConflict) {
			return dto.DPPSubmissionResponse{}, ErrAlreadySubmitted
		}
		return dto.DPPSubmissionResponse{}, err
	}

	uploaded, err := s.uploadFiles(ctx, dppID, studentID, files)
	if err != nil {
		if delErr := s.dpps.DeleteSubmission(ctx, submission.ID); delErr != nil {
			s.logger.Warn().Err(delErr).Uint("submission_id", submission.ID).Msg("failed to release submission after upload error")
		}
		return dto.DPPSubmissionResponse{}, err
	}

	submission.SetFileSubmissions(uploaded)
	if err := s.dpps.UpdateSubmission(ctx, &submission); err != nil {
		return dto.DPPSubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("dpp_id", dpp.ID).
		Uint("student_id", studentID).
		Int("files", len(uploaded)).
		Msg("file practice submitted")

	return dto.NewDPPSubmissionResponse(submission), nil
}

func (s *dppService) GradeFileSubmission(ctx context.Context, submissionID, teacherID uint, payload dto.DPPGradeRequest) (dto.DPPSubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DPPSubmissionResponse{}, err
	}

	submission, err := s.dpps.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DPPSubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.DPPSubmissionResponse{}, err
	}

	dpp, err := s.getOwned(ctx, submission.DPPID, teacherID)
	if err != nil {
		return dto.DPPSubmissionResponse{}, err
	}

	if payload.Score < 0 || payload.Score > dpp.MaxScore {
		return dto.DPPSubmissionResponse{}, ErrScoreOutOfRange
	}

	now := s.now()
	submission.Score = payload.Score
	submission.MaxScore = dpp.MaxScore
	submission.GradedAt = &now

	if err := s.dpps.UpdateSubmission(ctx, &submission); err != nil {
		return dto.DPPSubmissionResponse{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, Event{
			Type:        EventSubmissionGraded,
			ClassroomID: dpp.ClassroomID,
			EntityID:    submission.ID,
			ActorID:     teacherID,
		})
	}

	s.logger.Info().Uint("dpp_submission_id", submission.ID).Int("score", payload.Score).Msg("file practice graded")

	return dto.NewDPPSubmissionResponse(submission), nil
}

func (s *dppService) ListSubmissions(ctx context.Context, dppID, teacherID uint) ([]dto.DPPSubmissionResponse, error) {
	if _, err := s.getOwned(ctx, dppID, teacherID); err != nil {
		return nil, err
	}

	submissions, err := s.dpps.ListSubmissions(ctx, dppID)
	if err != nil {
		return nil, err
	}

	return dto.NewDPPSubmissionResponseSlice(submissions), nil
}

func (s *dppService) getOwned(ctx context.Context, id, teacherID uint) (models.DailyPracticeProblem, error) {
	dpp, err := s.dpps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DailyPracticeProblem{}, ErrDPPNotFound
		}
		return models.DailyPracticeProblem{}, err
	}
	if dpp.TeacherID != teacherID {
		return models.DailyPracticeProblem{}, ErrAccessDenied
	}
	return dpp, nil
}

func (s *dppService) loadForStudent(ctx context.Context, dppID, studentID uint) (models.DailyPracticeProblem, error) {
	dpp, err := s.dpps.GetByID(ctx, dppID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DailyPracticeProblem{}, ErrDPPNotFound
		}
		return models.DailyPracticeProblem{}, err
	}

	if _, err := authorizeStudent(ctx, s.classrooms, dpp.ClassroomID, studentID); err != nil {
		return models.DailyPracticeProblem{}, err
	}

	return dpp, nil
}

func (s *dppService) uploadFiles(ctx context.Context, dppID, studentID uint, files []*multipart.FileHeader) ([]models.SubmittedFile, error) {
	uploaded := make([]models.SubmittedFile, 0, len(files))
	for _, file := range files {
		reader, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}

		name := fmt.Sprintf("dpp-%d-%d-%s", dppID, studentID, file.Filename)
		url, err := s.uploader.Upload(ctx, name, reader)
		reader.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to upload file: %w", err)
		}

		uploaded = append(uploaded, models.SubmittedFile{
			Name: file.Filename,
			URL:  url,
			Size: file.Size,
		})
	}

	return uploaded, nil
}

// mimesByExtension lists the content types accepted for each uploadable
// extension. Extensions configured without an entry here skip the content
// check since no expectation can be derived for them.
var mimesByExtension = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".txt":  {"text/plain"},
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".zip":  {"application/zip"},
}

func (s *dppService) validateFile(file *multipart.FileHeader) error {
	if file.Size > s.limits.MaxFileBytes {
		return ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, candidate := range s.limits.AllowedExtensions {
		if ext == candidate {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrFileTypeNotAllowed
	}

	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	detected, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}
	if !mimeMatchesExtension(detected, ext) {
		return ErrFileTypeNotAllowed
	}

	return nil
}

func mimeMatchesExtension(detected *mimetype.MIME, ext string) bool {
	expected, ok := mimesByExtension[ext]
	if !ok {
		return true
	}
	for _, candidate := range expected {
		if detected.Is(candidate) {
			return true
		}
	}
	return false
}

func buildMCQQuestions(payloads []dto.MCQQuestionPayload) []models.MCQQuestion {
	questions := make([]models.MCQQuestion, 0, len(payloads))
	for _, payload := range payloads {
		marks := payload.Marks
		if marks <= 0 {
			marks = defaultMarksFor(payload.Difficulty)
		}

		question := models.MCQQuestion{
			ID:          uuid.NewString(),
			Text:        payload.Text,
			Marks:       marks,
			Difficulty:  payload.Difficulty,
			Explanation: payload.Explanation,
		}
		for _, option := range payload.Options {
			question.Options = append(question.Options, models.MCQOption{
				ID:        uuid.NewString(),
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
			})
		}
		questions = append(questions, question)
	}
	return questions
}

func buildPracticeFiles(payloads []dto.PracticeFilePayload) []models.PracticeFile {
	files := make([]models.PracticeFile, 0, len(payloads))
	for _, payload := range payloads {
		files = append(files, models.PracticeFile{
			Name:       payload.Name,
			URL:        payload.URL,
			Difficulty: payload.Difficulty,
			Points:     payload.Points,
		})
	}
	return files
}

func defaultMarksFor(difficulty string) int {
	switch difficulty {
	case models.DifficultyMedium:
		return 2
	case models.DifficultyHard:
		return 3
	default:
		return 1
	}
}
