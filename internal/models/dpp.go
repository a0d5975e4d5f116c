package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	// DPPTypeMCQ is a daily practice problem answered via multiple choice.
	DPPTypeMCQ = "mcq"
	// DPPTypeFile is a daily practice problem answered by uploading files.
	DPPTypeFile = "file"
)

const (
	// DifficultyEasy is worth 1 mark by default.
	DifficultyEasy = "easy"
	// DifficultyMedium is worth 2 marks by default.
	DifficultyMedium = "medium"
	// DifficultyHard is worth 3 marks by default.
	DifficultyHard = "hard"
)

// MCQOption is one selectable option of a multiple choice question.
type MCQOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// MCQQuestion is a single multiple choice question embedded in a DPP.
type MCQQuestion struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	Options     []MCQOption `json:"options"`
	Marks       int         `json:"marks"`
	Difficulty  string      `json:"difficulty"`
	Explanation string      `json:"explanation,omitempty"`
}

// PracticeFile describes a file attachment students work through for a file DPP.
type PracticeFile struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Difficulty string `json:"difficulty"`
	Points     int    `json:"points"`
}

// DailyPracticeProblem is a lightweight quiz or file exercise, visible to
// students as soon as it is created.
type DailyPracticeProblem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ClassroomID uint            `gorm:"not null;index" json:"classroom_id"`
	TeacherID   uint            `gorm:"not null;index" json:"teacher_id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Type        string          `gorm:"size:32;not null" json:"type"`
	Questions   datatypes.JSON  `gorm:"type:json" json:"-"`
	Files       datatypes.JSON  `gorm:"type:json" json:"-"`
	MaxScore    int             `gorm:"not null;default:0" json:"max_score"`
	DueDate     time.Time       `gorm:"not null" json:"due_date"`
	MaxFiles    int             `gorm:"not null;default:5" json:"max_files"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Submissions []DPPSubmission `gorm:"foreignKey:DPPID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// MCQAnswer is one graded answer inside a DPP submission.
type MCQAnswer struct {
	QuestionID       string `json:"question_id"`
	SelectedOptionID string `json:"selected_option_id"`
	IsCorrect        bool   `json:"is_correct"`
	MarksEarned      int    `json:"marks_earned"`
}

// SubmittedFile records one uploaded file of a file-type DPP submission.
type SubmittedFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// DPPSubmission is a student's answer set for a daily practice problem. A
// student may appear at most once per DPP.
type DPPSubmission struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	DPPID           uint                 `gorm:"column:dpp_id;not null;uniqueIndex:idx_dpp_student" json:"dpp_id"`
	StudentID       uint                 `gorm:"not null;uniqueIndex:idx_dpp_student" json:"student_id"`
	Answers         datatypes.JSON       `gorm:"type:json" json:"-"`
	FileSubmissions datatypes.JSON       `gorm:"type:json" json:"-"`
	Score           int                  `gorm:"not null;default:0" json:"score"`
	MaxScore        int                  `gorm:"not null;default:0" json:"max_score"`
	IsLate          bool                 `gorm:"not null;default:false" json:"is_late"`
	SubmittedAt     time.Time            `json:"submitted_at"`
	GradedAt        *time.Time           `json:"graded_at"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	DPP             DailyPracticeProblem `gorm:"foreignKey:DPPID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student         Student              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
}

// TableName keeps the abbreviation lowercase in the schema.
func (DailyPracticeProblem) TableName() string { return "daily_practice_problems" }

// TableName matches the dpp_id foreign key column.
func (DPPSubmission) TableName() string { return "dpp_submissions" }

// SetQuestions serializes the MCQ list into the JSON storage column.
func (d *DailyPracticeProblem) SetQuestions(questions []MCQQuestion) {
	data, err := json.Marshal(questions)
	if err != nil {
		d.Questions = datatypes.JSON([]byte("[]"))
		return
	}
	d.Questions = datatypes.JSON(data)
}

// QuestionList deserializes the stored MCQ questions.
func (d DailyPracticeProblem) QuestionList() []MCQQuestion {
	if len(d.Questions) == 0 {
		return nil
	}

	var questions []MCQQuestion
	if err := json.Unmarshal(d.Questions, &questions); err != nil {
		return nil
	}

	return questions
}

// SetFiles serializes the practice file list into the JSON storage column.
func (d *DailyPracticeProblem) SetFiles(files []PracticeFile) {
	data, err := json.Marshal(files)
	if err != nil {
		d.Files = datatypes.JSON([]byte("[]"))
		return
	}
	d.Files = datatypes.JSON(data)
}

// FileList deserializes the stored practice files.
func (d DailyPracticeProblem) FileList() []PracticeFile {
	if len(d.Files) == 0 {
		return nil
	}

	var files []PracticeFile
	if err := json.Unmarshal(d.Files, &files); err != nil {
		return nil
	}

	return files
}

// IsPastDue returns true when the practice deadline has already passed.
func (d DailyPracticeProblem) IsPastDue(reference time.Time) bool {
	return reference.After(d.DueDate)
}

// SetAnswers serializes graded answers into the JSON storage column.
func (s *DPPSubmission) SetAnswers(answers []MCQAnswer) {
	data, err := json.Marshal(answers)
	if err != nil {
		s.Answers = datatypes.JSON([]byte("[]"))
		return
	}
	s.Answers = datatypes.JSON(data)
}

// AnswerList deserializes the stored graded answers.
func (s DPPSubmission) AnswerList() []MCQAnswer {
	if len(s.Answers) == 0 {
		return nil
	}

	var answers []MCQAnswer
	if err := json.Unmarshal(s.Answers, &answers); err != nil {
		return nil
	}

	return answers
}

// SetFileSubmissions serializes uploaded file records into the JSON column.
func (s *DPPSubmission) SetFileSubmissions(files []SubmittedFile) {
	data, err := json.Marshal(files)
	if err != nil {
		s.FileSubmissions = datatypes.JSON([]byte("[]"))
		return
	}
	s.FileSubmissions = datatypes.JSON(data)
}

// FileSubmissionList deserializes the stored uploaded files.
func (s DPPSubmission) FileSubmissionList() []SubmittedFile {
	if len(s.FileSubmissions) == 0 {
		return nil
	}

	var files []SubmittedFile
	if err := json.Unmarshal(s.FileSubmissions, &files); err != nil {
		return nil
	}

	return files
}

// IsValidDifficulty reports whether the supplied difficulty is recognized.
func IsValidDifficulty(difficulty string) bool {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// IsValidDPPType reports whether the supplied DPP type is recognized.
func IsValidDPPType(kind string) bool {
	switch kind {
	case DPPTypeMCQ, DPPTypeFile:
		return true
	default:
		return false
	}
}
