package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// loosePayload is the shape we are willing to accept from a completion model
// before normalization. Every field is optional; NormalizeQuestion fills the
// gaps deterministically.
type loosePayload struct {
	Questions []looseQuestion `json:"questions"`
}

type looseQuestion struct {
	Text        string        `json:"text"`
	Question    string        `json:"question"`
	Options     []looseOption `json:"options"`
	Explanation string        `json:"explanation"`
	Difficulty  string        `json:"difficulty"`
	Marks       int           `json:"marks"`
}

type looseOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Correct   bool   `json:"correct"`
}

var typographicReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"–", "-",
	"—", "-",
)

// RepairResponse turns a raw completion body into parsed questions. It strips
// Markdown code fences, normalizes typographic quotes and dashes, extracts the
// first top-level JSON object from the surrounding prose and decodes it. A
// body with no parseable object is an error; the caller treats that as a
// failed model attempt.
func RepairResponse(body string, req GenerateRequest) ([]Question, error) {
	cleaned := typographicReplacer.Replace(StripCodeFences(body))

	object, err := ExtractJSONObject(cleaned)
	if err != nil {
		return nil, err
	}

	var payload loosePayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		return nil, fmt.Errorf("parse questions json: %w", err)
	}

	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("response contained no questions")
	}

	limit := len(payload.Questions)
	if req.Count > 0 && req.Count < limit {
		limit = req.Count
	}

	questions := make([]Question, 0, limit)
	for _, loose := range payload.Questions[:limit] {
		questions = append(questions, NormalizeQuestion(loose, req))
	}

	return questions, nil
}

// StripCodeFences removes a surrounding Markdown code fence, if present.
func StripCodeFences(body string) string {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		// drop the language tag line, e.g. ```json
		if lang := strings.TrimSpace(trimmed[:newline]); lang == "" || !strings.ContainsAny(lang, "{}[]") {
			trimmed = trimmed[newline+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

// ExtractJSONObject returns the first balanced top-level JSON object in the
// input, ignoring braces inside string literals.
func ExtractJSONObject(body string) (string, error) {
	start := strings.IndexByte(body, '{')
	if start < 0 {
		return "", fmt.Errorf("no json object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(body); i++ {
		ch := body[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return body[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unterminated json object in response")
}

// NormalizeQuestion coerces a loosely shaped question into the strict output
// contract: exactly four options, exactly one marked correct, explanation and
// difficulty/marks defaults filled from the request.
func NormalizeQuestion(loose looseQuestion, req GenerateRequest) Question {
	text := strings.TrimSpace(loose.Text)
	if text == "" {
		text = strings.TrimSpace(loose.Question)
	}

	options := make([]Option, 0, OptionCount)
	for _, opt := range loose.Options {
		if len(options) == OptionCount {
			break
		}
		options = append(options, Option{
			ID:        uuid.NewString(),
			Text:      strings.TrimSpace(opt.Text),
			IsCorrect: opt.IsCorrect || opt.Correct,
		})
	}
	for len(options) < OptionCount {
		options = append(options, Option{
			ID:   uuid.NewString(),
			Text: fmt.Sprintf("Option %d", len(options)+1),
		})
	}

	correct := 0
	for _, opt := range options {
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		for i := range options {
			options[i].IsCorrect = i == 0
		}
	}

	difficulty := NormalizeDifficulty(loose.Difficulty)
	if loose.Difficulty == "" {
		difficulty = NormalizeDifficulty(req.Difficulty)
	}

	marks := loose.Marks
	if marks <= 0 {
		marks = DefaultMarks(difficulty)
	}

	explanation := strings.TrimSpace(loose.Explanation)
	if explanation == "" {
		explanation = fmt.Sprintf("The correct answer is %q.", correctOptionText(options))
	}

	return Question{
		Text:        text,
		Options:     options,
		Explanation: explanation,
		Difficulty:  difficulty,
		Marks:       marks,
	}
}

func correctOptionText(options []Option) string {
	for _, opt := range options {
		if opt.IsCorrect {
			return opt.Text
		}
	}
	return ""
}
