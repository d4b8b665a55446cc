// Package survey holds the per-day check-in questions and the rules for
// answering them. Courses edits the questions, attendance stores the answers.
package survey

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	TypeText           = "text"
	TypeRating         = "rating"
	TypeMultipleChoice = "multiple_choice"
	TypeYesNo          = "yes_no"

	RatingMin = 1
	RatingMax = 5

	MaxQuestionLen = 1000
	MaxAnswerLen   = 5000
)

type Question struct {
	QuestionID   uint64
	CourseDayID  uint64
	Text         string
	Type         string
	Options      []string
	Required     bool
	DisplayOrder int
}

// Error は入力内容の誤り（呼び出し側で INVALID_ARGUMENT にする）
type Error string

func (e Error) Error() string { return string(e) }

func ValidType(t string) bool {
	switch t {
	case TypeText, TypeRating, TypeMultipleChoice, TypeYesNo:
		return true
	}
	return false
}

// Check validates a question definition before it is stored.
func (q Question) Check() error {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return Error("question_text is required")
	}
	if utf8.RuneCountInString(text) > MaxQuestionLen {
		return Error(fmt.Sprintf("question_text must be at most %d characters", MaxQuestionLen))
	}
	if !ValidType(q.Type) {
		return Error("question_type must be text, rating, multiple_choice or yes_no")
	}
	if q.Type == TypeMultipleChoice {
		if len(q.Options) == 0 {
			return Error("multiple_choice questions need options")
		}
		seen := map[string]bool{}
		for _, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return Error("options must not be blank")
			}
			if seen[o] {
				return Error(fmt.Sprintf("duplicate option %q", o))
			}
			seen[o] = true
		}
	}
	return nil
}

// EncodeOptions は JSON カラム用の値を返す。選択肢なしは NULL。
func EncodeOptions(opts []string) (any, error) {
	if len(opts) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func DecodeOptions(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return out, nil
}

// Answers checks raw check-in responses against the questions of the day and
// returns the values to store, keyed by question id. Blank answers are dropped,
// but a required question must have one.
func Answers(questions []Question, raw map[uint64]any) (map[uint64]string, error) {
	byID := make(map[uint64]Question, len(questions))
	for _, q := range questions {
		byID[q.QuestionID] = q
	}

	out := make(map[uint64]string, len(raw))
	for _, id := range sortedKeys(raw) {
		q, ok := byID[id]
		if !ok {
			return nil, Error(fmt.Sprintf("question %d is not part of this day", id))
		}
		v, err := stringify(raw[id])
		if err != nil {
			return nil, Error(fmt.Sprintf("question %d: %v", id, err))
		}
		if v == "" {
			continue
		}
		if v, err = normalize(q, v); err != nil {
			return nil, err
		}
		out[id] = v
	}

	for _, q := range questions {
		if _, ok := out[q.QuestionID]; q.Required && !ok {
			return nil, Error(fmt.Sprintf("answer required: %s", q.Text))
		}
	}
	return out, nil
}

func stringify(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(x), nil
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10), nil
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		if x {
			return "Yes", nil
		}
		return "No", nil
	default:
		return "", fmt.Errorf("unsupported answer type %T", v)
	}
}

func normalize(q Question, v string) (string, error) {
	switch q.Type {
	case TypeRating:
		n, err := strconv.Atoi(v)
		if err != nil || n < RatingMin || n > RatingMax {
			return "", Error(fmt.Sprintf("%s: rating must be %d-%d", q.Text, RatingMin, RatingMax))
		}
		return strconv.Itoa(n), nil
	case TypeYesNo:
		switch strings.ToLower(v) {
		case "yes", "true":
			return "Yes", nil
		case "no", "false":
			return "No", nil
		}
		return "", Error(fmt.Sprintf("%s: answer must be Yes or No", q.Text))
	case TypeMultipleChoice:
		if !slices.Contains(q.Options, v) {
			return "", Error(fmt.Sprintf("%s: %q is not one of the options", q.Text, v))
		}
		return v, nil
	default:
		if utf8.RuneCountInString(v) > MaxAnswerLen {
			return "", Error(fmt.Sprintf("%s: answer must be at most %d characters", q.Text, MaxAnswerLen))
		}
		return v, nil
	}
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SortedIDs returns the question ids of answers in ascending order.
func SortedIDs(answers map[uint64]string) []uint64 { return sortedKeys(answers) }
