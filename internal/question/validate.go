package question

import (
	"fmt"
	"strings"

	"github.com/synapaxon/question-bank/pkg/http/envelope"
)

// Mode selects which rule set Normalize applies. Update mode requires at
// least two options and always validates the correct answer index.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// ValidationError is the structured reason a submission was rejected. The
// pipeline stops at the first violated rule, so a submission maps to exactly
// one reason.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func missingField(field, message string) *ValidationError {
	return &ValidationError{Code: envelope.CodeMissingField, Field: field, Message: message}
}

func invalidStructure(field, message string) *ValidationError {
	return &ValidationError{Code: envelope.CodeInvalidStructure, Field: field, Message: message}
}

func invalidEnum(field, message string) *ValidationError {
	return &ValidationError{Code: envelope.CodeInvalidEnum, Field: field, Message: message}
}

func outOfRange(field, message string) *ValidationError {
	return &ValidationError{Code: envelope.CodeOutOfRange, Field: field, Message: message}
}

// Normalize checks a raw question submission rule by rule and, when every
// rule passes, returns the normalized question record. The caller attaches
// ownership, timestamps and the approval flag before persisting.
func Normalize(body map[string]interface{}, mode Mode) (*Question, *ValidationError) {
	questionText, ok := nonEmptyString(body["questionText"])
	if !ok {
		return nil, missingField("questionText", "Question text is required")
	}

	explanation, ok := nonEmptyString(body["explanation"])
	if !ok {
		return nil, missingField("explanation", "Explanation is required")
	}

	rawOptions, optionsIsArray := body["options"].([]interface{})

	var correctAnswer *int
	switch mode {
	case ModeCreate:
		if !optionsIsArray {
			return nil, invalidStructure("options", "Options must be an array")
		}
		// A question may legally carry zero options (open-ended); the
		// correct answer is only meaningful when options exist.
		if len(rawOptions) > 0 {
			idx, present := intValue(body["correctAnswer"])
			if !present {
				return nil, missingField("correctAnswer", "Correct answer is required when options are provided")
			}
			if idx < 0 || idx >= len(rawOptions) {
				return nil, outOfRange("correctAnswer", "Correct answer must be a valid option index")
			}
			correctAnswer = &idx
		}
	case ModeUpdate:
		if !optionsIsArray || len(rawOptions) < 2 {
			return nil, invalidStructure("options", "At least two options are required")
		}
		idx, present := intValue(body["correctAnswer"])
		if !present || idx < 0 || idx >= len(rawOptions) {
			return nil, outOfRange("correctAnswer", "Correct answer must be a valid option index")
		}
		correctAnswer = &idx
	}

	category, ok := nonEmptyString(body["category"])
	if !ok {
		return nil, missingField("category", "Category is required")
	}

	rawSubjects, ok := body["subjects"].([]interface{})
	if !ok || len(rawSubjects) == 0 {
		return nil, missingField("subjects", "At least one subject is required")
	}
	subjects := make([]Subject, 0, len(rawSubjects))
	for _, raw := range rawSubjects {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return nil, invalidStructure("subjects", "Each subject must have a valid name")
		}
		name, ok := nonEmptyString(obj["name"])
		if !ok {
			return nil, invalidStructure("subjects", "Each subject must have a valid name")
		}
		subject := Subject{Name: name, Topics: []string{}}
		if rawTopics, present := obj["topics"]; present && rawTopics != nil {
			topicList, ok := rawTopics.([]interface{})
			if !ok {
				return nil, invalidStructure("subjects", "Subject topics must be an array")
			}
			for _, t := range topicList {
				topic, ok := t.(string)
				if !ok {
					return nil, invalidStructure("subjects", "Subject topics must be an array")
				}
				subject.Topics = append(subject.Topics, strings.TrimSpace(topic))
			}
		}
		subjects = append(subjects, subject)
	}

	difficulty, ok := nonEmptyString(body["difficulty"])
	if !ok {
		return nil, missingField("difficulty", "Difficulty is required")
	}
	if !ValidDifficulty(difficulty) {
		return nil, invalidEnum("difficulty", "Difficulty must be one of: easy, medium, hard")
	}

	questionMedia, verr := normalizeMedia(body["questionMedia"], "Question media")
	if verr != nil {
		return nil, verr
	}
	explanationMedia, verr := normalizeMedia(body["explanationMedia"], "Explanation media")
	if verr != nil {
		return nil, verr
	}

	options := make([]Option, 0, len(rawOptions))
	for i, raw := range rawOptions {
		label := fmt.Sprintf("Option %c media", 'A'+i)
		switch v := raw.(type) {
		case string:
			options = append(options, Option{Text: v, Media: []Media{}})
		case map[string]interface{}:
			media, verr := normalizeMedia(v["media"], label)
			if verr != nil {
				return nil, verr
			}
			text, _ := v["text"].(string)
			options = append(options, Option{Text: text, Media: media})
		default:
			options = append(options, Option{Text: "", Media: []Media{}})
		}
	}

	return &Question{
		QuestionText:     strings.TrimSpace(questionText),
		QuestionMedia:    questionMedia,
		Options:          options,
		CorrectAnswer:    correctAnswer,
		Explanation:      strings.TrimSpace(explanation),
		ExplanationMedia: explanationMedia,
		Category:         category,
		Subjects:         subjects,
		Difficulty:       difficulty,
		Tags:             stringSlice(body["tags"]),
		SourceURL:        stringValue(body["sourceUrl"]),
	}, nil
}

// normalizeMedia checks the shape of one media array and converts it. A nil
// value normalizes to an empty slice.
func normalizeMedia(raw interface{}, fieldName string) ([]Media, *ValidationError) {
	if raw == nil {
		return []Media{}, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, invalidStructure(fieldName, fmt.Sprintf("%s must be an array", fieldName))
	}

	lower := strings.ToLower(fieldName)
	media := make([]Media, 0, len(items))
	for _, rawItem := range items {
		obj, ok := rawItem.(map[string]interface{})
		if !ok {
			return nil, missingField(fieldName, fmt.Sprintf("Each %s object must include filename, originalname, mimetype, and path", lower))
		}
		filename, okF := nonEmptyString(obj["filename"])
		originalName, okO := nonEmptyString(obj["originalname"])
		mimeType, okM := nonEmptyString(obj["mimetype"])
		path, okP := nonEmptyString(obj["path"])
		if !okF || !okO || !okM || !okP {
			return nil, missingField(fieldName, fmt.Sprintf("Each %s object must include filename, originalname, mimetype, and path", lower))
		}

		var size int64
		if mimeType != URLMimeType {
			n, present := intValue(obj["size"])
			if !present {
				return nil, missingField(fieldName, fmt.Sprintf("Each %s object must include size (except for URLs)", lower))
			}
			size = int64(n)
		}

		mediaType, _ := obj["type"].(string)
		if !ValidMediaType(mediaType) {
			return nil, invalidEnum(fieldName, fmt.Sprintf("Each %s object must have a valid type: image, video, raw, url, or youtube", lower))
		}

		media = append(media, Media{
			Type:         mediaType,
			Path:         path,
			Filename:     filename,
			OriginalName: originalName,
			MimeType:     mimeType,
			Size:         size,
		})
	}
	return media, nil
}

func nonEmptyString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// intValue accepts the numeric shapes a decoded JSON body can carry.
func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}
