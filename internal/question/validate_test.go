package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"questionText":  "What is the powerhouse of the cell?",
		"explanation":   "Mitochondria produce most of the cell's ATP.",
		"options":       []interface{}{"Mitochondria", "Nucleus", "Ribosome", "Golgi apparatus"},
		"correctAnswer": float64(0),
		"category":      "Basic Sciences",
		"subjects": []interface{}{
			map[string]interface{}{"name": "Biochemistry", "topics": []interface{}{"Metabolism"}},
		},
		"difficulty": "easy",
	}
}

func TestNormalizeValidSubmission(t *testing.T) {
	q, verr := Normalize(validBody(), ModeCreate)
	require.Nil(t, verr)

	assert.Equal(t, "What is the powerhouse of the cell?", q.QuestionText)
	assert.Len(t, q.Options, 4)
	require.NotNil(t, q.CorrectAnswer)
	assert.Equal(t, 0, *q.CorrectAnswer)
	assert.Equal(t, "Basic Sciences", q.Category)
	require.Len(t, q.Subjects, 1)
	assert.Equal(t, "Biochemistry", q.Subjects[0].Name)
	assert.Equal(t, []string{"Metabolism"}, q.Subjects[0].Topics)
	assert.Equal(t, "easy", q.Difficulty)
	assert.NotNil(t, q.QuestionMedia)
	assert.NotNil(t, q.ExplanationMedia)
}

func TestNormalizeFirstFailureWins(t *testing.T) {
	// Everything is wrong; only the first rule in order should be reported.
	body := map[string]interface{}{
		"questionText": "",
		"explanation":  "",
		"options":      "nope",
		"difficulty":   "impossible",
	}
	_, verr := Normalize(body, ModeCreate)
	require.NotNil(t, verr)
	assert.Equal(t, "questionText", verr.Field)
	assert.Equal(t, "missing_field", verr.Code)
}

func TestNormalizeRequiredFields(t *testing.T) {
	cases := []struct {
		field   string
		message string
	}{
		{"questionText", "Question text is required"},
		{"explanation", "Explanation is required"},
		{"category", "Category is required"},
		{"difficulty", "Difficulty is required"},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			body := validBody()
			delete(body, tc.field)
			_, verr := Normalize(body, ModeCreate)
			require.NotNil(t, verr)
			assert.Equal(t, "missing_field", verr.Code)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.message, verr.Message)
		})
	}
}

func TestNormalizeWhitespaceOnlyIsMissing(t *testing.T) {
	body := validBody()
	body["questionText"] = "   "
	_, verr := Normalize(body, ModeCreate)
	require.NotNil(t, verr)
	assert.Equal(t, "questionText", verr.Field)
	assert.Equal(t, "missing_field", verr.Code)
}

func TestNormalizeOptionsShape(t *testing.T) {
	body := validBody()
	body["options"] = "not-an-array"
	_, verr := Normalize(body, ModeCreate)
	require.NotNil(t, verr)
	assert.Equal(t, "invalid_structure", verr.Code)
	assert.Equal(t, "options", verr.Field)
}

func TestNormalizeZeroOptionsAllowedOnCreate(t *testing.T) {
	body := validBody()
	body["options"] = []interface{}{}
	delete(body, "correctAnswer")

	q, verr := Normalize(body, ModeCreate)
	require.Nil(t, verr)
	assert.Empty(t, q.Options)
	assert.Nil(t, q.CorrectAnswer)
}

func TestNormalizeCorrectAnswerRules(t *testing.T) {
	t.Run("required when options present", func(t *testing.T) {
		body := validBody()
		delete(body, "correctAnswer")
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "missing_field", verr.Code)
		assert.Equal(t, "correctAnswer", verr.Field)
	})

	t.Run("index past the end", func(t *testing.T) {
		body := validBody()
		body["correctAnswer"] = float64(4)
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "out_of_range", verr.Code)
	})

	t.Run("negative index", func(t *testing.T) {
		body := validBody()
		body["correctAnswer"] = float64(-1)
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "out_of_range", verr.Code)
	})

	t.Run("zero index is valid", func(t *testing.T) {
		body := validBody()
		body["correctAnswer"] = float64(0)
		_, verr := Normalize(body, ModeCreate)
		assert.Nil(t, verr)
	})
}

func TestNormalizeUpdateRequiresTwoOptions(t *testing.T) {
	body := validBody()
	body["options"] = []interface{}{"only one"}
	body["correctAnswer"] = float64(0)

	_, verr := Normalize(body, ModeUpdate)
	require.NotNil(t, verr)
	assert.Equal(t, "invalid_structure", verr.Code)
	assert.Equal(t, "options", verr.Field)
}

func TestNormalizeSubjects(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		body := validBody()
		delete(body, "subjects")
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "missing_field", verr.Code)
		assert.Equal(t, "subjects", verr.Field)
	})

	t.Run("empty list", func(t *testing.T) {
		body := validBody()
		body["subjects"] = []interface{}{}
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "missing_field", verr.Code)
	})

	t.Run("subject without name", func(t *testing.T) {
		body := validBody()
		body["subjects"] = []interface{}{map[string]interface{}{"topics": []interface{}{"x"}}}
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "invalid_structure", verr.Code)
	})

	t.Run("topics not an array", func(t *testing.T) {
		body := validBody()
		body["subjects"] = []interface{}{map[string]interface{}{"name": "Anatomy", "topics": "Head"}}
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "invalid_structure", verr.Code)
	})

	t.Run("topics optional", func(t *testing.T) {
		body := validBody()
		body["subjects"] = []interface{}{map[string]interface{}{"name": "Anatomy"}}
		q, verr := Normalize(body, ModeCreate)
		require.Nil(t, verr)
		assert.Equal(t, "Anatomy", q.Subjects[0].Name)
		assert.Equal(t, []string{}, q.Subjects[0].Topics, "topics normalize to an empty array, not nil")
	})
}

func TestNormalizeDifficultyEnum(t *testing.T) {
	body := validBody()
	body["difficulty"] = "impossible"
	_, verr := Normalize(body, ModeCreate)
	require.NotNil(t, verr)
	assert.Equal(t, "invalid_enum", verr.Code)
	assert.Equal(t, "difficulty", verr.Field)
}

func TestNormalizeMediaRules(t *testing.T) {
	upload := func() map[string]interface{} {
		return map[string]interface{}{
			"type":         "image",
			"path":         "https://cdn.example.com/a.png",
			"filename":     "a.png",
			"originalname": "anatomy.png",
			"mimetype":     "image/png",
			"size":         float64(2048),
		}
	}

	t.Run("valid upload", func(t *testing.T) {
		body := validBody()
		body["questionMedia"] = []interface{}{upload()}
		q, verr := Normalize(body, ModeCreate)
		require.Nil(t, verr)
		require.Len(t, q.QuestionMedia, 1)
		assert.Equal(t, int64(2048), q.QuestionMedia[0].Size)
	})

	t.Run("missing descriptor field", func(t *testing.T) {
		item := upload()
		delete(item, "path")
		body := validBody()
		body["questionMedia"] = []interface{}{item}
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "missing_field", verr.Code)
	})

	t.Run("size required for uploads", func(t *testing.T) {
		item := upload()
		delete(item, "size")
		body := validBody()
		body["questionMedia"] = []interface{}{item}
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "missing_field", verr.Code)
	})

	t.Run("size not required for url references", func(t *testing.T) {
		item := upload()
		item["type"] = "url"
		item["mimetype"] = "text/url"
		delete(item, "size")
		body := validBody()
		body["explanationMedia"] = []interface{}{item}
		q, verr := Normalize(body, ModeCreate)
		require.Nil(t, verr)
		require.Len(t, q.ExplanationMedia, 1)
		assert.Zero(t, q.ExplanationMedia[0].Size)
	})

	t.Run("unknown media type", func(t *testing.T) {
		item := upload()
		item["type"] = "hologram"
		body := validBody()
		body["questionMedia"] = []interface{}{item}
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "invalid_enum", verr.Code)
	})

	t.Run("option media labeled by letter", func(t *testing.T) {
		item := upload()
		delete(item, "filename")
		body := validBody()
		body["options"] = []interface{}{
			"plain",
			map[string]interface{}{"text": "with media", "media": []interface{}{item}},
		}
		body["correctAnswer"] = float64(0)
		_, verr := Normalize(body, ModeCreate)
		require.NotNil(t, verr)
		assert.Equal(t, "Option B media", verr.Field)
	})
}

func TestNormalizeOptionShapes(t *testing.T) {
	body := validBody()
	body["options"] = []interface{}{
		"plain string",
		map[string]interface{}{"text": "object option"},
		float64(42),
	}
	body["correctAnswer"] = float64(1)

	q, verr := Normalize(body, ModeCreate)
	require.Nil(t, verr)
	require.Len(t, q.Options, 3)
	assert.Equal(t, "plain string", q.Options[0].Text)
	assert.Equal(t, "object option", q.Options[1].Text)
	assert.Equal(t, "", q.Options[2].Text)
	for _, opt := range q.Options {
		assert.NotNil(t, opt.Media)
	}
}

func TestNormalizeTagsAndSourceURL(t *testing.T) {
	body := validBody()
	body["tags"] = []interface{}{" pharm ", "cardio"}
	body["sourceUrl"] = "https://example.com/ref"

	q, verr := Normalize(body, ModeCreate)
	require.Nil(t, verr)
	assert.Equal(t, []string{"pharm", "cardio"}, q.Tags)
	assert.Equal(t, "https://example.com/ref", q.SourceURL)
}
