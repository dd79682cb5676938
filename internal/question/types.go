package question

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty values accepted for a question.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Media types accepted for attachments.
const (
	MediaTypeImage   = "image"
	MediaTypeVideo   = "video"
	MediaTypeRaw     = "raw"
	MediaTypeURL     = "url"
	MediaTypeYouTube = "youtube"
)

// URLMimeType marks media entries that reference an external URL and
// therefore carry no size.
const URLMimeType = "text/url"

// Categories form the top level of the classification taxonomy.
var Categories = []string{"Basic Sciences", "Organ Systems", "Clinical Specialties"}

// Media is an attachment bound to a question, an option or an explanation.
type Media struct {
	Type         string `bson:"type" json:"type"`
	Path         string `bson:"path" json:"path"`
	Filename     string `bson:"filename" json:"filename"`
	OriginalName string `bson:"originalname" json:"originalname"`
	MimeType     string `bson:"mimetype" json:"mimetype"`
	Size         int64  `bson:"size,omitempty" json:"size,omitempty"`
}

// Option is a single answer choice.
type Option struct {
	Text  string  `bson:"text" json:"text"`
	Media []Media `bson:"media" json:"media"`
}

// Subject classifies a question; a subject groups zero or more topics.
type Subject struct {
	Name   string   `bson:"name" json:"name"`
	Topics []string `bson:"topics" json:"topics"`
}

// Question is the stored quiz item.
type Question struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	QuestionText     string             `bson:"questionText" json:"questionText"`
	QuestionMedia    []Media            `bson:"questionMedia" json:"questionMedia"`
	Options          []Option           `bson:"options" json:"options"`
	CorrectAnswer    *int               `bson:"correctAnswer,omitempty" json:"correctAnswer,omitempty"`
	Explanation      string             `bson:"explanation" json:"explanation"`
	ExplanationMedia []Media            `bson:"explanationMedia" json:"explanationMedia"`
	Category         string             `bson:"category" json:"category"`
	Subjects         []Subject          `bson:"subjects" json:"subjects"`
	Difficulty       string             `bson:"difficulty" json:"difficulty"`
	Tags             []string           `bson:"tags" json:"tags"`
	SourceURL        string             `bson:"sourceUrl,omitempty" json:"sourceUrl,omitempty"`
	CreatedBy        primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedByName    string             `bson:"-" json:"createdByName,omitempty"`
	Approved         bool               `bson:"approved" json:"approved"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AllMedia gathers every attachment across the question, its options and its
// explanation.
func (q *Question) AllMedia() []Media {
	media := make([]Media, 0, len(q.QuestionMedia)+len(q.ExplanationMedia))
	media = append(media, q.QuestionMedia...)
	for _, opt := range q.Options {
		media = append(media, opt.Media...)
	}
	media = append(media, q.ExplanationMedia...)
	return media
}

// ValidMediaType reports whether t is one of the accepted media types.
func ValidMediaType(t string) bool {
	switch t {
	case MediaTypeImage, MediaTypeVideo, MediaTypeRaw, MediaTypeURL, MediaTypeYouTube:
		return true
	}
	return false
}

// ValidDifficulty reports whether d is one of the accepted difficulties.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
