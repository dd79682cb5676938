package question

import (
	"errors"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrForbiddenScope is returned when a non-admin caller asks for another
// user's questions. It fires before any query is built or executed; the
// HTTP layer owns the user-facing message.
var ErrForbiddenScope = errors.New("forbidden listing scope")

// Identity is the authenticated caller as seen by the question domain.
type Identity struct {
	UserID primitive.ObjectID
	Role   string
}

// IsAdmin reports whether the caller carries the elevated role.
func (id Identity) IsAdmin() bool { return id.Role == "admin" }

// Predicate is one node of the filter tree. Filters are assembled as an
// explicit AND/OR tree so independent OR-groups (subject/topic matching and
// media presence) conjoin instead of overwriting each other.
type Predicate interface {
	BSON() bson.M
}

// Equals matches a field exactly.
type Equals struct {
	Field string
	Value interface{}
}

func (p Equals) BSON() bson.M { return bson.M{p.Field: p.Value} }

// In matches a field against a value set.
type In struct {
	Field  string
	Values []string
}

func (p In) BSON() bson.M { return bson.M{p.Field: bson.M{"$in": p.Values}} }

// ElemMatch requires a single array element to satisfy every condition
// simultaneously.
type ElemMatch struct {
	Field string
	Match bson.M
}

func (p ElemMatch) BSON() bson.M { return bson.M{p.Field: bson.M{"$elemMatch": p.Match}} }

// NotEmpty requires an array field to hold at least one element.
type NotEmpty struct {
	Field string
}

func (p NotEmpty) BSON() bson.M { return bson.M{p.Field: bson.M{"$ne": bson.A{}}} }

// Or is a disjunction of predicates.
type Or struct {
	Preds []Predicate
}

func (p Or) BSON() bson.M {
	clauses := make(bson.A, 0, len(p.Preds))
	for _, pred := range p.Preds {
		clauses = append(clauses, pred.BSON())
	}
	return bson.M{"$or": clauses}
}

// And is a conjunction of predicates. Children rendering to the same key
// (two $or groups) are conjoined under $and rather than overwriting.
type And struct {
	Preds []Predicate
}

func (p And) BSON() bson.M {
	out := bson.M{}
	var colliding bson.A
	for _, pred := range p.Preds {
		for key, value := range pred.BSON() {
			if _, exists := out[key]; exists {
				colliding = append(colliding, bson.M{key: value})
				continue
			}
			out[key] = value
		}
	}
	if len(colliding) > 0 {
		out["$and"] = colliding
	}
	return out
}

// ListParams are the optional, independently combinable listing filters.
type ListParams struct {
	Category      string
	Subjects      []string
	SubjectTopics []string // raw "subject:topic" pairs
	Difficulty    string
	CreatedBy     string
	HasMedia      bool
}

// ParseListParams extracts listing filters from a query string. Multi-value
// parameters accept both repeated keys and comma-separated lists; hasMedia is
// a presence-only flag.
func ParseListParams(query url.Values) ListParams {
	_, hasMedia := query["hasMedia"]
	return ListParams{
		Category:      query.Get("category"),
		Subjects:      splitMulti(query["subjects"]),
		SubjectTopics: splitMulti(query["subjectTopics"]),
		Difficulty:    query.Get("difficulty"),
		CreatedBy:     query.Get("createdBy"),
		HasMedia:      hasMedia,
	}
}

func splitMulti(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// BuildOptions tunes filter assembly.
type BuildOptions struct {
	// LegacyORSlot reproduces the historical behavior where the hasMedia
	// OR-group overwrote the subject/topic OR-group when both parameters
	// were supplied. Off by default: the groups conjoin.
	LegacyORSlot bool
}

// Build translates listing parameters into one filter tree, always scoped to
// approved questions. A createdBy override by a non-admin caller fails with
// ErrForbiddenScope before any query runs.
func Build(p ListParams, caller Identity, opts BuildOptions) (Predicate, error) {
	preds := []Predicate{Equals{Field: "approved", Value: true}}

	if p.Category != "" {
		preds = append(preds, Equals{Field: "category", Value: p.Category})
	}

	var subjectOr *Or
	if len(p.SubjectTopics) > 0 {
		subjectOr = subjectTopicsPredicate(p.SubjectTopics, p.Subjects)
		if len(subjectOr.Preds) == 0 {
			// Every pair was malformed. Mongo rejects an empty $or, so fall
			// back to name-only matching.
			subjectOr = nil
			if len(p.Subjects) > 0 {
				preds = append(preds, In{Field: "subjects.name", Values: p.Subjects})
			}
		}
	} else if len(p.Subjects) > 0 {
		preds = append(preds, In{Field: "subjects.name", Values: p.Subjects})
	}

	if p.Difficulty != "" && p.Difficulty != "all" {
		preds = append(preds, Equals{Field: "difficulty", Value: p.Difficulty})
	}

	if p.CreatedBy != "" {
		if p.CreatedBy == "me" {
			preds = append(preds, Equals{Field: "createdBy", Value: caller.UserID})
		} else {
			if !caller.IsAdmin() {
				return nil, ErrForbiddenScope
			}
			if ownerID, err := primitive.ObjectIDFromHex(p.CreatedBy); err == nil {
				preds = append(preds, Equals{Field: "createdBy", Value: ownerID})
			} else {
				preds = append(preds, Equals{Field: "createdBy", Value: p.CreatedBy})
			}
		}
	}

	var mediaOr *Or
	if p.HasMedia {
		mediaOr = &Or{Preds: []Predicate{
			NotEmpty{Field: "questionMedia"},
			NotEmpty{Field: "options.media"},
			NotEmpty{Field: "explanationMedia"},
		}}
	}

	if opts.LegacyORSlot && subjectOr != nil && mediaOr != nil {
		// Last writer wins, as the deployed frontend expects.
		subjectOr = nil
	}
	if subjectOr != nil {
		preds = append(preds, *subjectOr)
	}
	if mediaOr != nil {
		preds = append(preds, *mediaOr)
	}

	return And{Preds: preds}, nil
}

// subjectTopicsPredicate maps "subject:topic" pairs to per-subject
// $elemMatch disjuncts. Subjects requested only by name (without a topic
// pair) contribute a name-only disjunct.
func subjectTopicsPredicate(pairs, plainSubjects []string) *Or {
	var order []string
	topicsBySubject := map[string][]string{}
	for _, pair := range pairs {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		subject := unescape(parts[0])
		topic := unescape(parts[1])
		if _, seen := topicsBySubject[subject]; !seen {
			order = append(order, subject)
		}
		topicsBySubject[subject] = append(topicsBySubject[subject], topic)
	}

	var disjuncts []Predicate
	for _, subject := range order {
		disjuncts = append(disjuncts, ElemMatch{
			Field: "subjects",
			Match: bson.M{"name": subject, "topics": bson.M{"$in": topicsBySubject[subject]}},
		})
	}
	for _, subject := range plainSubjects {
		if _, constrained := topicsBySubject[subject]; constrained {
			continue
		}
		disjuncts = append(disjuncts, ElemMatch{
			Field: "subjects",
			Match: bson.M{"name": subject},
		})
	}
	return &Or{Preds: disjuncts}
}

func unescape(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return s
}
