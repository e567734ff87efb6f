package classifier

import (
	"strings"
)

// Response is the answer returned for every chatbot operation
type Response struct {
	Response         string   `json:"response"`
	Confidence       float64  `json:"confidence"`
	SuggestedActions []string `json:"suggestedActions,omitempty"`
}

// Classifier maps free text to canned Dr. Tega answers.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	catalog *Catalog
}

// NewClassifier creates a classifier backed by the embedded catalog
func NewClassifier() *Classifier {
	return &Classifier{catalog: DefaultCatalog()}
}

// NewWithCatalog creates a classifier backed by a caller-supplied catalog
func NewWithCatalog(c *Catalog) *Classifier {
	return &Classifier{catalog: c}
}

// GetMedicalResponse answers a general health question.
// Topics are tried in catalog order and the first match wins; when nothing
// matches, the default answer quotes the original question.
func (c *Classifier) GetMedicalResponse(query string) Response {
	if t, ok := c.catalog.match(strings.ToLower(query)); ok {
		return topicResponse(t, t.Text)
	}

	d := c.catalog.Default
	text := strings.Replace(d.Text, QueryPlaceholder, query, 1)
	return topicResponse(d, text)
}

// Categorize returns the name of the topic that would answer the query
func (c *Classifier) Categorize(query string) string {
	if t, ok := c.catalog.match(strings.ToLower(query)); ok {
		return t.Name
	}
	return c.catalog.Default.Name
}

// Topics lists topic names in evaluation order
func (c *Classifier) Topics() []string {
	names := make([]string, 0, len(c.catalog.Topics))
	for _, t := range c.catalog.Topics {
		names = append(names, t.Name)
	}
	return names
}

func topicResponse(t Topic, text string) Response {
	return Response{
		Response:         text,
		Confidence:       t.Confidence,
		SuggestedActions: copyActions(t.Actions),
	}
}

func copyActions(actions []string) []string {
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}
