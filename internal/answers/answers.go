// Package answers parses marketplace notification payloads and assignment
// answer documents.
package answers

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
)

// ErrBadPayload is returned when a queue message body or answer document is
// not a well-formed marketplace payload.
var ErrBadPayload = errors.New("malformed notification payload")

// Event is one completion event referenced by a queue message.
type Event struct {
	EventType      string `json:"EventType"`
	EventTimestamp string `json:"EventTimestamp"`
	HITID          string `json:"HITId"`
	HITTypeID      string `json:"HITTypeId"`
	AssignmentID   string `json:"AssignmentId"`
}

// Payload is the body of one queue message. Delivery is at-least-once and
// unordered; a payload may reference several events.
type Payload struct {
	EventDocVersion string  `json:"EventDocVersion"`
	EventDocID      string  `json:"EventDocId"`
	CustomerID      string  `json:"CustomerId"`
	Events          []Event `json:"Events"`
}

// ParsePayload decodes a queue message body.
func ParsePayload(body string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return p, nil
}

// questionFormAnswers mirrors the QuestionFormAnswers XML an assignment
// carries.
type questionFormAnswers struct {
	XMLName xml.Name `xml:"QuestionFormAnswers"`
	Answers []answer `xml:"Answer"`
}

type answer struct {
	QuestionIdentifier  string   `xml:"QuestionIdentifier"`
	FreeText            string   `xml:"FreeText"`
	SelectionIdentifier []string `xml:"SelectionIdentifier"`
	OtherSelectionText  string   `xml:"OtherSelectionText"`
}

// values picks the answer content: free text first, then the selection
// identifiers, then the other-selection text.
func (a answer) values() []any {
	if a.FreeText != "" {
		return []any{a.FreeText}
	}
	if len(a.SelectionIdentifier) > 0 {
		vs := make([]any, len(a.SelectionIdentifier))
		for i, s := range a.SelectionIdentifier {
			vs[i] = s
		}
		return vs
	}
	if a.OtherSelectionText != "" {
		return []any{a.OtherSelectionText}
	}
	return nil
}

// ParseAnswerDocument decodes an assignment's answer XML into a multi-valued
// document: question identifier to the list of its values. Callers flatten
// the result so single answers read as plain values.
func ParseAnswerDocument(answerXML string) (map[string]any, error) {
	var qfa questionFormAnswers
	if err := xml.Unmarshal([]byte(answerXML), &qfa); err != nil {
		return nil, fmt.Errorf("%w: answer xml: %v", ErrBadPayload, err)
	}

	doc := make(map[string]any, len(qfa.Answers))
	for _, a := range qfa.Answers {
		existing, _ := doc[a.QuestionIdentifier].([]any)
		doc[a.QuestionIdentifier] = append(existing, a.values()...)
	}
	return doc, nil
}
