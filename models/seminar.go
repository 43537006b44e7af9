package models

import (
	"fmt"
	"time"
)

// SeminarBlocks are the time slots a seminar can be held in.
var SeminarBlocks = []string{"first", "second", "third"}

// SeminarEvaluation holds the jury marks of a seminar talk. Every field has its
// own scale, see EvaluationRanges.
type SeminarEvaluation struct {
	ContentQuality       int `json:"contentQuality"`
	KnowledgeQuality     int `json:"knowledgeQuality"`
	PresentationQuality  int `json:"presentationQuality"`
	PresentationQuality2 int `json:"presentationQuality2"`
	PresentationQuality3 int `json:"presentationQuality3"`
	Materials            int `json:"materials"`
	UnusualThings        int `json:"unusualThings"`
	Discussion           int `json:"discussion"`
	GeneralQuality       int `json:"generalQuality"`
}

// EvaluationRange is an inclusive scale of a single evaluation field.
type EvaluationRange struct {
	Min, Max int
}

// EvaluationRanges maps the JSON field name to its allowed scale.
var EvaluationRanges = map[string]EvaluationRange{
	"contentQuality":       {-1, 1},
	"knowledgeQuality":     {-1, 3},
	"presentationQuality":  {-1, 3},
	"presentationQuality2": {-1, 3},
	"presentationQuality3": {0, 1},
	"materials":            {0, 2},
	"unusualThings":        {0, 1},
	"discussion":           {0, 2},
	"generalQuality":       {-1, 3},
}

// Fields returns the evaluation keyed by JSON field name.
func (e SeminarEvaluation) Fields() map[string]int {
	return map[string]int{
		"contentQuality":       e.ContentQuality,
		"knowledgeQuality":     e.KnowledgeQuality,
		"presentationQuality":  e.PresentationQuality,
		"presentationQuality2": e.PresentationQuality2,
		"presentationQuality3": e.PresentationQuality3,
		"materials":            e.Materials,
		"unusualThings":        e.UnusualThings,
		"discussion":           e.Discussion,
		"generalQuality":       e.GeneralQuality,
	}
}

// Set assigns a field by its JSON name.
func (e *SeminarEvaluation) Set(field string, value int) error {
	switch field {
	case "contentQuality":
		e.ContentQuality = value
	case "knowledgeQuality":
		e.KnowledgeQuality = value
	case "presentationQuality":
		e.PresentationQuality = value
	case "presentationQuality2":
		e.PresentationQuality2 = value
	case "presentationQuality3":
		e.PresentationQuality3 = value
	case "materials":
		e.Materials = value
	case "unusualThings":
		e.UnusualThings = value
	case "discussion":
		e.Discussion = value
	case "generalQuality":
		e.GeneralQuality = value
	default:
		return fmt.Errorf("unknown evaluation field %q", field)
	}
	return nil
}

// Validate checks every field against its scale.
func (e SeminarEvaluation) Validate() error {
	for field, value := range e.Fields() {
		r := EvaluationRanges[field]
		if value < r.Min || value > r.Max {
			return fmt.Errorf("%s must be between %d and %d, got %d", field, r.Min, r.Max, value)
		}
	}
	return nil
}

// Total is the sum of all marks.
func (e SeminarEvaluation) Total() int {
	total := 0
	for _, value := range e.Fields() {
		total += value
	}
	return total
}

type SeminarCreate struct {
	Speaker     string            `json:"speaker" binding:"required"`
	Block       string            `json:"block" binding:"required,oneof=first second third"`
	Description string            `json:"description" binding:"required"`
	Evaluation  SeminarEvaluation `json:"evaluation"`
	TotalScore  int               `json:"totalScore"`
	Attendees   []string          `json:"attendees"`
}

type Seminar struct {
	ID          uint              `json:"id"`
	Speaker     string            `json:"speaker"`
	SpeakerName string            `json:"speaker_name"`
	Block       string            `json:"block"`
	Description string            `json:"description"`
	Evaluation  SeminarEvaluation `json:"evaluation"`
	TotalScore  int               `json:"totalScore"`
	Attendees   []string          `json:"attendees"`
	DateCreated time.Time         `json:"date_created"`
	Author      string            `json:"author"`
}

// SeminarCreated is the response of transactions/seminar/.
type SeminarCreated struct {
	Message       string  `json:"message"`
	Seminar       Seminar `json:"seminar"`
	TransactionID uint    `json:"transaction_id"`
}
