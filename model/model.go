package model

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Question, option, dependency and submission status enumerations. The
// server stores dependency conditions verbatim; evaluating them against
// answers is the client's job.
var (
	QuestionTypes      = []string{"single-select", "multi-select", "integer", "number", "text", "linear-scale", "table"}
	OptionTypes        = []string{"normal", "table"}
	DependencyTypes    = []string{"visibility", "options"}
	SubmissionStatuses = []string{"draft", "submitted", "archived"}

	ScaleRanges = []int{5, 10}
)

const StatusSubmitted = "submitted"

// ID is an integer identifier that unmarshals from either a JSON number or a
// JSON string, since loosely-typed clients send both.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return errors.Errorf("invalid id string %q", s)
		}
		*id = ID(n)
		return nil
	}

	return errors.New("id must be a number or a string")
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(id))
}

// Identifier is a string identifier that also accepts a JSON number.
type Identifier string

func (s *Identifier) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Identifier(str)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Identifier(n.String())
		return nil
	}

	return errors.New("identifier must be a string or a number")
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type Form struct {
	ID          int64     `json:"id,omitempty"`
	FormID      string    `json:"formId"`
	UserID      ID        `json:"userId,omitempty"`
	Title       string    `json:"formTitle"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	IsPublic    bool      `json:"isPublic"`
	Version     int       `json:"version"`
	Sections    []Section `json:"sections"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

type Section struct {
	SectionID   string     `json:"sectionId,omitempty"`
	Title       string     `json:"sectionTitle"`
	Description string     `json:"description,omitempty"`
	Order       int        `json:"order"`
	Questions   []Question `json:"questions"`
}

type Question struct {
	QuestionID   string                `json:"questionId,omitempty"`
	SectionID    string                `json:"sectionId,omitempty"`
	Text         string                `json:"questionText"`
	Type         string                `json:"type"`
	IsRequired   bool                  `json:"isRequired"`
	Order        int                   `json:"order"`
	ScaleRange   int                   `json:"scaleRange,omitempty"`
	ScaleLabels  *ScaleLabels          `json:"scaleLabels,omitempty"`
	Options      []Option              `json:"options"`
	Dependencies []DependencyCondition `json:"dependencies,omitempty"`
	// Part of the schema for symmetry with Dependencies; no write path
	// populates it.
	DependentOn []DependencyCondition `json:"dependentOn,omitempty"`
}

type ScaleLabels struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type Option struct {
	OptionID     string                `json:"optionId,omitempty"`
	QuestionID   string                `json:"questionId,omitempty"`
	Type         string                `json:"type"`
	Value        string                `json:"value,omitempty"`
	TableData    *TableData            `json:"tableData,omitempty"`
	Dependencies []DependencyCondition `json:"dependencies,omitempty"`
}

type TableData struct {
	Rows    []TableRow `json:"rows,omitempty"`
	Columns []string   `json:"columns,omitempty"`
}

// TableRow is one row of a table option; Value may be a literal or a
// function dependency expression.
type TableRow struct {
	AttributeID   string `json:"attributeId,omitempty"`
	AttributeName string `json:"attributeName,omitempty"`
	Value         *Value `json:"value,omitempty"`
}

// DependencyCondition gates the visibility or the option set of its owning
// element on another question's answer.
type DependencyCondition struct {
	SectionID       string   `json:"sectionId,omitempty"`
	QuestionID      string   `json:"questionId,omitempty"`
	ExpectedAnswer  *Value   `json:"expectedAnswer,omitempty"`
	QuestionText    string   `json:"questionText,omitempty"`
	DependencyType  string   `json:"dependencyType"`
	TriggerOptionID string   `json:"triggerOptionId,omitempty"`
	Range           []Range  `json:"range,omitempty"`
	TargetOptions   []string `json:"targetOptions,omitempty"`
}

type Range struct {
	MinValue float64 `json:"minValue"`
	MaxValue float64 `json:"maxValue"`
}

type Submission struct {
	ID          int64          `json:"id"`
	FormID      int64          `json:"formId"`
	UserID      int64          `json:"userId"`
	Data        SubmissionData `json:"data"`
	Status      string         `json:"status"`
	SubmittedAt time.Time      `json:"submittedAt"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   time.Time      `json:"updatedAt,omitempty"`
	Submitter   *User          `json:"user,omitempty"`
}

// SubmissionData is the canonical answer document persisted with every
// submission.
type SubmissionData struct {
	Sections []AnswerSection `json:"sections"`
}

type AnswerSection struct {
	SectionID    string   `json:"sectionId"`
	SectionTitle string   `json:"sectionTitle"`
	Questions    []Answer `json:"questions"`
}

type Answer struct {
	QuestionID   string  `json:"questionId"`
	QuestionType string  `json:"questionType"`
	Response     *Value  `json:"response,omitempty"`
	ResponseID   *string `json:"responseId"`
}

// PublicSubmission is the payload accepted by the unauthenticated ingestion
// endpoint. FormID may be a custom form id or a database id.
type PublicSubmission struct {
	FormID   Identifier      `json:"formId"`
	UserID   ID              `json:"userId"`
	Status   string          `json:"status,omitempty"`
	Sections []AnswerSection `json:"sections"`
}

// Normalize rebuilds the nested payload into the canonical data shape:
// extraneous fields are already dropped by decoding, missing responseId
// values become explicit nulls.
func (p *PublicSubmission) Normalize() SubmissionData {
	data := SubmissionData{Sections: make([]AnswerSection, len(p.Sections))}
	for i, section := range p.Sections {
		questions := make([]Answer, len(section.Questions))
		for j, question := range section.Questions {
			questions[j] = Answer{
				QuestionID:   question.QuestionID,
				QuestionType: question.QuestionType,
				Response:     question.Response,
				ResponseID:   question.ResponseID,
			}
		}
		data.Sections[i] = AnswerSection{
			SectionID:    section.SectionID,
			SectionTitle: section.SectionTitle,
			Questions:    questions,
		}
	}
	return data
}
