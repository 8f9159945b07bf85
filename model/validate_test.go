package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() Form {
	return Form{
		Title: "Health check",
		Order: 1,
		Sections: []Section{{
			SectionID: "s1",
			Title:     "Basics",
			Order:     1,
			Questions: []Question{{
				QuestionID: "q1",
				Text:       "How are you?",
				Type:       "text",
				Order:      1,
				Options:    []Option{},
			}},
		}},
	}
}

func fields(errs ValidationErrors) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateFormAcceptsValidForm(t *testing.T) {
	form := validForm()
	assert.Empty(t, ValidateForm(&form))
}

func TestValidateFormRequiresTitleAndSections(t *testing.T) {
	form := Form{}
	errs := ValidateForm(&form)
	assert.Contains(t, fields(errs), "formTitle")
	assert.Contains(t, fields(errs), "sections")
}

func TestValidateFormChecksNestedPaths(t *testing.T) {
	form := validForm()
	form.Sections[0].Questions[0].Type = "dropdown"
	form.Sections[0].Questions[0].Options = nil

	errs := ValidateForm(&form)
	assert.Contains(t, fields(errs), "sections[0].questions[0].type")
	assert.Contains(t, fields(errs), "sections[0].questions[0].options")
}

func TestValidateFormScaleRange(t *testing.T) {
	form := validForm()
	form.Sections[0].Questions[0].Type = "linear-scale"
	form.Sections[0].Questions[0].ScaleRange = 7

	errs := ValidateForm(&form)
	require.Len(t, errs, 1)
	assert.Equal(t, "sections[0].questions[0].scaleRange", errs[0].Field)
	assert.Equal(t, "Scale range must be either 5 or 10", errs[0].Message)

	form.Sections[0].Questions[0].ScaleRange = 5
	assert.Empty(t, ValidateForm(&form))
}

func TestValidateFormDependencyType(t *testing.T) {
	form := validForm()
	form.Sections[0].Questions[0].Dependencies = []DependencyCondition{{
		QuestionID:     "q0",
		DependencyType: "maybe",
	}}

	errs := ValidateForm(&form)
	require.Len(t, errs, 1)
	assert.Equal(t, "sections[0].questions[0].dependencies[0].dependencyType", errs[0].Field)
}

func TestValidateFormOptionType(t *testing.T) {
	form := validForm()
	form.Sections[0].Questions[0].Options = []Option{{OptionID: "o1", Type: "fancy"}}

	errs := ValidateForm(&form)
	require.Len(t, errs, 1)
	assert.Equal(t, "sections[0].questions[0].options[0].type", errs[0].Field)
}

func TestValidatePublicSubmission(t *testing.T) {
	p := PublicSubmission{}
	errs := ValidatePublicSubmission(&p)
	got := fields(errs)
	assert.Contains(t, got, "formId")
	assert.Contains(t, got, "userId")
	assert.Contains(t, got, "sections")
}

func TestValidatePublicSubmissionSections(t *testing.T) {
	p := PublicSubmission{
		FormID: "form_1",
		UserID: 3,
		Sections: []AnswerSection{{
			Questions: []Answer{{}},
		}},
	}
	errs := ValidatePublicSubmission(&p)
	got := fields(errs)
	assert.Contains(t, got, "sections[0].sectionId")
	assert.Contains(t, got, "sections[0].sectionTitle")
	assert.Contains(t, got, "sections[0].questions[0].questionId")
	assert.Contains(t, got, "sections[0].questions[0].questionType")
}

func TestValidatePublicSubmissionStatus(t *testing.T) {
	p := PublicSubmission{
		FormID:   "form_1",
		UserID:   3,
		Status:   "pending",
		Sections: []AnswerSection{},
	}
	errs := ValidatePublicSubmission(&p)
	require.Len(t, errs, 1)
	assert.Equal(t, "status", errs[0].Field)
	assert.Equal(t, "Invalid submission status", errs[0].Message)
}

func TestNormalizeDefaultsResponseID(t *testing.T) {
	p := PublicSubmission{
		FormID: "form_1",
		UserID: 3,
		Sections: []AnswerSection{{
			SectionID:    "s1",
			SectionTitle: "Basics",
			Questions: []Answer{{
				QuestionID:   "q1",
				QuestionType: "text",
				Response:     TextValue("fine"),
			}},
		}},
	}

	data := p.Normalize()
	require.Len(t, data.Sections, 1)
	require.Len(t, data.Sections[0].Questions, 1)
	assert.Nil(t, data.Sections[0].Questions[0].ResponseID)
}
