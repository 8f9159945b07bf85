package model

import (
	"fmt"
	"strings"
)

// FieldError is one boundary validation failure, with a positional path
// like "sections[0].questions[1].type".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateForm checks a form payload against the structural constraints of
// the schema before it touches the store. Order and formId defaults are the
// caller's concern.
func ValidateForm(form *Form) (errs ValidationErrors) {
	if strings.TrimSpace(form.Title) == "" {
		errs = append(errs, FieldError{"formTitle", "Form title is required"})
	}
	if form.Sections == nil {
		errs = append(errs, FieldError{"sections", "Sections must be an array"})
	}

	for i, section := range form.Sections {
		errs = append(errs, validateSection(fmt.Sprintf("sections[%d]", i), &section)...)
	}
	return
}

func validateSection(path string, section *Section) (errs ValidationErrors) {
	if strings.TrimSpace(section.Title) == "" {
		errs = append(errs, FieldError{path + ".sectionTitle", "Section title is required"})
	}
	if section.Order < 1 {
		errs = append(errs, FieldError{path + ".order", "Section order must be an integer"})
	}
	if section.Questions == nil {
		errs = append(errs, FieldError{path + ".questions", "Questions must be an array"})
	}

	for i, question := range section.Questions {
		errs = append(errs, validateQuestion(fmt.Sprintf("%s.questions[%d]", path, i), &question)...)
	}
	return
}

func validateQuestion(path string, question *Question) (errs ValidationErrors) {
	if strings.TrimSpace(question.Text) == "" {
		errs = append(errs, FieldError{path + ".questionText", "Question text is required"})
	}
	if !contains(QuestionTypes, question.Type) {
		errs = append(errs, FieldError{path + ".type", "Invalid question type"})
	}
	if question.Order < 1 {
		errs = append(errs, FieldError{path + ".order", "Question order must be an integer"})
	}
	if question.ScaleRange != 0 && !containsInt(ScaleRanges, question.ScaleRange) {
		errs = append(errs, FieldError{path + ".scaleRange", "Scale range must be either 5 or 10"})
	}
	if question.Options == nil {
		errs = append(errs, FieldError{path + ".options", "Options must be an array"})
	}

	for i, option := range question.Options {
		errs = append(errs, validateOption(fmt.Sprintf("%s.options[%d]", path, i), &option)...)
	}
	for i, dep := range question.Dependencies {
		errs = append(errs, validateDependency(fmt.Sprintf("%s.dependencies[%d]", path, i), &dep)...)
	}
	return
}

func validateOption(path string, option *Option) (errs ValidationErrors) {
	if !contains(OptionTypes, option.Type) {
		errs = append(errs, FieldError{path + ".type", "Invalid option type"})
	}

	for i, dep := range option.Dependencies {
		errs = append(errs, validateDependency(fmt.Sprintf("%s.dependencies[%d]", path, i), &dep)...)
	}
	return
}

func validateDependency(path string, dep *DependencyCondition) (errs ValidationErrors) {
	if !contains(DependencyTypes, dep.DependencyType) {
		errs = append(errs, FieldError{path + ".dependencyType", "Invalid dependency type"})
	}
	return
}

// ValidatePublicSubmission checks the shape of an unauthenticated submission
// payload before the form is even resolved.
func ValidatePublicSubmission(p *PublicSubmission) (errs ValidationErrors) {
	if p.FormID == "" {
		errs = append(errs, FieldError{"formId", "Form ID is required"})
	}
	if p.UserID < 1 {
		errs = append(errs, FieldError{"userId", "Valid User ID is required"})
	}
	if p.Sections == nil {
		errs = append(errs, FieldError{"sections", "Sections must be a valid array"})
	}
	if err := ValidateStatus(p.Status); err != nil {
		errs = append(errs, *err)
	}

	for i, section := range p.Sections {
		path := fmt.Sprintf("sections[%d]", i)
		if section.SectionID == "" {
			errs = append(errs, FieldError{path + ".sectionId", "Section ID is required for each section"})
		}
		if strings.TrimSpace(section.SectionTitle) == "" {
			errs = append(errs, FieldError{path + ".sectionTitle", "Section title is required for each section"})
		}
		if section.Questions == nil {
			errs = append(errs, FieldError{path + ".questions", "Questions must be a valid array for each section"})
		}

		for j, question := range section.Questions {
			qpath := fmt.Sprintf("%s.questions[%d]", path, j)
			if question.QuestionID == "" {
				errs = append(errs, FieldError{qpath + ".questionId", "Question ID is required for each question"})
			}
			if question.QuestionType == "" {
				errs = append(errs, FieldError{qpath + ".questionType", "Question type is required for each question"})
			}
		}
	}
	return
}

// ValidateStatus accepts an empty status; callers default it to "submitted".
func ValidateStatus(status string) *FieldError {
	if status != "" && !contains(SubmissionStatuses, status) {
		return &FieldError{"status", "Invalid submission status"}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
