package entity

import "fmt"

// CaseType тип дела
type CaseType string

const (
	CaseTypeBudget        CaseType = "budget"
	CaseTypeGeneralMatter CaseType = "general-matter"
	CaseTypeBill          CaseType = "bill"
)

// CaseStatus статус рассмотрения дела
type CaseStatus string

const (
	CaseStatusProcessed  CaseStatus = "processed"
	CaseStatusInProgress CaseStatus = "in-progress"
	CaseStatusReceived   CaseStatus = "received"
	CaseStatusNotified   CaseStatus = "notified"
	CaseStatusWithdrawn  CaseStatus = "withdrawn"
	CaseStatusLapsed     CaseStatus = "lapsed"
)

// DocumentGroup группа документов дела
type DocumentGroup string

const (
	DocumentGroupUnspecified            DocumentGroup = "unspecified"
	DocumentGroupProposition            DocumentGroup = "proposition"
	DocumentGroupReport                 DocumentGroup = "report"
	DocumentGroupStatement              DocumentGroup = "statement"
	DocumentGroupRepresentativeProposal DocumentGroup = "representative-proposal"
	DocumentGroupConstitutionalProposal DocumentGroup = "constitutional-proposal"
	DocumentGroupDocumentSeries         DocumentGroup = "document-series"
	DocumentGroupRecommendation         DocumentGroup = "recommendation"
	DocumentGroupSubmission             DocumentGroup = "submission"
)

var caseTypes = map[int]CaseType{
	1: CaseTypeBudget,
	2: CaseTypeGeneralMatter,
	3: CaseTypeBill,
}

var caseStatuses = map[int]CaseStatus{
	1: CaseStatusProcessed,
	2: CaseStatusInProgress,
	3: CaseStatusReceived,
	4: CaseStatusNotified,
	5: CaseStatusWithdrawn,
	6: CaseStatusLapsed,
}

var documentGroups = map[int]DocumentGroup{
	0: DocumentGroupUnspecified,
	1: DocumentGroupProposition,
	2: DocumentGroupReport,
	3: DocumentGroupStatement,
	4: DocumentGroupRepresentativeProposal,
	5: DocumentGroupConstitutionalProposal,
	6: DocumentGroupDocumentSeries,
	7: DocumentGroupRecommendation,
	8: DocumentGroupSubmission,
}

// UnknownCodeError неизвестный числовой код перечисления
type UnknownCodeError struct {
	Enum string
	Code int
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown %s code %d", e.Enum, e.Code)
}

// CaseTypeFromCode переводит код типа дела в метку
func CaseTypeFromCode(code int) (CaseType, error) {
	if v, ok := caseTypes[code]; ok {
		return v, nil
	}
	return "", &UnknownCodeError{Enum: "case type", Code: code}
}

// CaseStatusFromCode переводит код статуса дела в метку
func CaseStatusFromCode(code int) (CaseStatus, error) {
	if v, ok := caseStatuses[code]; ok {
		return v, nil
	}
	return "", &UnknownCodeError{Enum: "case status", Code: code}
}

// DocumentGroupFromCode переводит код группы документов в метку
func DocumentGroupFromCode(code int) (DocumentGroup, error) {
	if v, ok := documentGroups[code]; ok {
		return v, nil
	}
	return "", &UnknownCodeError{Enum: "document group", Code: code}
}

func (t CaseType) Valid() bool {
	for _, v := range caseTypes {
		if v == t {
			return true
		}
	}
	return false
}

func (s CaseStatus) Valid() bool {
	for _, v := range caseStatuses {
		if v == s {
			return true
		}
	}
	return false
}
