package entity

import (
	"strconv"
	"time"
)

// Kind тип сущности, синхронизируемой с Stortinget
type Kind string

const (
	KindParty        Kind = "party"
	KindHearing      Kind = "hearing"
	KindCase         Kind = "case"
	KindVote         Kind = "vote"
	KindVoteProposal Kind = "vote_proposal"
)

// Kinds возвращает все виды сущностей в порядке синхронизации
func Kinds() []Kind {
	return []Kind{KindParty, KindHearing, KindCase, KindVote, KindVoteProposal}
}

func (k Kind) Valid() bool {
	switch k {
	case KindParty, KindHearing, KindCase, KindVote, KindVoteProposal:
		return true
	}
	return false
}

// Record нормализованная запись, пригодная для пакетной записи
type Record interface {
	Kind() Kind
	ExternalID() string
}

// Party партия
type Party struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Represented bool   `json:"represented"`
}

func (p Party) Kind() Kind         { return KindParty }
func (p Party) ExternalID() string { return p.ID }

// Case дело парламента
type Case struct {
	ID            int64         `json:"id"`
	Type          CaseType      `json:"type"`
	Title         string        `json:"title"`
	ShortTitle    string        `json:"short_title"`
	Status        CaseStatus    `json:"status"`
	DocumentGroup DocumentGroup `json:"document_group"`
	LastUpdatedAt time.Time     `json:"last_updated_at"`
	ProposedByID  int64         `json:"proposed_by_id"`
	Reference     *string       `json:"reference"`
}

func (c Case) Kind() Kind         { return KindCase }
func (c Case) ExternalID() string { return strconv.FormatInt(c.ID, 10) }

// Vote голосование по делу
type Vote struct {
	ID             int64     `json:"id"`
	CaseID         int64     `json:"case_id"`
	Adopted        bool      `json:"adopted"`
	ResultType     int       `json:"result_type"`
	ResultTypeText *string   `json:"result_type_text"`
	Topic          string    `json:"topic"`
	VotedAt        time.Time `json:"voted_at"`
}

func (v Vote) Kind() Kind         { return KindVote }
func (v Vote) ExternalID() string { return strconv.FormatInt(v.ID, 10) }

// VoteProposal предложение, поставленное на голосование
type VoteProposal struct {
	ID               int64    `json:"id"`
	VoteID           int64    `json:"vote_id"`
	Designation      *string  `json:"designation"`
	ShortDesignation *string  `json:"short_designation"`
	OnBehalfOfText   *string  `json:"on_behalf_of_text"`
	SortNumber       int      `json:"sort_number"`
	Text             *string  `json:"text"`
	ProposalType     int      `json:"proposal_type"`
	PartyIDs         []string `json:"party_ids"`
}

func (p VoteProposal) Kind() Kind         { return KindVoteProposal }
func (p VoteProposal) ExternalID() string { return strconv.FormatInt(p.ID, 10) }

// Hearing слушание комитета.
// Коды статуса и типа не имеют опубликованной таблицы меток, поэтому
// хранятся как числа рядом с текстом, который присылает Stortinget.
type Hearing struct {
	ID                  int64     `json:"id"`
	Status              int       `json:"status"`
	StatusText          string    `json:"status_text"`
	Type                int       `json:"type"`
	StartDate           time.Time `json:"start_date"`
	ApplicationDeadline time.Time `json:"application_deadline"`
	InputDeadline       time.Time `json:"input_deadline"`
	RequestDeadline     time.Time `json:"request_deadline"`
	Written             bool      `json:"written"`
	SessionID           *string   `json:"session_id"`
	HearingStatus       string    `json:"hearing_status"`
}

func (h Hearing) Kind() Kind         { return KindHearing }
func (h Hearing) ExternalID() string { return strconv.FormatInt(h.ID, 10) }
