package query

import (
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/query"
)

type listCasesInput struct {
	Type   string `query:"type" enum:"budget,general-matter,bill" doc:"Тип дела"`
	Status string `query:"status" enum:"processed,in-progress,received,notified,withdrawn,lapsed" doc:"Статус дела"`
	Search string `query:"search" maxLength:"200" doc:"Подстрока заголовка"`
	Limit  int    `query:"limit" minimum:"0" maximum:"200"`
	Offset int    `query:"offset" minimum:"0"`
}

type listCasesOutput struct {
	Body *query.Page[query.CaseSummary]
}

type getCaseInput struct {
	ID int64 `path:"id" minimum:"1"`
}

type getCaseOutput struct {
	Body *query.CaseDetail
}

type listHearingsInput struct {
	Status int       `query:"status" minimum:"0" doc:"Код статуса, 0 без фильтра"`
	Type   int       `query:"type" minimum:"0" doc:"Код типа, 0 без фильтра"`
	From   time.Time `query:"from" doc:"Начало не раньше, RFC 3339"`
	To     time.Time `query:"to" doc:"Начало не позже, RFC 3339"`
	Limit  int       `query:"limit" minimum:"0" maximum:"200"`
	Offset int       `query:"offset" minimum:"0"`
}

type listHearingsOutput struct {
	Body *query.Page[entity.Hearing]
}

type listPartiesInput struct {
	Name string `query:"name" maxLength:"100"`
}

type listPartiesOutput struct {
	Body []entity.Party
}

type statsOutput struct {
	Body query.Stats
}
