package stortinget

import (
	"fmt"
	"time"

	"stortingsync/internal/domain/entity"
)

func (d partyDTO) toEntity() entity.Party {
	return entity.Party{ID: d.ID, Name: d.Navn, Represented: d.RepresentertParti}
}

func (d caseDTO) toEntity() (entity.Case, error) {
	caseType, err := entity.CaseTypeFromCode(d.Type)
	if err != nil {
		return entity.Case{}, schemaViolation("case %d: %v", d.ID, err)
	}
	status, err := entity.CaseStatusFromCode(d.Status)
	if err != nil {
		return entity.Case{}, schemaViolation("case %d: %v", d.ID, err)
	}
	group, err := entity.DocumentGroupFromCode(d.Dokumentgruppe)
	if err != nil {
		return entity.Case{}, schemaViolation("case %d: %v", d.ID, err)
	}
	updated, err := ParseDate(d.SistOppdatertDato)
	if err != nil {
		return entity.Case{}, fmt.Errorf("case %d: %w", d.ID, err)
	}

	return entity.Case{
		ID:            d.ID,
		Type:          caseType,
		Title:         d.Tittel,
		ShortTitle:    d.Korttittel,
		Status:        status,
		DocumentGroup: group,
		LastUpdatedAt: updated,
		ProposedByID:  d.SakFremmetID,
		Reference:     d.Henvisning,
	}, nil
}

func (d voteDTO) toEntity() (entity.Vote, error) {
	votedAt, err := ParseDate(d.VoteringTid)
	if err != nil {
		return entity.Vote{}, fmt.Errorf("vote %d: %w", d.VoteringID, err)
	}
	return entity.Vote{
		ID:             d.VoteringID,
		CaseID:         d.SakID,
		Adopted:        d.Vedtatt,
		ResultType:     d.VoteringResultatType,
		ResultTypeText: d.VoteringResultatTypeTekst,
		Topic:          d.VoteringTema,
		VotedAt:        votedAt,
	}, nil
}

func (d proposalDTO) toEntity(voteID int64) entity.VoteProposal {
	parties := make([]string, 0, len(d.ForslagLevertAvPartiListe))
	for _, p := range d.ForslagLevertAvPartiListe {
		parties = append(parties, p.ID)
	}
	return entity.VoteProposal{
		ID:               d.ForslagID,
		VoteID:           voteID,
		Designation:      d.ForslagBetegnelse,
		ShortDesignation: d.ForslagBetegnelseKort,
		OnBehalfOfText:   d.ForslagPaaVegneAvTekst,
		SortNumber:       d.ForslagSorteringsnummer,
		Text:             d.ForslagTekst,
		ProposalType:     d.ForslagType,
		PartyIDs:         parties,
	}
}

func (d hearingDTO) toEntity() (entity.Hearing, error) {
	dates := make([]time.Time, 4)
	for i, raw := range []string{d.StartDato, d.SoknadfristDato, d.Innspillsfrist, d.AnmodningsfristDatoTid} {
		t, err := ParseDate(raw)
		if err != nil {
			return entity.Hearing{}, fmt.Errorf("hearing %d: %w", d.ID, err)
		}
		dates[i] = t
	}

	return entity.Hearing{
		ID:                  d.ID,
		Status:              d.Status,
		StatusText:          d.StatusInfoTekst,
		Type:                d.Type,
		StartDate:           dates[0],
		ApplicationDeadline: dates[1],
		InputDeadline:       dates[2],
		RequestDeadline:     dates[3],
		Written:             d.Skriftlig,
		SessionID:           d.SesjonID,
		HearingStatus:       d.HoringStatus,
	}, nil
}
