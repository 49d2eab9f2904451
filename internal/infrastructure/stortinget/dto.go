package stortinget

// Проводные структуры ответов data.stortinget.no.
// Поля конверта versjon и respons_dato_tid не декодируются.

type partyDTO struct {
	ID                string `json:"id"`
	Navn              string `json:"navn"`
	RepresentertParti bool   `json:"representert_parti"`
}

type partiesResponse struct {
	PartierListe       []partyDTO `json:"partier_liste"`
	SesjonID           *string    `json:"sesjon_id"`
	StortingsperiodeID *string    `json:"stortingsperiode_id"`
}

type caseDTO struct {
	ID                int64   `json:"id"`
	Tittel            string  `json:"tittel"`
	Korttittel        string  `json:"korttittel"`
	Type              int     `json:"type"`
	Status            int     `json:"status"`
	Dokumentgruppe    int     `json:"dokumentgruppe"`
	SistOppdatertDato string  `json:"sist_oppdatert_dato"`
	SakFremmetID      int64   `json:"sak_fremmet_id"`
	Henvisning        *string `json:"henvisning"`
}

type casesResponse struct {
	SesjonID   string    `json:"sesjon_id"`
	SakerListe []caseDTO `json:"saker_liste"`
}

type voteDTO struct {
	SakID                     int64   `json:"sak_id"`
	Vedtatt                   bool    `json:"vedtatt"`
	VoteringID                int64   `json:"votering_id"`
	VoteringResultatType      int     `json:"votering_resultat_type"`
	VoteringResultatTypeTekst *string `json:"votering_resultat_type_tekst"`
	VoteringTema              string  `json:"votering_tema"`
	VoteringTid               string  `json:"votering_tid"`
}

type votesResponse struct {
	SakID            int64     `json:"sak_id"`
	SakVoteringListe []voteDTO `json:"sak_votering_liste"`
}

type proposalDTO struct {
	ForslagID                 int64      `json:"forslag_id"`
	ForslagBetegnelse         *string    `json:"forslag_betegnelse"`
	ForslagBetegnelseKort     *string    `json:"forslag_betegnelse_kort"`
	ForslagPaaVegneAvTekst    *string    `json:"forslag_paa_vegne_av_tekst"`
	ForslagSorteringsnummer   int        `json:"forslag_sorteringsnummer"`
	ForslagTekst              *string    `json:"forslag_tekst"`
	ForslagType               int        `json:"forslag_type"`
	ForslagLevertAvPartiListe []partyDTO `json:"forslag_levert_av_parti_liste"`
}

type proposalsResponse struct {
	VoteringID            int64         `json:"votering_id"`
	VoteringsforslagListe []proposalDTO `json:"voteringsforslag_liste"`
}

type hearingDTO struct {
	ID                     int64   `json:"id"`
	Status                 int     `json:"status"`
	StatusInfoTekst        string  `json:"status_info_tekst"`
	Type                   int     `json:"type"`
	StartDato              string  `json:"start_dato"`
	SoknadfristDato        string  `json:"soknadfrist_dato"`
	Innspillsfrist         string  `json:"innspillsfrist"`
	Skriftlig              bool    `json:"skriftlig"`
	AnmodningsfristDatoTid string  `json:"anmodningsfrist_dato_tid"`
	SesjonID               *string `json:"sesjon_id"`
	HoringStatus           string  `json:"horing_status"`
}

type hearingsResponse struct {
	SesjonID      string       `json:"sesjon_id"`
	HoringerListe []hearingDTO `json:"horinger_liste"`
}
