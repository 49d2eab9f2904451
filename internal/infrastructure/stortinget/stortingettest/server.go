// Package stortingettest поднимает поддельный data.stortinget.no для тестов.
package stortingettest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// Party партия в формате выгрузки
type Party struct {
	ID          string
	Name        string
	Represented bool
}

// Case дело в формате выгрузки, коды как у Stortinget
type Case struct {
	ID            int64
	Title         string
	ShortTitle    string
	Type          int
	Status        int
	DocumentGroup int
	UpdatedAt     time.Time
	ProposedByID  int64
	Reference     *string
}

type Vote struct {
	ID         int64
	Adopted    bool
	ResultType int
	Topic      string
	VotedAt    time.Time
}

type Proposal struct {
	ID         int64
	Text       string
	SortNumber int
	Type       int
	PartyIDs   []string
}

type Hearing struct {
	ID        int64
	Status    int
	Type      int
	StartDate time.Time
	Written   bool
}

// Dataset содержимое поддельного API
type Dataset struct {
	Parties   []Party
	Hearings  []Hearing
	Cases     []Case
	Votes     map[int64][]Vote
	Proposals map[int64][]Proposal
}

// Server поддельный API с изменяемым набором данных
type Server struct {
	*httptest.Server

	mu       sync.RWMutex
	data     Dataset
	failures map[string]int
	requests atomic.Int64
	version  atomic.Int64
}

// NewServer запускает сервер; вызывающий обязан вызвать Close
func NewServer(data Dataset) *Server {
	s := &Server{data: data, failures: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/eksport/allepartier", s.parties)
	mux.HandleFunc("/eksport/horinger", s.hearings)
	mux.HandleFunc("/eksport/saker", s.cases)
	mux.HandleFunc("/eksport/voteringer", s.votes)
	mux.HandleFunc("/eksport/voteringsforslag", s.proposals)
	s.Server = httptest.NewServer(mux)
	return s
}

// SetData заменяет набор данных
func (s *Server) SetData(data Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

// Update изменяет набор данных на месте
func (s *Server) Update(fn func(*Dataset)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

// FailNext заставляет следующие n запросов к path вернуть 503
func (s *Server) FailNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = n
}

// Requests число обработанных запросов
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// FormatDate кодирует время в /Date(ms+0100)/ как это делает Stortinget
func FormatDate(t time.Time) string {
	const offsetMs = int64(time.Hour / time.Millisecond)
	return "/Date(" + strconv.FormatInt(t.UnixMilli()+offsetMs, 10) + "+0100)/"
}

func (s *Server) envelope(body map[string]any) map[string]any {
	// respons_dato_tid меняется при каждом ответе, как в настоящем API
	body["versjon"] = "1.6"
	body["respons_dato_tid"] = FormatDate(time.Unix(1700000000+s.version.Add(1), 0))
	return body
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request) bool {
	s.requests.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[r.URL.Path] > 0 {
		s.failures[r.URL.Path]--
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
		return true
	}
	return false
}

func (s *Server) write(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.envelope(body))
}

func (s *Server) parties(w http.ResponseWriter, r *http.Request) {
	if s.fail(w, r) {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]map[string]any, 0, len(s.data.Parties))
	for _, p := range s.data.Parties {
		list = append(list, partyJSON(p))
	}
	s.write(w, map[string]any{"partier_liste": list, "sesjon_id": "2024-2025", "stortingsperiode_id": nil})
}

func (s *Server) hearings(w http.ResponseWriter, r *http.Request) {
	if s.fail(w, r) {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]map[string]any, 0, len(s.data.Hearings))
	for _, h := range s.data.Hearings {
		d := FormatDate(h.StartDate)
		list = append(list, map[string]any{
			"versjon":                  "1.6",
			"id":                       h.ID,
			"status":                   h.Status,
			"status_info_tekst":        "Høring avholdt",
			"type":                     h.Type,
			"start_dato":               d,
			"soknadfrist_dato":         d,
			"innspillsfrist":           d,
			"skriftlig":                h.Written,
			"anmodningsfrist_dato_tid": d,
			"sesjon_id":                "2024-2025",
			"horing_status":            "avholdt",
		})
	}
	s.write(w, map[string]any{"horinger_liste": list, "sesjon_id": "2024-2025"})
}

func (s *Server) cases(w http.ResponseWriter, r *http.Request) {
	if s.fail(w, r) {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]map[string]any, 0, len(s.data.Cases))
	for _, c := range s.data.Cases {
		list = append(list, map[string]any{
			"versjon":             "1.6",
			"id":                  c.ID,
			"tittel":              c.Title,
			"korttittel":          c.ShortTitle,
			"type":                c.Type,
			"status":              c.Status,
			"dokumentgruppe":      c.DocumentGroup,
			"sist_oppdatert_dato": FormatDate(c.UpdatedAt),
			"sak_fremmet_id":      c.ProposedByID,
			"henvisning":          c.Reference,
		})
	}
	s.write(w, map[string]any{"saker_liste": list, "sesjon_id": "2024-2025"})
}

func (s *Server) votes(w http.ResponseWriter, r *http.Request) {
	if s.fail(w, r) {
		return
	}
	caseID, err := strconv.ParseInt(r.URL.Query().Get("sakid"), 10, 64)
	if err != nil || r.URL.Query().Get("format") != "json" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := s.data.Votes[caseID]
	list := make([]map[string]any, 0, len(votes))
	for _, v := range votes {
		list = append(list, map[string]any{
			"versjon":                      "1.6",
			"sak_id":                       caseID,
			"vedtatt":                      v.Adopted,
			"votering_id":                  v.ID,
			"votering_resultat_type":       v.ResultType,
			"votering_resultat_type_tekst": nil,
			"votering_tema":                v.Topic,
			"votering_tid":                 FormatDate(v.VotedAt),
		})
	}
	s.write(w, map[string]any{"sak_id": caseID, "sak_votering_liste": list})
}

func (s *Server) proposals(w http.ResponseWriter, r *http.Request) {
	if s.fail(w, r) {
		return
	}
	voteID, err := strconv.ParseInt(r.URL.Query().Get("voteringid"), 10, 64)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	proposals := s.data.Proposals[voteID]
	list := make([]map[string]any, 0, len(proposals))
	for _, p := range proposals {
		parties := make([]map[string]any, 0, len(p.PartyIDs))
		for _, id := range p.PartyIDs {
			parties = append(parties, partyJSON(Party{ID: id, Name: id, Represented: true}))
		}
		list = append(list, map[string]any{
			"versjon":                        "1.6",
			"forslag_id":                     p.ID,
			"forslag_betegnelse":             "Forslag nr. " + strconv.Itoa(p.SortNumber),
			"forslag_betegnelse_kort":        nil,
			"forslag_paa_vegne_av_tekst":     nil,
			"forslag_sorteringsnummer":       p.SortNumber,
			"forslag_tekst":                  p.Text,
			"forslag_type":                   p.Type,
			"forslag_levert_av_parti_liste":  parties,
			"forslag_levert_av_representant": nil,
		})
	}
	s.write(w, map[string]any{"votering_id": voteID, "voteringsforslag_liste": list})
}

func partyJSON(p Party) map[string]any {
	return map[string]any{
		"versjon":            "1.6",
		"id":                 p.ID,
		"navn":               p.Name,
		"representert_parti": p.Represented,
	}
}
