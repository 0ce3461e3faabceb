package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/THEGREATCJPark/jazzlink/internal/store"
)

type stubMusicianStore struct {
	musicians map[int64]*store.Musician
	nextID    int64
}

func newStubMusicianStore() *stubMusicianStore {
	return &stubMusicianStore{musicians: make(map[int64]*store.Musician)}
}

// Create matches the SQL store: one profile per owner.
func (s *stubMusicianStore) Create(ctx context.Context, m *store.Musician) error {
	for _, existing := range s.musicians {
		if existing.OwnerID == m.OwnerID {
			return store.ErrConflict
		}
	}
	s.nextID++
	m.ID = s.nextID
	cp := *m
	s.musicians[m.ID] = &cp
	return nil
}

func (s *stubMusicianStore) GetByID(ctx context.Context, id int64) (*store.Musician, error) {
	m, ok := s.musicians[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *stubMusicianStore) List(ctx context.Context) ([]store.Musician, error) {
	var out []store.Musician
	for _, m := range s.musicians {
		out = append(out, *m)
	}
	return out, nil
}

func (s *stubMusicianStore) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	m, ok := s.musicians[id]
	if !ok {
		return store.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		m.Name = v.(string)
	}
	if v, ok := updates["instruments"]; ok {
		m.Instruments = v.([]string)
	}
	if v, ok := updates["team_id"]; ok {
		if v == nil {
			m.TeamID = nil
		} else {
			m.TeamID = v.(*int64)
		}
	}
	return nil
}

type stubTeamStore struct {
	teams   map[int64]*store.Team
	nextID  int64
	addErr  error
	rmErr   error
	addCall int
	rmCall  int
}

func newStubTeamStore() *stubTeamStore {
	return &stubTeamStore{teams: make(map[int64]*store.Team)}
}

func (s *stubTeamStore) seed(name string) *store.Team {
	s.nextID++
	t := &store.Team{ID: s.nextID, TeamName: name}
	s.teams[t.ID] = t
	return t
}

func (s *stubTeamStore) Create(ctx context.Context, t *store.Team) error {
	s.nextID++
	t.ID = s.nextID
	cp := *t
	s.teams[t.ID] = &cp
	return nil
}

func (s *stubTeamStore) GetByID(ctx context.Context, id int64) (*store.Team, error) {
	t, ok := s.teams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *stubTeamStore) List(ctx context.Context) ([]store.Team, error) {
	var out []store.Team
	for _, t := range s.teams {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubTeamStore) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	t, ok := s.teams[id]
	if !ok {
		return store.ErrNotFound
	}
	if v, ok := updates["team_name"]; ok {
		t.TeamName = v.(string)
	}
	return nil
}

func (s *stubTeamStore) ReplaceMembers(ctx context.Context, id int64, members []store.TeamMember) error {
	t, ok := s.teams[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Members = append([]store.TeamMember(nil), members...)
	return nil
}

// AddMember matches the SQL store: no-op when the musician already sits on
// the roster.
func (s *stubTeamStore) AddMember(ctx context.Context, id int64, member store.TeamMember) error {
	s.addCall++
	if s.addErr != nil {
		return s.addErr
	}
	t, ok := s.teams[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, m := range t.Members {
		if m.MusicianID != nil && member.MusicianID != nil && *m.MusicianID == *member.MusicianID {
			return nil
		}
	}
	t.Members = append(t.Members, member)
	return nil
}

// RemoveMember matches the SQL store: removing an absent musician succeeds.
func (s *stubTeamStore) RemoveMember(ctx context.Context, id, musicianID int64) error {
	s.rmCall++
	if s.rmErr != nil {
		return s.rmErr
	}
	t, ok := s.teams[id]
	if !ok {
		return store.ErrNotFound
	}
	kept := t.Members[:0]
	for _, m := range t.Members {
		if m.MusicianID != nil && *m.MusicianID == musicianID {
			continue
		}
		kept = append(kept, m)
	}
	t.Members = kept
	return nil
}

func newProfileService(t *testing.T, musicians *stubMusicianStore, teams *stubTeamStore) *Service {
	t.Helper()
	svc, err := NewService(musicians, teams, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func validMusician(teamID *int64) *store.Musician {
	return &store.Musician{
		Name:        "이선주",
		Instruments: []string{"피아노", "보컬"},
		SkillLevel:  store.SkillIntermediate,
		StartYear:   2015,
		OwnerID:     100,
		TeamID:      teamID,
	}
}

func rosterIDs(t *store.Team) []int64 {
	var ids []int64
	for _, m := range t.Members {
		if m.MusicianID != nil {
			ids = append(ids, *m.MusicianID)
		}
	}
	return ids
}

func TestSaveMusicianRequiresFields(t *testing.T) {
	svc := newProfileService(t, newStubMusicianStore(), newStubTeamStore())

	cases := []*store.Musician{
		{Instruments: []string{"드럼"}, StartYear: 2010},
		{Name: "김철수", StartYear: 2010},
		{Name: "김철수", Instruments: []string{"드럼"}},
	}
	for i, m := range cases {
		if err := svc.SaveMusician(context.Background(), m, nil); err != ErrMissingRequired {
			t.Fatalf("case %d: expected ErrMissingRequired, got %v", i, err)
		}
	}
}

func TestSaveMusicianDuplicateOwnerConflict(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Quartet")
	svc := newProfileService(t, musicians, teams)

	if err := svc.SaveMusician(context.Background(), validMusician(nil), nil); err != nil {
		t.Fatalf("first save: %v", err)
	}

	dup := validMusician(&team.ID)
	err := svc.SaveMusician(context.Background(), dup, nil)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second profile for the same owner must conflict, got %v", err)
	}
	// The rejected create never reaches the roster.
	if teams.addCall != 0 {
		t.Fatalf("conflicting create touched the roster: add=%d", teams.addCall)
	}
}

func TestSaveMusicianJoinsTeam(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Blue Note Quartet")
	svc := newProfileService(t, musicians, teams)

	m := validMusician(&team.ID)
	if err := svc.SaveMusician(context.Background(), m, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := teams.GetByID(context.Background(), team.ID)
	if len(got.Members) != 1 {
		t.Fatalf("expected 1 roster entry, got %d", len(got.Members))
	}
	entry := got.Members[0]
	if entry.Name != "이선주" || entry.Instrument != "피아노" {
		t.Fatalf("roster entry should carry name and first instrument: %+v", entry)
	}
	if entry.MusicianID == nil || *entry.MusicianID != m.ID {
		t.Fatalf("roster entry must reference the musician profile: %+v", entry)
	}
}

func TestSaveMusicianIdempotent(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Blue Note Quartet")
	svc := newProfileService(t, musicians, teams)

	m := validMusician(&team.ID)
	if err := svc.SaveMusician(context.Background(), m, nil); err != nil {
		t.Fatalf("first save: %v", err)
	}
	// Same edit replayed with a stale previous affiliation.
	if err := svc.SaveMusician(context.Background(), m, nil); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, _ := teams.GetByID(context.Background(), team.ID)
	if len(got.Members) != 1 {
		t.Fatalf("replayed save duplicated roster entry: %d entries", len(got.Members))
	}
}

func TestSaveMusicianMovesBetweenTeams(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	oldTeam := teams.seed("Old Band")
	newTeam := teams.seed("New Band")
	// A manual member on the old roster must survive the move untouched.
	oldTeam.Members = []store.TeamMember{{Name: "객원 베이스", Instrument: "베이스"}}
	svc := newProfileService(t, musicians, teams)

	m := validMusician(&oldTeam.ID)
	if err := svc.SaveMusician(context.Background(), m, nil); err != nil {
		t.Fatalf("initial save: %v", err)
	}

	prev := oldTeam.ID
	m.TeamID = &newTeam.ID
	if err := svc.SaveMusician(context.Background(), m, &prev); err != nil {
		t.Fatalf("move save: %v", err)
	}

	gotOld, _ := teams.GetByID(context.Background(), oldTeam.ID)
	if len(gotOld.Members) != 1 || gotOld.Members[0].Name != "객원 베이스" {
		t.Fatalf("old roster wrong after move: %+v", gotOld.Members)
	}
	gotNew, _ := teams.GetByID(context.Background(), newTeam.ID)
	if ids := rosterIDs(gotNew); len(ids) != 1 || ids[0] != m.ID {
		t.Fatalf("new roster wrong after move: %+v", gotNew.Members)
	}
}

func TestSaveMusicianLeavesTeam(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Quartet")
	svc := newProfileService(t, musicians, teams)

	m := validMusician(&team.ID)
	if err := svc.SaveMusician(context.Background(), m, nil); err != nil {
		t.Fatalf("initial save: %v", err)
	}

	prev := team.ID
	m.TeamID = nil
	if err := svc.SaveMusician(context.Background(), m, &prev); err != nil {
		t.Fatalf("leave save: %v", err)
	}

	got, _ := teams.GetByID(context.Background(), team.ID)
	if len(got.Members) != 0 {
		t.Fatalf("roster should be empty after leaving: %+v", got.Members)
	}
}

func TestSaveMusicianUnchangedTeamSkipsRosterWrites(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Quartet")
	svc := newProfileService(t, musicians, teams)

	m := validMusician(&team.ID)
	if err := svc.SaveMusician(context.Background(), m, nil); err != nil {
		t.Fatalf("initial save: %v", err)
	}
	teams.addCall, teams.rmCall = 0, 0

	prev := team.ID
	m.Name = "이선주 (피아노)"
	if err := svc.SaveMusician(context.Background(), m, &prev); err != nil {
		t.Fatalf("rename save: %v", err)
	}

	if teams.addCall != 0 || teams.rmCall != 0 {
		t.Fatalf("unchanged affiliation must not touch rosters: add=%d rm=%d", teams.addCall, teams.rmCall)
	}
	got, _ := musicians.GetByID(context.Background(), m.ID)
	if got.Name != "이선주 (피아노)" {
		t.Fatalf("musician update lost: %+v", got)
	}
}

func TestSaveMusicianReportsDriftOnRosterFailure(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Quartet")
	teams.addErr = errors.New("roster write failed")
	svc := newProfileService(t, musicians, teams)

	m := validMusician(&team.ID)
	err := svc.SaveMusician(context.Background(), m, nil)

	var drift *DriftError
	if !errors.As(err, &drift) {
		t.Fatalf("expected DriftError, got %v", err)
	}
	if drift.MusicianID != m.ID || drift.TeamID != team.ID {
		t.Fatalf("drift error misidentifies the pair: %+v", drift)
	}
	// The musician record stays written; only the roster side is behind.
	if _, err := musicians.GetByID(context.Background(), m.ID); err != nil {
		t.Fatalf("musician record must survive the failed roster write: %v", err)
	}
}

func TestSaveTeamDoesNotCascadeToMusicians(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Quartet")
	svc := newProfileService(t, musicians, teams)

	m := validMusician(&team.ID)
	if err := svc.SaveMusician(context.Background(), m, nil); err != nil {
		t.Fatalf("save musician: %v", err)
	}

	// The team owner rewrites the roster without the linked musician.
	got, _ := teams.GetByID(context.Background(), team.ID)
	got.TeamName = "Quartet"
	if err := svc.SaveTeam(context.Background(), got, nil); err != nil {
		t.Fatalf("save team: %v", err)
	}

	after, _ := musicians.GetByID(context.Background(), m.ID)
	if after.TeamID == nil || *after.TeamID != team.ID {
		t.Fatalf("team save must never write back to musicians: %+v", after)
	}

	drifts, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(drifts) != 1 || drifts[0].Direction != "missing_member" ||
		drifts[0].MusicianID != m.ID || drifts[0].TeamID != team.ID {
		t.Fatalf("expected one missing_member drift, got %+v", drifts)
	}
}

func TestReconcileReportsOrphanMembers(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Quartet")
	svc := newProfileService(t, musicians, teams)

	// Unaffiliated musician sitting on a roster anyway.
	m := validMusician(nil)
	if err := svc.SaveMusician(context.Background(), m, nil); err != nil {
		t.Fatalf("save musician: %v", err)
	}
	id := m.ID
	team.Members = []store.TeamMember{{Name: m.Name, Instrument: "피아노", MusicianID: &id}}

	drifts, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(drifts) != 1 || drifts[0].Direction != "orphan_member" || drifts[0].MusicianID != id {
		t.Fatalf("expected one orphan_member drift, got %+v", drifts)
	}
}

func TestReconcileCleanState(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Quartet")
	svc := newProfileService(t, musicians, teams)

	if err := svc.SaveMusician(context.Background(), validMusician(&team.ID), nil); err != nil {
		t.Fatalf("save musician: %v", err)
	}
	// Manual members never count as drift.
	team.Members = append(team.Members, store.TeamMember{Name: "객원 드럼", Instrument: "드럼"})

	drifts, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(drifts) != 0 {
		t.Fatalf("clean state reported drift: %+v", drifts)
	}
}

func TestSetLeaderExclusive(t *testing.T) {
	members := []store.TeamMember{
		{Name: "a", IsLeader: true},
		{Name: "b"},
		{Name: "c", IsLeader: true},
	}

	out := SetLeader(members, 1)
	for i, m := range out {
		if m.IsLeader != (i == 1) {
			t.Fatalf("leader flag wrong at %d: %+v", i, out)
		}
	}
	// Input slice stays untouched.
	if !members[0].IsLeader {
		t.Fatal("SetLeader mutated its input")
	}

	cleared := SetLeader(members, -1)
	for i, m := range cleared {
		if m.IsLeader {
			t.Fatalf("out-of-range index must clear all flags, member %d still leader", i)
		}
	}
}

func TestSaveTeamReplacesRosterVerbatim(t *testing.T) {
	musicians := newStubMusicianStore()
	teams := newStubTeamStore()
	team := teams.seed("Quartet")
	svc := newProfileService(t, musicians, teams)

	members := []store.TeamMember{
		{Name: "보컬", Instrument: "보컬", IsLeader: true},
		{Name: "드럼", Instrument: "드럼"},
	}
	team.TeamName = "Quintet"
	if err := svc.SaveTeam(context.Background(), team, members); err != nil {
		t.Fatalf("save team: %v", err)
	}

	got, _ := teams.GetByID(context.Background(), team.ID)
	if got.TeamName != "Quintet" {
		t.Fatalf("team fields not updated: %+v", got)
	}
	if len(got.Members) != 2 || !got.Members[0].IsLeader || got.Members[1].IsLeader {
		t.Fatalf("roster not replaced verbatim: %+v", got.Members)
	}
}
