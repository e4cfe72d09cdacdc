package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/meetpoints/internal/adapters/repository"
	service "github.com/okian/meetpoints/internal/app"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/points"
	"github.com/okian/meetpoints/internal/domain/standings"
	"github.com/okian/meetpoints/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	sprint   = "100m-sprint"
	longJump = "long-jump"
	relay    = "4x100m-relay"
)

// flakyStore fails every ranking write while fail is set.
type flakyStore struct {
	*repository.MemoryStore
	mu   sync.Mutex
	fail bool
}

func (s *flakyStore) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func (s *flakyStore) UpdateRanking(ctx context.Context, id string, position, pts int) error {
	s.mu.Lock()
	failing := s.fail
	s.mu.Unlock()
	if failing {
		return fmt.Errorf("write %s: %w", id, repository.ErrUnavailable)
	}
	return s.MemoryStore.UpdateRanking(ctx, id, position, pts)
}

type meet struct {
	ctx   context.Context
	store *flakyStore
	svc   *service.Service
	bib   int
}

func newMeet(opts ...service.Option) *meet {
	m := &meet{ctx: context.Background(), store: &flakyStore{MemoryStore: repository.NewMemoryStore()}}
	opts = append([]service.Option{service.WithLogger(logger.Nop())}, opts...)
	m.svc = service.New(m.store, opts...)
	report, err := m.svc.SeedCatalog(m.ctx)
	So(err, ShouldBeNil)
	So(report.Created, ShouldHaveLength, 19)
	return m
}

func (m *meet) athlete(id, first string, h model.House, g model.Gender) {
	m.bib++
	_, err := m.svc.RegisterAthlete(m.ctx, model.Athlete{ID: id, Bib: m.bib, FirstName: first, LastName: "Test", House: h, Gender: g})
	So(err, ShouldBeNil)
}

func (m *meet) submit(athleteID, eventID, raw string) model.Measurement {
	res, err := m.svc.SubmitResult(m.ctx, athleteID, eventID, raw)
	So(err, ShouldBeNil)
	return res
}

func (m *meet) get(id string) model.Measurement {
	res, err := m.store.GetMeasurement(m.ctx, id)
	So(err, ShouldBeNil)
	return res
}

func TestSubmitResult(t *testing.T) {
	Convey("Given a seeded meet with three sprinters", t, func() {
		m := newMeet()
		m.athlete("10000001", "Ana", model.HouseIgnis, model.GenderFemale)
		m.athlete("10000002", "Ben", model.HouseNereus, model.GenderMale)
		m.athlete("10000003", "Cas", model.HouseTerra, model.GenderMale)
		m.athlete("10000004", "Dev", model.HouseVentus, model.GenderMale)

		Convey("Results are ranked within the athlete's gender group as they arrive", func() {
			first := m.submit("10000002", sprint, "12.40")
			So(first.Position, ShouldEqual, 1)
			So(first.Points, ShouldEqual, 10)

			second := m.submit("10000003", sprint, "11.90")
			So(second.Position, ShouldEqual, 1)
			So(m.get(first.ID).Position, ShouldEqual, 2)
			So(m.get(first.ID).Points, ShouldEqual, 6)

			// a female result forms its own group
			her := m.submit("10000001", sprint, "13.10")
			So(her.Position, ShouldEqual, 1)
			So(her.Gender, ShouldEqual, model.GenderFemale)
		})

		Convey("Clock times are accepted for track events", func() {
			res := m.submit("10000002", sprint, "0:12.50")
			So(res.Value, ShouldAlmostEqual, 12.5, 1e-9)
		})

		Convey("Field events rank the longest mark first", func() {
			short := m.submit("10000002", longJump, "5.20")
			long := m.submit("10000003", longJump, "6.05")
			So(long.Position, ShouldEqual, 1)
			So(m.get(short.ID).Position, ShouldEqual, 2)
		})

		Convey("A second result for the same athlete and event is rejected", func() {
			m.submit("10000002", sprint, "12.40")
			_, err := m.svc.SubmitResult(m.ctx, "10000002", sprint, "12.00")
			So(errors.Is(err, service.ErrDuplicateResult), ShouldBeTrue)
		})

		Convey("Invalid submissions are rejected with their kind", func() {
			_, err := m.svc.SubmitResult(m.ctx, "10000002", sprint, "fast")
			So(errors.Is(err, service.ErrInvalidMeasurementFormat), ShouldBeTrue)

			_, err = m.svc.SubmitResult(m.ctx, "10000002", sprint, "-1")
			So(errors.Is(err, service.ErrInvalidMeasurementFormat), ShouldBeTrue)

			_, err = m.svc.SubmitResult(m.ctx, "10000002", longJump, "1:05")
			So(errors.Is(err, service.ErrInvalidMeasurementFormat), ShouldBeTrue)

			_, err = m.svc.SubmitResult(m.ctx, "99999999", sprint, "12.00")
			So(errors.Is(err, service.ErrUnknownAthlete), ShouldBeTrue)

			_, err = m.svc.SubmitResult(m.ctx, "10000002", "sack-race", "12.00")
			So(errors.Is(err, service.ErrUnknownEvent), ShouldBeTrue)

			_, err = m.svc.SubmitResult(m.ctx, "10000002", relay, "48.00")
			So(errors.Is(err, service.ErrRelayMismatch), ShouldBeTrue)

			results, err := m.svc.EventResults(m.ctx, sprint)
			So(err, ShouldBeNil)
			So(results, ShouldBeEmpty)
		})
	})
}

func TestRelay(t *testing.T) {
	Convey("Given two houses with four athletes each", t, func() {
		m := newMeet()
		var ignis, nereus [model.RelayMembers]string
		for i := range model.RelayMembers {
			ignis[i] = fmt.Sprintf("2000000%d", i)
			nereus[i] = fmt.Sprintf("3000000%d", i)
			m.athlete(ignis[i], "I", model.HouseIgnis, model.GenderFemale)
			m.athlete(nereus[i], "N", model.HouseNereus, model.GenderMale)
		}

		Convey("Registered teams score relay points for their house", func() {
			a, err := m.svc.RegisterRelayTeam(m.ctx, model.RelayTeam{Name: "Ignis A", House: model.HouseIgnis, EventID: relay, Members: ignis})
			So(err, ShouldBeNil)
			So(a.ID, ShouldNotBeEmpty)
			b, err := m.svc.RegisterRelayTeam(m.ctx, model.RelayTeam{Name: "Nereus A", House: model.HouseNereus, EventID: relay, Members: nereus})
			So(err, ShouldBeNil)

			ra, err := m.svc.SubmitRelayResult(m.ctx, a.ID, "48.10")
			So(err, ShouldBeNil)
			rb, err := m.svc.SubmitRelayResult(m.ctx, b.ID, "47.90")
			So(err, ShouldBeNil)
			So(rb.Position, ShouldEqual, 1)
			So(rb.Points, ShouldEqual, 15)
			So(m.get(ra.ID).Points, ShouldEqual, 9)

			houses, err := m.svc.HouseStandings(m.ctx)
			So(err, ShouldBeNil)
			So(houses[0].House, ShouldEqual, model.HouseNereus)
			So(houses[0].Relay, ShouldEqual, 15)
			So(houses[1].House, ShouldEqual, model.HouseIgnis)
			So(houses[1].Relay, ShouldEqual, 9)

			// relay points never reach athletes
			board, err := m.svc.AthleteLeaderboard(m.ctx, standings.Filter{})
			So(err, ShouldBeNil)
			So(board, ShouldBeEmpty)

			teams, err := m.svc.Teams(m.ctx, relay)
			So(err, ShouldBeNil)
			So(teams, ShouldHaveLength, 2)
		})

		Convey("Team membership is validated", func() {
			mixed := ignis
			mixed[3] = nereus[0]
			_, err := m.svc.RegisterRelayTeam(m.ctx, model.RelayTeam{Name: "Mixed", House: model.HouseIgnis, EventID: relay, Members: mixed})
			So(errors.Is(err, service.ErrInvalidTeam), ShouldBeTrue)

			twice := ignis
			twice[3] = ignis[0]
			_, err = m.svc.RegisterRelayTeam(m.ctx, model.RelayTeam{Name: "Twice", House: model.HouseIgnis, EventID: relay, Members: twice})
			So(errors.Is(err, service.ErrInvalidTeam), ShouldBeTrue)

			ghost := ignis
			ghost[2] = "77777777"
			_, err = m.svc.RegisterRelayTeam(m.ctx, model.RelayTeam{Name: "Ghost", House: model.HouseIgnis, EventID: relay, Members: ghost})
			So(errors.Is(err, service.ErrUnknownAthlete), ShouldBeTrue)

			_, err = m.svc.RegisterRelayTeam(m.ctx, model.RelayTeam{Name: "Sprinters", House: model.HouseIgnis, EventID: sprint, Members: ignis})
			So(errors.Is(err, service.ErrRelayMismatch), ShouldBeTrue)

			_, err = m.svc.SubmitRelayResult(m.ctx, "no-such-team", "48.00")
			So(errors.Is(err, service.ErrUnknownTeam), ShouldBeTrue)
		})
	})
}

func TestDeleteResult(t *testing.T) {
	Convey("Given a ranked sprint", t, func() {
		m := newMeet()
		m.athlete("10000001", "Ana", model.HouseIgnis, model.GenderMale)
		m.athlete("10000002", "Ben", model.HouseNereus, model.GenderMale)
		winner := m.submit("10000001", sprint, "11.00")
		runnerUp := m.submit("10000002", sprint, "12.00")

		Convey("Deleting the winner promotes the runner-up", func() {
			So(m.svc.DeleteResult(m.ctx, winner.ID), ShouldBeNil)
			got := m.get(runnerUp.ID)
			So(got.Position, ShouldEqual, 1)
			So(got.Points, ShouldEqual, 10)
		})

		Convey("Deleting an unknown result is not found", func() {
			err := m.svc.DeleteResult(m.ctx, "missing")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestRecomputeFailureIsRepaired(t *testing.T) {
	Convey("Given a store whose ranking writes fail", t, func() {
		m := newMeet(service.WithRepairRetry(10, 0))
		m.athlete("10000001", "Ana", model.HouseIgnis, model.GenderMale)
		m.store.setFailing(true)

		Convey("The submission still succeeds and the group is queued", func() {
			res, err := m.svc.SubmitResult(m.ctx, "10000001", sprint, "11.00")
			So(err, ShouldBeNil)
			So(res.Position, ShouldEqual, 0)
			So(m.svc.GetStats(m.ctx)["repairQueueLength"], ShouldEqual, 1)

			Convey("And a repair worker converges it once the store recovers", func() {
				m.store.setFailing(false)
				So(m.svc.Start(m.ctx), ShouldBeNil)
				defer func() { _ = m.svc.Stop(m.ctx) }()

				deadline := time.Now().Add(2 * time.Second)
				for m.get(res.ID).Position == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(m.get(res.ID).Position, ShouldEqual, 1)
				So(m.get(res.ID).Points, ShouldEqual, 10)
			})
		})
	})
}

func TestStandings(t *testing.T) {
	Convey("Given results across houses and genders", t, func() {
		m := newMeet()
		m.athlete("10000001", "Ana", model.HouseIgnis, model.GenderFemale)
		m.athlete("10000002", "Ben", model.HouseIgnis, model.GenderMale)
		m.athlete("10000003", "Cas", model.HouseTerra, model.GenderMale)
		m.athlete("10000004", "Dia", model.HouseVentus, model.GenderOther)
		m.submit("10000001", sprint, "13.00")  // Female 1st: 10
		m.submit("10000002", sprint, "11.50")  // Male 1st: 10
		m.submit("10000003", sprint, "11.80")  // Male 2nd: 6
		m.submit("10000003", longJump, "6.10") // Male 1st: 10
		m.submit("10000002", longJump, "5.90") // Male 2nd: 6

		Convey("House standings total individual points", func() {
			houses, err := m.svc.HouseStandings(m.ctx)
			So(err, ShouldBeNil)
			So(houses, ShouldHaveLength, 4)
			So(houses[0].House, ShouldEqual, model.HouseIgnis)
			So(houses[0].Total, ShouldEqual, 26)
			So(houses[0].ByCategory[model.CategoryTrack], ShouldEqual, 20)
			So(houses[0].ByCategory[model.CategoryField], ShouldEqual, 6)
			So(houses[1].House, ShouldEqual, model.HouseTerra)
			So(houses[1].Total, ShouldEqual, 16)
			So(houses[2].House, ShouldEqual, model.HouseNereus)
			So(houses[3].House, ShouldEqual, model.HouseVentus)
		})

		Convey("The athlete leaderboard filters and re-ranks", func() {
			all, err := m.svc.AthleteLeaderboard(m.ctx, standings.Filter{})
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 3)
			So(all[0].Name, ShouldEqual, "Ben Test")
			So(all[0].Points, ShouldEqual, 16)
			So(all[0].Gold, ShouldEqual, 1)

			men, err := m.svc.AthleteLeaderboard(m.ctx, standings.Filter{Gender: model.GenderMale, Limit: 1})
			So(err, ShouldBeNil)
			So(men, ShouldHaveLength, 1)
			So(men[0].Rank, ShouldEqual, 1)

			terra, err := m.svc.AthleteLeaderboard(m.ctx, standings.Filter{House: model.HouseTerra})
			So(err, ShouldBeNil)
			So(terra, ShouldHaveLength, 1)
			So(terra[0].AthleteID, ShouldEqual, "10000003")

			_, err = m.svc.AthleteLeaderboard(m.ctx, standings.Filter{Gender: "Robot"})
			So(errors.Is(err, service.ErrInvalidFilter), ShouldBeTrue)
		})

		Convey("Gender standings count athletes and individual points", func() {
			genders, err := m.svc.GenderStandings(m.ctx)
			So(err, ShouldBeNil)
			So(genders, ShouldHaveLength, 3)
			So(genders[0].Gender, ShouldEqual, model.GenderMale)
			So(genders[0].Points, ShouldEqual, 32)
			So(genders[0].Athletes, ShouldEqual, 2)
			So(genders[1].Points, ShouldEqual, 10)
			So(genders[2].Athletes, ShouldEqual, 1)
		})

		Convey("Event results are grouped by gender and formatted", func() {
			results, err := m.svc.EventResults(m.ctx, sprint)
			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 3)
			So(results[0].Gender, ShouldEqual, model.GenderMale)
			So(results[0].Position, ShouldEqual, 1)
			So(results[0].Display, ShouldEqual, "11.50s")
			So(results[1].Display, ShouldEqual, "11.80s")
			So(results[2].Gender, ShouldEqual, model.GenderFemale)

			jumps, err := m.svc.EventResults(m.ctx, longJump)
			So(err, ShouldBeNil)
			So(jumps[0].Display, ShouldEqual, "6.10m")

			_, err = m.svc.EventResults(m.ctx, "sack-race")
			So(errors.Is(err, service.ErrUnknownEvent), ShouldBeTrue)
		})

		Convey("A full recompute leaves every position unchanged", func() {
			results, err := m.svc.RecomputeAll(m.ctx)
			So(err, ShouldBeNil)
			changed := 0
			for _, r := range results {
				changed += r.Changed
			}
			So(changed, ShouldEqual, 0)

			one, err := m.svc.RecomputeEvent(m.ctx, sprint)
			So(err, ShouldBeNil)
			So(one, ShouldHaveLength, 3)

			_, err = m.svc.RecomputeGroup(m.ctx, sprint, "")
			So(errors.Is(err, service.ErrInvalidGender), ShouldBeTrue)
		})
	})
}

func TestRegistration(t *testing.T) {
	Convey("Given an empty meet", t, func() {
		m := newMeet()

		Convey("Athletes are validated", func() {
			bad := []model.Athlete{
				{ID: "123", Bib: 1, FirstName: "Short", House: model.HouseIgnis, Gender: model.GenderMale},
				{ID: "1234567a", Bib: 1, FirstName: "Letter", House: model.HouseIgnis, Gender: model.GenderMale},
				{ID: "1234.567", Bib: 1, FirstName: "Dot", House: model.HouseIgnis, Gender: model.GenderMale},
				{ID: "+1234567", Bib: 1, FirstName: "Plus", House: model.HouseIgnis, Gender: model.GenderMale},
				{ID: "-1234567", Bib: 1, FirstName: "Minus", House: model.HouseIgnis, Gender: model.GenderMale},
				{ID: "12345678", Bib: 0, FirstName: "NoBib", House: model.HouseIgnis, Gender: model.GenderMale},
				{ID: "12345678", Bib: 1, FirstName: "", House: model.HouseIgnis, Gender: model.GenderMale},
				{ID: "12345678", Bib: 1, FirstName: "Lost", House: "Atlantis", Gender: model.GenderMale},
				{ID: "12345678", Bib: 1, FirstName: "Who", House: model.HouseIgnis, Gender: "Robot"},
			}
			for _, a := range bad {
				_, err := m.svc.RegisterAthlete(m.ctx, a)
				So(errors.Is(err, service.ErrInvalidAthlete), ShouldBeTrue)
			}
		})

		Convey("Ids and bibs are unique", func() {
			m.athlete("12345678", "Ana", model.HouseIgnis, model.GenderFemale)
			_, err := m.svc.RegisterAthlete(m.ctx, model.Athlete{ID: "12345678", Bib: 99, FirstName: "Again", House: model.HouseIgnis, Gender: model.GenderFemale})
			So(errors.Is(err, service.ErrDuplicateAthlete), ShouldBeTrue)
			_, err = m.svc.RegisterAthlete(m.ctx, model.Athlete{ID: "87654321", Bib: 1, FirstName: "SameBib", House: model.HouseIgnis, Gender: model.GenderFemale})
			So(errors.Is(err, service.ErrDuplicateAthlete), ShouldBeTrue)

			athletes, err := m.svc.Athletes(m.ctx)
			So(err, ShouldBeNil)
			So(athletes, ShouldHaveLength, 1)
		})

		Convey("A gender correction reports the split events it affects", func() {
			m.athlete("12345678", "Ana", model.HouseIgnis, model.GenderFemale)
			res := m.submit("12345678", sprint, "13.00")
			other := model.GenderOther
			report, err := m.svc.CorrectAthlete(m.ctx, "12345678", service.AthleteCorrection{Gender: &other})
			So(err, ShouldBeNil)
			So(report.Athlete.Gender, ShouldEqual, model.GenderOther)
			So(report.StaleEvents, ShouldResemble, []string{sprint})
			// the result now reads back in the corrected group
			So(m.get(res.ID).Gender, ShouldEqual, model.GenderOther)

			house := model.HouseTerra
			report, err = m.svc.CorrectAthlete(m.ctx, "12345678", service.AthleteCorrection{House: &house})
			So(err, ShouldBeNil)
			So(report.StaleEvents, ShouldBeEmpty)

			bad := model.House("Atlantis")
			_, err = m.svc.CorrectAthlete(m.ctx, "12345678", service.AthleteCorrection{House: &bad})
			So(errors.Is(err, service.ErrInvalidAthlete), ShouldBeTrue)

			_, err = m.svc.CorrectAthlete(m.ctx, "00000000", service.AthleteCorrection{House: &house})
			So(errors.Is(err, service.ErrUnknownAthlete), ShouldBeTrue)
		})

		Convey("Events are validated and keyed by slug", func() {
			ev, err := m.svc.CreateEvent(m.ctx, model.Event{Name: "Sack Race", Category: model.CategoryTrack, Points: points.Config{Shared: points.Table{1: 5}}})
			So(err, ShouldBeNil)
			So(ev.ID, ShouldEqual, "sack-race")

			_, err = m.svc.CreateEvent(m.ctx, model.Event{Name: "Sack Race", Category: model.CategoryTrack})
			So(errors.Is(err, service.ErrDuplicateEvent), ShouldBeTrue)

			_, err = m.svc.CreateEvent(m.ctx, model.Event{Name: "Swim", Category: "Water"})
			So(errors.Is(err, service.ErrInvalidEvent), ShouldBeTrue)

			_, err = m.svc.CreateEvent(m.ctx, model.Event{Name: "Split Relay", Category: model.CategoryTrack, Relay: true, GenderSplit: true})
			So(errors.Is(err, service.ErrInvalidEvent), ShouldBeTrue)

			_, err = m.svc.CreateEvent(m.ctx, model.Event{Name: "Bad Table", Category: model.CategoryField, Points: points.Config{Shared: points.Table{1: -1}}})
			So(errors.Is(err, service.ErrInvalidEvent), ShouldBeTrue)

			events, err := m.svc.Events(m.ctx)
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 20)
		})
	})
}

func TestCatalog(t *testing.T) {
	Convey("Given a seeded meet", t, func() {
		m := newMeet()

		Convey("Seeding again skips every known event", func() {
			report, err := m.svc.SeedCatalog(m.ctx)
			So(err, ShouldBeNil)
			So(report.Created, ShouldBeEmpty)
			So(report.Skipped, ShouldHaveLength, 19)
		})

		Convey("The seeded allocations match the catalog", func() {
			findings, err := m.svc.AuditPoints(m.ctx)
			So(err, ShouldBeNil)
			So(findings, ShouldBeEmpty)
		})

		Convey("An event with a custom table is reported", func() {
			_, err := m.svc.CreateEvent(m.ctx, model.Event{Name: "Sack Race", Category: model.CategoryTrack, Points: points.Config{Shared: points.Table{1: 5}}})
			So(err, ShouldBeNil)
			findings, err := m.svc.AuditPoints(m.ctx)
			So(err, ShouldBeNil)
			So(findings, ShouldHaveLength, 1)
			So(findings[0].EventID, ShouldEqual, "sack-race")
			So(findings[0].Actual, ShouldResemble, points.Table{1: 5})
		})
	})
}

func TestLifecycleAndStats(t *testing.T) {
	Convey("Given a service", t, func() {
		m := newMeet(service.WithRepairWorkers(3), service.WithRepairQueueSize(8))

		Convey("Start and Stop are idempotent", func() {
			So(m.svc.Start(m.ctx), ShouldBeNil)
			So(m.svc.Start(m.ctx), ShouldBeNil)
			So(m.svc.GetStats(m.ctx)["started"], ShouldBeTrue)
			So(m.svc.Stop(m.ctx), ShouldBeNil)
			So(m.svc.Stop(m.ctx), ShouldBeNil)
			So(m.svc.GetStats(m.ctx)["started"], ShouldBeFalse)
		})

		Convey("A restarted service repairs groups again", func() {
			m := newMeet(service.WithRepairRetry(10, 0))
			m.athlete("10000001", "Ana", model.HouseIgnis, model.GenderMale)
			So(m.svc.Start(m.ctx), ShouldBeNil)
			So(m.svc.Stop(m.ctx), ShouldBeNil)
			So(m.svc.Start(m.ctx), ShouldBeNil)
			defer func() { _ = m.svc.Stop(m.ctx) }()

			m.store.setFailing(true)
			res, err := m.svc.SubmitResult(m.ctx, "10000001", sprint, "11.00")
			So(err, ShouldBeNil)
			m.store.setFailing(false)

			deadline := time.Now().Add(2 * time.Second)
			for m.get(res.ID).Position == 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(m.get(res.ID).Position, ShouldEqual, 1)
		})

		Convey("A logger option is enough to build a service", func() {
			So(func() { service.New(repository.NewMemoryStore(), service.WithLogger(logger.Nop())) }, ShouldNotPanic)
		})

		Convey("Stats report store counts and repair settings", func() {
			m.athlete("10000001", "Ana", model.HouseIgnis, model.GenderMale)
			stats := m.svc.GetStats(m.ctx)
			So(stats["athletes"], ShouldEqual, 1)
			So(stats["events"], ShouldEqual, 19)
			So(stats["repairWorkers"], ShouldEqual, 3)
			So(stats["repairQueueSize"], ShouldEqual, 8)
		})

		Convey("Request ids are remembered until unrecorded", func() {
			So(m.svc.SeenAndRecord(m.ctx, "req-1"), ShouldBeFalse)
			So(m.svc.SeenAndRecord(m.ctx, "req-1"), ShouldBeTrue)
			m.svc.Unrecord(m.ctx, "req-1")
			So(m.svc.SeenAndRecord(m.ctx, "req-1"), ShouldBeFalse)
		})
	})
}
