package recalc_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/meetpoints/internal/adapters/repository"
	"github.com/okian/meetpoints/internal/domain/model"
	"github.com/okian/meetpoints/internal/domain/points"
	"github.com/okian/meetpoints/internal/domain/ranking"
	"github.com/okian/meetpoints/internal/domain/recalc"
	. "github.com/smartystreets/goconvey/convey"
)

var ctx = context.Background()

type fixture struct {
	store *repository.MemoryStore
	bib   int
}

func newFixture() *fixture {
	return &fixture{store: repository.NewMemoryStore()}
}

func (f *fixture) event(e model.Event) {
	So(f.store.CreateEvent(ctx, e), ShouldBeNil)
}

func (f *fixture) athlete(id string, h model.House, g model.Gender) {
	f.bib++
	So(f.store.CreateAthlete(ctx, model.Athlete{ID: id, Bib: f.bib, FirstName: id, House: h, Gender: g}), ShouldBeNil)
}

func (f *fixture) result(id, eventID, athleteID, teamID string, v float64) {
	_, err := f.store.InsertMeasurement(ctx, model.Measurement{ID: id, EventID: eventID, AthleteID: athleteID, TeamID: teamID, Value: v})
	So(err, ShouldBeNil)
}

func (f *fixture) ranking(id string) (int, int) {
	m, err := f.store.GetMeasurement(ctx, id)
	So(err, ShouldBeNil)
	return m.Position, m.Points
}

func TestRecomputeGroupScenarios(t *testing.T) {
	Convey("Given a track event with three entrants", t, func() {
		f := newFixture()
		f.event(model.Event{ID: "100m", Name: "100m Sprint", Category: model.CategoryTrack})
		f.athlete("a1", model.HouseIgnis, model.GenderMale)
		f.athlete("a2", model.HouseNereus, model.GenderMale)
		f.athlete("a3", model.HouseTerra, model.GenderMale)
		f.result("m1", "100m", "a1", "", 12.34)
		f.result("m2", "100m", "a2", "", 11.02)
		f.result("m3", "100m", "a3", "", 13.50)
		o := recalc.New(f.store)

		res, err := o.RecomputeGroup(ctx, "100m", "")
		So(err, ShouldBeNil)

		Convey("Then lower times rank first", func() {
			So(res.Entrants, ShouldEqual, 3)
			So(res.Written, ShouldEqual, 3)
			p, pts := f.ranking("m1")
			So(p, ShouldEqual, 2)
			So(pts, ShouldEqual, 6)
			p, pts = f.ranking("m2")
			So(p, ShouldEqual, 1)
			So(pts, ShouldEqual, 10)
			p, pts = f.ranking("m3")
			So(p, ShouldEqual, 3)
			So(pts, ShouldEqual, 3)
		})

		Convey("When the winner is deleted and the group recomputed", func() {
			_, err := f.store.DeleteMeasurement(ctx, "m2")
			So(err, ShouldBeNil)
			_, err = o.RecomputeGroup(ctx, "100m", "")
			So(err, ShouldBeNil)

			Convey("Then the remaining entrants move up in order", func() {
				p, pts := f.ranking("m1")
				So(p, ShouldEqual, 1)
				So(pts, ShouldEqual, 10)
				p, pts = f.ranking("m3")
				So(p, ShouldEqual, 2)
				So(pts, ShouldEqual, 6)
			})
		})

		Convey("When recomputed again without changes", func() {
			again, err := o.RecomputeGroup(ctx, "100m", "")

			Convey("Then every row is rewritten and nothing changes", func() {
				So(err, ShouldBeNil)
				So(again.Written, ShouldEqual, 3)
				So(again.Changed, ShouldEqual, 0)
				p, _ := f.ranking("m1")
				So(p, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a field event with a tie", t, func() {
		f := newFixture()
		f.event(model.Event{ID: "lj", Name: "Long Jump", Category: model.CategoryField,
			Points: points.Config{Shared: points.Table{1: 10, 2: 6, 3: 3, 4: 1}}})
		f.athlete("a1", model.HouseIgnis, model.GenderFemale)
		f.athlete("a2", model.HouseNereus, model.GenderFemale)
		f.athlete("a3", model.HouseTerra, model.GenderFemale)
		f.result("m1", "lj", "a1", "", 5.20)
		f.result("m2", "lj", "a2", "", 6.10)
		f.result("m3", "lj", "a3", "", 5.20)

		Convey("With the default policy", func() {
			_, err := recalc.New(f.store).RecomputeGroup(ctx, "lj", "")
			So(err, ShouldBeNil)

			Convey("Then tied entrants get adjacent positions in insertion order", func() {
				p, pts := f.ranking("m2")
				So([]int{p, pts}, ShouldResemble, []int{1, 10})
				p, pts = f.ranking("m1")
				So([]int{p, pts}, ShouldResemble, []int{2, 6})
				p, pts = f.ranking("m3")
				So([]int{p, pts}, ShouldResemble, []int{3, 3})
			})
		})

		Convey("With the shared policy", func() {
			o := recalc.New(f.store, recalc.WithTiePolicy(ranking.SharedSkip))
			_, err := o.RecomputeGroup(ctx, "lj", "")
			So(err, ShouldBeNil)

			Convey("Then tied entrants share the position", func() {
				p1, pts1 := f.ranking("m1")
				p3, pts3 := f.ranking("m3")
				So(p1, ShouldEqual, 2)
				So(p3, ShouldEqual, 2)
				So(pts1, ShouldEqual, 6)
				So(pts3, ShouldEqual, 6)
			})
		})
	})

	Convey("Given a relay event with two teams", t, func() {
		f := newFixture()
		f.event(model.Event{ID: "4x100", Name: "4x100m Relay", Category: model.CategoryTrack, Relay: true,
			Points: points.Config{Shared: points.Table{1: 15, 2: 9, 3: 5, 4: 3}}})
		So(f.store.CreateTeam(ctx, model.RelayTeam{ID: "A", Name: "A", House: model.HouseVentus, EventID: "4x100"}), ShouldBeNil)
		So(f.store.CreateTeam(ctx, model.RelayTeam{ID: "B", Name: "B", House: model.HouseIgnis, EventID: "4x100"}), ShouldBeNil)
		f.result("rA", "4x100", "", "A", 45.00)
		f.result("rB", "4x100", "", "B", 44.50)

		_, err := recalc.New(f.store).RecomputeGroup(ctx, "4x100", model.GenderFemale)
		So(err, ShouldBeNil)

		Convey("Then the faster team takes the relay table's first place", func() {
			p, pts := f.ranking("rB")
			So([]int{p, pts}, ShouldResemble, []int{1, 15})
			p, pts = f.ranking("rA")
			So([]int{p, pts}, ShouldResemble, []int{2, 9})
		})
	})

	Convey("Given a gender-split event with equal times across genders", t, func() {
		f := newFixture()
		tbl := points.Table{1: 10, 2: 6, 3: 3, 4: 1}
		f.event(model.Event{ID: "200m", Name: "200m Sprint", Category: model.CategoryTrack, GenderSplit: true,
			Points: points.Config{ByGender: map[string]points.Table{"Male": tbl, "Female": tbl}}})
		f.athlete("man", model.HouseIgnis, model.GenderMale)
		f.athlete("woman", model.HouseTerra, model.GenderFemale)
		f.result("mm", "200m", "man", "", 25.0)
		f.result("mw", "200m", "woman", "", 25.0)

		o := recalc.New(f.store)
		_, err := o.RecomputeGroup(ctx, "200m", model.GenderMale)
		So(err, ShouldBeNil)
		_, err = o.RecomputeGroup(ctx, "200m", model.GenderFemale)
		So(err, ShouldBeNil)

		Convey("Then each wins their own group", func() {
			p, pts := f.ranking("mm")
			So([]int{p, pts}, ShouldResemble, []int{1, 10})
			p, pts = f.ranking("mw")
			So([]int{p, pts}, ShouldResemble, []int{1, 10})
		})

		Convey("Then a split event needs a valid gender", func() {
			_, err := o.RecomputeGroup(ctx, "200m", "")
			So(errors.Is(err, recalc.ErrInvalidGender), ShouldBeTrue)
			_, err = o.RecomputeGroup(ctx, "200m", "Robot")
			So(errors.Is(err, recalc.ErrInvalidGender), ShouldBeTrue)
		})

		Convey("Then RecomputeEvent covers every gender group", func() {
			res, err := o.RecomputeEvent(ctx, "200m")
			So(err, ShouldBeNil)
			So(res, ShouldHaveLength, 3)
		})
	})

	Convey("Given an unknown event", t, func() {
		_, err := recalc.New(repository.NewMemoryStore()).RecomputeGroup(ctx, "nope", "")

		Convey("Then it is reported as unknown", func() {
			So(errors.Is(err, recalc.ErrUnknownEvent), ShouldBeTrue)
		})
	})

	Convey("Given configured defaults and an event without a table", t, func() {
		f := newFixture()
		f.event(model.Event{ID: "hj", Name: "High Jump", Category: model.CategoryField})
		f.athlete("a1", model.HouseIgnis, model.GenderMale)
		f.result("m1", "hj", "a1", "", 1.80)

		o := recalc.New(f.store, recalc.WithDefaults(points.Defaults{Individual: points.Table{1: 7}}))
		_, err := o.RecomputeGroup(ctx, "hj", "")
		So(err, ShouldBeNil)

		Convey("Then the configured default applies", func() {
			_, pts := f.ranking("m1")
			So(pts, ShouldEqual, 7)
		})
	})
}

// flakyStore fails ranking writes for chosen measurement ids.
type flakyStore struct {
	*repository.MemoryStore
	mu   sync.Mutex
	fail map[string]bool
}

func (s *flakyStore) UpdateRanking(ctx context.Context, id string, position, pts int) error {
	s.mu.Lock()
	failing := s.fail[id]
	s.mu.Unlock()
	if failing {
		return fmt.Errorf("write %s: %w", id, repository.ErrUnavailable)
	}
	return s.MemoryStore.UpdateRanking(ctx, id, position, pts)
}

func TestPartialFailure(t *testing.T) {
	Convey("Given a store that fails one write", t, func() {
		f := newFixture()
		f.event(model.Event{ID: "100m", Name: "100m Sprint", Category: model.CategoryTrack})
		f.athlete("a1", model.HouseIgnis, model.GenderMale)
		f.athlete("a2", model.HouseNereus, model.GenderMale)
		f.athlete("a3", model.HouseTerra, model.GenderMale)
		f.result("m1", "100m", "a1", "", 12.0)
		f.result("m2", "100m", "a2", "", 11.0)
		f.result("m3", "100m", "a3", "", 13.0)
		store := &flakyStore{MemoryStore: f.store, fail: map[string]bool{"m2": true}}
		o := recalc.New(store)

		res, err := o.RecomputeGroup(ctx, "100m", "")

		Convey("Then the other rows are still written", func() {
			So(errors.Is(err, recalc.ErrPartialUpdate), ShouldBeTrue)
			So(errors.Is(err, repository.ErrUnavailable), ShouldBeTrue)
			So(res.Written, ShouldEqual, 2)
			p, _ := f.ranking("m1")
			So(p, ShouldEqual, 2)
			p, _ = f.ranking("m2")
			So(p, ShouldEqual, 0)
		})

		Convey("When the store recovers", func() {
			store.mu.Lock()
			store.fail = nil
			store.mu.Unlock()
			_, err := o.RecomputeGroup(ctx, "100m", "")

			Convey("Then the group converges", func() {
				So(err, ShouldBeNil)
				p, pts := f.ranking("m2")
				So([]int{p, pts}, ShouldResemble, []int{1, 10})
			})
		})
	})
}

func TestRecomputeAll(t *testing.T) {
	Convey("Given several events and one failing group", t, func() {
		f := newFixture()
		f.event(model.Event{ID: "100m", Name: "100m Sprint", Category: model.CategoryTrack, GenderSplit: true})
		f.event(model.Event{ID: "lj", Name: "Long Jump", Category: model.CategoryField})
		f.event(model.Event{ID: "4x100", Name: "4x100m Relay", Category: model.CategoryTrack, Relay: true})
		f.athlete("a1", model.HouseIgnis, model.GenderMale)
		f.athlete("a2", model.HouseNereus, model.GenderFemale)
		f.result("s1", "100m", "a1", "", 12.0)
		f.result("s2", "100m", "a2", "", 13.0)
		f.result("j1", "lj", "a1", "", 5.0)
		f.result("j2", "lj", "a2", "", 6.0)
		store := &flakyStore{MemoryStore: f.store, fail: map[string]bool{"j2": true}}

		results, err := recalc.New(store, recalc.WithConcurrency(2)).RecomputeAll(
			recalc.WithTrigger(ctx, "test"))

		Convey("Then every group is attempted", func() {
			// three sprint groups, one jump group, one relay group
			So(results, ShouldHaveLength, 5)
		})

		Convey("Then the failure is reported and others are written", func() {
			So(errors.Is(err, recalc.ErrPartialUpdate), ShouldBeTrue)
			p, _ := f.ranking("s1")
			So(p, ShouldEqual, 1)
			p, _ = f.ranking("s2")
			So(p, ShouldEqual, 1)
			p, _ = f.ranking("j1")
			So(p, ShouldEqual, 2)
		})
	})

	Convey("Given concurrent recomputations of one group", t, func() {
		f := newFixture()
		f.event(model.Event{ID: "lj", Name: "Long Jump", Category: model.CategoryField})
		for i := 0; i < 20; i++ {
			id := fmt.Sprintf("a%02d", i)
			f.athlete(id, model.HouseVentus, model.GenderOther)
			f.result("m"+id, "lj", id, "", float64(i%5)+1)
		}
		o := recalc.New(f.store)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = o.RecomputeGroup(ctx, "lj", "")
			}()
		}
		wg.Wait()

		Convey("Then positions form a permutation", func() {
			group, err := f.store.ListGroup(ctx, "lj", "")
			So(err, ShouldBeNil)
			seen := map[int]bool{}
			for _, m := range group {
				seen[m.Position] = true
			}
			So(len(seen), ShouldEqual, 20)
			So(seen[1], ShouldBeTrue)
			So(seen[20], ShouldBeTrue)
		})
	})
}
