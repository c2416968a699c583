package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/staffing/internal/domain/ledger"
	"github.com/okian/staffing/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type directory map[string]model.Employee

func (d directory) GetEmployee(_ context.Context, id string) (model.Employee, error) {
	e, ok := d[id]
	if !ok {
		return model.Employee{}, fmt.Errorf("%w: employee %s", model.ErrNotFound, id)
	}
	return e, nil
}

type catalog map[string]model.Project

func (c catalog) GetProject(_ context.Context, id string) (model.Project, error) {
	p, ok := c[id]
	if !ok {
		return model.Project{}, fmt.Errorf("%w: project %s", model.ErrNotFound, id)
	}
	return p, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AllocationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.AllocationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func headcount(n int) *int { return &n }

func fixture() (directory, catalog) {
	emps := directory{}
	for i := range 20 {
		id := fmt.Sprintf("E%d", i)
		emps[id] = model.Employee{ID: id, Name: "Employee " + id}
	}
	projects := catalog{
		"P1": {ID: "P1", Name: "Payments"},
		"P2": {ID: "P2", Name: "Search", Headcount: headcount(1)},
		"P3": {ID: "P3", Name: "Frozen", Headcount: headcount(0)},
		"P4": {ID: "P4", Name: "Platform", Headcount: headcount(3)},
	}
	return emps, projects
}

func newLedger(opts ...ledger.Option) (*ledger.Ledger, *ledger.MemoryStore) {
	emps, projects := fixture()
	store := ledger.NewMemoryStore()
	var tick atomic.Int64
	base := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return base.Add(time.Duration(tick.Add(1)) * time.Minute) }
	opts = append([]ledger.Option{ledger.WithClock(clock)}, opts...)
	return ledger.New(store, emps, projects, opts...), store
}

func TestLedger_Allocate(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty ledger", t, func() {
		pub := &recordingPublisher{}
		l, _ := newLedger(ledger.WithPublisher(pub))

		Convey("When allocating a known pair", func() {
			a, err := l.Allocate(ctx, "E1", "P1")

			Convey("Then an Active allocation with denormalized names is stored", func() {
				So(err, ShouldBeNil)
				So(a.ID, ShouldNotBeEmpty)
				So(a.Status, ShouldEqual, model.AllocationActive)
				So(a.EmployeeName, ShouldEqual, "Employee E1")
				So(a.ProjectName, ShouldEqual, "Payments")
				So(a.AllocatedAt.Location(), ShouldEqual, time.UTC)

				got, err := l.Get(ctx, a.ID)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, a)
			})

			Convey("And an allocated event is published", func() {
				So(len(pub.events), ShouldEqual, 1)
				So(pub.events[0].Type, ShouldEqual, model.EventAllocated)
				So(pub.events[0].AllocationID, ShouldEqual, a.ID)
			})

			Convey("And allocating the same pair again is rejected without changes", func() {
				_, err := l.Allocate(ctx, "E1", "P1")
				So(errors.Is(err, model.ErrDuplicateActive), ShouldBeTrue)

				all, err := l.List(ctx, ledger.Filter{})
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 1)
			})
		})

		Convey("When ids are empty", func() {
			_, err := l.Allocate(ctx, " ", "P1")
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When ids do not resolve", func() {
			_, err := l.Allocate(ctx, "nobody", "P1")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			_, err = l.Allocate(ctx, "E1", "nowhere")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a project has headcount 1", func() {
			_, err := l.Allocate(ctx, "E1", "P2")
			So(err, ShouldBeNil)
			_, err = l.Allocate(ctx, "E2", "P2")

			Convey("Then the second allocation exceeds headcount", func() {
				So(errors.Is(err, model.ErrHeadcountExceeded), ShouldBeTrue)
			})
		})

		Convey("When a project has headcount 0", func() {
			_, err := l.Allocate(ctx, "E1", "P3")
			So(errors.Is(err, model.ErrHeadcountExceeded), ShouldBeTrue)
		})

		Convey("When the publisher fails", func() {
			pub.err = errors.New("queue full")
			_, err := l.Allocate(ctx, "E5", "P1")

			Convey("Then the allocation still commits", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestLedger_Remove(t *testing.T) {
	ctx := context.Background()

	Convey("Given an allocation", t, func() {
		pub := &recordingPublisher{}
		l, _ := newLedger(ledger.WithPublisher(pub))
		a, err := l.Allocate(ctx, "E1", "P2")
		So(err, ShouldBeNil)

		Convey("When removing it", func() {
			cancelled, err := l.Remove(ctx, a.ID)

			Convey("Then it is soft-cancelled", func() {
				So(err, ShouldBeNil)
				So(cancelled.Status, ShouldEqual, model.AllocationCancelled)
				So(cancelled.CancelledAt, ShouldNotBeNil)
				So(cancelled.CancelledAt.After(a.AllocatedAt), ShouldBeTrue)
				So(pub.events[len(pub.events)-1].Type, ShouldEqual, model.EventCancelled)
			})

			Convey("And removing it again is NotFound with the status unchanged", func() {
				_, err := l.Remove(ctx, a.ID)
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
				got, err := l.Get(ctx, a.ID)
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.AllocationCancelled)
				So(got.CancelledAt, ShouldResemble, cancelled.CancelledAt)
			})

			Convey("And the freed seat can be taken", func() {
				_, err := l.Allocate(ctx, "E2", "P2")
				So(err, ShouldBeNil)
			})

			Convey("And the same pair can be allocated again", func() {
				again, err := l.Allocate(ctx, "E1", "P2")
				So(err, ShouldBeNil)
				So(again.ID, ShouldNotEqual, a.ID)
			})
		})

		Convey("When removing an unknown id", func() {
			_, err := l.Remove(ctx, "missing")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestLedger_List(t *testing.T) {
	ctx := context.Background()

	Convey("Given several allocations", t, func() {
		l, _ := newLedger()
		first, _ := l.Allocate(ctx, "E1", "P1")
		second, _ := l.Allocate(ctx, "E2", "P1")
		third, _ := l.Allocate(ctx, "E1", "P4")
		_, err := l.Remove(ctx, second.ID)
		So(err, ShouldBeNil)

		Convey("Then listing is newest first", func() {
			all, err := l.List(ctx, ledger.Filter{})
			So(err, ShouldBeNil)
			So([]string{all[0].ID, all[1].ID, all[2].ID}, ShouldResemble, []string{third.ID, second.ID, first.ID})
		})

		Convey("Then filters combine", func() {
			byEmployee, _ := l.List(ctx, ledger.Filter{EmployeeID: "E1"})
			So(len(byEmployee), ShouldEqual, 2)

			active, _ := l.List(ctx, ledger.Filter{ProjectID: "P1", Status: model.AllocationActive})
			So(len(active), ShouldEqual, 1)
			So(active[0].ID, ShouldEqual, first.ID)

			cancelled, _ := l.List(ctx, ledger.Filter{Status: model.AllocationCancelled})
			So(len(cancelled), ShouldEqual, 1)
		})
	})
}

func TestLedger_Concurrency(t *testing.T) {
	ctx := context.Background()

	Convey("Given a project with headcount 3 and many concurrent requests", t, func() {
		l, store := newLedger()

		var wg sync.WaitGroup
		var ok, full atomic.Int32
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := l.Allocate(ctx, fmt.Sprintf("E%d", i), "P4")
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, model.ErrHeadcountExceeded):
					full.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly headcount allocations succeed", func() {
			So(ok.Load(), ShouldEqual, 3)
			So(full.Load(), ShouldEqual, 17)
			n, err := store.CountActive(ctx, "P4")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)
		})

		Convey("When allocations and removals interleave", func() {
			active, err := l.List(ctx, ledger.Filter{ProjectID: "P4", Status: model.AllocationActive})
			So(err, ShouldBeNil)

			var wg sync.WaitGroup
			var maxSeen atomic.Int32
			for _, a := range active {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = l.Remove(ctx, a.ID)
				}()
			}
			for i := 3; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = l.Allocate(ctx, fmt.Sprintf("E%d", i), "P4")
					n, _ := store.CountActive(ctx, "P4")
					for {
						cur := maxSeen.Load()
						if int32(n) <= cur || maxSeen.CompareAndSwap(cur, int32(n)) {
							break
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then the active count never exceeds headcount", func() {
				So(maxSeen.Load(), ShouldBeLessThanOrEqualTo, 3)
				n, _ := store.CountActive(ctx, "P4")
				So(n, ShouldBeLessThanOrEqualTo, 3)
			})
		})

		Convey("When the same pair is requested concurrently", func() {
			var wg sync.WaitGroup
			var ok atomic.Int32
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := l.Allocate(ctx, "E19", "P1"); err == nil {
						ok.Add(1)
					}
				}()
			}
			wg.Wait()

			Convey("Then only one succeeds", func() {
				So(ok.Load(), ShouldEqual, 1)
			})
		})
	})
}
