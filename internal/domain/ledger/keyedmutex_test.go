package ledger

import (
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKeyedMutex(t *testing.T) {
	Convey("Given a keyed mutex", t, func() {
		k := newKeyedMutex()

		Convey("When many goroutines lock the same key", func() {
			var inside, maxInside atomic.Int32
			var wg sync.WaitGroup
			for range 50 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock := k.Lock("p1")
					n := inside.Add(1)
					if n > maxInside.Load() {
						maxInside.Store(n)
					}
					inside.Add(-1)
					unlock()
				}()
			}
			wg.Wait()

			Convey("Then they are serialized and the entry is released", func() {
				So(maxInside.Load(), ShouldEqual, 1)
				So(k.size(), ShouldEqual, 0)
			})
		})

		Convey("When different keys are held", func() {
			u1 := k.Lock("p1")
			u2 := k.Lock("p2")

			Convey("Then both are tracked until unlocked", func() {
				So(k.size(), ShouldEqual, 2)
				u1()
				u2()
				So(k.size(), ShouldEqual, 0)
			})
		})
	})
}
