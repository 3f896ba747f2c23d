package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/analysis"
)

func TestRegistry(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		reg := NewRegistry()

		Convey("When a session is added", func() {
			m := NewMachine("sess-1", testQuestions(2))
			err := reg.Add(m, analysis.NewState("sess-1", 100))

			So(err, ShouldBeNil)
			So(reg.Len(), ShouldEqual, 1)

			Convey("Then lookups return the same entry", func() {
				e, err := reg.Get("sess-1")

				So(err, ShouldBeNil)
				So(e.Machine, ShouldEqual, m)
				So(e.Analysis, ShouldNotBeNil)
			})

			Convey("Then re-adding the same id is rejected", func() {
				err := reg.Add(NewMachine("sess-1", testQuestions(2)), analysis.NewState("sess-1", 100))

				So(errors.Is(err, ErrExists), ShouldBeTrue)
				So(reg.Len(), ShouldEqual, 1)
			})

			Convey("Then deletes make later lookups fail cleanly", func() {
				reg.Delete("sess-1")

				_, err := reg.Get("sess-1")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)

				// deleting again is a no-op
				reg.Delete("sess-1")
				So(reg.Len(), ShouldEqual, 0)
			})
		})

		Convey("When an unknown id is looked up", func() {
			_, err := reg.Get("ghost")

			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When many goroutines add, read and delete concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					id := fmt.Sprintf("sess-%d", n)
					_ = reg.Add(NewMachine(id, testQuestions(1)), analysis.NewState(id, 10))
					if e, err := reg.Get(id); err == nil {
						_ = e.Machine.State()
					}
					_ = reg.IDs()
					if n%2 == 0 {
						reg.Delete(id)
					}
				}(i)
			}
			wg.Wait()

			Convey("Then only the surviving sessions remain", func() {
				So(reg.Len(), ShouldEqual, 8)
			})
		})
	})
}
