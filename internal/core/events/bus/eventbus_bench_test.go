package bus

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func benchEvt(t string) Event {
	return NewEvent(t, "bench", nil)
}

var errBench = errors.New("sentinel")

func makeHandler(c *int64, fail bool) EventHandler {
	return func(Event) error {
		atomic.AddInt64(c, 1)
		if fail {
			return errBench
		}
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) OnPublish(string, Event)               {}
func (nopObserver) OnDelivered(string, int, error, int64) {}

func BenchmarkPublishSingleSubscriber(b *testing.B) {
	bus := New()
	var c int64
	_, _ = bus.Subscribe("ev", makeHandler(&c, false))
	e := benchEvt("ev")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(e)
	}
}

func BenchmarkPublishManySubscribers(b *testing.B) {
	for _, n := range []int{8, 64, 512} {
		b.Run(fmt.Sprintf("subs=%d", n), func(b *testing.B) {
			bus := New()
			var c int64
			for range n {
				_, _ = bus.Subscribe("ev", makeHandler(&c, false))
			}
			e := benchEvt("ev")
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = bus.Publish(e)
			}
		})
	}
}

func BenchmarkConcurrentPublishers(b *testing.B) {
	bus := New()
	var c int64
	for range 16 {
		_, _ = bus.Subscribe("ev", makeHandler(&c, false))
	}
	e := benchEvt("ev")
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = bus.Publish(e)
		}
	})
}

func BenchmarkObserverOverhead(b *testing.B) {
	bus := New()
	bus.AddObserver(nopObserver{})
	var c int64
	_, _ = bus.Subscribe("ev", makeHandler(&c, true))
	e := benchEvt("ev")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(e)
	}
}

func BenchmarkSubscribeUnsubscribeChurn(b *testing.B) {
	bus := New()
	var c int64
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sub, _ := bus.Subscribe("ev", makeHandler(&c, false))
		_ = sub.Cancel()
	}
}
