package registry_test

import (
	"errors"
	"runtime"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vnykmshr/tickflow/internal/testutil"
	tferrors "github.com/vnykmshr/tickflow/pkg/common/errors"
	"github.com/vnykmshr/tickflow/pkg/scheduling/registry"
	"github.com/vnykmshr/tickflow/pkg/scheduling/tickthread"
)

// createDetachedThread creates a never-started thread and drops it.
func createDetachedThread(m *registry.Manager) int {
	h, _, err := m.CreateThread(time.Millisecond)
	Expect(err).NotTo(HaveOccurred())
	return h
}

func createDetachedPool(m *registry.Manager) int {
	h, _ := m.CreatePool(0)
	return h
}

var _ = Describe("Manager", func() {
	var m *registry.Manager

	BeforeEach(func() {
		m = registry.NewManager()
	})

	AfterEach(func() {
		m.Close()
	})

	Context("handles", func() {
		// Given a fresh manager
		// When threads and pools are created
		// Then each kind gets its own monotonically increasing handles
		It("should hand out independent monotonic handles", func() {
			h0, th0, err := m.CreateThread(time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			h1, th1, err := m.CreateThread(time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			p0, pool0 := m.CreatePool(1)

			Expect(h0).To(Equal(0))
			Expect(h1).To(Equal(1))
			Expect(p0).To(Equal(0))

			got, ok := m.GetThread(h1)
			Expect(ok).To(BeTrue())
			Expect(got).To(BeIdenticalTo(th1))
			Expect(m.HasThread(h0)).To(BeTrue())
			Expect(m.HasPool(p0)).To(BeTrue())
			Expect(m.HasThread(42)).To(BeFalse())

			runtime.KeepAlive(th0)
			runtime.KeepAlive(pool0)
		})

		It("should not consume a handle when creation fails", func() {
			_, _, err := m.CreateThread(-time.Second)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, tferrors.ErrInvalidConfiguration)).To(BeTrue())

			h, th, err := m.CreateThread(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(0))
			runtime.KeepAlive(th)
		})

		It("should name threads and pools after their handle", func() {
			_, th, err := m.CreateThread(time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			_, p := m.CreatePool(1)
			Expect(th.Name()).To(Equal("thread-0"))
			Expect(p.Name()).To(Equal("pool-0"))
		})
	})

	Context("weak ownership", func() {
		// Given a thread and a pool nobody keeps
		// When the garbage collector runs
		// Then their handles stop resolving
		It("should forget released threads and pools", func() {
			th := createDetachedThread(m)
			p := createDetachedPool(m)

			Eventually(func() bool {
				runtime.GC()
				return m.HasThread(th) || m.HasPool(p)
			}).Should(BeFalse())

			// Handles are never reused.
			h, live, err := m.CreateThread(time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(th + 1))
			runtime.KeepAlive(live)
		})

		It("should keep a running thread resolvable", func() {
			h, th, err := m.CreateThread(time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			th.Start(nil)
			th = nil

			runtime.GC()
			Expect(m.HasThread(h)).To(BeTrue())
		})
	})

	Context("facade", func() {
		It("should forward worker operations to the thread", func() {
			h, th, err := m.CreateThread(time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			th.Start(nil)

			w := testutil.NewCountingWorker("w")
			Expect(m.AddWorker(h, tickthread.WeakRef(w))).To(Succeed())
			Eventually(w.Ticks).Should(BeNumerically(">", 0))

			f := m.RemoveWorker(h, tickthread.WeakRef(w))
			Expect(f.IsValid()).To(BeTrue())
			Eventually(f.Done()).Should(BeClosed())
			Expect(w.Shutdowns()).To(Equal(int32(1)))
		})

		It("should report missing handles", func() {
			ref := tickthread.WeakRef(testutil.NewCountingWorker("w"))

			err := m.AddWorker(7, ref)
			Expect(errors.Is(err, tferrors.ErrNotFound)).To(BeTrue())
			Expect(errors.Is(m.RemoveWorkerAsync(7, ref), tferrors.ErrNotFound)).To(BeTrue())
			Expect(errors.Is(m.SetRestTime(7, time.Second), tferrors.ErrNotFound)).To(BeTrue())
			Expect(m.RemoveWorker(7, ref).IsValid()).To(BeFalse())
			Expect(m.RestTime(7)).To(Equal(time.Duration(-1)))
		})

		It("should get and set rest time", func() {
			h, th, err := m.CreateThread(time.Millisecond)
			Expect(err).NotTo(HaveOccurred())

			Expect(m.SetRestTime(h, 5*time.Millisecond)).To(Succeed())
			Expect(m.RestTime(h)).To(Equal(5 * time.Millisecond))

			err = m.SetRestTime(h, -time.Millisecond)
			Expect(tferrors.IsValidationError(err)).To(BeTrue())
			Expect(th.RestTime()).To(Equal(5 * time.Millisecond))
		})
	})

	Context("instances", func() {
		It("should create a thread on first pin and reuse it afterwards", func() {
			inst := &registry.ThreadInstance{RestTime: time.Millisecond}
			_, set := inst.Handle()
			Expect(set).To(BeFalse())

			th1, err := inst.Pin(m)
			Expect(err).NotTo(HaveOccurred())
			th2, err := inst.Pin(m)
			Expect(err).NotTo(HaveOccurred())
			Expect(th2).To(BeIdenticalTo(th1))
		})

		It("should recreate a released thread", func() {
			inst := &registry.ThreadInstance{RestTime: time.Millisecond}
			func() {
				_, err := inst.Pin(m)
				Expect(err).NotTo(HaveOccurred())
			}()
			first, _ := inst.Handle()

			Eventually(func() bool {
				runtime.GC()
				return m.HasThread(first)
			}).Should(BeFalse())

			_, err := inst.Pin(m)
			Expect(err).NotTo(HaveOccurred())
			second, _ := inst.Handle()
			Expect(second).To(BeNumerically(">", first))
		})

		It("should surface thread creation errors", func() {
			inst := &registry.ThreadInstance{RestTime: -time.Second}
			_, err := inst.Pin(m)
			Expect(err).To(HaveOccurred())
		})

		It("should pin pools", func() {
			inst := &registry.PoolInstance{ThreadCount: 2}
			p1 := inst.Pin(m)
			p2 := inst.Pin(m)
			Expect(p2).To(BeIdenticalTo(p1))
			Expect(p1.Size()).To(Equal(2))
		})
	})

	Context("stats and close", func() {
		It("should summarise live threads and pools", func() {
			_, th, err := m.CreateThread(time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			_, p := m.CreatePool(3)
			_, dead := m.CreatePool(0)

			w := testutil.NewCountingWorker("w")
			th.AddWorker(tickthread.WeakRef(w))
			th.Start(nil)
			Eventually(th.WorkerCount).Should(Equal(1))

			s := m.Stats()
			Expect(s.Threads).To(Equal(1))
			Expect(s.RunningThreads).To(Equal(1))
			Expect(s.LiveWorkers).To(Equal(1))
			Expect(s.Pools).To(Equal(2))
			Expect(s.UsablePools).To(Equal(1))
			Expect(s.PoolWorkers).To(Equal(3))

			runtime.KeepAlive(p)
			runtime.KeepAlive(dead)
			runtime.KeepAlive(w)
		})

		It("should stop threads and shut down pools on close", func() {
			_, th, err := m.CreateThread(time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			_, p := m.CreatePool(2)

			w := testutil.NewCountingWorker("w")
			th.AddWorker(tickthread.WeakRef(w))
			th.Start(nil)
			Eventually(w.Ticks).Should(BeNumerically(">", 0))

			m.Close()
			Expect(th.IsStopped()).To(BeTrue())
			Expect(w.Shutdowns()).To(Equal(int32(1)))
			Expect(p.IsUsable()).To(BeFalse())
		})
	})
})
