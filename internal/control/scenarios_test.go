package control_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fuzzytank/internal/control"
	"github.com/san-kum/fuzzytank/internal/tank"
)

var _ = Describe("Controller", func() {
	var (
		opts control.Options
		ctrl *control.Controller
	)

	build := func() {
		var err error
		ctrl, err = control.New(opts)
		Expect(err).NotTo(HaveOccurred())
	}

	Context("full tank with centroid defuzzification", func() {
		BeforeEach(func() {
			opts = control.RetentionOptions("centroid")
			opts.Initial = tank.State{Natural: 100, Retention: 0}
			build()
		})

		It("drains the natural tank and conserves water except for leakage", func() {
			before := ctrl.CurrentState()
			after := ctrl.Tick(0)

			Expect(after.NaturalLevel).To(BeNumerically("<", before.NaturalLevel))
			dn := after.NaturalLevel - before.NaturalLevel
			dr := after.RetentionLevel - before.RetentionLevel
			Expect(dn + 0.2).To(BeNumerically("~", -dr, 1e-9))
		})

		It("keeps conserving while the pump is draining", func() {
			moved := 0.0
			prev := ctrl.CurrentState()
			for i := 0; i < 20; i++ {
				next := ctrl.Tick(0)
				dn := next.NaturalLevel - prev.NaturalLevel
				dr := next.RetentionLevel - prev.RetentionLevel
				Expect(dr).To(BeNumerically(">=", 0))
				Expect(dn + 0.2).To(BeNumerically("~", -dr, 1e-9))
				moved += dr
				prev = next
			}
			Expect(moved).To(BeNumerically(">", 0))
			Expect(prev.NaturalLevel).To(BeNumerically(">=", 30))
		})
	})

	Context("natural tank at or below the safe level", func() {
		BeforeEach(func() {
			opts = control.RetentionOptions("centroid")
			opts.Initial = tank.State{Natural: 30, Retention: 10}
			build()
		})

		It("forces the pump off and leaves the level at its floor", func() {
			snap := ctrl.Tick(0)
			Expect(snap.PumpActive).To(BeFalse())
			Expect(snap.PumpPower).To(BeZero())
			Expect(snap.NaturalLevel).To(Equal(30.0))
			Expect(snap.RetentionLevel).To(Equal(10.0))
		})

		It("lets only rain change the natural level", func() {
			snap := ctrl.Tick(2)
			Expect(snap.PumpPower).To(BeZero())
			Expect(snap.NaturalLevel).To(BeNumerically("~", 30+0.5-0.2, 1e-12))
			Expect(snap.RetentionLevel).To(Equal(10.0))
		})
	})

	Context("heavy rain", func() {
		BeforeEach(func() {
			opts = control.RetentionOptions("weighted")
			opts.Tank.LeakRate = 0
			opts.Tank.Rain = tank.RainTable{0, 0.2, 0.5, 1.0, 1.5}
			inactive := false
			opts.Pump.InitiallyActive = &inactive
		})

		It("raises the natural level by the intensity-4 increment", func() {
			opts.Initial = tank.State{Natural: 50}
			build()
			snap := ctrl.Tick(4)
			Expect(snap.NaturalLevel).To(BeNumerically("~", 51.5, 1e-12))
		})

		It("clamps the natural level to capacity", func() {
			opts.Initial = tank.State{Natural: 99.5}
			opts.Pump.ActivateAbove = 100
			build()
			snap := ctrl.Tick(4)
			Expect(snap.NaturalLevel).To(Equal(100.0))
		})
	})

	Context("pump hysteresis", func() {
		BeforeEach(func() {
			opts = control.RetentionOptions("weighted")
			inactive := false
			opts.Pump.InitiallyActive = &inactive
			opts.Initial = tank.State{Natural: 45}
			build()
		})

		It("keeps power at zero until the level crosses the activation threshold", func() {
			level := ctrl.CurrentState().NaturalLevel
			for i := 0; i < 100 && level <= 60; i++ {
				snap := ctrl.Tick(4)
				Expect(snap.PumpActive).To(BeFalse())
				Expect(snap.PumpPower).To(BeZero())
				level = snap.NaturalLevel
			}
			Expect(level).To(BeNumerically(">", 60))

			snap := ctrl.Tick(0)
			Expect(snap.PumpActive).To(BeTrue())
			Expect(snap.PumpPower).To(BeNumerically(">", 0))
		})
	})

	Context("any configuration", func() {
		It("keeps every level within capacity", func() {
			for _, strategy := range []string{"centroid", "weighted"} {
				opts = control.RetentionOptions(strategy)
				opts.Tank.OverflowCapacity = 5
				build()
				for i := 0; i < 500; i++ {
					snap := ctrl.Tick(i % 5)
					Expect(snap.NaturalLevel).To(And(BeNumerically(">=", 0), BeNumerically("<=", 100)))
					Expect(snap.RetentionLevel).To(And(BeNumerically(">=", 0), BeNumerically("<=", 100)))
					Expect(snap.OverflowLevel).To(And(BeNumerically(">=", 0), BeNumerically("<=", 5)))
					Expect(snap.PumpPower).To(And(BeNumerically(">=", 0), BeNumerically("<=", 100)))
				}
			}
		})
	})
})
