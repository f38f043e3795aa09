package arbitration

import (
	"github.com/sarchlab/fairarb/sim/hooking"
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Arbiter", func() {
	var a *Arbiter

	step := func(ids ...ClientID) StepResult {
		res := a.Step(SetOf(ids...))
		Expect(a.Validate()).To(Succeed())

		return res
	}

	BeforeEach(func() {
		var err error
		a, err = NewArbiter(3)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("construction", func() {
		It("should start idle with an empty queue", func() {
			Expect(a.QueueCapacity()).To(Equal(4))
			Expect(a.Busy()).To(BeFalse())
			Expect(a.Queued()).To(BeEmpty())
			Expect(a.Members().IsEmpty()).To(BeTrue())
		})

		It("should reject a client count the queue cannot hold", func() {
			_, err := NewArbiter(4, WithQueueCapacity(4))
			Expect(err).To(MatchError(ErrInvalidClientCount))
		})

		It("should reject zero clients", func() {
			_, err := NewArbiter(0)
			Expect(err).To(MatchError(ErrInvalidClientCount))
		})

		It("should reject a bad queue capacity", func() {
			_, err := NewArbiter(3, WithQueueCapacity(6))
			Expect(err).To(MatchError(ErrInvalidQueueCapacity))
		})

		It("should accept a larger queue", func() {
			b, err := NewArbiter(3, WithQueueCapacity(16))
			Expect(err).NotTo(HaveOccurred())
			Expect(b.QueueCapacity()).To(Equal(16))
		})

		It("should panic on requests from unknown clients", func() {
			Expect(func() { a.Step(SetOf(3)) }).To(Panic())
		})
	})

	It("should grant clients in order when all request at once", func() {
		res := step(0, 1, 2)
		Expect(res.Action).To(Equal(ActionAdmit))
		Expect(res.Client).To(Equal(ClientID(0)))
		Expect(res.Promoted).To(BeTrue())
		Expect(res.PromotedClient).To(Equal(ClientID(0)))
		Expect(a.Granted()).To(Equal(SetOf(0)))

		step(0, 1, 2)
		step(0, 1, 2)
		Expect(a.Queued()).To(Equal([]ClientID{1, 2}))

		for i := 0; i < 5; i++ {
			res = step(0, 1, 2)
			Expect(res.Action).To(Equal(ActionNone))
			Expect(a.Granted()).To(Equal(SetOf(0)))
		}

		res = step(1, 2)
		Expect(res.Action).To(Equal(ActionRelease))
		Expect(res.Client).To(Equal(ClientID(0)))
		Expect(res.PromotedClient).To(Equal(ClientID(1)))
		Expect(a.Granted()).To(Equal(SetOf(1)))

		step(1, 2)
		Expect(a.Granted()).To(Equal(SetOf(1)))

		step(2)
		Expect(a.Granted()).To(Equal(SetOf(2)))
		Expect(a.Queued()).To(BeEmpty())
	})

	It("should grant a lone client right after admission", func() {
		res := step(1)

		Expect(res.Action).To(Equal(ActionAdmit))
		Expect(res.Promoted).To(BeTrue())
		Expect(a.Granted()).To(Equal(SetOf(1)))
		Expect(a.Busy()).To(BeTrue())

		for i := 0; i < 3; i++ {
			step(1)
			Expect(a.Queued()).To(BeEmpty())
			Expect(a.Granted()).To(Equal(SetOf(1)))
		}
	})

	It("should promote the queued client, not an idle one", func() {
		step(0)
		step(0, 2)
		Expect(a.Queued()).To(Equal([]ClientID{2}))

		step(0, 2)
		step(0, 2)

		res := step(2)
		Expect(res.Action).To(Equal(ActionRelease))
		Expect(res.PromotedClient).To(Equal(ClientID(2)))
		Expect(a.Granted()).To(Equal(SetOf(2)))
		Expect(a.Members()).To(Equal(SetOf(2)))
	})

	It("should put a re-requesting client at the back of the queue", func() {
		step(0, 1, 2)
		step(0, 1, 2)
		step(0, 1, 2)
		Expect(a.Queued()).To(Equal([]ClientID{1, 2}))

		res := step(1, 2)
		Expect(res.Action).To(Equal(ActionRelease))
		Expect(a.Granted()).To(Equal(SetOf(1)))

		res = step(0, 1, 2)
		Expect(res.Action).To(Equal(ActionAdmit))
		Expect(res.Client).To(Equal(ClientID(0)))
		Expect(a.Queued()).To(Equal([]ClientID{2, 0}))

		step(0, 2)
		Expect(a.Granted()).To(Equal(SetOf(2)))

		step(0)
		Expect(a.Granted()).To(Equal(SetOf(0)))
	})

	It("should stay idle when nobody requests", func() {
		for i := 0; i < 100; i++ {
			res := step()

			Expect(res.Action).To(Equal(ActionNone))
			Expect(res.Promoted).To(BeFalse())
			Expect(a.Granted()).To(Equal(ClientSet(0)))
			Expect(a.Busy()).To(BeFalse())
			Expect(a.Queued()).To(BeEmpty())
		}

		Expect(a.StepCount()).To(Equal(uint64(100)))
	})

	It("should admit simultaneous newcomers in ascending order", func() {
		res := step(2, 1)
		Expect(res.Client).To(Equal(ClientID(1)))

		res = step(2, 1)
		Expect(res.Client).To(Equal(ClientID(2)))
	})

	It("should defer release when a client is admitted in the same step", func() {
		step(0)

		res := step(1)
		Expect(res.Action).To(Equal(ActionAdmit))
		Expect(a.Granted()).To(Equal(SetOf(0)))

		res = step(1)
		Expect(res.Action).To(Equal(ActionRelease))
		Expect(res.Client).To(Equal(ClientID(0)))
		Expect(a.Granted()).To(Equal(SetOf(1)))
	})

	It("should still promote a client that withdrew while queued", func() {
		step(0, 1)
		step(0, 1)
		step(0)

		res := step()
		Expect(res.Action).To(Equal(ActionRelease))
		Expect(res.PromotedClient).To(Equal(ClientID(1)))

		res = step()
		Expect(res.Action).To(Equal(ActionRelease))
		Expect(res.Client).To(Equal(ClientID(1)))
		Expect(a.Busy()).To(BeFalse())
	})

	It("should reset", func() {
		step(0, 1)
		step(0, 1)

		a.Reset()

		Expect(a.Busy()).To(BeFalse())
		Expect(a.Queued()).To(BeEmpty())
		Expect(a.StepCount()).To(BeZero())
		Expect(a.Validate()).To(Succeed())
	})

	Context("with hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			a.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should report admit, promote and release", func() {
			var calls []hooking.HookCtx

			hook.EXPECT().
				Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) { calls = append(calls, ctx) }).
				Times(3)

			step(2)
			step()

			Expect(calls).To(HaveLen(3))
			Expect(calls[0].Pos).To(Equal(HookPosAdmit))
			Expect(calls[1].Pos).To(Equal(HookPosPromote))
			Expect(calls[2].Pos).To(Equal(HookPosRelease))
			Expect(calls[2].Item).To(Equal(ClientID(2)))
			Expect(calls[2].Detail).To(Equal(uint64(1)))
		})
	})
})
