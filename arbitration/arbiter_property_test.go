package arbitration

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Arbiter properties", func() {
	DescribeTable("random request streams",
		func(numClients int, seed int64) {
			a, err := NewArbiter(numClients)
			Expect(err).NotTo(HaveOccurred())

			rng := rand.New(rand.NewSource(seed))
			all := ClientSet(1<<uint(numClients) - 1)

			var (
				fifo          []ClientID
				requestedWhen = make(map[ClientID]ClientSet)
			)

			for i := 0; i < 2000; i++ {
				requests := ClientSet(rng.Uint64()) & all
				res := a.Step(requests)

				Expect(a.Validate()).To(Succeed())
				Expect(a.Granted().Count()).To(BeNumerically("<=", 1))
				Expect(a.Busy()).To(Equal(a.Granted().Count() == 1))
				Expect(a.Queued()).To(HaveLen(a.Members().Count() -
					a.Granted().Count()))

				if res.Action == ActionAdmit {
					Expect(requests.Has(res.Client)).To(BeTrue())
					fifo = append(fifo, res.Client)
					requestedWhen[res.Client] = requests
				}

				if res.Action == ActionRelease {
					Expect(requests.Has(res.Client)).To(BeFalse())
				}

				if res.Promoted {
					Expect(fifo).NotTo(BeEmpty())
					Expect(res.PromotedClient).To(Equal(fifo[0]))
					Expect(requestedWhen[res.PromotedClient].
						Has(res.PromotedClient)).To(BeTrue())
					fifo = fifo[1:]
				}

				Expect(a.Queued()).To(Equal(append([]ClientID{}, fifo...)))
			}
		},
		Entry("one client", 1, int64(1)),
		Entry("two clients", 2, int64(2)),
		Entry("three clients", 3, int64(3)),
		Entry("five clients", 5, int64(5)),
		Entry("eight clients", 8, int64(8)),
	)

	DescribeTable("every persistent requester is eventually served",
		func(numClients, holdSteps int) {
			a, err := NewArbiter(numClients)
			Expect(err).NotTo(HaveOccurred())

			held := make([]int, numClients)
			lastGranted := make([]int, numClients)
			bound := 2 * numClients * (holdSteps + numClients + 2)

			for i := 0; i < 50*bound; i++ {
				var requests ClientSet

				for c := 0; c < numClients; c++ {
					id := ClientID(c)
					if !a.Grant().IsHeldBy(id) {
						requests = requests.With(id)
						continue
					}

					held[c]++
					if held[c] > holdSteps {
						held[c] = 0
						continue
					}

					requests = requests.With(id)
				}

				a.Step(requests)

				for c := 0; c < numClients; c++ {
					if a.Grant().IsHeldBy(ClientID(c)) {
						lastGranted[c] = i
					}

					Expect(i - lastGranted[c]).To(BeNumerically("<=", bound),
						"client %d starved", c)
				}
			}
		},
		Entry("three clients", 3, 4),
		Entry("eight clients", 8, 2),
		Entry("single client", 1, 3),
	)
})
