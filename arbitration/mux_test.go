package arbitration

import (
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RequestSampler and BusMux", func() {
	var (
		mockCtrl *gomock.Controller
		clients  []*MockClient
		asClient []Client
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clients = nil
		asClient = nil

		for i := 0; i < 3; i++ {
			c := NewMockClient(mockCtrl)
			clients = append(clients, c)
			asClient = append(asClient, c)
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should sample requesting clients", func() {
		s, err := NewRequestSampler(asClient)
		Expect(err).NotTo(HaveOccurred())

		clients[0].EXPECT().Requesting().Return(true)
		clients[1].EXPECT().Requesting().Return(false)
		clients[2].EXPECT().Requesting().Return(true)

		Expect(s.Sample()).To(Equal(SetOf(0, 2)))
		Expect(s.NumClients()).To(Equal(3))
	})

	It("should reject an empty client list", func() {
		_, err := NewRequestSampler(nil)
		Expect(err).To(MatchError(ErrInvalidClientCount))

		_, err = NewBusMux(nil)
		Expect(err).To(MatchError(ErrInvalidClientCount))
	})

	It("should drive zero when idle", func() {
		m, err := NewBusMux(asClient)
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Select(Idle())).To(Equal(BusSignals{}))
	})

	It("should drive the granted client's signals", func() {
		m, err := NewBusMux(asClient)
		Expect(err).NotTo(HaveOccurred())

		clients[1].EXPECT().Address().Return(uint8(0x42))
		clients[1].EXPECT().Data().Return(uint32(0xdeadbeef))
		clients[1].EXPECT().Direction().Return(Read)

		Expect(m.Select(GrantTo(1))).To(Equal(BusSignals{
			Address:   0x42,
			Data:      0xdeadbeef,
			Direction: Read,
		}))
	})
})
