package arbitration

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AdmissionQueue", func() {
	var q *AdmissionQueue

	BeforeEach(func() {
		var err error
		q, err = NewAdmissionQueue(4)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should size the queue from the number of clients", func() {
		Expect(QueueCapacityFor(1)).To(Equal(2))
		Expect(QueueCapacityFor(3)).To(Equal(4))
		Expect(QueueCapacityFor(4)).To(Equal(8))
		Expect(QueueCapacityFor(7)).To(Equal(8))
	})

	It("should reject capacities that are not powers of two", func() {
		_, err := NewAdmissionQueue(3)
		Expect(err).To(MatchError(ErrInvalidQueueCapacity))

		_, err = NewAdmissionQueue(1)
		Expect(err).To(MatchError(ErrInvalidQueueCapacity))
	})

	It("should start empty", func() {
		Expect(q.IsEmpty()).To(BeTrue())
		Expect(q.Len()).To(Equal(0))

		_, ok := q.Peek()
		Expect(ok).To(BeFalse())
	})

	It("should dequeue in enqueue order", func() {
		Expect(q.Enqueue(2)).To(Succeed())
		Expect(q.Enqueue(0)).To(Succeed())
		Expect(q.Snapshot()).To(Equal([]ClientID{2, 0}))

		head, ok := q.Peek()
		Expect(ok).To(BeTrue())
		Expect(head).To(Equal(ClientID(2)))

		id, err := q.Dequeue()
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(ClientID(2)))

		id, err = q.Dequeue()
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(ClientID(0)))
		Expect(q.IsEmpty()).To(BeTrue())
	})

	It("should keep one slot free", func() {
		Expect(q.Enqueue(0)).To(Succeed())
		Expect(q.Enqueue(1)).To(Succeed())
		Expect(q.Enqueue(2)).To(Succeed())

		Expect(q.IsFull()).To(BeTrue())
		Expect(q.Len()).To(Equal(3))
		Expect(q.Enqueue(0)).To(MatchError(ErrQueueFull))
	})

	It("should fail to dequeue when empty", func() {
		_, err := q.Dequeue()
		Expect(err).To(MatchError(ErrQueueEmpty))
	})

	It("should wrap around", func() {
		for round := 0; round < 10; round++ {
			Expect(q.Enqueue(ClientID(round % 3))).To(Succeed())
			Expect(q.Enqueue(ClientID((round + 1) % 3))).To(Succeed())
			Expect(q.Len()).To(Equal(2))

			id, err := q.Dequeue()
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(ClientID(round % 3)))

			id, err = q.Dequeue()
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(ClientID((round + 1) % 3)))
		}

		Expect(q.IsEmpty()).To(BeTrue())
	})

	It("should reset", func() {
		Expect(q.Enqueue(1)).To(Succeed())
		q.Reset()

		Expect(q.IsEmpty()).To(BeTrue())
		Expect(q.Snapshot()).To(BeEmpty())
	})
})

var _ = Describe("ClientSet", func() {
	It("should add and remove members", func() {
		s := SetOf(2, 0)

		Expect(s.Has(0)).To(BeTrue())
		Expect(s.Has(1)).To(BeFalse())
		Expect(s.Count()).To(Equal(2))
		Expect(s.Members()).To(Equal([]ClientID{0, 2}))
		Expect(s.Without(0).Members()).To(Equal([]ClientID{2}))
		Expect(s.Bits(3)).To(Equal("101"))
	})

	It("should find the lowest member", func() {
		id, ok := SetOf(5, 3).Lowest()
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(ClientID(3)))

		_, ok = ClientSet(0).Lowest()
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("MembershipSet", func() {
	It("should filter out admitted clients", func() {
		m := MembershipSet{}
		m.Add(1)

		Expect(m.Contains(1)).To(BeTrue())
		Expect(m.NewcomersIn(SetOf(0, 1, 2))).To(Equal(SetOf(0, 2)))

		m.Remove(1)
		Expect(m.Set().IsEmpty()).To(BeTrue())
	})
})

var _ = Describe("Grant", func() {
	It("should be idle by default", func() {
		g := Idle()

		_, ok := g.Client()
		Expect(ok).To(BeFalse())
		Expect(g.IsIdle()).To(BeTrue())
		Expect(g.OneHot()).To(Equal(ClientSet(0)))
		Expect(g.String()).To(Equal("idle"))
	})

	It("should hold one client", func() {
		g := GrantTo(2)

		id, ok := g.Client()
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(ClientID(2)))
		Expect(g.IsHeldBy(2)).To(BeTrue())
		Expect(g.IsHeldBy(1)).To(BeFalse())
		Expect(g.OneHot()).To(Equal(SetOf(2)))
	})
})
