package id

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("IDGenerator", func() {
	AfterEach(func() {
		UseSequentialIDGenerator()
	})

	It("should generate increasing numbers", func() {
		g := NewIDGenerator()

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})

	It("should generate unique ids in parallel mode", func() {
		UseParallelIDGenerator()

		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			s := Generate()
			Expect(seen).NotTo(HaveKey(s))
			seen[s] = true
		}
	})
})
