package tracing

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sarchlab/fairarb/arbitration"
)

type fakeStore struct {
	docs []any
	err  error
}

func (s *fakeStore) InsertOne(
	_ context.Context,
	document any,
	_ ...*options.InsertOneOptions,
) (*mongo.InsertOneResult, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.docs = append(s.docs, document)

	return &mongo.InsertOneResult{}, nil
}

var _ = Describe("MongoDBTracer", func() {
	var (
		store   *fakeStore
		arbiter *arbitration.Arbiter
	)

	BeforeEach(func() {
		store = &fakeStore{}

		var err error
		arbiter, err = arbitration.NewArbiter(3)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should insert one document per service", func() {
		tracer := newMongoDBTracer(store, AllTasks)
		CollectTrace("Arbiter", arbiter, nil, tracer)

		runSteps(arbiter, contendedSteps)

		Expect(tracer.Count()).To(Equal(3))
		Expect(store.docs).To(HaveLen(3))

		first := store.docs[0].(ServiceRecord)
		Expect(first.Client).To(Equal(0))
		Expect(first.Hold).To(Equal(uint64(3)))
		Expect(tracer.Close(context.Background())).To(Succeed())
	})

	It("should panic when the server refuses a document", func() {
		store.err = errors.New("write refused")
		tracer := newMongoDBTracer(store, AllTasks)
		CollectTrace("Arbiter", arbiter, nil, tracer)

		Expect(func() { runSteps(arbiter, contendedSteps) }).To(Panic())
	})

	It("should reject a malformed URI", func() {
		_, err := NewMongoDBTracer(context.Background(), "http://localhost",
			AllTasks)

		Expect(err).To(HaveOccurred())
	})
})
