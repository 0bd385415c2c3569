package events

import (
	"bytes"
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes successfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			err := kp.Write(context.TODO(), JobMessageKind, bytes.NewReader([]byte("msg1")))
			Expect(err).To(BeNil())

			err = kp.Write(context.TODO(), JobMessageKind, bytes.NewReader([]byte("msg2")))
			Expect(err).To(BeNil())

			Eventually(w.Count, 2*time.Second).Should(Equal(2))
			Expect(w.Message(0).Context.GetType()).To(Equal(JobMessageKind))
			Expect(w.Message(0).Context.GetSource()).To(Equal(eventSource))

			kp.Close()
		})

		It("writes to a custom topic", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithOutputTopic("custom.topic"))

			err := kp.Write(context.TODO(), JobMessageKind, bytes.NewReader([]byte("msg1")))
			Expect(err).To(BeNil())

			Eventually(w.Count, 2*time.Second).Should(Equal(1))
			Expect(w.Topic(0)).To(Equal("custom.topic"))

			kp.Close()
		})
	})
})

type testwriter struct {
	lock     sync.Mutex
	messages []cloudevents.Event
	topics   []string
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Count() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.messages)
}

func (t *testwriter) Message(i int) cloudevents.Event {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.messages[i]
}

func (t *testwriter) Topic(i int) string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.topics[i]
}
