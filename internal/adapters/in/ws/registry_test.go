package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_SubscribeUnsubscribe(t *testing.T) {
	r := NewSubscriptionRegistry()

	r.Subscribe("conn1", "FAC001")
	r.Subscribe("conn2", "FAC001")
	r.Subscribe("conn1", "FAC002")

	assert.ElementsMatch(t, []string{"conn1", "conn2"}, r.SubscribersOf("FAC001"))
	assert.ElementsMatch(t, []string{"FAC001", "FAC002"}, r.TopicsOf("conn1"))

	r.Unsubscribe("conn1", "FAC001")
	assert.ElementsMatch(t, []string{"conn2"}, r.SubscribersOf("FAC001"))
	assert.ElementsMatch(t, []string{"FAC002"}, r.TopicsOf("conn1"))
}

func TestRegistry_SubscribeIdempotent(t *testing.T) {
	r := NewSubscriptionRegistry()

	r.Subscribe("conn1", "FAC001")
	r.Subscribe("conn1", "FAC001")

	assert.Len(t, r.SubscribersOf("FAC001"), 1)
	assert.Len(t, r.TopicsOf("conn1"), 1)
}

func TestRegistry_UnsubscribeAll(t *testing.T) {
	r := NewSubscriptionRegistry()

	r.Subscribe("conn1", "FAC001")
	r.Subscribe("conn1", TopicAll)
	r.Subscribe("conn2", "FAC001")

	r.UnsubscribeAll("conn1")

	assert.Empty(t, r.TopicsOf("conn1"))
	assert.Empty(t, r.SubscribersOf(TopicAll))
	assert.ElementsMatch(t, []string{"conn2"}, r.SubscribersOf("FAC001"))
}

func TestRegistry_UnsubscribeUnknownIsNoop(t *testing.T) {
	r := NewSubscriptionRegistry()

	r.Unsubscribe("ghost", "FAC001")
	r.UnsubscribeAll("ghost")

	assert.Empty(t, r.SubscribersOf("FAC001"))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewSubscriptionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn%d", i)
			for j := 0; j < 100; j++ {
				topic := fmt.Sprintf("FAC%03d", j%5)
				r.Subscribe(connID, topic)
				r.SubscribersOf(topic)
				r.TopicsOf(connID)
				if j%3 == 0 {
					r.Unsubscribe(connID, topic)
				}
			}
			r.UnsubscribeAll(connID)
		}(i)
	}
	wg.Wait()

	for j := 0; j < 5; j++ {
		assert.Empty(t, r.SubscribersOf(fmt.Sprintf("FAC%03d", j)))
	}
}
