package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	b := NewBroker()

	sub := b.Subscribe("products", []string{"products"}, func() (interface{}, error) {
		return []string{"Kopi Susu"}, nil
	})
	defer sub.Close()

	select {
	case update := <-sub.Updates():
		assert.Equal(t, "products", update.Key)
		assert.Equal(t, []string{"Kopi Susu"}, update.Data)
	default:
		t.Fatal("initial snapshot missing")
	}
}

func TestNotifyReemitsMatchingTablesOnly(t *testing.T) {
	b := NewBroker()

	var productFetches, txFetches int
	products := b.Subscribe("products", []string{"products"}, func() (interface{}, error) {
		productFetches++
		return productFetches, nil
	})
	defer products.Close()
	transactions := b.Subscribe("transactions", []string{"transactions"}, func() (interface{}, error) {
		txFetches++
		return txFetches, nil
	})
	defer transactions.Close()

	<-products.Updates()
	<-transactions.Updates()

	b.Notify("products")

	select {
	case update := <-products.Updates():
		assert.Equal(t, 2, update.Data)
	default:
		t.Fatal("products subscription saw no update")
	}

	select {
	case <-transactions.Updates():
		t.Fatal("transactions subscription must not react to a products write")
	default:
	}
}

func TestSlowConsumerSeesLatestOnly(t *testing.T) {
	b := NewBroker()

	fetches := 0
	sub := b.Subscribe("products", []string{"products"}, func() (interface{}, error) {
		fetches++
		return fetches, nil
	})
	defer sub.Close()

	// Nobody drains while three writes land.
	b.Notify("products")
	b.Notify("products")
	b.Notify("products")

	update := <-sub.Updates()
	assert.Equal(t, 4, update.Data, "buffered snapshot must be the newest one")

	select {
	case <-sub.Updates():
		t.Fatal("intermediate snapshots must be dropped, not queued")
	default:
	}
}

func TestIdleSubscriberIsReleased(t *testing.T) {
	b := NewBrokerWithGrace(10 * time.Millisecond)

	sub := b.Subscribe("products", []string{"products"}, func() (interface{}, error) {
		return "snapshot", nil
	})
	require.Equal(t, 1, b.Len())

	// First undrained Notify starts the idle clock; one past the grace
	// period tears the subscription down.
	b.Notify("products")
	time.Sleep(20 * time.Millisecond)
	b.Notify("products")

	assert.Equal(t, 0, b.Len())

	// Channel is closed so a ranging consumer terminates.
	drained := 0
	for range sub.Updates() {
		drained++
	}
	assert.LessOrEqual(t, drained, 2)
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBroker()

	sub := b.Subscribe("products", []string{"products"}, func() (interface{}, error) {
		return nil, nil
	})
	sub.Close()
	sub.Close()
	assert.Equal(t, 0, b.Len())

	// A notify after close must not panic or deliver.
	b.Notify("products")
}

func TestResubscribeReplaysCurrentState(t *testing.T) {
	b := NewBroker()
	state := "v1"

	sub := b.Subscribe("products", []string{"products"}, func() (interface{}, error) {
		return state, nil
	})
	<-sub.Updates()
	sub.Close()

	state = "v2"
	again := b.Subscribe("products", []string{"products"}, func() (interface{}, error) {
		return state, nil
	})
	defer again.Close()

	update := <-again.Updates()
	assert.Equal(t, "v2", update.Data)
}
