package cart_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finitefield.org/storefront-web/internal/backend"
	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/notify"
)

const twoItemCart = `{
	"items": [
		{"id": 7, "product": {"id": "p7", "name": "Mug", "price": "10.00"}, "quantity": 1, "total": "10.00"},
		{"id": 8, "product": {"id": "p8", "name": "Plate", "price": "20.00"}, "quantity": 1, "total": "20.00"}
	],
	"subtotal": "30.00", "total": "30.00"
}`

const oneItemCart = `{
	"items": [
		{"id": 7, "product": {"id": "p7", "name": "Mug", "price": "10.00"}, "quantity": 2, "total": "20.00"}
	],
	"subtotal": "20.00", "total": "20.00"
}`

// fakeBackend serves the cart endpoints with programmable mutation responses.
type fakeBackend struct {
	mu           sync.Mutex
	cartJSON     string
	putStatus    int
	putBody      string
	deleteStatus int
	deleteBody   string
	gets         int
	puts         int
	deletes      int
	putGate      chan struct{} // when non-nil, PUT blocks until closed
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	switch r.Method {
	case http.MethodGet:
		b.gets++
		body := b.cartJSON
		b.mu.Unlock()
		_, _ = w.Write([]byte(body))
	case http.MethodPut:
		b.puts++
		gate := b.putGate
		status, body := b.putStatus, b.putBody
		b.mu.Unlock()
		if gate != nil {
			<-gate
		}
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	case http.MethodDelete:
		b.deletes++
		status, body := b.deleteStatus, b.deleteBody
		b.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	default:
		b.mu.Unlock()
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *fakeBackend) counts() (gets, puts, deletes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gets, b.puts, b.deletes
}

// fakeView records every call as a flat string trace.
type fakeView struct {
	mu    sync.Mutex
	trace []string
}

func (v *fakeView) record(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.trace = append(v.trace, s)
}

func (v *fakeView) ShowCart(c cart.Cart)     { v.record(fmt.Sprintf("cart:%d", len(c.Items))) }
func (v *fakeView) ShowSummary(s cart.Summary) {
	v.record(fmt.Sprintf("summary:%s", s.Total.String()))
}
func (v *fakeView) ShowEmpty()        { v.record("empty") }
func (v *fakeView) ShowAuthRequired() { v.record("auth") }
func (v *fakeView) SetCount(n int)    { v.record(fmt.Sprintf("count:%d", n)) }
func (v *fakeView) LockItem(id int64) { v.record(fmt.Sprintf("lock:%d", id)) }
func (v *fakeView) UnlockItem(id int64) {
	v.record(fmt.Sprintf("unlock:%d", id))
}
func (v *fakeView) ApplyItem(id int64, qty int, total decimal.Decimal) {
	v.record(fmt.Sprintf("apply:%d:%d:%s", id, qty, total.String()))
}
func (v *fakeView) RemoveItem(id int64) { v.record(fmt.Sprintf("remove:%d", id)) }
func (v *fakeView) RevertItem(id int64) { v.record(fmt.Sprintf("revert:%d", id)) }

func (v *fakeView) saw(s string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, got := range v.trace {
		if got == s {
			return true
		}
	}
	return false
}

func newReconciler(t *testing.T, b *fakeBackend, opts ...cart.Option) (*cart.Reconciler, *fakeView, *notify.Buffer) {
	t.Helper()
	ts := httptest.NewServer(b)
	t.Cleanup(ts.Close)
	api, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	view := &fakeView{}
	notices := &notify.Buffer{}
	rec := cart.NewReconciler(cart.NewClient(api), view, notices, opts...)
	return rec, view, notices
}

func noticeMessages(b *notify.Buffer) []string {
	var out []string
	for _, n := range b.Notices() {
		out = append(out, n.Message)
	}
	return out
}

func TestReconcilerLoadRendersCart(t *testing.T) {
	t.Parallel()

	rec, view, _ := newReconciler(t, &fakeBackend{cartJSON: twoItemCart})
	got, err := rec.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	require.True(t, view.saw("cart:2"))
	require.True(t, view.saw("count:2"))
	require.True(t, view.saw("summary:30"))
}

func TestReconcilerLoadEmptyCart(t *testing.T) {
	t.Parallel()

	rec, view, _ := newReconciler(t, &fakeBackend{cartJSON: `{"items":[],"subtotal":"0","total":"0"}`})
	_, err := rec.Load(context.Background())
	require.NoError(t, err)
	require.True(t, view.saw("empty"))
	require.True(t, view.saw("count:0"))
}

func TestReconcilerLoadSessionExpired(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)
	api, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	view := &fakeView{}
	rec := cart.NewReconciler(cart.NewClient(api), view, &notify.Buffer{})

	_, err = rec.Load(context.Background())
	require.ErrorIs(t, err, backend.ErrSessionExpired)
	require.True(t, view.saw("auth"))
	require.True(t, view.saw("count:0"))
}

func TestReconcilerDecreaseAtFloorSkipsNetwork(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{cartJSON: twoItemCart}
	rec, view, notices := newReconciler(t, b)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	err = rec.ChangeQuantity(context.Background(), 7, -1)
	require.ErrorIs(t, err, cart.ErrQuantityFloor)
	require.Contains(t, noticeMessages(notices), "Quantity must be greater than zero")
	_, puts, _ := b.counts()
	require.Zero(t, puts)
	require.False(t, view.saw("lock:7"))
}

func TestReconcilerChangeQuantitySuccess(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		cartJSON: twoItemCart,
		putBody:  `{"id":7,"quantity":3,"total":"30.00"}`,
	}
	rec, view, notices := newReconciler(t, b)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, rec.ChangeQuantity(context.Background(), 7, 1))
	require.True(t, view.saw("lock:7"))
	require.True(t, view.saw("apply:7:3:30"))
	require.True(t, view.saw("unlock:7"))
	require.Contains(t, noticeMessages(notices), "Quantity updated successfully")

	// Summary is re-read from the server after the mutation.
	gets, puts, _ := b.counts()
	require.Equal(t, 2, gets)
	require.Equal(t, 1, puts)
}

func TestReconcilerChangeQuantityFailureRevertsAndReloads(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		cartJSON:  twoItemCart,
		putStatus: http.StatusInternalServerError,
		putBody:   `{"message":"update failed"}`,
	}
	var scheduled struct {
		mu    sync.Mutex
		delay time.Duration
		fn    func()
	}
	rec, view, notices := newReconciler(t, b, cart.WithScheduler(func(d time.Duration, fn func()) {
		scheduled.mu.Lock()
		defer scheduled.mu.Unlock()
		scheduled.delay, scheduled.fn = d, fn
	}))
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	err = rec.ChangeQuantity(context.Background(), 7, 1)
	require.Error(t, err)
	require.True(t, view.saw("revert:7"))
	require.True(t, view.saw("unlock:7"))
	require.Contains(t, noticeMessages(notices), "update failed")

	scheduled.mu.Lock()
	delay, fn := scheduled.delay, scheduled.fn
	scheduled.mu.Unlock()
	require.Equal(t, cart.DefaultReloadDelay, delay)
	require.NotNil(t, fn)

	fn()
	gets, _, _ := b.counts()
	require.Equal(t, 2, gets)
}

func TestReconcilerChangeQuantitySessionExpired(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		cartJSON:  twoItemCart,
		putStatus: http.StatusUnauthorized,
	}
	rec, view, _ := newReconciler(t, b)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	err = rec.ChangeQuantity(context.Background(), 7, 1)
	require.ErrorIs(t, err, backend.ErrSessionExpired)
	require.True(t, view.saw("auth"))
	require.True(t, view.saw("count:0"))
}

func TestReconcilerRejectsConcurrentMutationOnSameItem(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	b := &fakeBackend{
		cartJSON: twoItemCart,
		putBody:  `{"id":7,"quantity":2,"total":"20.00"}`,
		putGate:  gate,
	}
	rec, _, _ := newReconciler(t, b)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() { first <- rec.ChangeQuantity(context.Background(), 7, 1) }()

	require.Eventually(t, func() bool {
		_, puts, _ := b.counts()
		return puts == 1
	}, time.Second, 5*time.Millisecond)

	err = rec.ChangeQuantity(context.Background(), 7, 1)
	require.ErrorIs(t, err, cart.ErrItemBusy)

	// The sibling line is not locked out.
	err = rec.ChangeQuantity(context.Background(), 9999, 1)
	require.ErrorIs(t, err, cart.ErrUnknownItem)

	close(gate)
	require.NoError(t, <-first)
}

func TestReconcilerRemoveSuccess(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		cartJSON:   twoItemCart,
		deleteBody: `{"message":"Item removed from cart"}`,
	}
	rec, view, notices := newReconciler(t, b)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, rec.Remove(context.Background(), 7))
	require.True(t, view.saw("remove:7"))
	require.True(t, view.saw("count:1"))
	require.False(t, view.saw("empty"))
	require.Contains(t, noticeMessages(notices), "Item removed from cart")
}

func TestReconcilerRemoveLastItemShowsEmpty(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		cartJSON:   oneItemCart,
		deleteBody: `{}`,
	}
	rec, view, notices := newReconciler(t, b)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, rec.Remove(context.Background(), 7))
	require.True(t, view.saw("empty"))
	require.True(t, view.saw("count:0"))
	require.True(t, view.saw("summary:0"))
	require.Contains(t, noticeMessages(notices), "Item removed successfully")
}

func TestReconcilerRemoveFailureReverts(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		cartJSON:     twoItemCart,
		deleteStatus: http.StatusInternalServerError,
		deleteBody:   `{}`,
	}
	rec, view, notices := newReconciler(t, b)
	_, err := rec.Load(context.Background())
	require.NoError(t, err)

	err = rec.Remove(context.Background(), 7)
	require.Error(t, err)
	require.True(t, view.saw("revert:7"))
	require.True(t, view.saw("unlock:7"))
	require.Contains(t, noticeMessages(notices), "Failed to remove item")
	require.False(t, view.saw("remove:7"))
}
