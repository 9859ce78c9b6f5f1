package cart

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/notify"
	"github.com/example/storefront/internal/session"
)

// SyncAPI is the slice of the REST client the reconciler needs.
type SyncAPI interface {
	LoadCart(ctx context.Context) ([]model.CartLine, error)
	SaveCart(ctx context.Context, lines []model.CartLine) error
}

// Reconciler unifies the locally persisted cart with the server cart once
// per login, then mirrors local mutations to the server. The local cart is
// the source of truth: a failed mirror save surfaces a warning but is never
// rolled back and never retried on its own. A save issued after the merge
// can therefore overwrite concurrent changes from another device; the API
// exposes no cart version to detect that with.
type Reconciler struct {
	store   *Store
	session *session.Session
	api     SyncAPI
	sink    notify.Sink

	saveTimeout time.Duration
	saveSeq     atomic.Uint64
	saves       sync.WaitGroup
}

// NewReconciler wires the reconciler into the cart store's change feed.
func NewReconciler(store *Store, sess *session.Session, api SyncAPI, sink notify.Sink) *Reconciler {
	r := &Reconciler{
		store:       store,
		session:     sess,
		api:         api,
		sink:        sink,
		saveTimeout: 30 * time.Second,
	}
	store.OnChange(r.onCartChanged)
	return r
}

// MergeCarts combines a server cart and a local cart. Server lines come
// first, in server order; local lines whose product the server does not know
// are appended in local order. On overlap the server line wins wholesale,
// quantity and price snapshot included.
func MergeCarts(server, local []model.CartLine) []model.CartLine {
	merged := make([]model.CartLine, 0, len(server)+len(local))
	seen := make(map[int]bool, len(server))

	for _, line := range server {
		if seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		merged = append(merged, line)
	}
	for _, line := range local {
		if seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		merged = append(merged, line)
	}
	return merged
}

// MergeOnLogin runs the one-shot login merge: fetch the server cart, merge
// the local cart into it, replace the cart store's contents and push the
// result back. Repeated calls within one session are no-ops. A fetch failure
// degrades to an empty server cart, so the local cart survives as-is.
func (r *Reconciler) MergeOnLogin(ctx context.Context) error {
	if !r.session.TryBeginMerge() {
		return nil
	}

	serverCart, err := r.api.LoadCart(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Canceled before we got anywhere; keep the merge pending for
			// the next attempt.
			r.session.FinishMerge(true)
			return ctx.Err()
		}
		log.Printf("[CartSync] Failed to load server cart, keeping local cart: %v", err)
		serverCart = nil
	}

	merged := MergeCarts(serverCart, r.store.Items())
	r.store.ReplaceAll(merged)
	r.session.FinishMerge(false)

	if err := r.api.SaveCart(ctx, merged); err != nil {
		log.Printf("[CartSync] Failed to push merged cart: %v", err)
		r.sink.Warning("Failed to save cart to the server")
	}
	return nil
}

// onCartChanged mirrors a mutation to the server. Saves only run for an
// authenticated session whose merge has completed, so the merge's own
// ReplaceAll and pre-login mutations stay local.
func (r *Reconciler) onCartChanged(lines []model.CartLine) {
	if !r.session.Authenticated() || r.session.Merge() != session.MergeDone {
		return
	}

	seq := r.saveSeq.Add(1)
	r.saves.Add(1)
	go func() {
		defer r.saves.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.saveTimeout)
		defer cancel()

		if err := r.api.SaveCart(ctx, lines); err != nil {
			log.Printf("[CartSync] Background cart save failed: %v", err)
			// Only the newest outstanding save gets to raise the warning;
			// a stale failure racing a fresher save stays quiet.
			if seq == r.saveSeq.Load() {
				r.sink.Warning("Failed to save cart to the server")
			}
		}
	}()
}

// Flush waits for outstanding background saves. Intended for shutdown and
// tests.
func (r *Reconciler) Flush() {
	r.saves.Wait()
}
