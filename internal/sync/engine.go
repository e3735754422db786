// Package sync implements the one-directional device-to-server upload flow:
// select everything not yet confirmed by the server, hand it to the remote
// uploader as one batch, and flip statuses only after the server confirms.
package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"smartretail-pos/internal/model"
	"smartretail-pos/internal/repository"
	"smartretail-pos/internal/watch"
)

// Engine reconciles local transactions against the remote authority. Run is
// idempotent and safely retriable: a failed upload leaves every row exactly
// as it was, a repeated successful run finds nothing to do.
type Engine struct {
	txRepo   repository.TransactionRepository
	uploader Uploader
	broker   *watch.Broker
}

func NewEngine(txRepo repository.TransactionRepository, uploader Uploader, broker *watch.Broker) *Engine {
	return &Engine{
		txRepo:   txRepo,
		uploader: uploader,
		broker:   broker,
	}
}

// Run performs one sync pass. The whole pending batch goes to the uploader
// in a single call; on failure no row is marked synced and the identical
// batch is re-offered on the next run. There is no partial credit even if
// the server accepted some records, which is why the server must treat a
// re-uploaded transaction id as a tolerated duplicate.
func (e *Engine) Run(ctx context.Context) error {
	pending, err := e.txRepo.FindUnsynced()
	if err != nil {
		return fmt.Errorf("select unsynced: %w", err)
	}
	if len(pending) == 0 {
		log.Println("[sync] nothing to upload")
		return nil
	}

	batch, err := e.buildBatch(pending)
	if err != nil {
		return err
	}

	if err := e.uploader.Upload(ctx, batch); err != nil {
		return fmt.Errorf("upload batch of %d: %w", len(batch), err)
	}

	for _, t := range pending {
		if err := e.txRepo.MarkSynced(t.ID); err != nil {
			return fmt.Errorf("mark %s synced: %w", t.ID, err)
		}
	}

	log.Printf("[sync] %d transactions synced", len(pending))
	e.broker.Notify("transactions")
	return nil
}

func (e *Engine) buildBatch(pending []model.Transaction) ([]TransactionUpload, error) {
	batch := make([]TransactionUpload, 0, len(pending))
	for _, t := range pending {
		items, err := e.txRepo.Items(t.ID)
		if err != nil {
			return nil, fmt.Errorf("load items for %s: %w", t.ID, err)
		}

		upload := TransactionUpload{
			TransactionID: t.ID,
			UserID:        t.UserID,
			TotalPrice:    t.TotalPrice,
			Date:          t.Date.UTC().Format(time.RFC3339),
			Items:         make([]TransactionItemUpload, 0, len(items)),
		}
		for _, item := range items {
			upload.Items = append(upload.Items, TransactionItemUpload{
				ProductID: item.ProductID,
				Qty:       item.Qty,
				Subtotal:  item.Subtotal,
			})
		}
		batch = append(batch, upload)
	}
	return batch, nil
}

// MarkBatchFailed stamps the current unsynced set as FAILED. The scheduler
// calls this when a run exhausts its retry budget; the rows stay in the
// unsynced set and the next fresh period offers them again.
func (e *Engine) MarkBatchFailed() error {
	pending, err := e.txRepo.FindUnsynced()
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(pending))
	for _, t := range pending {
		ids = append(ids, t.ID)
	}
	if err := e.txRepo.MarkFailed(ids); err != nil {
		return err
	}
	if len(ids) > 0 {
		log.Printf("[sync] retry budget exhausted, %d transactions marked FAILED until next period", len(ids))
		e.broker.Notify("transactions")
	}
	return nil
}

// PendingCount reports how many transactions still await upload.
func (e *Engine) PendingCount() (int64, error) {
	return e.txRepo.UnsyncedCount()
}
