package notify

import (
	"context"
	"fmt"
	"log"
	"sync"

	"smartretail-pos/internal/repository"
)

// Scanner is the periodic read-only pass over the inventory ledger. It
// remembers what it alerted so a restocked product gets its alert cancelled
// on the next pass instead of silently lingering.
type Scanner struct {
	productRepo repository.ProductRepository
	notifier    Notifier
	threshold   int

	mu     sync.Mutex
	active map[uint]struct{}
}

func NewScanner(productRepo repository.ProductRepository, notifier Notifier, threshold int) *Scanner {
	return &Scanner{
		productRepo: productRepo,
		notifier:    notifier,
		threshold:   threshold,
		active:      make(map[uint]struct{}),
	}
}

// Run performs one scan. Negative stock counts as low by construction of the
// query; soft-deleted products are excluded.
func (s *Scanner) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	low, err := s.productRepo.LowStock(s.threshold)
	if err != nil {
		return fmt.Errorf("low stock query: %w", err)
	}

	current := make(map[uint]struct{}, len(low))
	for _, p := range low {
		current[p.ID] = struct{}{}
		s.notifier.LowStock(Alert{
			ProductID:   p.ID,
			ProductName: p.Name,
			Stock:       p.Stock,
		})
	}

	s.mu.Lock()
	for id := range s.active {
		if _, still := current[id]; !still {
			s.notifier.Cancel(id)
		}
	}
	s.active = current
	s.mu.Unlock()

	log.Printf("[notify] low stock scan: %d products under threshold %d", len(low), s.threshold)
	return nil
}
