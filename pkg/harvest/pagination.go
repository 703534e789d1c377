package harvest

import (
	"context"
	"errors"
	"fmt"

	"otwscraper/pkg/models"
	"otwscraper/pkg/pacing"
)

// DefaultExhaustionThreshold is the number of consecutive empty advances
// after which the results are considered exhausted.
const DefaultExhaustionThreshold = 3

// settleRounds is how many scroll and scroll-pause rounds a page gets
// before its cards are read
const settleRounds = 3

var (
	// ErrNoMorePages is returned by a Pager when the listing has no further page
	ErrNoMorePages = errors.New("no more result pages")
	// ErrExhausted is returned by Advance once the driver is exhausted
	ErrExhausted = errors.New("pagination exhausted")
)

// Pager reveals result cards. Cards render client-side after a page load
// and lazily on scroll, so ScrollResults is called before CurrentCards.
type Pager interface {
	ScrollResults(ctx context.Context) error
	CurrentCards(ctx context.Context) ([]models.CardHandle, error)
	AdvancePage(ctx context.Context) error
}

// PageState is the pagination driver's state
type PageState int

const (
	PageReady PageState = iota
	PageLoading
	PageExhausted
)

func (s PageState) String() string {
	switch s {
	case PageReady:
		return "READY"
	case PageLoading:
		return "LOADING"
	case PageExhausted:
		return "EXHAUSTED"
	default:
		return fmt.Sprintf("PageState(%d)", int(s))
	}
}

type emptyCounter interface {
	recordEmptyAdvance() int
	resetEmptyAdvances()
}

// PaginationDriver walks the result listing and yields only cards it has
// not surfaced before.
type PaginationDriver struct {
	pager     Pager
	policy    pacing.Policy
	counter   emptyCounter
	threshold int

	state    PageState
	started  bool
	advances int
	surfaced map[string]struct{}
}

// NewPaginationDriver creates a driver in the READY state
func NewPaginationDriver(pager Pager, policy pacing.Policy, counter emptyCounter, threshold int) *PaginationDriver {
	if threshold <= 0 {
		threshold = DefaultExhaustionThreshold
	}
	return &PaginationDriver{
		pager:     pager,
		policy:    policy,
		counter:   counter,
		threshold: threshold,
		state:     PageReady,
		surfaced:  make(map[string]struct{}),
	}
}

// State returns the current state
func (d *PaginationDriver) State() PageState { return d.state }

// Advances is the number of completed advances, the initial read included
func (d *PaginationDriver) Advances() int { return d.advances }

// Advance reveals the next batch of cards. The first call reads the page
// already loaded by the search; later calls move to the next page first.
// Either way the page is scrolled and allowed to settle before it is read.
// An empty batch with a nil error is a legitimate outcome; once the driver
// is EXHAUSTED, Advance returns ErrExhausted without touching the browser.
func (d *PaginationDriver) Advance(ctx context.Context) ([]models.CardHandle, error) {
	if d.state == PageExhausted {
		return nil, ErrExhausted
	}
	d.state = PageLoading

	if d.started {
		if err := d.pager.AdvancePage(ctx); err != nil {
			if errors.Is(err, ErrNoMorePages) {
				d.state = PageExhausted
				return nil, nil
			}
			d.state = PageReady
			return nil, fmt.Errorf("advance page: %w", err)
		}
	}
	d.started = true

	if err := d.settle(ctx); err != nil {
		d.state = PageReady
		return nil, err
	}
	d.advances++

	cards, err := d.pager.CurrentCards(ctx)
	if err != nil {
		d.state = PageReady
		return nil, fmt.Errorf("read result cards: %w", err)
	}

	fresh := make([]models.CardHandle, 0, len(cards))
	for _, card := range cards {
		if card == nil {
			continue
		}
		id := card.ID()
		if _, ok := d.surfaced[id]; ok {
			continue
		}
		d.surfaced[id] = struct{}{}
		fresh = append(fresh, card)
	}

	if len(fresh) == 0 {
		if d.counter.recordEmptyAdvance() >= d.threshold {
			d.state = PageExhausted
			return nil, nil
		}
	} else {
		d.counter.resetEmptyAdvances()
	}

	d.state = PageReady
	return fresh, nil
}

// settle scrolls the listing and waits the policy's scroll pause after each
// scroll, so lazily rendered cards are in place before the read
func (d *PaginationDriver) settle(ctx context.Context) error {
	for range settleRounds {
		if err := d.pager.ScrollResults(ctx); err != nil {
			return fmt.Errorf("scroll results: %w", err)
		}
		if err := pacing.Wait(ctx, d.policy.ScrollPause()); err != nil {
			return err
		}
	}
	return nil
}
