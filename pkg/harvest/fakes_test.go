package harvest

import (
	"context"
	"fmt"
	"time"

	"otwscraper/pkg/models"
)

type fakeCard string

func (c fakeCard) ID() string { return string(c) }

// fakeBrowser serves scripted result pages. Advancing past the last page
// keeps showing the last page, the way a stuck "Next" button behaves,
// unless noMorePages is set.
type fakeBrowser struct {
	pages [][]fakeCard
	cards map[fakeCard]map[models.Field]string

	page        int
	noMorePages bool
	navErr      error
	advanceErr  error
	loginWall   bool

	// rateLimitedOnCall makes the Nth IsRateLimited call report a limit
	rateLimitedOnCall int

	navCalls     int
	scrollCalls  int
	advanceCalls int
	currentCalls int
	rateCalls    int
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{cards: make(map[fakeCard]map[models.Field]string)}
}

func (b *fakeBrowser) addPage(cards ...fakeCard) {
	b.pages = append(b.pages, cards)
}

func (b *fakeBrowser) NavigateToSearch(ctx context.Context, _ models.SearchQuery) error {
	b.navCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.navErr
}

func (b *fakeBrowser) ScrollResults(ctx context.Context) error {
	b.scrollCalls++
	return ctx.Err()
}

func (b *fakeBrowser) CurrentCards(ctx context.Context) ([]models.CardHandle, error) {
	b.currentCalls++
	if len(b.pages) == 0 {
		return nil, nil
	}
	idx := b.page
	if idx >= len(b.pages) {
		idx = len(b.pages) - 1
	}
	out := make([]models.CardHandle, 0, len(b.pages[idx]))
	for _, c := range b.pages[idx] {
		out = append(out, c)
	}
	return out, nil
}

func (b *fakeBrowser) AdvancePage(ctx context.Context) error {
	b.advanceCalls++
	if b.advanceErr != nil {
		return b.advanceErr
	}
	if b.noMorePages && b.page >= len(b.pages)-1 {
		return ErrNoMorePages
	}
	b.page++
	return nil
}

func (b *fakeBrowser) IsRateLimited(ctx context.Context) (bool, error) {
	b.rateCalls++
	return b.rateLimitedOnCall > 0 && b.rateCalls >= b.rateLimitedOnCall, nil
}

func (b *fakeBrowser) IsLoginWall(ctx context.Context) (bool, error) {
	return b.loginWall, nil
}

func (b *fakeBrowser) ExtractField(ctx context.Context, card models.CardHandle, field models.Field) (string, bool, error) {
	fields, ok := b.cards[card.(fakeCard)]
	if !ok {
		return "", false, nil
	}
	v, ok := fields[field]
	return v, ok, nil
}

// profile registers an open-to-work card for slug
func (b *fakeBrowser) profile(id, name, slug, location string) fakeCard {
	c := fakeCard(id)
	b.cards[c] = map[models.Field]string{
		models.FieldName:       name,
		models.FieldProfileURL: fmt.Sprintf("https://www.linkedin.com/in/%s/", slug),
		models.FieldHeadline:   "QA Engineer at Acme",
		models.FieldLocation:   location,
		models.FieldBadge:      "Open to work",
	}
	return c
}

// unbadged registers a profile card without the open-to-work badge
func (b *fakeBrowser) unbadged(id, name, slug string) fakeCard {
	c := b.profile(id, name, slug, "Lille")
	delete(b.cards[c], models.FieldBadge)
	return c
}

// broken registers a card that has a link but no readable name
func (b *fakeBrowser) broken(id string) fakeCard {
	c := fakeCard(id)
	b.cards[c] = map[models.Field]string{
		models.FieldProfileURL: "https://www.linkedin.com/in/" + id,
	}
	return c
}

// linkless registers a badged card whose profile link is missing, as on
// "LinkedIn Member" results
func (b *fakeBrowser) linkless(id, name string) fakeCard {
	c := b.profile(id, name, id, "Lille")
	delete(b.cards[c], models.FieldProfileURL)
	return c
}

type recordingObserver struct {
	pages    int
	accepted int
	skipped  map[models.SkipReason]int
	pauses   int
	long     int
	onRecord func(total int)
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{skipped: make(map[models.SkipReason]int)}
}

func (o *recordingObserver) PageLoaded(int, int) { o.pages++ }

func (o *recordingObserver) RecordAccepted(_ models.ProfileRecord, total int) {
	o.accepted++
	if o.onRecord != nil {
		o.onRecord(total)
	}
}

func (o *recordingObserver) CardSkipped(reason models.SkipReason, _ string) { o.skipped[reason]++ }

func (o *recordingObserver) Pausing(_ time.Duration, long bool) {
	o.pauses++
	if long {
		o.long++
	}
}

// everyThird long-pauses on every third action and never waits
type everyThird struct{}

func (everyThird) NextDelay() time.Duration       { return 0 }
func (everyThird) ShouldLongPause(count int) bool { return count%3 == 0 }
func (everyThird) LongPause() time.Duration       { return 0 }
func (everyThird) ScrollPause() time.Duration     { return 0 }
