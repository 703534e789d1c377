package linkedin

import (
	"context"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	errs "otwscraper/pkg/errors"
	"otwscraper/pkg/pacing"
)

// applyLocationFilter opens the Locations filter, types location, picks
// the first suggestion and applies it. It returns false when the filter
// controls could not be found; that is not an error.
func (b *Browser) applyLocationFilter(ctx context.Context, location string) (bool, error) {
	p := b.page.Context(ctx)

	btn, err := findControl(p, "button", locationFilterButtonTexts, locationFilterButtonSelectors)
	if err != nil {
		return false, err
	}
	if btn == nil {
		b.log.Debug("Locations filter button not found")
		return false, nil
	}
	if err := b.click(ctx, btn); err != nil {
		return false, err
	}

	typed := false
	for _, sel := range locationInputSelectors {
		has, in, err := p.Has(sel)
		if err != nil {
			return false, errs.New(errs.KindBrowser, "find location input", err)
		}
		if !has || !usable(in) {
			continue
		}
		if err := in.Input(location); err != nil {
			return false, errs.New(errs.KindBrowser, "type location", err)
		}
		if err := pacing.Wait(ctx, b.cfg.Pacing.NextDelay()); err != nil {
			return false, err
		}
		typed = true
		break
	}
	if !typed {
		return false, nil
	}

	for _, sel := range suggestionSelectors {
		has, sug, err := p.Has(sel)
		if err != nil {
			return false, errs.New(errs.KindBrowser, "find location suggestion", err)
		}
		if has {
			if err := b.click(ctx, sug); err != nil {
				return false, err
			}
			break
		}
	}

	apply, err := findControl(p, "button", applyFilterTexts, applyFilterSelectors)
	if err != nil {
		return false, err
	}
	if apply != nil {
		if err := b.click(ctx, apply); err != nil {
			return false, err
		}
	} else if err := p.Keyboard.Press(input.Enter); err != nil {
		return false, errs.New(errs.KindBrowser, "submit location filter", err)
	}

	if err := p.WaitLoad(); err != nil {
		return false, errs.New(errs.KindNavigation, "wait for filtered results", err)
	}
	b.log.InfoWithFields("Applied location filter", map[string]interface{}{"location": location})
	return true, nil
}

func (b *Browser) click(ctx context.Context, el *rod.Element) error {
	if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return errs.New(errs.KindBrowser, "click", err)
	}
	return pacing.Wait(ctx, b.cfg.Pacing.NextDelay())
}

// findControl returns the first usable element of tag whose text equals one
// of texts, else the first usable match of selectors.
func findControl(p *rod.Page, tag string, texts, selectors []string) (*rod.Element, error) {
	els, err := p.Elements(tag)
	if err != nil {
		return nil, errs.New(errs.KindBrowser, "list "+tag, err)
	}
	for _, el := range els {
		t, err := el.Text()
		if err != nil {
			continue
		}
		if matchesAny(t, texts) && usable(el) {
			return el, nil
		}
	}

	for _, sel := range selectors {
		has, el, err := p.Has(sel)
		if err != nil {
			return nil, errs.New(errs.KindBrowser, "find "+sel, err)
		}
		if has && usable(el) {
			return el, nil
		}
	}
	return nil, nil
}

func matchesAny(text string, candidates []string) bool {
	t := strings.TrimSpace(text)
	for _, c := range candidates {
		if strings.EqualFold(t, c) {
			return true
		}
	}
	return false
}
