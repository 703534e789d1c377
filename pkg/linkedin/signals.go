package linkedin

import (
	"context"

	errs "otwscraper/pkg/errors"
)

// IsRateLimited reports a CAPTCHA, a security checkpoint or a throttling
// notice on the current page.
func (b *Browser) IsRateLimited(ctx context.Context) (bool, error) {
	p := b.page.Context(ctx)

	info, err := p.Info()
	if err != nil {
		return false, errs.New(errs.KindBrowser, "read page url", err)
	}
	if isChallengeURL(info.URL) {
		b.log.WarnWithFields("Security checkpoint detected", map[string]interface{}{"url": info.URL})
		return true, nil
	}

	has, _, err := p.Has(captchaSelector)
	if err != nil {
		return false, errs.New(errs.KindBrowser, "probe captcha", err)
	}
	if has {
		b.log.Warn("CAPTCHA frame detected")
		return true, nil
	}

	res, err := p.Eval(`() => document.body ? document.body.innerText.slice(0, 4000) : ""`)
	if err != nil {
		return false, errs.New(errs.KindBrowser, "read page text", err)
	}
	if hasThrottleText(res.Value.Str()) {
		b.log.Warn("Throttling notice detected")
		return true, nil
	}
	return false, nil
}

// IsLoginWall reports a login or sign-up page, or a page without the
// logged-in navigation bar.
func (b *Browser) IsLoginWall(ctx context.Context) (bool, error) {
	p := b.page.Context(ctx)

	info, err := p.Info()
	if err != nil {
		return false, errs.New(errs.KindBrowser, "read page url", err)
	}
	if isLoginURL(info.URL) {
		return true, nil
	}

	for _, sel := range loggedInSelectors {
		has, _, err := p.Has(sel)
		if err != nil {
			return false, errs.New(errs.KindBrowser, "probe navigation bar", err)
		}
		if has {
			return false, nil
		}
	}
	return true, nil
}
