// Package scraper runs one open-to-work search from start to finish.
//
// A Scraper launches the stealth browser with the stored LinkedIn session,
// hands it to the harvest orchestrator, and exports whatever was collected
// through the configured sink, even when the run stopped early.
//
// Usage:
//
//	s, err := scraper.New(ctx, cfg, scraper.WithCookies(authManager))
//	if err != nil {
//	    return err
//	}
//
//	out, err := s.Run(ctx, models.SearchQuery{
//	    JobTitle:    "QA Engineer",
//	    Location:    "Lille",
//	    MaxProfiles: 50,
//	})
//	if err != nil {
//	    return err
//	}
//	os.Exit(out.ExitCode)
//
// Spooling:
//
// Before export the record set is written to the checkpoint spool. It is
// removed once every sink succeeded and kept, with the names of the failed
// sinks, otherwise, so `otwscraper export` can deliver it again.
//
// Exit codes:
//
// 0 for a clean end of results or when the requested number of profiles was
// reached, 2 for any other stop reason or a harvest error, 3 when an export
// failed. Export failures take precedence.
package scraper
