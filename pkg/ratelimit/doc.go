// Package ratelimit keeps outgoing traffic under a ceiling.
//
// Two limiters are provided:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Used for Google Sheets API calls (requests per minute)
//
// Sliding Window:
//   - Tracks events within a moving time window
//   - Used for LinkedIn page loads (loads per hour)
//
// Both block in Wait until a slot frees up or the context is done:
//
//	loads := ratelimit.NewSlidingWindow(100, time.Hour)
//	if err := loads.Wait(ctx); err != nil {
//	    return err // cancelled
//	}
//	// navigate
package ratelimit
