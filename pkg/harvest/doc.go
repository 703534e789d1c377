// Package harvest runs one paced, guarded walk over a people-search result
// listing and collects open-to-work profiles.
//
// A run is strictly sequential. Every page advance and every card read is
// an action: the SessionGuard is consulted before it and the pacing policy
// spaces it from the previous one.
package harvest
