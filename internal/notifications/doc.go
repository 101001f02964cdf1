// Package notifications delivers daemon alerts to ntfy.
//
// The topic comes from [notifications] ntfy_topic. When it is empty NewService
// returns a no-op implementation, so callers never need to check whether
// alerts are enabled. Events cover daemon start and stop, upstream outages and
// recoveries, and a manual test message for `wesline test-notify`.
package notifications
