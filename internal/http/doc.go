// Package http exposes the room booking services as a JSON API.
//
// Callers are authenticated upstream; the gateway forwards the actor in the X-Actor-ID,
// X-Actor-Name and X-Actor-Role headers (role "admin" grants administrative rights).
//
// The router exposes the following endpoints:
//   - GET /rooms?active=true&building=B, POST /rooms, DELETE /rooms/{id}: room catalog
//     exchanging the `roomDTO` payload defined in room_handler.go. DELETE deactivates the
//     room; its requests are kept.
//   - GET /buildings: buildings that have at least one active room.
//   - GET /rooms/{id}/availability?date=YYYY-MM-DD&mode=strict|pending: hourly grid of one
//     day plus the Monday-start week around it.
//   - POST /rooms/{id}/availability/selection: validates picked hours and returns the
//     `{startUtc, endUtc}` interval to submit.
//   - GET /requests, GET /requests/{id}, POST /requests, POST /requests/drafts,
//     POST /requests/{id}/submit, DELETE /requests/{id}: booking requests exchanging the
//     `requestDTO` payload defined in request_handler.go. DELETE cancels.
//   - GET /approvals/queue, POST /approvals/{id}/decide: administrator decisions with body
//     `{"isApproved": bool, "comment": string}`.
//   - GET /analytics/summary, GET /analytics/events: administrator reporting.
//
// Validation failures answer 422 with a field map, booking conflicts 409 with the
// overlapping occurrences, missing resources 404 and permission failures 403.
package http
