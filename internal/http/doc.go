// Package http provides HTTP handlers and middleware for the booking API.
//
// The router exposes the following endpoints:
//   - POST /api/sessions: signs in. Body: {"login","password"}. Response:
//     {"token","expires_at","principal":{"login","group"}} with the token also
//     set as the `erm_session` cookie and the `X-Session-Token` header.
//   - GET /api/sessions/current, DELETE /api/sessions/current and
//     PUT /api/sessions/current/password: the signed in principal, sign out
//     and password change.
//   - GET|POST /api/engineers, GET|PUT|DELETE /api/engineers/{login}: the
//     engineer directory exchanging `engineerDTO`. Mutations require admin.
//   - GET /api/engineers/available?q=: search results ordered by workload.
//   - GET /api/engineers/{login}/workload: percent booked over the next week.
//   - GET|POST|DELETE /api/engineers/{login}/bookings: bookings of one
//     engineer. GET takes `start` and `end` unix seconds. POST takes the
//     booking form as strings and answers with one entry per expanded date.
//   - GET /api/bookings?project=, PATCH /api/bookings?project= and
//     DELETE /api/bookings/{id}: lookups and maintenance by project ID.
//   - GET|PUT /api/engineers/{login}/reports/{year}/{month}: report draft and
//     save. GET /api/reports/{year}/{month}: the consolidated matrix.
//   - GET|POST /api/users, GET|PUT|DELETE /api/users/{login} and
//     POST /api/users/{login}/password: account management for admins.
//   - GET /healthz: liveness.
//
// Every /api route but sign-in requires a session. Request/response DTOs live
// alongside their respective handlers.
package http
