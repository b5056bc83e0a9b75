// Package goAccess is a role/permission authorization decision engine
// with role-based two-factor step-up enforcement and a login-time
// two-factor challenge flow.
//
// The package evaluates access requirements (role sets, permission
// sets, any/all combination modes) against immutable [Principal]
// snapshots supplied by the caller's identity layer. Denials are
// returned as [Decision] values, never errors. A role-driven
// [Engine.EnforceStepUp] policy additionally withholds otherwise
// granted access until a principal in a mandated role confirms a TOTP
// secret; its wiring into the request pipeline is an explicit
// configuration switch, off by default.
//
// The login-time challenge ([Engine.BeginChallenge],
// [Engine.SubmitCode], [Engine.SubmitRecoveryCode]) persists pending
// challenges in Redis with a short expiry and a bounded attempt budget,
// verifies skew-tolerant TOTP codes or single-use recovery codes, and
// mints a signed session token on completion.
//
// # Architecture boundaries
//
// goAccess is the decision core. HTTP transport beyond the thin
// middleware adapters, identity storage, and template rendering are the
// caller's concern; the engine reaches them only through the
// [IdentityProvider] interface. The settings and feature subpackages
// are independent read-side collaborators and take no part in
// authorization decisions.
//
// Engine methods are safe for concurrent use after [Builder.Build]:
// Evaluate and the step-up checks are pure functions over immutable
// snapshots, and challenge state serializes through Redis.
package goAccess
