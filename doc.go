// Package expense provides the record keeping core of a multi tenant
// expense tracker: account credentials, stateless session tokens,
// single use verification and reset tokens, brute force lockout, and an
// ownership aware reference resolver for the expense and category
// records themselves.
//
// Authentication:
//   - TokenServiceImpl signs and verifies HS256 session tokens with a
//     fixed validity horizon. Verification is a pure computation, the
//     server never stores sessions.
//   - LockoutMachine derives an open/locked state from the persisted
//     loginAttempts and lockUntil fields and enforces the lockout
//     policy around every login attempt. Counter increments happen at
//     the storage layer so concurrent attempts never miss the lock
//     threshold.
//   - Single use tokens (email verification, password reset) are
//     random 256 bit values persisted on the account together with an
//     expiry, and consumed atomically with the mutation they gate.
//
// Request identity:
//   - middleware/identityware turns a bearer token into a
//     RequestIdentity without ever failing the request. Downstream
//     operations take the identity explicitly and decide for
//     themselves whether to require authentication.
//   - Resolver materializes Reference values on demand, checking the
//     requesting identity against the record owner at resolution time.
package expense
