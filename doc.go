// Package auth implements the authentication slice of the BlogType
// platform: account signup with e-mail verification, password and OAuth
// credential management, and login.
//
// The package is organized around a small set of collaborators:
//
//   - Payload validation: SignupPayload and LoginPayload carry the raw
//     client submission and expose Validate methods returning field-keyed
//     errors suitable for form annotation.
//   - Repositories: RepositoryManager exposes the Users and Blogs stores
//     backed by bun. The process entry point owns the *bun.DB handle and
//     injects it; nothing in this package opens connections.
//   - Workflows: SignupHandler and VerifyAccountHandler implement the
//     registration and verification flows as message/handler pairs.
//   - TokenService signs and validates the short-lived verification
//     tokens and the session tokens issued on login.
//   - Mailer delivers the verification link; the transport behind it is
//     a capability supplied by the caller.
//
// HTTP wiring lives in http_controller.go and exposes POST /signup,
// GET /verify/:token and POST /login as a JSON API.
package auth
