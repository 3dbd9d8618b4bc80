// Package letsencrypt obtains TLS certificates from an ACME issuer (Let's
// Encrypt by default) using the HTTP-01 challenge.
//
// An Issuer performs one complete exchange per Obtain call: register an
// account with a fresh key, answer the HTTP-01 challenge, and download the
// certificate. The result is an in-memory Bundle (PEM certificate chain,
// private key, leaf expiry) ready to be parsed with tls.X509KeyPair and
// installed into a live server; nothing touches disk.
//
// Two challenge-serving modes are supported:
//
//   - The default mode starts a temporary HTTP listener on the challenge
//     port for the duration of the exchange (lego's provider server).
//   - WithProvider plugs in an external challenge.Provider such as a
//     ChallengeStore, for processes that already run a listener on port 80
//     and need to share it; the store answers challenge paths while the
//     rest of the listener keeps serving redirects.
//
// Use WithStaging during development: Let's Encrypt production rate limits
// are strict and a misconfigured renewal loop can exhaust them quickly.
package letsencrypt
