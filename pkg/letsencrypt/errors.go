package letsencrypt

import "errors"

var (
	// ErrNoDomains is returned when an issuer is created without domains.
	ErrNoDomains = errors.New("letsencrypt: at least one domain is required")

	// ErrEmptyDomain is returned when a domain entry is blank.
	ErrEmptyDomain = errors.New("letsencrypt: domain entries cannot be empty")

	// ErrNoEmail is returned when the account email is missing.
	ErrNoEmail = errors.New("letsencrypt: account email is required")

	// ErrEmptyCertificate is returned when the issuer responds without a
	// certificate payload.
	ErrEmptyCertificate = errors.New("letsencrypt: empty certificate payload received from ACME server")

	// ErrEmptyPrivateKey is returned when the issuer responds without a
	// private key.
	ErrEmptyPrivateKey = errors.New("letsencrypt: empty private key received from ACME server")
)
