package letsencrypt

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"net"
	"strings"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
)

const (
	defaultDirectoryURL = lego.LEDirectoryProduction
	defaultHTTPPort     = "80"
)

// Option configures the certificate issuer.
type Option func(*config) error

// WithDirectoryURL overrides the ACME directory URL (defaults to Let's
// Encrypt production).
func WithDirectoryURL(url string) Option {
	return func(cfg *config) error {
		cfg.caDirURL = strings.TrimSpace(url)
		return nil
	}
}

// WithStaging points the issuer at the Let's Encrypt staging directory,
// which issues untrusted certificates but has generous rate limits.
func WithStaging() Option {
	return func(cfg *config) error {
		cfg.caDirURL = lego.LEDirectoryStaging
		return nil
	}
}

// WithHTTP01Address selects the bind address for the internal HTTP-01
// challenge server (host:port). Leave empty to bind all interfaces on
// port 80. Ignored when WithProvider is set.
func WithHTTP01Address(addr string) Option {
	return func(cfg *config) error {
		cfg.http01Address = strings.TrimSpace(addr)
		return nil
	}
}

// WithProvider plugs in an external HTTP-01 challenge provider instead of
// the internal listener; pair it with a ChallengeStore when the challenge
// port is shared with a redirect listener.
func WithProvider(provider challenge.Provider) Option {
	return func(cfg *config) error {
		cfg.provider = provider
		return nil
	}
}

// WithKeyType overrides the key type for the issued certificate's private
// key (defaults to RSA 2048).
func WithKeyType(keyType certcrypto.KeyType) Option {
	return func(cfg *config) error {
		cfg.keyType = keyType
		return nil
	}
}

// WithBundle toggles whether the returned certificate includes the issuer
// chain concatenated to the leaf (default true).
func WithBundle(bundle bool) Option {
	return func(cfg *config) error {
		cfg.bundle = bundle
		return nil
	}
}

type config struct {
	domains       []string
	email         string
	caDirURL      string
	keyType       certcrypto.KeyType
	bundle        bool
	provider      challenge.Provider
	http01Address string
	http01Host    string
	http01Port    string
}

// Issuer obtains certificates from an ACME directory. One Issuer serves one
// fixed set of domains; each Obtain call runs a complete exchange.
type Issuer struct {
	cfg             config
	clientFactory   clientFactory
	accountKeyMaker func() (crypto.PrivateKey, error)
}

// New constructs an Issuer for the given domain list and account email.
func New(domains []string, email string, opts ...Option) (*Issuer, error) {
	cfg := config{
		domains:  cloneStrings(domains),
		email:    strings.TrimSpace(email),
		caDirURL: defaultDirectoryURL,
		keyType:  certcrypto.RSA2048,
		bundle:   true,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	return &Issuer{
		cfg:           cfg,
		clientFactory: defaultClientFactory,
		accountKeyMaker: func() (crypto.PrivateKey, error) {
			return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		},
	}, nil
}

// Obtain runs one ACME exchange and returns the issued certificate bundle.
// On any failure it returns an error and nothing partial: the caller's
// previously installed certificate stays untouched.
func (i *Issuer) Obtain(ctx context.Context) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accountKey, err := i.accountKeyMaker()
	if err != nil {
		return nil, fmt.Errorf("generate account key: %w", err)
	}

	user := &accountUser{
		email: i.cfg.email,
		key:   accountKey,
	}

	legoCfg := lego.NewConfig(user)
	legoCfg.CADirURL = i.cfg.caDirURL
	legoCfg.Certificate.KeyType = i.cfg.keyType

	client, err := i.clientFactory(legoCfg)
	if err != nil {
		return nil, fmt.Errorf("create acme client: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	provider := i.cfg.provider
	if provider == nil {
		provider = http01.NewProviderServer(i.cfg.http01Host, i.cfg.http01Port)
	}
	if err := client.SetHTTP01Provider(provider); err != nil {
		return nil, fmt.Errorf("configure http-01 provider: %w", err)
	}

	reg, err := client.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return nil, fmt.Errorf("register account: %w", err)
	}
	user.registration = reg

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	certRes, err := client.Obtain(certificate.ObtainRequest{
		Domains:        i.cfg.domains,
		Bundle:         i.cfg.bundle,
		EmailAddresses: []string{i.cfg.email},
	})
	if err != nil {
		return nil, fmt.Errorf("obtain certificate: %w", err)
	}
	if certRes == nil {
		return nil, ErrEmptyCertificate
	}

	return newBundle(i.cfg.domains, certRes.Certificate, certRes.PrivateKey, certRes.IssuerCertificate)
}

func (cfg *config) applyDefaults() error {
	if len(cfg.domains) == 0 {
		return ErrNoDomains
	}
	for idx := range cfg.domains {
		cfg.domains[idx] = strings.TrimSpace(cfg.domains[idx])
		if cfg.domains[idx] == "" {
			return ErrEmptyDomain
		}
	}
	if cfg.email == "" {
		return ErrNoEmail
	}
	if cfg.caDirURL == "" {
		cfg.caDirURL = defaultDirectoryURL
	}
	if cfg.keyType == "" {
		cfg.keyType = certcrypto.RSA2048
	}

	host, port, err := parseHTTPAddress(cfg.http01Address)
	if err != nil {
		return err
	}
	if port == "" {
		port = defaultHTTPPort
	}
	cfg.http01Host = host
	cfg.http01Port = port

	return nil
}

func parseHTTPAddress(addr string) (string, string, error) {
	if strings.TrimSpace(addr) == "" {
		return "", "", nil
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", "", fmt.Errorf("invalid http-01 address %q: %w", addr, err)
	}
	return host, port, nil
}

type clientFactory func(*lego.Config) (acmeClient, error)

// acmeClient narrows the lego client to what Obtain needs, so tests can
// substitute a fake without network access.
type acmeClient interface {
	Register(options registration.RegisterOptions) (*registration.Resource, error)
	SetHTTP01Provider(provider challenge.Provider) error
	Obtain(request certificate.ObtainRequest) (*certificate.Resource, error)
}

func defaultClientFactory(cfg *lego.Config) (acmeClient, error) {
	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &legoClientAdapter{client: client}, nil
}

type legoClientAdapter struct {
	client *lego.Client
}

func (l *legoClientAdapter) Register(options registration.RegisterOptions) (*registration.Resource, error) {
	return l.client.Registration.Register(options)
}

func (l *legoClientAdapter) SetHTTP01Provider(provider challenge.Provider) error {
	return l.client.Challenge.SetHTTP01Provider(provider)
}

func (l *legoClientAdapter) Obtain(request certificate.ObtainRequest) (*certificate.Resource, error) {
	return l.client.Certificate.Obtain(request)
}

type accountUser struct {
	email        string
	registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *accountUser) GetEmail() string                        { return u.email }
func (u *accountUser) GetRegistration() *registration.Resource { return u.registration }
func (u *accountUser) GetPrivateKey() crypto.PrivateKey        { return u.key }
