package flightstats

import (
	"net/http"
	"time"

	"flightstats-client/flightstats/application"
	"flightstats-client/flightstats/domain"
	"flightstats-client/flightstats/infra"
)

type ClientOptions struct {
	Credentials infra.Credentials
	BaseURL     string

	// cota por RunSet (janela móvel)
	RateMax    int
	RateWindow time.Duration

	// Global, se não nil, é o token bucket compartilhado por credencial.
	Global *infra.Store

	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration

	Stats domain.StatsStore

	// Transport base compartilhado (pool de conexões). Se nil, um novo é criado.
	Transport http.RoundTripper
}

func newBaseTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// NewClientFactory devolve a fábrica usada pelo orquestrador: cada RunSet
// recebe um cliente com o seu próprio WindowLimiter (e o limiter da
// credencial, se configurado), todos sobre o mesmo transport base.
func NewClientFactory(opts ClientOptions) application.ClientFactory {
	base := opts.Transport
	if base == nil {
		base = newBaseTransport()
	}
	if opts.RateMax <= 0 {
		opts.RateMax = 60
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = 60 * time.Second
	}

	return func(rs domain.RunSet) (domain.Caller, error) {
		if err := opts.Credentials.Validate(); err != nil {
			return nil, err
		}

		limiters := []domain.Limiter{infra.NewWindowLimiter(opts.RateMax, opts.RateWindow)}
		if opts.Global != nil {
			limiters = append(limiters, opts.Global.Get(domain.Key(opts.Credentials.AppID)))
		}

		hc := &http.Client{
			Timeout:   opts.Timeout,
			Transport: base,
		}

		clientOpts := []infra.ClientOption{
			infra.WithHTTPClient(hc),
			infra.WithLimiters(limiters...),
			infra.WithRetries(opts.MaxRetries, opts.BaseBackoff),
		}
		if opts.BaseURL != "" {
			clientOpts = append(clientOpts, infra.WithBaseURL(opts.BaseURL))
		}
		if opts.Stats != nil {
			clientOpts = append(clientOpts, infra.WithStats(opts.Stats, domain.Key(rs.ID()), rs.Airport))
		}
		return infra.NewClient(opts.Credentials, clientOpts...), nil
	}
}
