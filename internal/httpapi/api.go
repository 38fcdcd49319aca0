package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"warden.org/internal/auth"
	"warden.org/internal/obs"
	"warden.org/internal/org"
)

// ReadyProbe reports readiness, usually by pinging the database.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options tunes the outer middleware chain.
type Options struct {
	Version       string
	RateBurst     int
	RatePerSecond int
	MaxBodyBytes  int64
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	orgs       *org.Service
	readyProbe ReadyProbe
	opts       Options
}

func New(authSvc *auth.Service, orgSvc *org.Service, rp ReadyProbe, opts Options) *API {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		orgs:       orgSvc,
		readyProbe: rp,
		opts:       opts,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)
	a.mux.HandleFunc("/v1/organizations", a.handleOrganizationsCollection)
	a.mux.HandleFunc("/v1/organizations/", a.handleOrganizationResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the mux wrapped in the full middleware chain.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withActor(h)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	if a.opts.RateBurst > 0 && a.opts.RatePerSecond > 0 {
		h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSecond)
	}
	h = LoggingJSON(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}
