package connect

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Resolution is the outcome of one login attempt.
type Resolution struct {
	// Account is the resolved local account.
	Account *LocalAccount
	// Authorities mirrors the account's authorities at resolution time.
	Authorities []string
	// Provider is the provider id the attempt came from.
	Provider string
	// Details is the caller supplied request metadata, propagated unchanged.
	Details map[string]any
	// NewUser is true when the attempt auto-registered a new account.
	NewUser bool
	// Bound is true when the attempt bound the provider identity to the
	// already authenticated account.
	Bound bool
	// Reused is true when the existing authenticated identity was returned
	// unchanged (binding or confirmed-ownership path).
	Reused bool
	// Token is the minted identity token. Empty when the resolver has no
	// token service or when the existing identity was reused.
	Token string
}

// AdditionalCheck runs together with the pre-authentication checks and can
// veto a resolution. Third-party logins carry no credential to validate, so
// the default is a no-op.
type AdditionalCheck func(account *LocalAccount, req *LoginRequest) error

// LoginResolver decides what a third-party login means locally: register,
// bind, or re-authenticate. It is safe for concurrent use; its only mutable
// state is the injected identity cache.
type LoginResolver struct {
	connections ConnectionStore
	service     ConnectionService
	accounts    AccountResolver
	fetcher     ProfileFetcher
	cache       IdentityCache
	reconciler  ConnectionReconciler
	states      StateCache
	tokens      TokenService
	preChecks   []AccountCheck
	postChecks  []AccountCheck
	additional  AdditionalCheck
	logger      Logger
}

// ResolverOption configures a LoginResolver.
type ResolverOption func(*LoginResolver)

// WithProfileFetcher sets the fetcher used by Authenticate.
func WithProfileFetcher(f ProfileFetcher) ResolverOption {
	return func(r *LoginResolver) {
		r.fetcher = f
	}
}

// WithIdentityCache sets the account cache. Defaults to NoopIdentityCache.
func WithIdentityCache(c IdentityCache) ResolverOption {
	return func(r *LoginResolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithReconciler sets the connection reconciler. Defaults to a Reconciler
// built over the resolver's connection service.
func WithReconciler(rec ConnectionReconciler) ResolverOption {
	return func(r *LoginResolver) {
		if rec != nil {
			r.reconciler = rec
		}
	}
}

// WithStateCache sets the login-state cache cleared after each resolution.
func WithStateCache(s StateCache) ResolverOption {
	return func(r *LoginResolver) {
		r.states = s
	}
}

// WithTokenService enables identity token minting on new and
// re-authenticated resolutions.
func WithTokenService(t TokenService) ResolverOption {
	return func(r *LoginResolver) {
		r.tokens = t
	}
}

// WithPreAuthChecks replaces the ordered pre-authentication check list.
func WithPreAuthChecks(checks []AccountCheck) ResolverOption {
	return func(r *LoginResolver) {
		r.preChecks = checks
	}
}

// WithPostAuthChecks replaces the ordered post-authentication check list.
func WithPostAuthChecks(checks []AccountCheck) ResolverOption {
	return func(r *LoginResolver) {
		r.postChecks = checks
	}
}

// WithAdditionalCheck sets an extra check run alongside the pre-auth checks.
func WithAdditionalCheck(check AdditionalCheck) ResolverOption {
	return func(r *LoginResolver) {
		r.additional = check
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) ResolverOption {
	return func(r *LoginResolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewLoginResolver creates a resolver over the given collaborators.
func NewLoginResolver(
	connections ConnectionStore,
	service ConnectionService,
	accounts AccountResolver,
	opts ...ResolverOption,
) *LoginResolver {
	r := &LoginResolver{
		connections: connections,
		service:     service,
		accounts:    accounts,
		cache:       NoopIdentityCache{},
		preChecks:   DefaultPreAuthChecks(),
		postChecks:  DefaultPostAuthChecks(),
		logger:      defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.reconciler == nil && r.service != nil {
		r.reconciler = NewReconciler(r.service, WithReconcilerLogger(r.logger))
	}

	return r
}

// Supports reports whether this resolver can handle a request kind. A
// framework-level dispatcher uses it to route login requests.
func (r *LoginResolver) Supports(kind string) bool {
	return kind == RequestKindOAuth2Login
}

// Authenticate fetches the third-party profile for req and resolves it.
// Fetch failures propagate verbatim.
func (r *LoginResolver) Authenticate(ctx context.Context, req *LoginRequest, principal Principal) (*Resolution, error) {
	if req != nil && req.Kind != "" && !r.Supports(req.Kind) {
		return nil, ErrUnsupportedRequest
	}
	if r.fetcher == nil {
		return nil, ErrProfileFetchFailed
	}

	profile, err := r.fetcher.FetchProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileFetchFailed
	}

	return r.Resolve(ctx, profile, req, principal)
}

// Resolve maps a fetched profile onto a local identity decision.
//
// With no existing connection an anonymous caller is auto-registered and an
// authenticated caller gets the provider identity bound to their account.
// With existing connections an owning authenticated caller is confirmed as
// is, anyone else re-authenticates as the account of the lowest-ranked
// record. Either way the selected record is handed to the reconciler exactly
// once so token material stays current.
//
// Status check failures on cached accounts are retried once against fresh
// store data before they propagate.
func (r *LoginResolver) Resolve(ctx context.Context, profile *Profile, req *LoginRequest, principal Principal) (*Resolution, error) {
	if profile == nil || profile.Provider == "" || profile.ProviderUserID == "" {
		return nil, ErrInvalidProfile
	}

	conns, err := r.connections.FindByProviderUserID(ctx, profile.Provider, profile.ProviderUserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to find connections")
	}

	current := principal.Account()

	var (
		account      *LocalAccount
		cacheWasUsed bool
		newUser      bool
		bound        bool
	)

	if len(conns) == 0 {
		if current == nil {
			account, err = r.service.SignUp(ctx, profile, profile.Provider)
			if err != nil {
				return nil, err
			}
			newUser = true
		} else {
			if err := r.service.Bind(ctx, current, profile, profile.Provider); err != nil {
				return nil, err
			}
			bound = true
		}
	} else {
		var conn *Connection

		if current != nil {
			for _, c := range conns {
				if c != nil && c.LocalUserID == current.ID {
					conn = c
					break
				}
			}
			if conn == nil {
				// The caller does not own this provider identity; resolve
				// as if unauthenticated.
				current = nil
			} else {
				account = current
			}
		}

		if account == nil {
			conn = FirstByRank(conns)
			if cached, ok := r.cache.Get(conn.LocalUserID); ok {
				account = cached
				cacheWasUsed = true
			} else {
				account, err = r.accounts.LoadAccountByID(ctx, conn.LocalUserID)
				if err != nil {
					return nil, err
				}
			}
		}

		r.reconciler.UpdateAsync(profile, conn)
	}

	r.clearLoginState(ctx, profile.Provider)

	if current != nil {
		return &Resolution{
			Account:     current,
			Authorities: current.Authorities,
			Provider:    profile.Provider,
			Details:     requestDetails(req),
			Bound:       bound,
			Reused:      true,
		}, nil
	}

	if err := r.runPreChecks(account, req); err != nil {
		if !cacheWasUsed {
			return nil, err
		}
		// Retry once with fresh, non-cached data before giving up.
		cacheWasUsed = false
		account, err = r.accounts.LoadAccountByID(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if err := r.runPreChecks(account, req); err != nil {
			return nil, err
		}
	}

	if err := RunAccountChecks(r.postChecks, account); err != nil {
		return nil, err
	}

	if !cacheWasUsed {
		r.cache.Put(account)
	}

	resolution := &Resolution{
		Account:     account,
		Authorities: account.Authorities,
		Provider:    profile.Provider,
		Details:     requestDetails(req),
		NewUser:     newUser,
	}

	if r.tokens != nil {
		token, err := r.tokens.Generate(account, profile.Provider)
		if err != nil {
			return nil, err
		}
		resolution.Token = token
	}

	return resolution, nil
}

func (r *LoginResolver) runPreChecks(account *LocalAccount, req *LoginRequest) error {
	if err := RunAccountChecks(r.preChecks, account); err != nil {
		return err
	}
	if r.additional != nil {
		return r.additional(account, req)
	}
	return nil
}

// clearLoginState drops the flow nonce for provider. State bookkeeping never
// fails a login; errors are logged and swallowed.
func (r *LoginResolver) clearLoginState(ctx context.Context, provider string) {
	if r.states == nil {
		return
	}
	if err := r.states.RemoveLoginState(ctx, provider); err != nil {
		r.logger.Warn("failed to clear login state", "provider", provider, "error", err)
	}
}

func requestDetails(req *LoginRequest) map[string]any {
	if req == nil {
		return nil
	}
	return req.Details
}
