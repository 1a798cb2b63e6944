package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"event-portal-service/internal/adapter/cache"
	domain "event-portal-service/internal/domain/portal"
	"event-portal-service/internal/usecase/portal"
)

// CachedAPI implements portal.API with read-through caching.
// It wraps the remote API client and a collection cache. Writes go straight
// to the API and invalidate every cached collection they can affect.
type CachedAPI struct {
	api   portal.API
	cache cache.CollectionCache
	log   *zap.Logger
	group singleflight.Group
}

// NewCachedAPI creates a new instance of CachedAPI. A nil cache disables caching.
func NewCachedAPI(api portal.API, c cache.CollectionCache, log *zap.Logger) portal.API {
	return &CachedAPI{
		api:   api,
		cache: c,
		log:   log,
	}
}

// load reads key from the cache, falling back to fetch behind a single-flight
// group so concurrent misses share one API call.
func load[T any](ctx context.Context, a *CachedAPI, key string, fetch func() (T, error)) (T, error) {
	var cached T
	if a.cache != nil {
		hit, err := a.cache.Get(ctx, key, &cached)
		if err != nil {
			a.log.Warn("cache get error, falling back to API", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	result, err, _ := a.group.Do(key, func() (any, error) {
		if a.cache != nil {
			var again T
			if hit, err := a.cache.Get(ctx, key, &again); err == nil && hit {
				a.log.Debug("value retrieved from cache after single-flight wait", zap.String("key", key))
				return again, nil
			}
		}

		v, err := fetch()
		if err != nil {
			return nil, err
		}

		if a.cache != nil {
			if err := a.cache.Set(ctx, key, v); err != nil {
				a.log.Warn("failed to cache value", zap.String("key", key), zap.Error(err))
			}
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (a *CachedAPI) invalidate(ctx context.Context, keys ...string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Delete(ctx, keys...); err != nil {
		a.log.Warn("failed to invalidate cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Login delegates to the API. Credentials are never cached.
func (a *CachedAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	return a.api.Login(ctx, creds)
}

// ListUsers retrieves all users using the cache-aside pattern.
func (a *CachedAPI) ListUsers(ctx context.Context, token string) ([]domain.User, error) {
	return load(ctx, a, cache.UsersKey(), func() ([]domain.User, error) {
		return a.api.ListUsers(ctx, token)
	})
}

// GetUser retrieves one user using the cache-aside pattern.
func (a *CachedAPI) GetUser(ctx context.Context, token, id string) (*domain.User, error) {
	return load(ctx, a, cache.UserKey(id), func() (*domain.User, error) {
		return a.api.GetUser(ctx, token, id)
	})
}

// CreateUser creates the user and invalidates the user list.
func (a *CachedAPI) CreateUser(ctx context.Context, token string, u domain.User) (*domain.User, error) {
	created, err := a.api.CreateUser(ctx, token, u)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, cache.UsersKey())
	return created, nil
}

// ListEvents retrieves all events using the cache-aside pattern.
func (a *CachedAPI) ListEvents(ctx context.Context, token string) ([]domain.Event, error) {
	return load(ctx, a, cache.EventsKey(), func() ([]domain.Event, error) {
		return a.api.ListEvents(ctx, token)
	})
}

// GetEvent retrieves one event using the cache-aside pattern.
func (a *CachedAPI) GetEvent(ctx context.Context, token, id string) (*domain.Event, error) {
	return load(ctx, a, cache.EventKey(id), func() (*domain.Event, error) {
		return a.api.GetEvent(ctx, token, id)
	})
}

// CreateEvent creates the event and invalidates the event list.
func (a *CachedAPI) CreateEvent(ctx context.Context, token string, e domain.Event) (*domain.Event, error) {
	created, err := a.api.CreateEvent(ctx, token, e)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, cache.EventsKey())
	return created, nil
}

// UpdateEvent updates the event and invalidates its cached copies.
func (a *CachedAPI) UpdateEvent(ctx context.Context, token, id string, e domain.Event) (*domain.Event, error) {
	updated, err := a.api.UpdateEvent(ctx, token, id, e)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, cache.EventsKey(), cache.EventKey(id))
	return updated, nil
}

// DeleteEvent deletes the event and invalidates its cached copies and
// every registration list, since the API may cascade the delete.
func (a *CachedAPI) DeleteEvent(ctx context.Context, token, id string) error {
	if err := a.api.DeleteEvent(ctx, token, id); err != nil {
		return err
	}
	a.invalidate(ctx, cache.EventsKey(), cache.EventKey(id), cache.RegistrationsPattern())
	return nil
}

// ListRegistrations retrieves registrations using the cache-aside pattern.
func (a *CachedAPI) ListRegistrations(ctx context.Context, token, userID string) ([]domain.Registration, error) {
	return load(ctx, a, cache.RegistrationsKey(userID), func() ([]domain.Registration, error) {
		return a.api.ListRegistrations(ctx, token, userID)
	})
}

// CreateRegistration creates the registration and invalidates every registration list.
func (a *CachedAPI) CreateRegistration(ctx context.Context, token string, r domain.Registration) (*domain.Registration, error) {
	created, err := a.api.CreateRegistration(ctx, token, r)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, cache.RegistrationsPattern())
	return created, nil
}
