// ABOUTME: User profile store: cached profile with offline-queued updates.
// ABOUTME: Account deletion is online-only.
package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/feelink/internal/api"
	"github.com/harperreed/feelink/internal/models"
	"github.com/harperreed/feelink/internal/observe"
	"github.com/harperreed/feelink/internal/storage"
)

// profileSettingKey is where the cached profile lives in user settings.
const profileSettingKey = "profile"

// ErrOnlineOnly is returned for operations that cannot be queued offline.
var ErrOnlineOnly = errors.New("operation requires a connection")

// UserRemote is the slice of the API client the user store uses.
type UserRemote interface {
	Me(ctx context.Context) (*models.User, error)
	UpdateMe(ctx context.Context, payload any, opts ...api.RequestOption) (*models.User, error)
	DeleteMe(ctx context.Context, opts ...api.RequestOption) error
}

// UserState is the in-memory profile projection.
type UserState struct {
	User    *models.User
	Loading bool
	Error   *string
}

// UserStore is the offline-first facade for the account profile.
type UserStore struct {
	local  *storage.DB
	remote UserRemote
	queue  Enqueuer
	state  *observe.Value[UserState]
}

// NewUserStore builds a user store over the local cache, remote client,
// and sync engine.
func NewUserStore(local *storage.DB, remote UserRemote, queue Enqueuer) *UserStore {
	return &UserStore{
		local:  local,
		remote: remote,
		queue:  queue,
		state:  observe.New(UserState{}),
	}
}

// State returns the observable projection for subscription.
func (s *UserStore) State() *observe.Value[UserState] {
	return s.state
}

// Load populates the profile from the settings cache first, then from the
// server when online.
func (s *UserStore) Load(ctx context.Context) error {
	s.state.Update(func(st UserState) UserState {
		st.Loading = true
		st.Error = nil
		return st
	})

	var cached *models.User
	if setting, err := s.local.GetSetting(profileSettingKey); err == nil {
		var u models.User
		if err := json.Unmarshal(setting.Value, &u); err == nil {
			cached = &u
		}
	}
	if cached != nil {
		s.publish(cached)
	}

	if !s.queue.Online() {
		if cached == nil {
			s.fail(ErrOfflineNoCache)
			return ErrOfflineNoCache
		}
		return nil
	}

	fresh, err := s.remote.Me(ctx)
	if err != nil {
		s.fail(err)
		return err
	}
	if err := s.cache(fresh); err != nil {
		return err
	}
	s.publish(fresh)
	return nil
}

// Update edits the profile. Offline the patch is merged into the cached
// profile and a user UPDATE is enqueued.
func (s *UserStore) Update(ctx context.Context, req api.UserUpdate) (*models.User, error) {
	if s.queue.Online() {
		updated, err := s.remote.UpdateMe(ctx, req)
		if err != nil {
			s.fail(err)
			return nil, err
		}
		if err := s.cache(updated); err != nil {
			return nil, err
		}
		s.publish(updated)
		return updated, nil
	}

	current := s.state.Get().User
	if current == nil {
		return nil, ErrOfflineNoCache
	}
	merged := *current
	if req.Name != nil {
		merged.Name = req.Name
	}
	if req.Language != nil {
		merged.Language = *req.Language
	}
	if req.Timezone != nil {
		merged.Timezone = *req.Timezone
	}
	if err := s.cache(&merged); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal update payload: %w", err)
	}
	if _, err := s.queue.Enqueue(models.OpUpdate, models.EntityUser, payload, nil); err != nil {
		return nil, err
	}
	s.publish(&merged)
	return &merged, nil
}

// Delete permanently deletes the account. Too destructive to queue: it
// requires a live connection.
func (s *UserStore) Delete(ctx context.Context) error {
	if !s.queue.Online() {
		return ErrOnlineOnly
	}
	if err := s.remote.DeleteMe(ctx); err != nil {
		s.fail(err)
		return err
	}
	_ = s.local.DeleteSetting(profileSettingKey)
	s.state.Set(UserState{})
	return nil
}

func (s *UserStore) cache(u *models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.local.SetSetting(profileSettingKey, data)
}

func (s *UserStore) publish(u *models.User) {
	s.state.Update(func(st UserState) UserState {
		st.User = u
		st.Loading = false
		st.Error = nil
		return st
	})
}

func (s *UserStore) fail(err error) {
	s.state.Update(func(st UserState) UserState {
		st.Loading = false
		st.Error = errMessage(err)
		return st
	})
}
