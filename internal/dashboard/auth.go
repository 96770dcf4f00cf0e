package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-dashboard/internal/account"
	"github.com/i474232898/weather-dashboard/internal/session"
)

var validate = validator.New()

// Login signs in with email and password and persists the session.
func (s *Service) Login(ctx context.Context, email, password string) (account.User, error) {
	epoch := s.authEpoch()
	return run(ctx, s, s.states.Login, func() (account.User, error) {
		res, err := s.accounts.Login(ctx, strings.TrimSpace(email), password)
		if err != nil {
			return account.User{}, err
		}
		err = s.signIn(epoch, session.Session{
			Authenticated: true,
			Token:         res.Token,
			UserID:        res.User.ID,
			Username:      res.User.Username,
			Email:         res.User.Email,
		})
		if err != nil {
			return account.User{}, err
		}
		return res.User, nil
	})
}

// Register creates an account. The service returns no token, so the user
// still has to sign in afterwards.
func (s *Service) Register(ctx context.Context, username, email, password string) (string, error) {
	return run(ctx, s, s.states.Register, func() (string, error) {
		return s.accounts.Register(ctx, strings.TrimSpace(username), strings.TrimSpace(email), password)
	})
}

// CompleteOAuth finishes a Google sign-in whose token and user id were
// handed back by the account service's redirect.
func (s *Service) CompleteOAuth(ctx context.Context, token, userID string) (account.User, error) {
	epoch := s.authEpoch()
	return run(ctx, s, s.states.Login, func() (account.User, error) {
		if token == "" || userID == "" {
			return account.User{}, fmt.Errorf("%w: token and user id are required", ErrInvalidInput)
		}
		if err := s.signIn(epoch, session.Session{Authenticated: true, Token: token, UserID: userID}); err != nil {
			return account.User{}, err
		}
		return account.User{ID: userID, AuthProvider: "google"}, nil
	})
}

// GoogleLoginURL is where the browser starts a Google sign-in.
func (s *Service) GoogleLoginURL() string {
	return s.accounts.GoogleLoginURL()
}

// Logout clears the persisted session and returns the auth-related kinds to
// idle.
func (s *Service) Logout() error {
	s.mu.Lock()
	s.epoch++
	s.sess = session.Session{}
	err := s.sessions.ClearSession()
	s.mu.Unlock()

	s.states.Login.Reset()
	s.states.Register.Reset()
	s.states.Favorites.Reset()
	s.states.FavoriteMutation.Reset()

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Session returns the current session.
func (s *Service) Session() session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

func (s *Service) authEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// signIn persists sess unless a Logout happened since epoch was read.
func (s *Service) signIn(epoch uint64, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return errSignedOutMeanwhile
	}
	if err := s.sessions.SaveSession(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.sess = sess
	return nil
}

func (s *Service) requireSession() (session.Session, error) {
	sess := s.Session()
	if !sess.Authenticated || sess.Token == "" {
		return session.Session{}, ErrNotAuthenticated
	}
	return sess, nil
}

// ListFavorites loads the signed-in user's favorites.
func (s *Service) ListFavorites(ctx context.Context) ([]account.Favorite, error) {
	return run(ctx, s, s.states.Favorites, func() ([]account.Favorite, error) {
		sess, err := s.requireSession()
		if err != nil {
			return nil, err
		}
		return s.accounts.ListFavorites(ctx, sess.Token)
	})
}

// AddFavorite saves a city for the signed-in user and reloads the list.
func (s *Service) AddFavorite(ctx context.Context, fav account.Favorite) (json.RawMessage, error) {
	reply, err := run(ctx, s, s.states.FavoriteMutation, func() (json.RawMessage, error) {
		sess, err := s.requireSession()
		if err != nil {
			return nil, err
		}
		fav.UserID = sess.UserID
		if err := validate.Struct(fav); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return s.accounts.AddFavorite(ctx, sess.Token, fav)
	})
	if err != nil {
		return nil, err
	}
	s.refreshFavorites(ctx)
	return reply, nil
}

// RemoveFavorite deletes a favorite and reloads the list.
func (s *Service) RemoveFavorite(ctx context.Context, id string) (json.RawMessage, error) {
	reply, err := run(ctx, s, s.states.FavoriteMutation, func() (json.RawMessage, error) {
		sess, err := s.requireSession()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: favorite id is empty", ErrInvalidInput)
		}
		return s.accounts.RemoveFavorite(ctx, sess.Token, id)
	})
	if err != nil {
		return nil, err
	}
	s.refreshFavorites(ctx)
	return reply, nil
}

// refreshFavorites re-runs ListFavorites; its outcome lands in the
// favorites state.
func (s *Service) refreshFavorites(ctx context.Context) {
	if _, err := s.ListFavorites(ctx); err != nil {
		s.log.Warn().Err(err).Msg("favorites refresh failed")
	}
}

// Preferences returns the persisted display preferences.
func (s *Service) Preferences() session.Preferences {
	prefs, err := s.sessions.LoadPreferences()
	if err != nil {
		s.log.Warn().Err(err).Msg("could not read preferences; using defaults")
	}
	return prefs
}

// SetPreferences validates and persists display preferences.
func (s *Service) SetPreferences(p session.Preferences) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.sessions.SavePreferences(p)
}
