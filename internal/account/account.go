// Package account is a client for the account service that owns users and
// their favorite cities.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/i474232898/weather-dashboard/internal/remote"
)

const (
	loginPath          = "/users/login"
	registerPath       = "/users/register"
	listFavoritesPath  = "/favorites/allfavorites"
	addFavoritePath    = "/favorites/addfavorite"
	removeFavoritePath = "/favorites/removefavorite/"
	googleAuthPath     = "/auth/google"

	// LoggedInMessage is the acknowledgement the service sends with a token.
	LoggedInMessage = "Login Successfull"
	// RegisteredMessage is the acknowledgement the service sends for a new user.
	RegisteredMessage = "A user has been registered"
)

var (
	ErrInvalidCredentials = errors.New("wrong credentials")
	ErrRegistrationFailed = errors.New("registration failed")
)

// User is the public profile returned on login.
type User struct {
	ID           string `json:"_id" validate:"required"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	AuthProvider string `json:"authProvider,omitempty"`
	ProfilePic   string `json:"profilePic,omitempty"`
}

// LoginResult is the response to a successful login.
type LoginResult struct {
	Message string `json:"msg"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// Favorite is a city saved by a user.
type Favorite struct {
	ID       string  `json:"_id,omitempty"`
	UserID   string  `json:"userId"`
	CityName string  `json:"cityName" validate:"required"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon      float64 `json:"lon" validate:"gte=-180,lte=180"`
}

type favoritesEnvelope struct {
	Favorites []Favorite `json:"Favorites" validate:"dive"`
}

type messageEnvelope struct {
	Message string `json:"msg"`
}

// Client talks to the account service.
type Client struct {
	baseURL string
	remote  *remote.Client
}

// NewClient creates a Client for the service at baseURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		remote:  remote.NewClient("account", httpClient),
	}
}

// Login exchanges credentials for a token. Only a reply carrying both the
// success acknowledgement and a token counts; anything else, including a 401,
// is reported as ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	const op = "account login"

	body, err := c.send(ctx, op, http.MethodPost, loginPath, "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		if remote.StatusCode(err) == http.StatusUnauthorized {
			return LoginResult{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return LoginResult{}, err
	}

	var res LoginResult
	if err := json.Unmarshal(body, &res); err != nil {
		return LoginResult{}, &remote.MalformedResponseError{Op: op, Err: err}
	}
	if res.Message != LoggedInMessage || res.Token == "" {
		if res.Message != "" {
			return LoginResult{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, res.Message)
		}
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := remote.Decode(op, body, &res); err != nil {
		return LoginResult{}, err
	}
	return res, nil
}

// Register creates a user. It returns the service's acknowledgement.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	const op = "account register"

	body, err := c.send(ctx, op, http.MethodPost, registerPath, "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	var res messageEnvelope
	if err := remote.Decode(op, body, &res); err != nil {
		return "", err
	}
	if res.Message != RegisteredMessage {
		return "", fmt.Errorf("%w: %s", ErrRegistrationFailed, res.Message)
	}
	return res.Message, nil
}

// ListFavorites returns the favorites of the user owning token.
func (c *Client) ListFavorites(ctx context.Context, token string) ([]Favorite, error) {
	const op = "account list favorites"

	body, err := c.send(ctx, op, http.MethodGet, listFavoritesPath, token, nil)
	if err != nil {
		return nil, err
	}

	var res favoritesEnvelope
	if err := remote.Decode(op, body, &res); err != nil {
		return nil, err
	}
	if res.Favorites == nil {
		res.Favorites = []Favorite{}
	}
	return res.Favorites, nil
}

// AddFavorite saves fav and returns the service's reply.
func (c *Client) AddFavorite(ctx context.Context, token string, fav Favorite) (json.RawMessage, error) {
	body, err := c.send(ctx, "account add favorite", http.MethodPost, addFavoritePath, token, fav)
	if err != nil {
		return nil, err
	}
	return rawOrNull(body), nil
}

// RemoveFavorite deletes the favorite with id.
func (c *Client) RemoveFavorite(ctx context.Context, token, id string) (json.RawMessage, error) {
	body, err := c.send(ctx, "account remove favorite", http.MethodDelete, removeFavoritePath+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}
	return rawOrNull(body), nil
}

// GoogleLoginURL is where a browser starts the Google sign-in flow.
func (c *Client) GoogleLoginURL() string {
	return c.baseURL + googleAuthPath
}

func (c *Client) send(ctx context.Context, op, method, path, token string, payload any) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		encoded = b
	}

	return c.remote.Do(ctx, op, func() (*http.Request, error) {
		req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
			tok.SetAuthHeader(req)
			// Older deployments read the bearer value from a "token" header.
			req.Header.Set("token", req.Header.Get("Authorization"))
		}
		return req, nil
	})
}

func rawOrNull(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return json.RawMessage("null")
	}
	return json.RawMessage(body)
}
