package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Dt   int64  `json:"dt" validate:"gt=0"`
	Name string `json:"name"`
}

func getter(url string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}
}

func TestDoReturnsBodyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"dt":1,"name":"Paris"}`))
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client())
	body, err := c.Do(context.Background(), "get sample", getter(srv.URL))
	require.NoError(t, err)

	var s sample
	require.NoError(t, Decode("get sample", body, &s))
	assert.Equal(t, "Paris", s.Name)
}

func TestDoClassifiesNon2xxAsUpstream(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusUnauthorized, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", code)
		}))

		c := NewClient("test", srv.Client())
		_, err := c.Do(context.Background(), "get", getter(srv.URL))
		srv.Close()

		var ue *UpstreamError
		require.ErrorAs(t, err, &ue, "status %d", code)
		assert.Equal(t, code, ue.StatusCode)
		assert.Equal(t, code, StatusCode(err))
	}
}

func TestDoClassifiesTransportFailureAsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient("test", http.DefaultClient)
	_, err := c.Do(context.Background(), "get", getter(url))

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestDoWithoutHTTPClient(t *testing.T) {
	c := NewClient("test", nil)
	_, err := c.Do(context.Background(), "get", getter("http://example.invalid"))

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestCircuitOpensAfterRepeatedServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client())
	for i := 0; i < 6; i++ {
		_, err := c.Do(context.Background(), "get", getter(srv.URL))
		require.Error(t, err)
	}

	_, err := c.Do(context.Background(), "get", getter(srv.URL))
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, 6, calls)
}

func TestDecodeMalformed(t *testing.T) {
	var s sample
	err := Decode("decode", []byte(`{"dt":`), &s)
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)

	err = Decode("decode", []byte(`{"dt":0}`), &s)
	require.ErrorAs(t, err, &me)

	var list []sample
	err = Decode("decode", []byte(`[{"dt":1},{"dt":0}]`), &list)
	require.ErrorAs(t, err, &me)
	assert.False(t, errors.Is(err, errCircuitOpen))
}
