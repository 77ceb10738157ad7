package clients

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHTTPClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ord_1"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient()
	status, body, headers, err := client.Get(srv.URL+"/v1/orders/ord_1", http.Header{"Authorization": {"Bearer token"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":"ord_1"}`, string(body))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

func TestHTTPClient_Post(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"product_id":"p1"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"url":"https://pay"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient()
	status, body, _, err := client.Post(srv.URL, http.Header{"Content-Type": {"application/json"}}, []byte(`{"product_id":"p1"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"url":"https://pay"}`, string(body))
}

func TestHTTPClient_Unreachable(t *testing.T) {
	client := NewHTTPClient()
	_, _, _, err := client.Get("http://127.0.0.1:1/unreachable", nil)
	assert.Error(t, err)
}

func TestHTTPClient_SetClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockHTTPClientI(ctrl)
	mock.EXPECT().Get("http://example", gomock.Any()).Return(http.StatusNotFound, []byte("{}"), http.Header{}, nil)

	client := NewHTTPClient()
	client.SetClient(mock)
	status, _, _, err := client.Get("http://example", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}
