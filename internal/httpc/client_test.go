package httpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("snapshot"))
	}))
	defer srv.Close()

	body, err := GetBytes(context.Background(), nil, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(body))

	_, err = GetBytes(context.Background(), srv.Client(), srv.URL+"/missing")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestGetBytes_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GetBytes(ctx, nil, "http://127.0.0.1:1/")
	assert.Error(t, err)
}
