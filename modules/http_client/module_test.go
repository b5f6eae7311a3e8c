package http_client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/orders.csv":
			assert.Equal(t, "text/csv", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("id,name\n1,Anna\n2,Bob\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("ok", func(t *testing.T) {
		r := NewReader()
		require.NoError(t, r.Options().Set("url", cty.StringVal(srv.URL+"/data/orders.csv?v=1")))
		got, err := r.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "orders", got.Name)
		assert.Equal(t, []string{"id", "name"}, got.Columns)
		assert.Equal(t, [][]string{{"1", "Anna"}, {"2", "Bob"}}, got.Rows)
	})

	t.Run("not found", func(t *testing.T) {
		r := NewReader()
		require.NoError(t, r.Options().Set("url", cty.StringVal(srv.URL+"/missing.csv")))
		_, err := r.Read(context.Background())
		assert.ErrorContains(t, err, "unexpected status 404")
	})

	t.Run("bad timeout", func(t *testing.T) {
		r := NewReader()
		require.NoError(t, r.Options().Set("url", cty.StringVal(srv.URL)))
		require.NoError(t, r.Options().Set("timeout", cty.StringVal("soon")))
		_, err := r.Read(context.Background())
		assert.ErrorContains(t, err, "invalid timeout")
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := NewReader().Read(context.Background())
		assert.ErrorContains(t, err, `"url" is required`)
	})
}

func TestTableName(t *testing.T) {
	testCases := map[string]string{
		"http://x/data/orders.csv":     "orders",
		"http://x/data/orders.csv?a=b": "orders",
		"http://x/export":              "export",
		"http://x/":                    "http",
		"http://x/.hidden":             ".hidden",
	}
	for url, want := range testCases {
		assert.Equal(t, want, tableName(url), url)
	}
}
