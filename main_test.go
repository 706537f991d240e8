package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSPAHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root := fstest.MapFS{
		"index.html":    {Data: []byte("<html>app</html>")},
		"assets/app.js":  {Data: []byte("console.log(1)")},
	}
	r := gin.New()
	r.NoRoute(spaHandler(root))

	get := func(p string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		return w
	}

	w := get("/assets/app.js")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Cache-Control"), "immutable")
	require.Equal(t, "console.log(1)", w.Body.String())

	w = get("/members/42")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "<html>app</html>", w.Body.String())
	require.Empty(t, w.Header().Get("Cache-Control"))

	w = get("/api/v1/nope")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "NOT_FOUND")
}
