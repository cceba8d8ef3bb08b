package jokes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/jokes", nil)
	rec := httptest.NewRecorder()

	List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		StatusCode int    `json:"statusCode"`
		Success    bool   `json:"success"`
		Data       []Joke `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 3)
	require.Equal(t, 1, resp.Data[0].ID)
	require.Equal(t, "Joke1", resp.Data[0].Title)
}
