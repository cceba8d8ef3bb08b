package jokes

import (
	"net/http"

	"github.com/clipstream/clipstream-api/internal/httputil"
)

// Joke is a single demo joke entry.
type Joke struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

var jokeList = []Joke{
	{ID: 1, Title: "Joke1", Content: "This is the first Joke"},
	{ID: 2, Title: "Joke2", Content: "This is the second Joke"},
	{ID: 3, Title: "Joke3", Content: "This is the third Joke"},
}

// List returns the static demo joke list
// @Summary      List jokes
// @Description  Static demo payload for frontend integration testing
// @Tags         jokes
// @Produce      json
// @Success      200 {object} httputil.APIResponse
// @Router       /jokes [get]
func List(w http.ResponseWriter, r *http.Request) {
	httputil.RespondData(w, jokeList, "jokes fetched successfully", http.StatusOK)
}
