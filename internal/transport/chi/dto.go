package chi

import "time"

// ErrorResponseCode is the machine-readable error code.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest        ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed  ErrorResponseCode = "validation_failed"
	ErrorResponseCodeCorpusUnavailable ErrorResponseCode = "corpus_unavailable"
	ErrorResponseCodeSearchTimeout     ErrorResponseCode = "search_timeout"
	ErrorResponseCodeCanceled          ErrorResponseCode = "request_canceled"
	ErrorResponseCodeInternalError     ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SearchRequest is the POST /search body. Field names match the GET query parameters.
type SearchRequest struct {
	Q         string   `json:"q"`
	Lang      string   `json:"lang,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	RadiusKm  *float64 `json:"radius_km,omitempty"`
	Sort      string   `json:"sort,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
	Offset    *int     `json:"offset,omitempty"`
	Province  string   `json:"province,omitempty"`
	Category  string   `json:"category,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
	MaxRating *float64 `json:"max_rating,omitempty"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Query       string       `json:"query"`
	Expansion   []string     `json:"expansion"`
	Posts       []Post       `json:"posts"`
	Suggestions []Suggestion `json:"suggestions"`
	LatencyMs   int64        `json:"latency_ms"`
	TotalCount  int          `json:"total_count"`
}

// Post is one ranked attraction.
type Post struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Caption       string    `json:"caption,omitempty"`
	Category      string    `json:"category,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Rating        float64   `json:"rating"`
	MatchedFields []string  `json:"matched_fields"`
	Location      Location  `json:"location"`
	LikeCount     int       `json:"like_count"`
	CommentCount  int       `json:"comment_count"`
	CreatedAt     time.Time `json:"created_at"`
	Score         float64   `json:"score"`
	DistanceKm    *float64  `json:"distance_km,omitempty"`
}

// Location describes where a post is.
type Location struct {
	Name     string   `json:"name"`
	Province string   `json:"province"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

// Suggestion is a query refinement. ID is set for attraction suggestions.
type Suggestion struct {
	Type string `json:"type"`
	Text string `json:"text"`
	ID   string `json:"id,omitempty"`
}

// AutocompleteResponse is the body of GET /autocomplete.
type AutocompleteResponse struct {
	Query       string       `json:"query"`
	Suggestions []Suggestion `json:"suggestions"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
