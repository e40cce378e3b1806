package chi

import (
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/search/request"
)

// bindQuery binds one optional form-style query parameter into dest.
// A malformed value is a validation error on that parameter.
func bindQuery(q url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
		return domain.NewValidationError(name, "invalid value")
	}
	return nil
}

// bindSearchQuery reads GET /search parameters into a SearchRequest.
func bindSearchQuery(r *http.Request) (SearchRequest, error) {
	q := r.URL.Query()
	var req SearchRequest
	bindings := []struct {
		name string
		dest any
	}{
		{"q", &req.Q},
		{"lang", &req.Lang},
		{"lat", &req.Lat},
		{"lon", &req.Lon},
		{"radius_km", &req.RadiusKm},
		{"sort", &req.Sort},
		{"limit", &req.Limit},
		{"offset", &req.Offset},
		{"province", &req.Province},
		{"category", &req.Category},
		{"min_rating", &req.MinRating},
		{"max_rating", &req.MaxRating},
	}
	for _, b := range bindings {
		if err := bindQuery(q, b.name, b.dest); err != nil {
			return SearchRequest{}, err
		}
	}
	return req, nil
}

// toParams converts the transport request into raw domain parameters.
func (req *SearchRequest) toParams() request.Params {
	return request.Params{
		Query:     req.Q,
		Language:  req.Lang,
		Lat:       req.Lat,
		Lon:       req.Lon,
		RadiusKm:  req.RadiusKm,
		Sort:      req.Sort,
		Limit:     req.Limit,
		Offset:    req.Offset,
		Province:  req.Province,
		Category:  req.Category,
		MinRating: req.MinRating,
		MaxRating: req.MaxRating,
	}
}
