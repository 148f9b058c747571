package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
	"github.com/ariefcatur/go-order-catalog/internal/catalog"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, apperr.Newf(apperr.KindInvalidInput, "invalid %s", name)
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Newf(apperr.KindInvalidInput, "%s must be a non-negative integer", key)
	}
	return n, nil
}

// queryPage reads limit and offset and clamps them like the stores do, so
// the pagination echoed back matches the window actually served.
func queryPage(r *http.Request) (catalog.Page, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return catalog.Page{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return catalog.Page{}, err
	}
	return catalog.Page{Limit: limit, Offset: offset}.Normalize(), nil
}
