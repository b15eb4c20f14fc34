package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/axis"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/chart"
	"github.com/Slach/catalog-browser/pkg/client"
	"github.com/Slach/catalog-browser/pkg/facet"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultChartWidth = 80

type CatalogInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Descr string `json:"descr,omitempty"`
	Count *int64 `json:"count,omitempty"`
}

type FacetResponse struct {
	Field    string         `json:"field"`
	Total    int64          `json:"total"`
	Options  []facet.Option `json:"options"`
	Disabled bool           `json:"disabled"`
}

type Server struct {
	catalogs  *catalog.Registry
	backend   client.Backend
	termsSize int
}

func New(catalogs *catalog.Registry, backend client.Backend, termsSize int) *Server {
	return &Server{catalogs: catalogs, backend: backend, termsSize: termsSize}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/catalogs", s.ListCatalogs()).Methods(http.MethodGet)
	r.HandleFunc("/catalogs/{catalog}/fields", s.ListFields()).Methods(http.MethodGet)
	r.HandleFunc("/catalogs/{catalog}/facets/{field}", s.GetFacet()).Methods(http.MethodGet)
	r.HandleFunc("/catalogs/{catalog}/histogram/{field}", s.GetHistogram()).Methods(http.MethodGet)

	return r
}

func (s *Server) ListCatalogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := s.catalogs.All()
		res := make([]CatalogInfo, 0, len(all))
		for _, c := range all {
			res = append(res, CatalogInfo{Name: c.Name, Title: c.Title, Descr: c.Descr, Count: c.Count})
		}
		writeJSON(w, res)
	}
}

func (s *Server) ListFields() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.catalogs.Get(mux.Vars(r)["catalog"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, facet.PickerOptions(c))
	}
}

func (s *Server) GetFacet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, f, terms, total, err := s.facetTerms(r)
		if err != nil {
			writeError(w, err)
			return
		}
		// a fresh control per request, filled the same way the TUI fills its select
		list := facet.NewOptionList()
		facet.FillSelectTerms(list, f, terms)
		log.Debug().Str("catalog", c.Name).Str("field", f.Name).Int("options", len(list.Options)).Msg("facet options")
		writeJSON(w, FacetResponse{
			Field:    f.Name,
			Total:    total,
			Options:  list.Options,
			Disabled: list.Disabled,
		})
	}
}

func (s *Server) GetHistogram() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := parseScale(r.URL.Query().Get("scale"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		width := defaultChartWidth
		if v := r.URL.Query().Get("width"); v != "" {
			if width, err = strconv.Atoi(v); err != nil || width <= 0 {
				http.Error(w, "width must be a positive integer", http.StatusBadRequest)
				return
			}
		}
		_, f, terms, _, err := s.facetTerms(r)
		if err != nil {
			writeError(w, err)
			return
		}
		h, err := chart.NewHistogram(f.Title, nil, mode)
		if err != nil {
			writeError(w, err)
			return
		}
		h.Bars = chart.BarsFromTerms(f, terms)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(h.Render(width) + "\n"))
	}
}

// facetTerms runs the terms aggregation for the {catalog}/{field} of the
// request, the query string holds the filters
func (s *Server) facetTerms(r *http.Request) (*catalog.Catalog, catalog.Field, aggr.Terms, int64, error) {
	vars := mux.Vars(r)
	c, err := s.catalogs.Get(vars["catalog"])
	if err != nil {
		return nil, catalog.Field{}, aggr.Terms{}, 0, err
	}
	f, err := c.Field(vars["field"])
	if err != nil {
		return nil, catalog.Field{}, aggr.Terms{}, 0, err
	}

	filters := make(map[string]string)
	for name, values := range r.URL.Query() {
		if name == "scale" || name == "width" || len(values) == 0 {
			continue
		}
		filters[name] = values[0]
	}

	resp, err := s.backend.Search(r.Context(), client.Query{
		Catalog:   c,
		Filters:   filters,
		Terms:     []string{f.Name},
		TermsSize: s.termsSize,
	})
	if err != nil {
		return nil, catalog.Field{}, aggr.Terms{}, 0, err
	}
	var terms aggr.Terms
	if t, ok := resp.Terms(f.Name); ok {
		terms = *t
	}
	return c, f, terms, int64(resp.Hits.Total), nil
}

func parseScale(scale string) (axis.Mode, error) {
	switch scale {
	case "", axis.TypeLinear:
		return axis.ModeLinear, nil
	case axis.TypeLogarithmic, "log":
		return axis.ModeLogZeroSafe, nil
	}
	return axis.ModeLinear, errors.Errorf("unknown scale %q", scale)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownCatalog), errors.Is(err, catalog.ErrUnknownField):
		return http.StatusNotFound
	case errors.Is(err, client.ErrNotFacetable), errors.Is(err, client.ErrNotNumeric):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		log.Error().Stack().Err(err).Msg("request failed")
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Error converting response to JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("http request")
	})
}

// Serve listens on addr until ctx is done
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", addr).Msg("server is running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "listen %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	}
}
