package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/platinummonkey/fares-validator/pkg/contextkeys"
	"github.com/platinummonkey/fares-validator/pkg/diagnostics"
	"github.com/platinummonkey/fares-validator/pkg/feedsource"
	"github.com/platinummonkey/fares-validator/pkg/httputil"
	"github.com/platinummonkey/fares-validator/pkg/reportcache"
	"github.com/platinummonkey/fares-validator/pkg/reportstore"
)

// CacheHeader reports whether a validation was served from the result cache
const CacheHeader = "X-Cache"

// ValidateRequest is the body of POST /v1/validations
type ValidateRequest struct {
	Feed string `json:"feed"`
}

// ListResponse is the body of GET /v1/validations
type ListResponse struct {
	Runs []reportstore.RunSummary `json:"runs"`
}

// CodesResponse is the body of GET /v1/codes
type CodesResponse struct {
	Codes []diagnostics.Definition `json:"codes"`
}

func (s *Server) createValidation(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Feed, "feed") {
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	log := contextkeys.GetLogger(ctx, s.logger).WithField("feed", req.Feed)

	feed, err := s.resolver.Resolve(ctx, req.Feed)
	if err != nil {
		log.WithError(err).Warn("failed to resolve feed")
		writeResolveError(w, err)
		return
	}
	defer func() {
		if err := feed.Close(); err != nil {
			log.WithError(err).Warn("failed to remove temporary feed files")
		}
	}()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, feed.Digest)
		switch {
		case err == nil:
			log.WithField("run_id", cached.RunID).Debug("serving cached result")
			// Same content may arrive under another reference; report the one requested.
			hit := *cached
			hit.FeedRoot = feed.Ref
			w.Header().Set(CacheHeader, "hit")
			_ = httputil.WriteSuccess(w, &hit)
			return
		case !errors.Is(err, reportcache.ErrCacheMiss):
			log.WithError(err).Warn("result cache lookup failed")
		}
	}

	result, err := s.engine.Validate(ctx, feed.Root)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			httputil.WriteErrorMessage(w, http.StatusGatewayTimeout, "validation timed out")
			return
		}
		httputil.WriteUnprocessable(w, fmt.Errorf("validation aborted: %w", err))
		return
	}
	result.FeedRoot = feed.Ref
	result.Digest = feed.Digest

	if s.store != nil {
		if err := s.store.Save(ctx, result); err != nil {
			log.WithError(err).Error("failed to save validation run")
			httputil.WriteInternalError(w, errors.New("failed to save validation run"))
			return
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, feed.Digest, result); err != nil {
			log.WithError(err).Warn("failed to cache validation result")
		}
	}

	w.Header().Set(CacheHeader, "miss")
	w.Header().Set("Location", "/v1/validations/"+result.RunID)
	_ = httputil.WriteCreated(w, result)
}

func writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.Is(err, feedsource.ErrUnsupported), errors.Is(err, feedsource.ErrUnsafePath):
		httputil.WriteUnprocessable(w, err)
	case errors.Is(err, context.DeadlineExceeded):
		httputil.WriteErrorMessage(w, http.StatusGatewayTimeout, "feed resolution timed out")
	default:
		httputil.WriteErrorMessage(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) getValidation(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.WriteServiceUnavailable(w, "report store is not configured")
		return
	}

	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	result, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, reportstore.ErrNotFound) {
			httputil.WriteNotFoundError(w, err.Error())
			return
		}
		contextkeys.GetLogger(r.Context(), s.logger).WithError(err).Error("failed to load validation run")
		httputil.WriteInternalError(w, errors.New("failed to load validation run"))
		return
	}

	_ = httputil.WriteSuccess(w, result)
}

func (s *Server) listValidations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.WriteServiceUnavailable(w, "report store is not configured")
		return
	}

	limit, err := httputil.ParseQueryInt(r, "limit", reportstore.DefaultListLimit)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if limit <= 0 || limit > 500 {
		httputil.WriteBadRequest(w, "limit must be between 1 and 500")
		return
	}

	runs, err := s.store.List(r.Context(), reportstore.ListFilter{
		FeedRoot: httputil.ParseQueryString(r, "feed", ""),
		Digest:   httputil.ParseQueryString(r, "digest", ""),
		Limit:    limit,
	})
	if err != nil {
		contextkeys.GetLogger(r.Context(), s.logger).WithError(err).Error("failed to list validation runs")
		httputil.WriteInternalError(w, errors.New("failed to list validation runs"))
		return
	}
	if runs == nil {
		runs = []reportstore.RunSummary{}
	}

	_ = httputil.WriteSuccess(w, ListResponse{Runs: runs})
}

func (s *Server) listCodes(w http.ResponseWriter, r *http.Request) {
	_ = httputil.WriteSuccess(w, CodesResponse{Codes: diagnostics.Catalog()})
}
