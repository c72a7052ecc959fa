package employee

import (
	"context"
	"strings"
	"time"

	"go-ees/internal/shared/contextutil"
	"go-ees/internal/shared/pagination"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultListLoadTimeout bounds a shared store load, which no longer follows
// the deadline of the request that started it.
const DefaultListLoadTimeout = 15 * time.Second

type ListHandler struct {
	repo        Repository
	cache       *ListCache
	sf          *singleflight.Group
	loadTimeout time.Duration
	logger      *zap.Logger
}

func NewListHandler(repo Repository, cache *ListCache, logger ...*zap.Logger) *ListHandler {
	l := zap.L().Named("employee.list")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.list")
	}
	return &ListHandler{
		repo:        repo,
		cache:       cache,
		sf:          &singleflight.Group{},
		loadTimeout: DefaultListLoadTimeout,
		logger:      l,
	}
}

// Handle returns one page of employees ordered by last name, then ID. The
// page number and size are clamped before use and echoed in the result.
func (h *ListHandler) Handle(ctx context.Context, q GetEmployeesQuery) (pagination.PaginatedResult[EmployeeDto], error) {
	page := pagination.PageRequest{PageNumber: q.PageNumber, PageSize: q.PageSize}.Normalize()
	q.PageNumber = page.PageNumber
	q.PageSize = page.PageSize
	q.SearchTerm = strings.TrimSpace(q.SearchTerm)

	rid := contextutil.GetRequestID(ctx)
	h.logger.Debug("list employees requested",
		zap.String("request_id", rid),
		zap.Int("page_number", q.PageNumber),
		zap.Int("page_size", q.PageSize),
		zap.String("search_term", q.SearchTerm),
	)

	version, cacheable := h.cache.Version(ctx)
	if !cacheable {
		version = "-"
	}
	key := EmployeeListKey(version, q)
	if cacheable {
		if cached, ok := h.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	// Concurrent identical queries share one load. It runs detached from any
	// single caller so one client going away cannot fail the others.
	ch := h.sf.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.loadTimeout)
		defer cancel()

		result, err := h.load(loadCtx, q, page)
		if err != nil {
			return nil, err
		}
		if cacheable {
			h.cache.Set(loadCtx, key, result)
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return pagination.PaginatedResult[EmployeeDto]{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			h.logger.Error("list employees failed", zap.String("request_id", rid), zap.Error(res.Err))
			return pagination.PaginatedResult[EmployeeDto]{}, res.Err
		}
		return res.Val.(pagination.PaginatedResult[EmployeeDto]), nil
	}
}

func (h *ListHandler) load(ctx context.Context, q GetEmployeesQuery, page pagination.PageRequest) (pagination.PaginatedResult[EmployeeDto], error) {
	filter := ListFilter{SearchTerm: q.SearchTerm}

	total, err := h.repo.Count(ctx, filter)
	if err != nil {
		return pagination.PaginatedResult[EmployeeDto]{}, mapRepositoryError(err)
	}

	empls, err := h.repo.List(ctx, filter, page.Offset(), page.PageSize)
	if err != nil {
		return pagination.PaginatedResult[EmployeeDto]{}, mapRepositoryError(err)
	}

	return pagination.New(mapToDtos(empls), total, page.PageNumber, page.PageSize), nil
}

func mapToDto(e Employee) EmployeeDto {
	return EmployeeDto{
		ID:       e.ID,
		FullName: e.FullName(),
		Email:    e.Email,
		JobTitle: e.JobTitle,
		HireDate: e.HireDate,
	}
}

func mapToDtos(empls []Employee) []EmployeeDto {
	dtos := make([]EmployeeDto, 0, len(empls))
	for _, e := range empls {
		dtos = append(dtos, mapToDto(e))
	}
	return dtos
}
