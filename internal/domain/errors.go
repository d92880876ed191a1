package domain

import "errors"

var (
	// ErrUnknownCompany is returned when a write targets an unregistered company.
	ErrUnknownCompany = errors.New("unknown company")
	// ErrNotFound marks absent data. Callers treat it as omission, not failure.
	ErrNotFound = errors.New("not found")
	// ErrUnknownMetric is returned for history queries on an unsupported column.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrBackendUnavailable means the generative backend is unconfigured or failed its probe.
	ErrBackendUnavailable = errors.New("generative backend unavailable")
	// ErrEmptyCompletion means the backend answered without content.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrNoData means acquisition produced nothing usable for a company.
	ErrNoData = errors.New("no usable financial data")
)
