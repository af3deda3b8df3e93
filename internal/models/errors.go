package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrConflict = errors.New("resource conflict, item already exists")
var ErrInvalidCredentials = errors.New("invalid credentials") // email or password provided does not match stored record
var ErrInvalidRole = errors.New("invalid role")

// ErrUnknownCity indicates that a route references a city that does not exist.
var ErrUnknownCity = errors.New("origin or destiny city does not exist")

// ErrCityInUse indicates that a city is still an endpoint of at least one route.
var ErrCityInUse = errors.New("city is referenced by existing routes")

// ErrNegativeCost indicates a route cost below zero.
var ErrNegativeCost = errors.New("route cost must not be negative")

// ErrSameEndpoints indicates a route whose origin and destiny are the same city.
var ErrSameEndpoints = errors.New("origin and destiny must be different cities")
