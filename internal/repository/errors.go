package repository

import "errors"

// ErrNotFound is the repository-level sentinel returned when a query for a
// single row finds none. The service layer translates it into the domain
// ErrNotFound so business logic never sees sql.ErrNoRows directly.
var ErrNotFound = errors.New("repository: not found")
