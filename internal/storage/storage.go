package storage

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrExists       = errors.New("already exists")
	ErrCreateFailed = errors.New("failed to create")
	ErrUpdateFailed = errors.New("failed to update")
	ErrDeleteFailed = errors.New("failed to delete")
)

// IsDuplicateKey reports whether err is a MySQL unique constraint
// violation (error 1062). Used to detect races on unique pairs.
func IsDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
