package postgres

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrDuplicateCode = "23505"
	ErrDuplicateMsg  = "duplicate key violation"
)

func hasPQCode(err error, code string) bool {
	var pgErr *pq.Error
	if err != nil {
		if errors.As(err, &pgErr) {
			return pgErr.Code == pq.ErrorCode(code)
		}
	}
	return false
}

func IsDuplicateKeyErr(err error) bool {
	return hasPQCode(err, ErrDuplicateCode)
}
