package mysql

import (
	"errors"

	driver "github.com/go-sql-driver/mysql"
)

const errDuplicateEntry = 1062

// isDuplicateKey reports a primary or unique key violation.
func isDuplicateKey(err error) bool {
	var myErr *driver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}
