package database

import (
	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Builder returns the statement builder used for hand-written queries.
// Statements are executed through gorm's Raw so they share its connection and transaction.
func Builder() sq.StatementBuilderType {
	return psql
}
