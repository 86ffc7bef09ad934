package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// nullText creates a pgtype.Text with empty string handling
func nullText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// textValue unwraps a nullable text column into a plain string
func textValue(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// pgNumericToInt64 converts an aggregate SUM() result to int64 minor units.
// Postgres returns numeric for SUM(bigint), so the value goes through
// decimal before truncation to the integer part.
func pgNumericToInt64(n pgtype.Numeric) (int64, error) {
	if !n.Valid {
		return 0, nil
	}
	str, err := n.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("marshal numeric: %w", err)
	}
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	dec, err := decimal.NewFromString(string(str))
	if err != nil {
		return 0, fmt.Errorf("parse numeric: %w", err)
	}
	return dec.IntPart(), nil
}
