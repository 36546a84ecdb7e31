package database

import "github.com/koustreak/colsuggest/internal/errs"

// ScanRows reads all rows from the result set and returns them as a slice
// of maps, where each key is the column name and each value is the Go-native
// representation of the DB value.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows; callers do not need to call Close().
func ScanRows(rows Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, wrapQuery("failed to read column names", err)
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		values, err := scanValues(rows, len(columns))
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapQuery("error during row iteration", err)
	}
	return result, nil
}

// ScanValues reads all rows as positional value slices, in result order.
// It always closes the Rows.
func ScanValues(rows Rows) ([][]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, wrapQuery("failed to read column names", err)
	}

	result := make([][]any, 0)
	for rows.Next() {
		values, err := scanValues(rows, len(columns))
		if err != nil {
			return nil, err
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQuery("error during row iteration", err)
	}
	return result, nil
}

// scanValues allocates *any scan targets so the driver can write any type.
func scanValues(row Row, n int) ([]any, error) {
	dest := make([]any, n)
	ptrs := make([]any, n)
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return nil, wrapQuery("failed to scan row", err)
	}
	return dest, nil
}

// wrapQuery keeps errors drivers already classified and marks the rest as
// query failures.
func wrapQuery(msg string, err error) error {
	if errs.KindOf(err) != errs.ErrKindUnknown {
		return err
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
