package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadTable reads every row of a bookings table into a RawFrame. Column names
// come back exactly as the database reports them.
func LoadTable(ctx context.Context, pool *pgxpool.Pool, table string) (*RawFrame, error) {
	query := fmt.Sprintf("SELECT * FROM %s", pgx.Identifier{table}.Sanitize())
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, fd := range fields {
		header[i] = fd.Name
	}

	raw := NewRawFrame(header)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("row decode failed: %w", err)
		}
		cells := make([]Cell, len(values))
		for i, v := range values {
			cells[i] = cellFromValue(v)
		}
		if err := raw.Append(cells...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return raw, nil
}

// cellFromValue renders one decoded pgx value the way the CSV reader would
// have seen it. NUMERIC and the date/time types arrive as pgtype structs.
func cellFromValue(v any) Cell {
	switch x := v.(type) {
	case nil:
		return NullCell()
	case string:
		return Text(x)
	case []byte:
		return Text(string(x))
	case float64:
		return floatCell(x)
	case float32:
		return floatCell(float64(x))
	case int64:
		return Text(strconv.FormatInt(x, 10))
	case int32:
		return Text(strconv.FormatInt(int64(x), 10))
	case int16:
		return Text(strconv.FormatInt(int64(x), 10))
	case bool:
		return Text(strconv.FormatBool(x))
	case time.Time:
		return timeCell(x)
	case pgtype.Numeric:
		if !x.Valid {
			return NullCell()
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return NullCell()
		}
		return floatCell(f.Float64)
	case pgtype.Time:
		if !x.Valid {
			return NullCell()
		}
		d := time.Duration(x.Microseconds) * time.Microsecond
		return Text(fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60))
	case pgtype.Date:
		if !x.Valid || x.InfinityModifier != pgtype.Finite {
			return NullCell()
		}
		return Text(x.Time.Format("2006-01-02"))
	case pgtype.Timestamp:
		if !x.Valid || x.InfinityModifier != pgtype.Finite {
			return NullCell()
		}
		return timeCell(x.Time)
	case pgtype.Timestamptz:
		if !x.Valid || x.InfinityModifier != pgtype.Finite {
			return NullCell()
		}
		return timeCell(x.Time)
	default:
		return Text(fmt.Sprint(x))
	}
}

// floatCell treats NaN as missing, as a NaN read from CSV would be.
func floatCell(f float64) Cell {
	if math.IsNaN(f) {
		return NullCell()
	}
	return Text(strconv.FormatFloat(f, 'f', -1, 64))
}

func timeCell(t time.Time) Cell {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return Text(t.Format("2006-01-02"))
	}
	return Text(t.Format("2006-01-02 15:04:05"))
}
