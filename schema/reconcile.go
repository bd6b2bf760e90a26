package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/apperr"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
)

const (
	unknown = "unknown"

	distanceAlias  = "distance"
	distanceColumn = "ride_distance"
	hourAlias      = "booking_hour"
	timeColumn     = "time"
)

// Payload is a caller supplied booking: feature names to scalar values.
type Payload map[string]any

// Row is one reconciled input, exactly the expected columns in order.
// Values are strings for categorical columns and float64 for numerical ones.
type Row struct {
	Columns []string
	Values  []any

	numerical map[string]bool
}

func (r Row) Get(column string) (any, bool) {
	if i := slices.Index(r.Columns, column); i >= 0 {
		return r.Values[i], true
	}
	return nil, false
}

// Key renders the row as a stable cache key. Floats use their shortest exact
// form, so NaN and both infinities stay distinct.
func (r Row) Key() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range r.Values {
		if i > 0 {
			b.WriteByte(',')
		}
		switch x := v.(type) {
		case float64:
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		case string:
			b.WriteString(strconv.Quote(x))
		default:
			fmt.Fprintf(&b, "%T(%v)", x, x)
		}
	}
	b.WriteByte(']')
	return b.String()
}

// Frame builds a single-row typed frame from the row.
func (r Row) Frame() *dataset.Frame {
	f := dataset.NewFrame(1)
	for i, name := range r.Columns {
		if r.numerical[name] {
			_ = f.Add(dataset.NewNumerical(name, []float64{r.Values[i].(float64)}))
			continue
		}
		_ = f.Add(dataset.NewCategorical(name, []string{r.Values[i].(string)}))
	}
	return f
}

// Reconcile fills every schema column from payload. Missing categorical
// values default to "unknown" and missing numerical ones to 0. Two legacy
// keys are honored: distance for ride_distance, and booking_hour, which lands
// on a numerical booking_hour column or else on a textual time column as HH:00.
func Reconcile(payload Payload, categorical, numerical []string) (Row, error) {
	values := make(map[string]any, len(categorical)+len(numerical))
	isNum := make(map[string]bool, len(numerical))
	for _, c := range categorical {
		values[c] = unknown
	}
	for _, c := range numerical {
		values[c] = 0.0
		isNum[c] = true
	}

	for key, v := range payload {
		if _, ok := values[key]; !ok {
			continue
		}
		if !isNum[key] {
			if v == nil {
				continue
			}
			values[key] = categoryText(v)
			continue
		}
		values[key] = v
	}

	if v, ok := payload[distanceAlias]; ok {
		if _, inSchema := values[distanceColumn]; inSchema {
			d, err := toFloat(v)
			if err != nil {
				return Row{}, apperr.InvalidNumber(distanceAlias, v)
			}
			values[distanceColumn] = d
		}
	}

	if v, ok := payload[hourAlias]; ok {
		hour, err := toInt(v)
		if err != nil {
			return Row{}, apperr.InvalidNumber(hourAlias, v)
		}
		if hour < 0 || hour > 23 {
			return Row{}, apperr.OutOfRange(hourAlias, v, 0, 23)
		}
		if _, inSchema := values[hourAlias]; inSchema {
			if isNum[hourAlias] {
				values[hourAlias] = float64(hour)
			} else {
				values[hourAlias] = strconv.Itoa(hour)
			}
		} else if _, inSchema := values[timeColumn]; inSchema && !isNum[timeColumn] {
			values[timeColumn] = fmt.Sprintf("%02d:00", hour)
		}
	}

	for _, c := range numerical {
		f, err := toFloat(values[c])
		if err != nil {
			return Row{}, apperr.InvalidNumber(c, values[c])
		}
		values[c] = f
	}

	row := Row{numerical: isNum}
	for _, c := range categorical {
		row.Columns = append(row.Columns, c)
		row.Values = append(row.Values, values[c])
	}
	for _, c := range numerical {
		row.Columns = append(row.Columns, c)
		row.Values = append(row.Values, values[c])
	}
	return row, nil
}

func categoryText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// toFloat coerces a payload value to float64. Strings are trimmed and parsed
// here because cast neither trims nor rejects an empty input the same way;
// nil is a coercion failure where cast would report 0.
func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, errors.New("cannot convert null to a number")
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	case json.Number:
		return t.Float64()
	}
	return cast.ToFloat64E(v)
}

// toInt truncates numbers toward zero; strings must hold an integer.
func toInt(v any) (int, error) {
	switch t := v.(type) {
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), nil
		}
		return strconv.Atoi(t.String())
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("cannot convert %v to an integer", f)
	}
	return int(f), nil
}
