package dataset

import (
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVInfersKinds(t *testing.T) {
	src := "Booking ID,Ride Distance,Vehicle Type\n" +
		"a,1.5,Auto\n" +
		"b,,eBike\n" +
		"c,null,NA\n"

	raw, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Booking ID", "Ride Distance", "Vehicle Type"}, raw.Columns)
	require.Equal(t, 3, raw.Len())
	assert.True(t, raw.Rows[1][1].Null)
	assert.True(t, raw.Rows[2][2].Null)

	f := Infer(raw)
	dist, ok := f.Column("Ride Distance")
	require.True(t, ok)
	assert.Equal(t, Numerical, dist.Kind)
	assert.Equal(t, 1.5, dist.Floats[0])
	assert.True(t, math.IsNaN(dist.Floats[1]))

	vt, _ := f.Column("Vehicle Type")
	assert.Equal(t, Categorical, vt.Kind)
	assert.True(t, vt.IsNull(2))
	assert.Equal(t, "nan", vt.Text(2))
}

func TestReadCSVRejectsRaggedRows(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n3\n"))
	assert.Error(t, err)
}

func TestDistinctCountsNullOnce(t *testing.T) {
	c := NewNumerical("x", []float64{1, 1, math.NaN(), math.NaN()})
	assert.Equal(t, 2, c.Distinct())

	s := &Column{Name: "s", Kind: Categorical, Strings: []string{"a", "", "a"}, Valid: []bool{true, false, true}}
	assert.Equal(t, 2, s.Distinct())
}

func TestFrameFilterTakeDrop(t *testing.T) {
	f := NewFrame(3)
	require.NoError(t, f.Add(NewNumerical("n", []float64{1, 2, 3})))
	require.NoError(t, f.Add(NewCategorical("c", []string{"x", "y", "z"})))
	assert.Error(t, f.Add(NewNumerical("short", []float64{1})))

	kept := f.Filter([]bool{true, false, true})
	assert.Equal(t, 2, kept.Len())
	c, _ := kept.Column("c")
	assert.Equal(t, []string{"x", "z"}, c.Strings)

	taken := f.Take([]int{2, 0})
	n, _ := taken.Column("n")
	assert.Equal(t, []float64{3, 1}, n.Floats)

	f.Drop("n")
	assert.Equal(t, []string{"c"}, f.Names())
}

func TestCellFromValue(t *testing.T) {
	assert.True(t, cellFromValue(nil).Null)
	assert.Equal(t, "4.5", cellFromValue(4.5).Value)
	assert.Equal(t, "12", cellFromValue(int64(12)).Value)
	day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-02", cellFromValue(day).Value)

	tests := []struct {
		name string
		in   any
		want Cell
	}{
		{"numeric", pgtype.Numeric{Int: big.NewInt(450), Exp: -2, Valid: true}, Text("4.5")},
		{"numeric integer", pgtype.Numeric{Int: big.NewInt(12), Exp: 0, Valid: true}, Text("12")},
		{"numeric null", pgtype.Numeric{}, NullCell()},
		{"numeric NaN", pgtype.Numeric{NaN: true, Valid: true}, NullCell()},
		{"float NaN", math.NaN(), NullCell()},
		{"time", pgtype.Time{Microseconds: int64((10*time.Hour + 15*time.Minute) / time.Microsecond), Valid: true}, Text("10:15:00")},
		{"time null", pgtype.Time{}, NullCell()},
		{"date", pgtype.Date{Time: day, Valid: true}, Text("2024-03-02")},
		{"date infinity", pgtype.Date{InfinityModifier: pgtype.Infinity, Valid: true}, NullCell()},
		{"timestamp", pgtype.Timestamp{Time: day.Add(18*time.Hour + 5*time.Minute), Valid: true}, Text("2024-03-02 18:05:00")},
		{"timestamptz", pgtype.Timestamptz{Time: day.Add(7 * time.Hour), Valid: true}, Text("2024-03-02 07:00:00")},
		{"timestamptz null", pgtype.Timestamptz{}, NullCell()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cellFromValue(tt.in))
		})
	}
}

func TestInferPostgresNumeric(t *testing.T) {
	raw := NewRawFrame([]string{"ride_distance", "time"})
	require.NoError(t, raw.Append(
		cellFromValue(pgtype.Numeric{Int: big.NewInt(450), Exp: -2, Valid: true}),
		cellFromValue(pgtype.Time{Microseconds: int64(10 * time.Hour / time.Microsecond), Valid: true}),
	))
	f := Infer(raw)
	dist, ok := f.Column("ride_distance")
	require.True(t, ok)
	assert.Equal(t, Numerical, dist.Kind)
	assert.Equal(t, 4.5, dist.Floats[0])
	tm, ok := f.Column("time")
	require.True(t, ok)
	assert.Equal(t, "10:00:00", tm.Text(0))
}
