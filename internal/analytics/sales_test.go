package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-reconciliation/internal/model"
)

var now = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

func sale(id, name, category string, price, qty int64, at time.Time) model.LineItem {
	return model.LineItem{ID: id, ProductName: name, CategoryName: category, Price: price, Quantity: qty, OrderDate: at}
}

func TestDailySeriesChronologicalWithGaps(t *testing.T) {
	d1 := now.AddDate(0, 0, -10)
	d2 := now.AddDate(0, 0, -3)
	items := []model.LineItem{
		// out of order on purpose
		sale("p2", "B", "c", 5, 1, d2),
		sale("p1", "A", "c", 10, 2, d1),
	}

	summary := Summarize(items, now, time.UTC)

	assert.Equal(t, []int64{20, 5}, summary.SellsReport)
	assert.Equal(t, []int64{2, 1}, summary.ProductQuantity)
	assert.Equal(t, []string{"20 Jun", "27 Jun"}, summary.FormattedDates)
	require.Len(t, summary.Daily, 2)
	assert.Equal(t, "2024-06-20", summary.Daily[0].Day)
}

func TestDailySeriesMergesSameDay(t *testing.T) {
	morning := time.Date(2024, 6, 29, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 6, 29, 20, 0, 0, 0, time.UTC)

	series := DailySeries([]model.LineItem{
		sale("p1", "A", "c", 10, 1, morning),
		sale("p2", "B", "c", 3, 2, evening),
	}, time.UTC)

	require.Len(t, series, 1)
	assert.Equal(t, int64(16), series[0].Revenue)
	assert.Equal(t, int64(3), series[0].Units)
}

func TestDailySeriesUsesCalendarOfLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	// 20:00 UTC is already the next day at UTC+7.
	late := time.Date(2024, 6, 29, 20, 0, 0, 0, time.UTC)

	series := DailySeries([]model.LineItem{sale("p1", "A", "c", 1, 1, late)}, loc)
	require.Len(t, series, 1)
	assert.Equal(t, "2024-06-30", series[0].Day)
}

func TestWindowTotals(t *testing.T) {
	items := []model.LineItem{
		sale("p1", "A", "x", 10, 1, now.Add(-time.Hour)),     // today
		sale("p2", "B", "x", 20, 2, now.AddDate(0, 0, -5)),   // 7 days
		sale("p3", "C", "y", 30, 1, now.AddDate(0, 0, -20)),  // 30 days
		sale("p4", "D", "y", 40, 1, now.AddDate(0, 0, -200)), // 365 days
		sale("p5", "E", "z", 50, 1, now.AddDate(-2, 0, 0)),   // all time
	}

	s := Summarize(items, now, time.UTC)

	assert.Equal(t, WindowTotals{Revenue: 10, Items: 1, Formatted: "10"}, s.Today)
	assert.Equal(t, int64(50), s.Last7Days.Revenue)
	assert.Equal(t, int64(3), s.Last7Days.Items)
	assert.Equal(t, int64(80), s.Last30Days.Revenue)
	assert.Equal(t, int64(120), s.Last365Days.Revenue)
	assert.Equal(t, int64(170), s.AllTime.Revenue)
	assert.Equal(t, int64(6), s.AllTime.Items)
}

func TestWindowBoundsAreInclusive(t *testing.T) {
	items := []model.LineItem{
		sale("edge", "A", "x", 1, 1, now.Add(-7*day)),
		sale("before", "B", "x", 1, 1, now.Add(-7*day-time.Second)),
		sale("future", "C", "x", 1, 1, now.Add(time.Second)),
	}

	got := Window(items, now, 7*day)
	require.Len(t, got, 1)
	assert.Equal(t, "edge", got[0].ID)
}

func TestBestProductsTopFiveByRevenue(t *testing.T) {
	var items []model.LineItem
	for i, name := range []string{"A", "B", "C", "D", "E", "F"} {
		items = append(items, sale("id-"+name, name, "c", int64(i+1)*10, 1, now))
	}
	items = append(items, sale("id-A2", "A", "c", 100, 1, now))

	best := BestProducts(items, 5)
	require.Len(t, best, 5)
	assert.Equal(t, ProductSales{ProductName: "A", ProductID: "id-A", TotalValue: 110, TotalCardSum: 2}, best[0])
	assert.Equal(t, "F", best[1].ProductName)
	assert.Equal(t, "C", best[4].ProductName)
}

func TestBestCategoriesByUnits(t *testing.T) {
	items := []model.LineItem{
		sale("1", "A", "pens", 100, 1, now),
		sale("2", "B", "paper", 1, 5, now),
		sale("3", "C", "pens", 1, 1, now),
	}

	got := BestCategories(items)
	require.Len(t, got, 2)
	assert.Equal(t, CategorySales{Category: "paper", Sells: 5, Revenue: 5}, got[0])
	assert.Equal(t, CategorySales{Category: "pens", Sells: 2, Revenue: 101}, got[1])
}

func TestRecentProductsNewestFirst(t *testing.T) {
	var items []model.LineItem
	for i := 0; i < 7; i++ {
		items = append(items, sale(string(rune('a'+i)), "n", "c", 1, 1, now.Add(-time.Duration(i)*time.Hour)))
	}

	s := Summarize(items, now, time.UTC)
	require.Len(t, s.RecentProducts, 5)
	assert.Equal(t, "a", s.RecentProducts[0].ID)
	assert.Equal(t, "e", s.RecentProducts[4].ID)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, now, nil)
	assert.Zero(t, s.AllTime.Revenue)
	assert.Empty(t, s.SellsReport)
	assert.Empty(t, s.BestProducts)
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		0:             "0",
		950:           "950",
		1500:          "1.5K",
		12_345_678:    "12.3M",
		2_000_000_000: "2B",
		-4200:         "-4.2K",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(in), "amount %d", in)
	}
}
