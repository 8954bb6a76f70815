// Package analytics derives sales figures from order line items. Everything is
// recomputed from the input on each call.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"order-reconciliation/internal/model"
)

const (
	bestProductsLimit = 5
	recentSalesLimit  = 5
	day               = 24 * time.Hour
	dayKeyLayout      = "2006-01-02"
	dayLabelLayout    = "2 Jan"
)

type WindowTotals struct {
	Revenue   int64  `json:"revenue"`
	Items     int64  `json:"items"`
	Formatted string `json:"formatted"`
}

type DailySales struct {
	Day     string `json:"day"`
	Label   string `json:"label"`
	Revenue int64  `json:"revenue"`
	Units   int64  `json:"units"`
}

type CategorySales struct {
	Category string `json:"category"`
	Sells    int64  `json:"sells"`
	Revenue  int64  `json:"revenue"`
}

type ProductSales struct {
	ProductName  string `json:"productName"`
	ProductID    string `json:"productId"`
	TotalValue   int64  `json:"totalValue"`
	TotalCardSum int64  `json:"totalCardSum"`
}

type Summary struct {
	Today       WindowTotals `json:"today"`
	Last7Days   WindowTotals `json:"last7Days"`
	Last30Days  WindowTotals `json:"last30Days"`
	Last365Days WindowTotals `json:"last365Days"`
	AllTime     WindowTotals `json:"allTime"`

	Daily []DailySales `json:"daily"`
	// Flat 30 day series kept for chart widgets; same order as Daily.
	SellsReport     []int64  `json:"sellsReport"`
	ProductQuantity []int64  `json:"productQuantity"`
	FormattedDates  []string `json:"formattedDates"`

	RecentProducts []model.LineItem `json:"recentProduct"`
	BestCategories []CategorySales  `json:"bestCategories"`
	BestProducts   []ProductSales   `json:"bestProducts"`
}

// Summarize computes the sales bundle as of now. Calendar days are taken in loc.
func Summarize(items []model.LineItem, now time.Time, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	today := Filter(items, func(item model.LineItem) bool {
		return sameDay(item.OrderDate.In(loc), now)
	})
	last7 := Window(items, now, 7*day)
	last30 := Window(items, now, 30*day)
	last365 := Window(items, now, 365*day)

	daily := DailySeries(last30, loc)
	summary := Summary{
		Today:           totals(today),
		Last7Days:       totals(last7),
		Last30Days:      totals(last30),
		Last365Days:     totals(last365),
		AllTime:         totals(items),
		Daily:           daily,
		SellsReport:     make([]int64, len(daily)),
		ProductQuantity: make([]int64, len(daily)),
		FormattedDates:  make([]string, len(daily)),
		RecentProducts:  Recent(last7, recentSalesLimit),
		BestCategories:  BestCategories(items),
		BestProducts:    BestProducts(items, bestProductsLimit),
	}
	for i, d := range daily {
		summary.SellsReport[i] = d.Revenue
		summary.ProductQuantity[i] = d.Units
		summary.FormattedDates[i] = d.Label
	}

	return summary
}

func Filter(items []model.LineItem, keep func(model.LineItem) bool) []model.LineItem {
	out := make([]model.LineItem, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Window keeps the items ordered within [now-size, now].
func Window(items []model.LineItem, now time.Time, size time.Duration) []model.LineItem {
	from := now.Add(-size)
	return Filter(items, func(item model.LineItem) bool {
		return !item.OrderDate.Before(from) && !item.OrderDate.After(now)
	})
}

func Revenue(items []model.LineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.Subtotal()
	}
	return sum
}

func Units(items []model.LineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.Quantity
	}
	return sum
}

// DailySeries buckets items by calendar day in chronological order. Days without
// sales are absent rather than zero.
func DailySeries(items []model.LineItem, loc *time.Location) []DailySales {
	byDay := make(map[string]*DailySales)
	for _, item := range items {
		t := item.OrderDate.In(loc)
		key := t.Format(dayKeyLayout)
		entry, ok := byDay[key]
		if !ok {
			entry = &DailySales{Day: key, Label: t.Format(dayLabelLayout)}
			byDay[key] = entry
		}
		entry.Revenue += item.Subtotal()
		entry.Units += item.Quantity
	}

	series := make([]DailySales, 0, len(byDay))
	for _, entry := range byDay {
		series = append(series, *entry)
	}
	// ISO day keys sort chronologically.
	sort.Slice(series, func(i, j int) bool { return series[i].Day < series[j].Day })
	return series
}

// Recent returns up to limit items, newest first.
func Recent(items []model.LineItem, limit int) []model.LineItem {
	out := append([]model.LineItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// BestCategories ranks every category by units sold.
func BestCategories(items []model.LineItem) []CategorySales {
	index := make(map[string]int)
	var out []CategorySales
	for _, item := range items {
		i, ok := index[item.CategoryName]
		if !ok {
			i = len(out)
			index[item.CategoryName] = i
			out = append(out, CategorySales{Category: item.CategoryName})
		}
		out[i].Sells += item.Quantity
		out[i].Revenue += item.Subtotal()
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Sells != out[j].Sells {
			return out[i].Sells > out[j].Sells
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// BestProducts ranks products by revenue and keeps the first limit entries.
func BestProducts(items []model.LineItem, limit int) []ProductSales {
	index := make(map[string]int)
	var out []ProductSales
	for _, item := range items {
		i, ok := index[item.ProductName]
		if !ok {
			i = len(out)
			index[item.ProductName] = i
			out = append(out, ProductSales{ProductName: item.ProductName, ProductID: item.ID})
		}
		out[i].TotalValue += item.Subtotal()
		out[i].TotalCardSum += item.Quantity
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].ProductName < out[j].ProductName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// FormatAmount renders an amount in compact form: 950, 1.5K, 12.3M, 2B.
func FormatAmount(amount int64) string {
	d := decimal.NewFromInt(amount)
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(billion):
		return d.Div(billion).Round(1).String() + "B"
	case abs.GreaterThanOrEqual(million):
		return d.Div(million).Round(1).String() + "M"
	case abs.GreaterThanOrEqual(thousand):
		return d.Div(thousand).Round(1).String() + "K"
	default:
		return d.String()
	}
}

func totals(items []model.LineItem) WindowTotals {
	revenue := Revenue(items)
	return WindowTotals{
		Revenue:   revenue,
		Items:     Units(items),
		Formatted: FormatAmount(revenue),
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
