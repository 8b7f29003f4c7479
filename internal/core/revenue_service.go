package core

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// RevenueDetail is one row of a revenue report: a day for monthly reports,
// a month for yearly ones. Monthly reports only populate the order counts;
// the money columns stay zero because income is tracked per month.
type RevenueDetail struct {
	Period             string `json:"period"`
	CustomerIncome     int64  `json:"customerIncome"`
	CtvIncome          int64  `json:"ctvIncome"`
	TotalIncome        int64  `json:"totalIncome"`
	Expense            int64  `json:"expense"`
	Profit             int64  `json:"profit"`
	ProfitMargin       int    `json:"profitMargin"`
	CustomerOrderCount int    `json:"customerOrderCount"`
	CtvOrderCount      int    `json:"ctvOrderCount"`
	TotalOrderCount    int    `json:"totalOrderCount"`
}

// RevenueReport aggregates income from the sales partitions against the
// import expense for the same span.
type RevenueReport struct {
	TotalIncome  int64           `json:"totalIncome"`
	TotalExpense int64           `json:"totalExpense"`
	TotalProfit  int64           `json:"totalProfit"`
	ProfitMargin int             `json:"profitMargin"`
	Details      []RevenueDetail `json:"details"`
}

// RevenueService computes revenue reports over the order and import
// partitions. Missing partitions contribute zero rather than failing the
// report.
type RevenueService interface {
	Monthly(ctx context.Context, year, month int) (*RevenueReport, error)
	Yearly(ctx context.Context, year int) (*RevenueReport, error)
}

type revenueService struct {
	orders  OrderService
	imports ImportService
}

func NewRevenueService(orders OrderService, imports ImportService) RevenueService {
	return &revenueService{orders: orders, imports: imports}
}

// profitMarginPercent is round(profit/income*100), 0 when there is no income.
func profitMarginPercent(profit, income int64) int {
	if income <= 0 {
		return 0
	}
	m := decimal.NewFromInt(profit).
		Div(decimal.NewFromInt(income)).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return int(m.IntPart())
}

// monthFigures is the per-month aggregate shared by both report shapes.
type monthFigures struct {
	customerIncome     int64
	ctvIncome          int64
	expense            int64
	customerOrderCount int
	ctvOrderCount      int
	customerOrders     []Order
	ctvOrders          []Order
}

func (s *revenueService) collectMonth(ctx context.Context, year, month int) monthFigures {
	var f monthFigures

	customerOrders, err := s.orders.List(ctx, KindOrders, year, month)
	if err != nil {
		log.Printf("revenue: read customer orders %d/%d: %v", month, year, err)
	}
	for _, o := range customerOrders {
		if o.Total != "" {
			f.customerIncome += ParseCurrency(o.Total)
		}
		f.customerOrderCount++
	}
	f.customerOrders = customerOrders

	ctvOrders, err := s.orders.List(ctx, KindCTVOrders, year, month)
	if err != nil {
		log.Printf("revenue: read CTV orders %d/%d: %v", month, year, err)
	}
	for _, o := range ctvOrders {
		if o.Total != "" {
			f.ctvIncome += ParseCurrency(o.Total)
		}
		f.ctvOrderCount++
	}
	f.ctvOrders = ctvOrders

	expense, err := s.imports.Expense(ctx, year, month)
	if err != nil {
		log.Printf("revenue: read expense %d/%d: %v", month, year, err)
	}
	f.expense = expense
	return f
}

// extractDay pulls the day out of a "D/M" or "D/M/YYYY" date string.
func extractDay(dateStr string, daysInMonth int) int {
	parts := strings.Split(dateStr, "/")
	if len(parts) < 2 {
		return 0
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || day < 1 || day > daysInMonth {
		return 0
	}
	return day
}

func (s *revenueService) Monthly(ctx context.Context, year, month int) (*RevenueReport, error) {
	if month < 1 || month > 12 {
		return nil, Validationf("month %d out of range", month)
	}

	f := s.collectMonth(ctx, year, month)
	daysInMonth := time.Date(year, time.Month(month)+1, 0, 12, 0, 0, 0, time.UTC).Day()

	type dayCounts struct{ customer, ctv int }
	counts := make([]dayCounts, daysInMonth+1)
	for _, o := range f.customerOrders {
		if day := extractDay(o.Date, daysInMonth); day > 0 {
			counts[day].customer++
		}
	}
	for _, o := range f.ctvOrders {
		if day := extractDay(o.Date, daysInMonth); day > 0 {
			counts[day].ctv++
		}
	}

	details := make([]RevenueDetail, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		details = append(details, RevenueDetail{
			Period:             fmt.Sprintf("%d/%d/%d", day, month, year),
			CustomerOrderCount: counts[day].customer,
			CtvOrderCount:      counts[day].ctv,
			TotalOrderCount:    counts[day].customer + counts[day].ctv,
		})
	}

	income := f.customerIncome + f.ctvIncome
	profit := income - f.expense
	return &RevenueReport{
		TotalIncome:  income,
		TotalExpense: f.expense,
		TotalProfit:  profit,
		ProfitMargin: profitMarginPercent(profit, income),
		Details:      details,
	}, nil
}

func (s *revenueService) Yearly(ctx context.Context, year int) (*RevenueReport, error) {
	figures := make([]monthFigures, 12)

	var wg sync.WaitGroup
	for m := 1; m <= 12; m++ {
		wg.Add(1)
		go func(m int) {
			defer wg.Done()
			figures[m-1] = s.collectMonth(ctx, year, m)
		}(m)
	}
	wg.Wait()

	var totalCustomer, totalCtv, totalExpense int64
	details := make([]RevenueDetail, 0, 12)
	for m := 1; m <= 12; m++ {
		f := figures[m-1]
		income := f.customerIncome + f.ctvIncome
		profit := income - f.expense
		details = append(details, RevenueDetail{
			Period:             fmt.Sprintf("%d/%d", m, year),
			CustomerIncome:     f.customerIncome,
			CtvIncome:          f.ctvIncome,
			TotalIncome:        income,
			Expense:            f.expense,
			Profit:             profit,
			ProfitMargin:       profitMarginPercent(profit, income),
			CustomerOrderCount: f.customerOrderCount,
			CtvOrderCount:      f.ctvOrderCount,
			TotalOrderCount:    f.customerOrderCount + f.ctvOrderCount,
		})
		totalCustomer += f.customerIncome
		totalCtv += f.ctvIncome
		totalExpense += f.expense
	}

	income := totalCustomer + totalCtv
	profit := income - totalExpense
	return &RevenueReport{
		TotalIncome:  income,
		TotalExpense: totalExpense,
		TotalProfit:  profit,
		ProfitMargin: profitMarginPercent(profit, income),
		Details:      details,
	}, nil
}
