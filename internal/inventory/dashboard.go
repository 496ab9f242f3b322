package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
)

const (
	dashboardListLimit = 5
	reportTopItems     = 10
)

// DashboardDTO is the back-office landing page payload.
type DashboardDTO struct {
	TotalItems         int64                  `json:"total_items"`
	ActiveItems        int64                  `json:"active_items"`
	TotalCategories    int64                  `json:"total_categories"`
	TotalSuppliers     int64                  `json:"total_suppliers"`
	TotalStockValue    decimal.Decimal        `json:"total_stock_value"`
	LowStockCount      int64                  `json:"low_stock_count"`
	OutOfStockCount    int64                  `json:"out_of_stock_count"`
	LowStockItems      []ItemDTO              `json:"low_stock_items"`
	RecentItems        []ItemDTO              `json:"recent_items"`
	RecentTransactions []RecentTransactionDTO `json:"recent_transactions"`
}

// RecentTransactionDTO is a dashboard feed row.
type RecentTransactionDTO struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	ItemName  string    `json:"item_name,omitempty"`
	ItemSKU   string    `json:"item_sku,omitempty"`
	Type      string    `json:"type"`
	Quantity  int       `json:"quantity"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StockReportDTO is the inventory valuation report payload.
type StockReportDTO struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	TotalStockValue   decimal.Decimal        `json:"total_stock_value"`
	CategoryBreakdown []CategoryBreakdownRow `json:"category_breakdown"`
	MetalBreakdown    []MetalBreakdownRow    `json:"metal_breakdown"`
	LowStockItems     []ItemDTO              `json:"low_stock_items"`
	TopItems          []ItemDTO              `json:"top_items_by_selling_price"`
}

// Dashboard assembles the stock overview: counts, valuation, alert lists, and
// the recent activity feed.
func (s *service) Dashboard(ctx context.Context) (*DashboardDTO, error) {
	totalItems, err := s.repo.CountItems(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count items")
	}
	activeItems, err := s.repo.CountItems(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count active items")
	}
	totalCategories, err := s.repo.CountCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count categories")
	}
	totalSuppliers, err := s.repo.CountSuppliers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count suppliers")
	}
	stockValue, err := s.repo.TotalStockValue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: total stock value")
	}
	outOfStock, err := s.repo.CountOutOfStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count out of stock")
	}

	lowStock, err := s.repo.ListLowStockItems(ctx, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}
	recentItems, err := s.repo.ListRecentItems(ctx, dashboardListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list recent items")
	}
	recentTx, err := s.repo.ListRecentTransactions(ctx, dashboardListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list recent transactions")
	}

	dto := &DashboardDTO{
		TotalItems:         totalItems,
		ActiveItems:        activeItems,
		TotalCategories:    totalCategories,
		TotalSuppliers:     totalSuppliers,
		TotalStockValue:    stockValue,
		LowStockCount:      int64(len(lowStock)),
		OutOfStockCount:    outOfStock,
		LowStockItems:      make([]ItemDTO, 0, len(lowStock)),
		RecentItems:        make([]ItemDTO, 0, len(recentItems)),
		RecentTransactions: make([]RecentTransactionDTO, 0, len(recentTx)),
	}
	for i := range lowStock {
		dto.LowStockItems = append(dto.LowStockItems, *NewItemDTO(&lowStock[i]))
	}
	for i := range recentItems {
		dto.RecentItems = append(dto.RecentItems, *NewItemDTO(&recentItems[i]))
	}
	for i := range recentTx {
		row := RecentTransactionDTO{
			ID:        recentTx[i].ID,
			ItemID:    recentTx[i].ItemID,
			Type:      recentTx[i].Type.String(),
			Quantity:  recentTx[i].Quantity,
			Notes:     recentTx[i].Notes,
			CreatedAt: recentTx[i].CreatedAt,
		}
		if recentTx[i].Item != nil {
			row.ItemName = recentTx[i].Item.Name
			row.ItemSKU = recentTx[i].Item.SKU
		}
		dto.RecentTransactions = append(dto.RecentTransactions, row)
	}
	return dto, nil
}

// StockReport assembles the valuation report: per-category and per-metal
// rollups plus alert and top-price lists.
func (s *service) StockReport(ctx context.Context) (*StockReportDTO, error) {
	stockValue, err := s.repo.TotalStockValue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: total stock value")
	}
	categories, err := s.repo.CategoryBreakdown(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: category breakdown")
	}
	metals, err := s.repo.MetalBreakdown(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: metal breakdown")
	}
	lowStock, err := s.repo.ListLowStockItems(ctx, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}
	topItems, err := s.repo.ListTopItemsBySellingPrice(ctx, reportTopItems)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: top items")
	}

	report := &StockReportDTO{
		GeneratedAt:       time.Now().UTC(),
		TotalStockValue:   stockValue,
		CategoryBreakdown: categories,
		MetalBreakdown:    metals,
		LowStockItems:     make([]ItemDTO, 0, len(lowStock)),
		TopItems:          make([]ItemDTO, 0, len(topItems)),
	}
	for i := range lowStock {
		report.LowStockItems = append(report.LowStockItems, *NewItemDTO(&lowStock[i]))
	}
	for i := range topItems {
		report.TopItems = append(report.TopItems, *NewItemDTO(&topItems[i]))
	}
	return report, nil
}
