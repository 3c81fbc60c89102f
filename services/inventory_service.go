package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/makanika-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartInput is the body for creating a spare part
type PartInput struct {
	Name              string  `json:"name" binding:"required,max=255"`
	Description       *string `json:"description"`
	Price             float64 `json:"price" binding:"gt=0"`
	QuantityInStock   int     `json:"quantity_in_stock" binding:"gte=0"`
	SKU               *string `json:"sku" binding:"omitnil,max=100"`
	Category          *string `json:"category" binding:"omitnil,max=100"`
	MinimumStockLevel int     `json:"minimum_stock_level" binding:"gte=0"`
	IsActive          *bool   `json:"is_active"`
}

// PartUpdate carries the spare part fields to change
type PartUpdate struct {
	Name              *string  `json:"name" binding:"omitnil,min=1,max=255"`
	Description       *string  `json:"description"`
	Price             *float64 `json:"price" binding:"omitnil,gt=0"`
	QuantityInStock   *int     `json:"quantity_in_stock" binding:"omitnil,gte=0"`
	SKU               *string  `json:"sku" binding:"omitnil,max=100"`
	Category          *string  `json:"category" binding:"omitnil,max=100"`
	MinimumStockLevel *int     `json:"minimum_stock_level" binding:"omitnil,gte=0"`
	IsActive          *bool    `json:"is_active"`
}

// StockAdjustment is a relative change to a part's stock. A zero change is rejected.
type StockAdjustment struct {
	QuantityChange int     `json:"quantity_change" binding:"required"`
	Reason         *string `json:"reason"`
}

// PartFilters narrows a parts listing
type PartFilters struct {
	Search       string   `form:"search"`
	Category     string   `form:"category"`
	MinPrice     *float64 `form:"min_price"`
	MaxPrice     *float64 `form:"max_price"`
	LowStockOnly bool     `form:"low_stock_only"`
	// ActiveOnly defaults to true when omitted
	ActiveOnly *bool `form:"active_only"`
}

func (f PartFilters) apply(db *gorm.DB) *gorm.DB {
	if f.ActiveOnly == nil || *f.ActiveOnly {
		db = db.Where("spare_parts.is_active = ?", true)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		db = anyContains(db, search, "spare_parts.name", "spare_parts.description", "spare_parts.sku")
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		db = db.Where("LOWER(spare_parts.category) = ?", strings.ToLower(category))
	}
	if f.MinPrice != nil {
		db = db.Where("spare_parts.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("spare_parts.price <= ?", *f.MaxPrice)
	}
	if f.LowStockOnly {
		db = db.Where("spare_parts.quantity_in_stock <= spare_parts.minimum_stock_level")
	}
	return db
}

// InventoryService keeps the spare parts catalog and its stock levels
type InventoryService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewInventoryService creates an inventory service over db
func NewInventoryService(db *gorm.DB, log *zap.Logger) *InventoryService {
	return &InventoryService{db: db, log: log}
}

// normalizeSKU upper-cases a SKU; blank SKUs become nil
func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*sku))
	if v == "" {
		return nil
	}
	return &v
}

func ensureSKUFree(tx *gorm.DB, sku string, exceptID uint) error {
	var count int64
	if err := tx.Model(&models.SparePart{}).Where("sku = ? AND id <> ?", sku, exceptID).Count(&count).Error; err != nil {
		return fmt.Errorf("check sku: %w", err)
	}
	if count > 0 {
		return skuTaken(sku)
	}
	return nil
}

func skuTaken(sku string) *Error {
	return conflict("SKU_EXISTS", "Spare part with SKU '%s' already exists", sku)
}

func getPart(tx *gorm.DB, id uint) (*models.SparePart, error) {
	var part models.SparePart
	if err := tx.First(&part, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("PART_NOT_FOUND", "Spare part not found")
		}
		return nil, fmt.Errorf("get spare part: %w", err)
	}
	return &part, nil
}

// CreatePart adds a part to the catalog
func (s *InventoryService) CreatePart(ctx context.Context, in PartInput, actor models.Identity) (*models.SparePart, error) {
	if !actor.Can(models.PermWriteParts) {
		return nil, forbidden("Admin privileges required")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	part := models.SparePart{
		Name:              in.Name,
		Description:       in.Description,
		Price:             in.Price,
		QuantityInStock:   in.QuantityInStock,
		SKU:               normalizeSKU(in.SKU),
		Category:          trimmedOrNil(in.Category),
		MinimumStockLevel: in.MinimumStockLevel,
		IsActive:          true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if part.SKU != nil {
			if err := ensureSKUFree(tx, *part.SKU, 0); err != nil {
				return err
			}
		}
		if err := tx.Create(&part).Error; err != nil {
			if isUniqueViolation(err) && part.SKU != nil {
				return skuTaken(*part.SKU)
			}
			return fmt.Errorf("create spare part: %w", err)
		}
		// is_active has a database default, so an explicit false must be written separately
		if in.IsActive != nil && !*in.IsActive {
			if err := tx.Model(&part).Update("is_active", false).Error; err != nil {
				return fmt.Errorf("deactivate spare part: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("spare part created", zap.Uint("part_id", part.ID), zap.String("name", part.Name))
	return &part, nil
}

// ListParts returns a page of parts matching filters, ordered by name
func (s *InventoryService) ListParts(ctx context.Context, filters PartFilters, page Page) (PagedResult[models.SparePart], error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.SparePart{}).Scopes(filters.apply)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return PagedResult[models.SparePart]{}, fmt.Errorf("count spare parts: %w", err)
	}

	var parts []models.SparePart
	if err := page.apply(base().Order("spare_parts.name").Order("spare_parts.id")).Find(&parts).Error; err != nil {
		return PagedResult[models.SparePart]{}, fmt.Errorf("list spare parts: %w", err)
	}
	return newPagedResult(parts, total, page), nil
}

// GetPart returns a part by id
func (s *InventoryService) GetPart(ctx context.Context, id uint) (*models.SparePart, error) {
	return getPart(s.db.WithContext(ctx), id)
}

// GetPartBySKU returns a part by SKU, matched case-insensitively
func (s *InventoryService) GetPartBySKU(ctx context.Context, sku string) (*models.SparePart, error) {
	normalized := normalizeSKU(&sku)
	if normalized == nil {
		return nil, notFound("PART_NOT_FOUND", "Spare part not found")
	}

	var part models.SparePart
	if err := s.db.WithContext(ctx).Where("sku = ?", *normalized).First(&part).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("PART_NOT_FOUND", "Spare part not found")
		}
		return nil, fmt.Errorf("get spare part by sku: %w", err)
	}
	return &part, nil
}

// UpdatePart changes any subset of part fields
func (s *InventoryService) UpdatePart(ctx context.Context, id uint, in PartUpdate, actor models.Identity) (*models.SparePart, error) {
	if !actor.Can(models.PermWriteParts) {
		return nil, forbidden("Admin privileges required")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var part *models.SparePart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getPart(tx, id); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Price != nil {
			updates["price"] = *in.Price
		}
		if in.QuantityInStock != nil {
			updates["quantity_in_stock"] = *in.QuantityInStock
		}
		if in.SKU != nil {
			sku := normalizeSKU(in.SKU)
			if sku != nil {
				if err := ensureSKUFree(tx, *sku, id); err != nil {
					return err
				}
			}
			updates["sku"] = sku
		}
		if in.Category != nil {
			updates["category"] = trimmedOrNil(in.Category)
		}
		if in.MinimumStockLevel != nil {
			updates["minimum_stock_level"] = *in.MinimumStockLevel
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.SparePart{ID: id}).Updates(updates).Error; err != nil {
				if isUniqueViolation(err) && in.SKU != nil {
					return skuTaken(*normalizeSKU(in.SKU))
				}
				return fmt.Errorf("update spare part: %w", err)
			}
		}

		var err error
		part, err = getPart(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("spare part updated", zap.Uint("part_id", id))
	return part, nil
}

// AdjustStock applies a relative stock change. The change and the non-negative check
// happen in one conditional UPDATE, so concurrent adjustments cannot drive stock below zero.
func (s *InventoryService) AdjustStock(ctx context.Context, id uint, in StockAdjustment, actor models.Identity) (*models.SparePart, error) {
	if !actor.Can(models.PermAdjustStock) {
		return nil, forbidden("Not allowed to adjust stock")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var part *models.SparePart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SparePart{}).
			Where("id = ? AND quantity_in_stock + ? >= 0", id, in.QuantityChange).
			Update("quantity_in_stock", gorm.Expr("quantity_in_stock + ?", in.QuantityChange))
		if res.Error != nil {
			return fmt.Errorf("adjust stock: %w", res.Error)
		}

		current, err := getPart(tx, id)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return invalid("INSUFFICIENT_STOCK",
				"Insufficient stock. Current: %d, requested reduction: %d", current.QuantityInStock, -in.QuantityChange)
		}

		movement := models.StockMovement{
			SparePartID:    id,
			QuantityChange: in.QuantityChange,
			QuantityAfter:  current.QuantityInStock,
			Reason:         trimmedOrNil(in.Reason),
		}
		if actor.UserID != 0 {
			movement.PerformedByID = &actor.UserID
		}
		if err := tx.Omit(clause.Associations).Create(&movement).Error; err != nil {
			return fmt.Errorf("record stock movement: %w", err)
		}

		part = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	reason := ""
	if in.Reason != nil {
		reason = *in.Reason
	}
	s.log.Info("stock adjusted",
		zap.Uint("part_id", id),
		zap.Int("change", in.QuantityChange),
		zap.Int("quantity", part.QuantityInStock),
		zap.String("reason", reason),
	)
	if in.QuantityChange < 0 && part.IsLowStock() {
		s.log.Warn("spare part at or below minimum stock",
			zap.Uint("part_id", id),
			zap.String("name", part.Name),
			zap.Int("quantity", part.QuantityInStock),
			zap.Int("minimum", part.MinimumStockLevel),
		)
	}
	return part, nil
}

// GetLowStockAlerts lists active parts at or below their minimum level
func (s *InventoryService) GetLowStockAlerts(ctx context.Context, requester models.Identity) ([]models.LowStockAlert, error) {
	if !requester.Can(models.PermStockAlerts) {
		return nil, forbidden("Not allowed to read stock alerts")
	}

	var parts []models.SparePart
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND quantity_in_stock <= minimum_stock_level", true).
		Order("quantity_in_stock").Order("id").
		Find(&parts).Error
	if err != nil {
		return nil, fmt.Errorf("low stock alerts: %w", err)
	}

	alerts := make([]models.LowStockAlert, len(parts))
	for i, p := range parts {
		alerts[i] = models.LowStockAlert{
			SparePart:    p,
			CurrentStock: p.QuantityInStock,
			MinimumLevel: p.MinimumStockLevel,
			NeedsReorder: p.NeedsReorder(),
		}
	}
	return alerts, nil
}

// GetCategories returns the distinct categories of active parts, sorted
func (s *InventoryService) GetCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := s.db.WithContext(ctx).Model(&models.SparePart{}).
		Where("is_active = ? AND category IS NOT NULL AND category <> ''", true).
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// DeletePart deactivates a part. Parts are never physically removed.
func (s *InventoryService) DeletePart(ctx context.Context, id uint, actor models.Identity) error {
	if !actor.Can(models.PermWriteParts) {
		return forbidden("Admin privileges required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getPart(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&models.SparePart{ID: id}).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate spare part: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("spare part deactivated", zap.Uint("part_id", id))
	return nil
}

// ListStockMovements returns a part's stock ledger, newest first
func (s *InventoryService) ListStockMovements(ctx context.Context, partID uint) ([]models.StockMovement, error) {
	db := s.db.WithContext(ctx)
	if _, err := getPart(db, partID); err != nil {
		return nil, err
	}

	movements := []models.StockMovement{}
	err := db.Where("spare_part_id = ?", partID).
		Order("created_at DESC").Order("id DESC").
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return movements, nil
}

// QuickSearch matches active parts by name, description or SKU
func (s *InventoryService) QuickSearch(ctx context.Context, q string, limit int) ([]models.SparePart, error) {
	if strings.TrimSpace(q) == "" {
		return nil, invalid("VALIDATION_ERROR", "Search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	result, err := s.ListParts(ctx, PartFilters{Search: q}, Page{Limit: limit})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}
