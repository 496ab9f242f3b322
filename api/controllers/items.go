package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aurumworks/jewelstore-backend/api/responses"
	"github.com/aurumworks/jewelstore-backend/api/validators"
	inventorysvc "github.com/aurumworks/jewelstore-backend/internal/inventory"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
)

// Money travels as decimal strings ("120.00"), never floats.
type createItemRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=200"`
	Description  string  `json:"description" validate:"max=2000"`
	CategoryID   string  `json:"category_id" validate:"required,uuid"`
	SupplierID   *string `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	CostPrice    string  `json:"cost_price" validate:"required"`
	SellingPrice string  `json:"selling_price" validate:"required"`
	Quantity     int     `json:"quantity" validate:"min=0"`
	WeightGrams  *string `json:"weight_grams,omitempty"`
	MetalType    string  `json:"metal_type" validate:"required"`
	Gemstone     string  `json:"gemstone" validate:"max=120"`
	PhotoKey     *string `json:"photo_key,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (r createItemRequest) toInput() (inventorysvc.CreateItemInput, error) {
	categoryID, err := uuid.Parse(r.CategoryID)
	if err != nil {
		return inventorysvc.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
	}
	var supplierID *uuid.UUID
	if r.SupplierID != nil {
		id, err := uuid.Parse(*r.SupplierID)
		if err != nil {
			return inventorysvc.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id")
		}
		supplierID = &id
	}

	costPrice, err := parseMoney(r.CostPrice, "cost_price")
	if err != nil {
		return inventorysvc.CreateItemInput{}, err
	}
	sellingPrice, err := parseMoney(r.SellingPrice, "selling_price")
	if err != nil {
		return inventorysvc.CreateItemInput{}, err
	}

	var weight *decimal.Decimal
	if r.WeightGrams != nil {
		parsed, err := parseMoney(*r.WeightGrams, "weight_grams")
		if err != nil {
			return inventorysvc.CreateItemInput{}, err
		}
		weight = &parsed
	}

	metalType, err := enums.ParseMetalType(strings.TrimSpace(r.MetalType))
	if err != nil {
		return inventorysvc.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid metal type")
	}

	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}

	return inventorysvc.CreateItemInput{
		Name:         validators.SanitizeString(r.Name, 200),
		Description:  validators.SanitizeString(r.Description, 2000),
		CategoryID:   categoryID,
		SupplierID:   supplierID,
		CostPrice:    costPrice,
		SellingPrice: sellingPrice,
		Quantity:     r.Quantity,
		WeightGrams:  weight,
		MetalType:    metalType,
		Gemstone:     validators.SanitizeString(r.Gemstone, 120),
		PhotoKey:     r.PhotoKey,
		IsActive:     isActive,
	}, nil
}

type updateItemRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	CategoryID    *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	SupplierID    *string `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	ClearSupplier bool    `json:"clear_supplier,omitempty"`
	CostPrice     *string `json:"cost_price,omitempty"`
	SellingPrice  *string `json:"selling_price,omitempty"`
	WeightGrams   *string `json:"weight_grams,omitempty"`
	MetalType     *string `json:"metal_type,omitempty"`
	Gemstone      *string `json:"gemstone,omitempty" validate:"omitempty,max=120"`
	PhotoKey      *string `json:"photo_key,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

func (r updateItemRequest) toInput() (inventorysvc.UpdateItemInput, error) {
	input := inventorysvc.UpdateItemInput{
		ClearSupplier: r.ClearSupplier,
		Gemstone:      r.Gemstone,
		PhotoKey:      r.PhotoKey,
		IsActive:      r.IsActive,
	}
	if r.Name != nil {
		name := validators.SanitizeString(*r.Name, 200)
		input.Name = &name
	}
	if r.Description != nil {
		description := validators.SanitizeString(*r.Description, 2000)
		input.Description = &description
	}
	if r.CategoryID != nil {
		id, err := uuid.Parse(*r.CategoryID)
		if err != nil {
			return inventorysvc.UpdateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.CategoryID = &id
	}
	if r.SupplierID != nil {
		id, err := uuid.Parse(*r.SupplierID)
		if err != nil {
			return inventorysvc.UpdateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id")
		}
		input.SupplierID = &id
	}
	if r.CostPrice != nil {
		price, err := parseMoney(*r.CostPrice, "cost_price")
		if err != nil {
			return inventorysvc.UpdateItemInput{}, err
		}
		input.CostPrice = &price
	}
	if r.SellingPrice != nil {
		price, err := parseMoney(*r.SellingPrice, "selling_price")
		if err != nil {
			return inventorysvc.UpdateItemInput{}, err
		}
		input.SellingPrice = &price
	}
	if r.WeightGrams != nil {
		weight, err := parseMoney(*r.WeightGrams, "weight_grams")
		if err != nil {
			return inventorysvc.UpdateItemInput{}, err
		}
		input.WeightGrams = &weight
	}
	if r.MetalType != nil {
		metalType, err := enums.ParseMetalType(strings.TrimSpace(*r.MetalType))
		if err != nil {
			return inventorysvc.UpdateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid metal type")
		}
		input.MetalType = &metalType
	}
	return input, nil
}

func ItemCreate(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func ItemGet(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ItemUpdate(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ItemDelete(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func ItemList(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := itemFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListItems(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, result.Items, result.NextCursor)
	}
}

// ItemBarcode streams the stored Code 128 PNG for the item.
func ItemBarcode(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		image, err := svc.GetItemBarcode(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(image); err != nil && logg != nil {
			logg.Warn(r.Context(), "failed to stream barcode image: "+err.Error())
		}
	}
}

func itemFilterFromQuery(r *http.Request) (inventorysvc.ItemFilter, error) {
	filter := inventorysvc.ItemFilter{
		Query:      validators.SanitizeString(r.URL.Query().Get("q"), 200),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}

	categoryID, err := validators.ParseQueryUUID(r, "category_id")
	if err != nil {
		return inventorysvc.ItemFilter{}, err
	}
	filter.CategoryID = categoryID

	supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
	if err != nil {
		return inventorysvc.ItemFilter{}, err
	}
	filter.SupplierID = supplierID

	if raw := strings.TrimSpace(r.URL.Query().Get("metal_type")); raw != "" {
		metalType, err := enums.ParseMetalType(raw)
		if err != nil {
			return inventorysvc.ItemFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid metal type")
		}
		filter.MetalType = &metalType
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("stock_status")); raw != "" {
		status, err := enums.ParseStockStatus(raw)
		if err != nil {
			return inventorysvc.ItemFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock status")
		}
		filter.StockStatus = &status
	}
	return filter, nil
}

// parseMoney parses a non-negative decimal string field.
func parseMoney(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "must be a decimal string").WithDetails(map[string]any{"field": field})
	}
	if value.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "must not be negative").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}
