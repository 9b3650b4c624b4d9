package services

import (
	"context"

	"gorm.io/gorm"

	"rbxmart_echo/internal/models"
)

// Bundle view helpers. Every display surface (history list, detail page,
// admin table, CSV export) computes totals through these functions and only
// these, so read-side math can never drift from what the pricing engine
// charged at checkout time.

// IsMultiCheckout reports whether other records share the record's gateway
// order id
func IsMultiCheckout(record models.Transaction, bundle []models.Transaction) bool {
	count := 0
	for _, row := range bundle {
		if row.GatewayOrderID == record.GatewayOrderID {
			count++
		}
	}
	return count > 1
}

// AllItems returns the full bundle with the given record first
func AllItems(record models.Transaction, bundle []models.Transaction) []models.Transaction {
	items := make([]models.Transaction, 0, len(bundle))
	items = append(items, record)
	for _, row := range bundle {
		if row.ID != record.ID {
			items = append(items, row)
		}
	}
	return items
}

// BundleGrandTotal is the amount the buyer was charged: the sum of final
// amounts plus the primary row's fee. It reproduces the grand total computed
// by PriceCart exactly.
func BundleGrandTotal(bundle []models.Transaction) int64 {
	var total int64
	for _, row := range bundle {
		total += row.FinalAmount
		if row.IsPrimary {
			total += row.PaymentFee
		}
	}
	return total
}

// BundleOriginalTotal is the pre-discount subtotal of the bundle
func BundleOriginalTotal(bundle []models.Transaction) int64 {
	var total int64
	for _, row := range bundle {
		total += row.TotalAmount
	}
	return total
}

// BundleTotalDiscount sums the apportioned per-item discounts
func BundleTotalDiscount(bundle []models.Transaction) int64 {
	var total int64
	for _, row := range bundle {
		total += row.DiscountAmount
	}
	return total
}

// BundleSubtotalAfterDiscount is subtotal minus discount, before fee
func BundleSubtotalAfterDiscount(bundle []models.Transaction) int64 {
	return BundleOriginalTotal(bundle) - BundleTotalDiscount(bundle)
}

// BundlePaymentFee returns the fee carried by the primary row
func BundlePaymentFee(bundle []models.Transaction) int64 {
	for _, row := range bundle {
		if row.IsPrimary {
			return row.PaymentFee
		}
	}
	return 0
}

// TransactionViewService loads bundles for the read helpers above
type TransactionViewService struct {
	db *gorm.DB
}

func NewTransactionViewService(db *gorm.DB) *TransactionViewService {
	return &TransactionViewService{db: db}
}

// LoadBundle fetches every row sharing the gateway order id in one query
func (s *TransactionViewService) LoadBundle(ctx context.Context, gatewayOrderID string) ([]models.Transaction, error) {
	var bundle []models.Transaction
	err := s.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		Order("id asc").
		Find(&bundle).Error
	if err != nil {
		return nil, err
	}
	if len(bundle) == 0 {
		return nil, ErrTransactionNotFound
	}
	return bundle, nil
}

// LoadBundleByInvoice resolves a single invoice to its whole bundle
func (s *TransactionViewService) LoadBundleByInvoice(ctx context.Context, invoiceID string) (models.Transaction, []models.Transaction, error) {
	var record models.Transaction
	err := s.db.WithContext(ctx).
		Preload("StatusLogs").
		Where("invoice_id = ?", invoiceID).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.Transaction{}, nil, ErrTransactionNotFound
		}
		return models.Transaction{}, nil, err
	}

	bundle, err := s.LoadBundle(ctx, record.GatewayOrderID)
	if err != nil {
		return models.Transaction{}, nil, err
	}
	return record, bundle, nil
}
