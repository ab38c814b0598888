package donations

import (
	"context"
	"time"

	"github.com/vivahealthmed/foundation-site/app/models"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the donation service.
type Repository interface {
	CreateDonation(ctx context.Context, d *models.Donation) error
	GetByReference(ctx context.Context, reference string) (*models.Donation, error)
	UpdateStatusByReference(ctx context.Context, reference, status string) error
	MarkPaid(ctx context.Context, reference, invoiceID string) error
	MarkFailed(ctx context.Context, reference, invoiceID string) error
	CancelBySubscriptionCode(ctx context.Context, subscriptionCode string) error
	ListAll(ctx context.Context) ([]models.Donation, error)
	ListRecent(ctx context.Context, limit int) ([]models.Donation, error)
	AppendLog(ctx context.Context, l *models.PaymentLog) error
	ListLogsByReference(ctx context.Context, reference string, limit int) ([]models.PaymentLog, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a donation repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateDonation(ctx context.Context, d *models.Donation) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *gormRepository) GetByReference(ctx context.Context, reference string) (*models.Donation, error) {
	var d models.Donation
	err := r.db.WithContext(ctx).Where("payment_reference = ?", reference).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Status updates are keyed by payment_reference, never by internal id.
// Re-applying the same terminal status is a no-op update, which keeps
// repeated callback deliveries idempotent.
func (r *gormRepository) UpdateStatusByReference(ctx context.Context, reference, status string) error {
	return r.statusUpdate(ctx, reference, status, "")
}

func (r *gormRepository) MarkPaid(ctx context.Context, reference, invoiceID string) error {
	return r.statusUpdate(ctx, reference, models.DonationStatusPaid, invoiceID)
}

func (r *gormRepository) MarkFailed(ctx context.Context, reference, invoiceID string) error {
	return r.statusUpdate(ctx, reference, models.DonationStatusFailed, invoiceID)
}

func (r *gormRepository) statusUpdate(ctx context.Context, reference, status, invoiceID string) error {
	updates := map[string]interface{}{
		"payment_status": status,
		"updated_at":     time.Now(),
	}
	if invoiceID != "" {
		updates["hubtel_invoice_id"] = invoiceID
	}
	return r.db.WithContext(ctx).Model(&models.Donation{}).
		Where("payment_reference = ?", reference).
		Updates(updates).Error
}

func (r *gormRepository) CancelBySubscriptionCode(ctx context.Context, subscriptionCode string) error {
	return r.db.WithContext(ctx).Model(&models.Donation{}).
		Where("subscription_code = ?", subscriptionCode).
		Updates(map[string]interface{}{
			"payment_status": models.DonationStatusCancelled,
			"updated_at":     time.Now(),
		}).Error
}

func (r *gormRepository) ListAll(ctx context.Context) ([]models.Donation, error) {
	var rows []models.Donation
	err := r.db.WithContext(ctx).Find(&rows).Error
	return rows, err
}

func (r *gormRepository) ListRecent(ctx context.Context, limit int) ([]models.Donation, error) {
	var rows []models.Donation
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *gormRepository) AppendLog(ctx context.Context, l *models.PaymentLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *gormRepository) ListLogsByReference(ctx context.Context, reference string, limit int) ([]models.PaymentLog, error) {
	var rows []models.PaymentLog
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if reference != "" {
		q = q.Where("payment_reference = ?", reference)
	}
	err := q.Find(&rows).Error
	return rows, err
}
