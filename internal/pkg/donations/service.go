package donations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vivahealthmed/foundation-site/app/models"
	"github.com/vivahealthmed/foundation-site/internal/pkg/env"
	"github.com/vivahealthmed/foundation-site/internal/pkg/hubtel"
	"github.com/vivahealthmed/foundation-site/internal/pkg/mail"
	"github.com/vivahealthmed/foundation-site/internal/pkg/paystack"
)

// ErrValidation marks caller input errors; handlers map it to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrNotFound marks a missing local donation row; handlers map it to 404.
var ErrNotFound = errors.New("donation not found")

// GatewayError wraps an upstream payment-gateway failure and carries the
// provider diagnostic so handlers can attach it to the response.
type GatewayError struct {
	Diagnostic string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway error: %v", e.Err)
	}
	return "gateway error: " + e.Diagnostic
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Service orchestrates the donation lifecycle against both payment
// providers. The Hubtel flow pre-creates pending rows and updates them by
// reference; the Paystack webhook flow inserts completed rows. The two
// lifecycles are intentionally kept apart.
type Service struct {
	repo     Repository
	hubtel   *hubtel.Client
	paystack *paystack.Client

	currency    string
	callbackURL string
	returnURL   string
	cancelURL   string

	// sendReceipt is swappable in tests; failures are always best-effort.
	sendReceipt func(to, donorName, reference string, amount float64, currency string) error
}

// NewService creates a donation service from injected dependencies.
func NewService(repo Repository, hubtelClient *hubtel.Client, paystackClient *paystack.Client) *Service {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "https://vivahealthmedfoundation.org"), "/")
	return &Service{
		repo:        repo,
		hubtel:      hubtelClient,
		paystack:    paystackClient,
		currency:    env.GetEnv("DONATION_CURRENCY", "GHS"),
		callbackURL: env.GetEnv("HUBTEL_CALLBACK_URL", base+"/api/v1/donations/hubtel/callback"),
		returnURL:   env.GetEnv("DONATION_RETURN_URL", base+"/donate?payment=success"),
		cancelURL:   env.GetEnv("DONATION_CANCEL_URL", base+"/donate?payment=cancelled"),
		sendReceipt: mail.SendDonationReceipt,
	}
}

// NewServiceFromDB creates a donation service wired to the env-configured
// gateway clients.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), hubtel.NewClientFromEnv(), paystack.NewClientFromEnv())
}

// InitiateDonationInput is the intake request for the Hubtel checkout flow.
type InitiateDonationInput struct {
	Amount          float64
	Description     string
	ClientReference string
	Email           string
	DonorName       string
	Phone           string
}

// InitiateDonationResult carries the checkout handle back to the caller.
type InitiateDonationResult struct {
	CheckoutURL     string `json:"checkoutUrl"`
	CheckoutID      string `json:"checkoutId"`
	ClientReference string `json:"clientReference"`
}

// InitiateDonation validates the intake request, records a pending donation
// row, then asks Hubtel for a checkout URL. The pending row is written
// before the gateway call so a row exists even if the call fails; any
// gateway failure flips it to failed rather than leaving it stuck pending.
func (s *Service) InitiateDonation(ctx context.Context, in InitiateDonationInput) (*InitiateDonationResult, error) {
	if in.Amount <= 0 || strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.ClientReference) == "" {
		return nil, fmt.Errorf("%w: amount, email, and clientReference are required", ErrValidation)
	}

	reference := strings.TrimSpace(in.ClientReference)
	donorName := strings.TrimSpace(in.DonorName)
	if donorName == "" {
		donorName = "Anonymous"
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = "Donation to Viva Health Medical Foundation"
	}

	donation := &models.Donation{
		DonorName:        donorName,
		Email:            strings.TrimSpace(in.Email),
		Phone:            strings.TrimSpace(in.Phone),
		Amount:           in.Amount,
		Currency:         s.currency,
		DonationType:     models.DonationTypeOneTime,
		PaymentReference: reference,
		PaymentStatus:    models.DonationStatusPending,
	}
	if err := s.repo.CreateDonation(ctx, donation); err != nil {
		return nil, fmt.Errorf("failed to create pending donation: %w", err)
	}

	req := hubtel.InitiateRequest{
		TotalAmount:           in.Amount,
		Description:           description,
		CallbackURL:           s.callbackURL,
		ReturnURL:             s.returnURL,
		CancellationURL:       s.cancelURL,
		MerchantAccountNumber: s.hubtel.MerchantAccountNumber,
		ClientReference:       reference,
	}
	s.appendLog(ctx, &models.PaymentLog{
		PaymentReference: reference,
		LogType:          models.PaymentLogInitiateRequest,
		RequestData:      mustJSON(req),
	})

	result, err := s.hubtel.Initiate(ctx, req)
	if err != nil {
		s.markFailed(ctx, reference, "")
		s.appendLog(ctx, &models.PaymentLog{
			PaymentReference: reference,
			LogType:          models.PaymentLogInitiateResponse,
			ErrorMessage:     err.Error(),
		})
		return nil, &GatewayError{Err: err}
	}

	logEntry := &models.PaymentLog{
		PaymentReference: reference,
		LogType:          models.PaymentLogInitiateResponse,
		ResponseData:     string(result.RawBody),
		StatusCode:       result.StatusCode,
	}
	if !result.OK() {
		logEntry.ErrorMessage = result.Diagnostic()
	}
	s.appendLog(ctx, logEntry)

	if !result.OK() {
		s.markFailed(ctx, reference, "")
		return nil, &GatewayError{Diagnostic: result.Diagnostic()}
	}

	return &InitiateDonationResult{
		CheckoutURL:     result.CheckoutURL,
		CheckoutID:      result.CheckoutID,
		ClientReference: reference,
	}, nil
}

// ApplyHubtelCallback applies a normalized gateway callback to the local
// donation row. It returns whether the payment succeeded. A local update
// failure on the success path is returned so the handler can answer non-2xx
// and let the gateway redeliver; on the failure path the payment outcome is
// terminal either way, so update errors are logged and swallowed.
func (s *Service) ApplyHubtelCallback(ctx context.Context, cb *hubtel.Callback) (bool, error) {
	if cb.Successful() {
		if err := s.repo.MarkPaid(ctx, cb.ClientReference, ""); err != nil {
			return true, fmt.Errorf("failed to update donation %s: %w", cb.ClientReference, err)
		}
		log.Printf("Donation %s marked as paid (invoice %s, amount %.2f)", cb.ClientReference, cb.SalesInvoiceID, cb.Amount)
		s.sendReceiptFor(ctx, cb.ClientReference)
		return true, nil
	}

	log.Printf("Payment failed for %s: %s", cb.ClientReference, cb.Status)
	if err := s.repo.MarkFailed(ctx, cb.ClientReference, ""); err != nil {
		log.Printf("Failed to update donation %s to failed: %v", cb.ClientReference, err)
	}
	return false, nil
}

func (s *Service) sendReceiptFor(ctx context.Context, reference string) {
	donation, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		log.Printf("Receipt skipped, donation %s not readable: %v", reference, err)
		return
	}
	if err := s.sendReceipt(donation.Email, donation.DonorName, reference, donation.Amount, donation.Currency); err != nil {
		log.Printf("Receipt email for %s failed: %v", reference, err)
	}
}

// VerifyResult is the status summary returned by on-demand reconciliation.
type VerifyResult struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	TransactionID string `json:"transactionId,omitempty"`
}

// VerifyPayment asks Hubtel for the transaction status of a reference and
// syncs the local row. Unlike the callback path this is pull-based; it is
// used by the admin view and as a callback fallback. A reference the
// gateway does not know yet is reported as pending without touching local
// state.
func (s *Service) VerifyPayment(ctx context.Context, clientReference string) (*VerifyResult, error) {
	reference := strings.TrimSpace(clientReference)
	if reference == "" {
		return nil, fmt.Errorf("%w: clientReference is required", ErrValidation)
	}

	result, err := s.hubtel.TransactionStatus(ctx, reference)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}

	s.appendLog(ctx, &models.PaymentLog{
		PaymentReference: reference,
		LogType:          models.PaymentLogVerification,
		ResponseData:     string(result.RawBody),
		StatusCode:       result.StatusCode,
	})

	if !result.Found() {
		return &VerifyResult{
			Status:  "pending",
			Message: "Transaction not found or is still pending on Hubtel.",
		}, nil
	}

	tx := result.Transactions[0]

	if _, err := s.repo.GetByReference(ctx, reference); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	switch tx.TransactionStatus {
	case hubtel.StatusSuccess:
		if err := s.repo.MarkPaid(ctx, reference, tx.TransactionID); err != nil {
			log.Printf("Error updating donation %s after verify: %v", reference, err)
		}
		return &VerifyResult{
			Status:        "success",
			Message:       "Payment verified and updated successfully.",
			TransactionID: tx.TransactionID,
		}, nil
	case hubtel.StatusFailed:
		if err := s.repo.MarkFailed(ctx, reference, tx.TransactionID); err != nil {
			log.Printf("Error updating donation %s after verify: %v", reference, err)
		}
		return &VerifyResult{
			Status:  "failed",
			Message: "Payment failed. Status updated.",
		}, nil
	default:
		return &VerifyResult{
			Status:  "pending",
			Message: fmt.Sprintf("Payment status is '%s'.", tx.TransactionStatus),
		}, nil
	}
}

// HandlePaystackEvent dispatches a verified webhook event. Unrecognized
// event types are logged and acknowledged; Paystack requires a 200 for any
// delivered event or it retries.
func (s *Service) HandlePaystackEvent(ctx context.Context, ev *paystack.Event, rawBody []byte) error {
	s.appendLog(ctx, &models.PaymentLog{
		PaymentReference: ev.Data.Reference,
		LogType:          models.PaymentLogWebhookEvent,
		RequestData:      string(rawBody),
	})

	switch ev.Event {
	case paystack.EventChargeSuccess:
		s.recordChargeSuccess(ctx, ev)
	case paystack.EventSubscriptionCreate:
		log.Printf("New subscription created: code=%s email=%s plan=%s",
			ev.Data.SubscriptionCode, ev.Data.Customer.Email, ev.Data.Plan.Name)
	case paystack.EventSubscriptionNotRenew:
		log.Printf("Subscription cancelled: code=%s email=%s", ev.Data.SubscriptionCode, ev.Data.Customer.Email)
		if err := s.repo.CancelBySubscriptionCode(ctx, ev.Data.SubscriptionCode); err != nil {
			log.Printf("Error cancelling donations for subscription %s: %v", ev.Data.SubscriptionCode, err)
		}
	case paystack.EventSubscriptionDisable:
		log.Printf("Subscription disabled: code=%s", ev.Data.SubscriptionCode)
	case paystack.EventInvoiceFailed:
		log.Printf("Invoice payment failed: reference=%s email=%s", ev.Data.Reference, ev.Data.Customer.Email)
	case paystack.EventTransferSuccess, paystack.EventTransferFailed:
		log.Printf("Transfer event %s: reference=%s", ev.Event, ev.Data.Reference)
	default:
		log.Printf("Unhandled Paystack event type: %s", ev.Event)
	}
	return nil
}

// recordChargeSuccess inserts a completed donation row. This provider's
// flow has no pre-created pending row, so this path inserts rather than
// updates.
func (s *Service) recordChargeSuccess(ctx context.Context, ev *paystack.Event) {
	donorName := ev.Data.Metadata.Field("donor_name")
	if donorName == "" {
		donorName = "Anonymous"
	}
	donationType := ev.Data.Metadata.Field("donation_type")
	if donationType == "" {
		donationType = models.DonationTypeOneTime
	}
	email := strings.TrimSpace(ev.Data.Customer.Email)
	if email == "" {
		email = "unknown@email.com"
	}
	currency := ev.Data.Currency
	if currency == "" {
		currency = s.currency
	}

	donation := &models.Donation{
		DonorName:        donorName,
		Email:            email,
		Phone:            ev.Data.Metadata.Field("phone"),
		Amount:           ev.Data.AmountMajor(),
		Currency:         currency,
		DonationType:     donationType,
		SubscriptionCode: ev.Data.Plan.PlanCode,
		PaymentReference: ev.Data.Reference,
		PaymentStatus:    models.DonationStatusSuccessful,
	}
	if err := s.repo.CreateDonation(ctx, donation); err != nil {
		log.Printf("Error inserting donation for charge %s: %v", ev.Data.Reference, err)
		return
	}
	log.Printf("Donation recorded for charge %s (%s %.2f)", ev.Data.Reference, donation.Currency, donation.Amount)
}

// CreateSubscriptionInput is the request for the recurring-giving flow.
type CreateSubscriptionInput struct {
	Email    string
	Amount   float64
	Name     string
	Phone    string
	Interval string
}

// SubscriptionResult carries the hosted authorization handle and the plan
// the transaction was bound to.
type SubscriptionResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
	PlanCode         string `json:"plan_code"`
}

// CreateSubscription resolves the recurring plan for amount+interval
// (get-or-create with one conflict retry) and initializes a transaction
// bound to it.
func (s *Service) CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (*SubscriptionResult, error) {
	if strings.TrimSpace(in.Email) == "" || in.Amount <= 0 {
		return nil, fmt.Errorf("%w: email and amount are required", ErrValidation)
	}

	interval := strings.ToLower(strings.TrimSpace(in.Interval))
	if interval == "" {
		interval = "monthly"
	}

	plan, err := s.paystack.ResolvePlan(ctx, in.Amount, interval, s.currency)
	if err != nil {
		return nil, wrapGatewayError("failed to create subscription plan", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Anonymous"
	}
	reference := fmt.Sprintf("viva_sub_%d_%s", time.Now().Unix(), uuid.NewString()[:8])

	tx, err := s.paystack.InitializeTransaction(ctx, paystack.TransactionRequest{
		Email:     strings.TrimSpace(in.Email),
		Amount:    paystack.MinorUnits(in.Amount),
		Currency:  s.currency,
		Reference: reference,
		Plan:      plan.PlanCode,
		Metadata: &paystack.Metadata{
			CustomFields: []paystack.CustomField{
				{DisplayName: "Donor Name", VariableName: "donor_name", Value: name},
				{DisplayName: "Donation Type", VariableName: "donation_type", Value: models.DonationTypeRecurring},
				{DisplayName: "Phone Number", VariableName: "phone", Value: strings.TrimSpace(in.Phone)},
			},
		},
	})
	if err != nil {
		return nil, wrapGatewayError("failed to initialize subscription", err)
	}

	return &SubscriptionResult{
		AuthorizationURL: tx.AuthorizationURL,
		AccessCode:       tx.AccessCode,
		Reference:        tx.Reference,
		PlanCode:         plan.PlanCode,
	}, nil
}

// Metrics aggregates all stored donation rows.
func (s *Service) Metrics(ctx context.Context) (*Metrics, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	m := ComputeMetrics(rows)
	return &m, nil
}

// RecentDonations returns the newest donation rows for the admin view.
func (s *Service) RecentDonations(ctx context.Context, limit int) ([]models.Donation, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListRecent(ctx, limit)
}

// PaymentLogs returns audit entries, optionally filtered by reference.
func (s *Service) PaymentLogs(ctx context.Context, reference string, limit int) ([]models.PaymentLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListLogsByReference(ctx, strings.TrimSpace(reference), limit)
}

func (s *Service) markFailed(ctx context.Context, reference, invoiceID string) {
	if err := s.repo.MarkFailed(ctx, reference, invoiceID); err != nil {
		log.Printf("Failed to mark donation %s as failed: %v", reference, err)
	}
}

// appendLog writes an audit row; audit failures never affect control flow.
func (s *Service) appendLog(ctx context.Context, l *models.PaymentLog) {
	if err := s.repo.AppendLog(ctx, l); err != nil {
		log.Printf("Payment log write failed (%s/%s): %v", l.PaymentReference, l.LogType, err)
	}
}

func wrapGatewayError(context string, err error) error {
	var apiErr *paystack.APIError
	if errors.As(err, &apiErr) {
		return &GatewayError{Diagnostic: apiErr.Message, Err: fmt.Errorf("%s: %w", context, err)}
	}
	return &GatewayError{Err: fmt.Errorf("%s: %w", context, err)}
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
