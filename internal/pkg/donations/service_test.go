package donations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/vivahealthmed/foundation-site/app/models"
	"github.com/vivahealthmed/foundation-site/internal/pkg/hubtel"
	"github.com/vivahealthmed/foundation-site/internal/pkg/paystack"
)

// fakeRepository keeps donations in memory, keyed by payment reference.
type fakeRepository struct {
	donations map[string]*models.Donation
	logs      []models.PaymentLog

	failMarkPaid bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{donations: map[string]*models.Donation{}}
}

func (f *fakeRepository) CreateDonation(_ context.Context, d *models.Donation) error {
	f.donations[d.PaymentReference] = d
	return nil
}

func (f *fakeRepository) GetByReference(_ context.Context, reference string) (*models.Donation, error) {
	d, ok := f.donations[reference]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (f *fakeRepository) UpdateStatusByReference(_ context.Context, reference, status string) error {
	if d, ok := f.donations[reference]; ok {
		d.PaymentStatus = status
	}
	return nil
}

func (f *fakeRepository) MarkPaid(ctx context.Context, reference, invoiceID string) error {
	if f.failMarkPaid {
		return errors.New("db write failed")
	}
	return f.UpdateStatusByReference(ctx, reference, models.DonationStatusPaid)
}

func (f *fakeRepository) MarkFailed(ctx context.Context, reference, invoiceID string) error {
	return f.UpdateStatusByReference(ctx, reference, models.DonationStatusFailed)
}

func (f *fakeRepository) CancelBySubscriptionCode(_ context.Context, subscriptionCode string) error {
	for _, d := range f.donations {
		if d.SubscriptionCode == subscriptionCode {
			d.PaymentStatus = models.DonationStatusCancelled
		}
	}
	return nil
}

func (f *fakeRepository) ListAll(_ context.Context) ([]models.Donation, error) {
	var rows []models.Donation
	for _, d := range f.donations {
		rows = append(rows, *d)
	}
	return rows, nil
}

func (f *fakeRepository) ListRecent(ctx context.Context, limit int) ([]models.Donation, error) {
	return f.ListAll(ctx)
}

func (f *fakeRepository) AppendLog(_ context.Context, l *models.PaymentLog) error {
	f.logs = append(f.logs, *l)
	return nil
}

func (f *fakeRepository) ListLogsByReference(_ context.Context, reference string, limit int) ([]models.PaymentLog, error) {
	var rows []models.PaymentLog
	for _, l := range f.logs {
		if reference == "" || l.PaymentReference == reference {
			rows = append(rows, l)
		}
	}
	return rows, nil
}

func hubtelTestClient(serverURL string) *hubtel.Client {
	return &hubtel.Client{
		APIID:                 "id",
		APIKey:                "key",
		MerchantAccountNumber: "11684",
		CheckoutURL:           serverURL + "/items/initiate",
		StatusAPIURL:          serverURL + "/v1/merchantaccount",
		HTTPClient:            http.DefaultClient,
	}
}

func newTestService(repo Repository, hubtelClient *hubtel.Client, paystackClient *paystack.Client) *Service {
	svc := NewService(repo, hubtelClient, paystackClient)
	svc.sendReceipt = func(to, donorName, reference string, amount float64, currency string) error {
		return nil
	}
	return svc
}

func TestInitiateDonationValidation(t *testing.T) {
	svc := newTestService(newFakeRepository(), hubtelTestClient("http://localhost"), nil)

	_, err := svc.InitiateDonation(context.Background(), InitiateDonationInput{Amount: 0, Email: "a@b.com", ClientReference: "r"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for zero amount, got %v", err)
	}
	_, err = svc.InitiateDonation(context.Background(), InitiateDonationInput{Amount: 10, ClientReference: "r"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing email, got %v", err)
	}
	_, err = svc.InitiateDonation(context.Background(), InitiateDonationInput{Amount: 10, Email: "a@b.com"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing reference, got %v", err)
	}
}

func TestInitiateDonationSuccess(t *testing.T) {
	repo := newFakeRepository()
	var rowStatusAtGatewayCall string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d, ok := repo.donations["viva_1"]; ok {
			rowStatusAtGatewayCall = d.PaymentStatus
		}
		_, _ = w.Write([]byte(`{"responseCode": "0000", "data": {"checkoutUrl": "https://pay.hubtel.com/x", "checkoutId": "x"}}`))
	}))
	defer srv.Close()

	svc := newTestService(repo, hubtelTestClient(srv.URL), nil)
	result, err := svc.InitiateDonation(context.Background(), InitiateDonationInput{
		Amount:          50,
		Email:           "donor@example.com",
		ClientReference: "viva_1",
	})
	if err != nil {
		t.Fatalf("InitiateDonation returned error: %v", err)
	}
	if result.CheckoutURL != "https://pay.hubtel.com/x" {
		t.Fatalf("CheckoutURL = %q", result.CheckoutURL)
	}
	if rowStatusAtGatewayCall != models.DonationStatusPending {
		t.Fatalf("pending row must exist before the gateway call, saw status %q", rowStatusAtGatewayCall)
	}
	if repo.donations["viva_1"].DonorName != "Anonymous" {
		t.Fatalf("empty donor name must default to Anonymous, got %q", repo.donations["viva_1"].DonorName)
	}
	if len(repo.logs) != 2 {
		t.Fatalf("expected request and response audit logs, got %d", len(repo.logs))
	}
}

func TestInitiateDonationGatewayRejection(t *testing.T) {
	repo := newFakeRepository()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"responseCode": "4000", "message": "Invalid merchant account"}`))
	}))
	defer srv.Close()

	svc := newTestService(repo, hubtelTestClient(srv.URL), nil)
	_, err := svc.InitiateDonation(context.Background(), InitiateDonationInput{
		Amount:          50,
		Email:           "donor@example.com",
		ClientReference: "viva_2",
	})

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Diagnostic != "Invalid merchant account" {
		t.Fatalf("Diagnostic = %q", gwErr.Diagnostic)
	}
	if repo.donations["viva_2"].PaymentStatus != models.DonationStatusFailed {
		t.Fatalf("row must be flipped to failed, got %q", repo.donations["viva_2"].PaymentStatus)
	}
}

func TestApplyHubtelCallbackSuccess(t *testing.T) {
	repo := newFakeRepository()
	repo.donations["viva_3"] = &models.Donation{
		PaymentReference: "viva_3",
		Email:            "donor@example.com",
		PaymentStatus:    models.DonationStatusPending,
	}

	var receiptSentTo string
	svc := newTestService(repo, hubtelTestClient("http://localhost"), nil)
	svc.sendReceipt = func(to, donorName, reference string, amount float64, currency string) error {
		receiptSentTo = to
		return nil
	}

	ok, err := svc.ApplyHubtelCallback(context.Background(), &hubtel.Callback{
		ResponseCode:    hubtel.ResponseCodeSuccess,
		ClientReference: "viva_3",
		Status:          hubtel.StatusSuccess,
	})
	if err != nil {
		t.Fatalf("ApplyHubtelCallback returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected success outcome")
	}
	if repo.donations["viva_3"].PaymentStatus != models.DonationStatusPaid {
		t.Fatalf("status = %q, want paid", repo.donations["viva_3"].PaymentStatus)
	}
	if receiptSentTo != "donor@example.com" {
		t.Fatalf("receipt sent to %q", receiptSentTo)
	}
}

func TestApplyHubtelCallbackRepeatedDelivery(t *testing.T) {
	repo := newFakeRepository()
	repo.donations["viva_8"] = &models.Donation{
		PaymentReference: "viva_8",
		Email:            "donor@example.com",
		PaymentStatus:    models.DonationStatusPending,
	}

	svc := newTestService(repo, hubtelTestClient("http://localhost"), nil)
	cb := &hubtel.Callback{
		ResponseCode:    hubtel.ResponseCodeSuccess,
		ClientReference: "viva_8",
		Status:          hubtel.StatusSuccess,
	}

	if _, err := svc.ApplyHubtelCallback(context.Background(), cb); err != nil {
		t.Fatalf("first delivery returned error: %v", err)
	}
	ok, err := svc.ApplyHubtelCallback(context.Background(), cb)
	if err != nil {
		t.Fatalf("redelivered callback returned error: %v", err)
	}
	if !ok {
		t.Fatalf("redelivered callback must still report success")
	}
	if repo.donations["viva_8"].PaymentStatus != models.DonationStatusPaid {
		t.Fatalf("status after redelivery = %q, want paid", repo.donations["viva_8"].PaymentStatus)
	}
}

func TestApplyHubtelCallbackSuccessUpdateFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.failMarkPaid = true

	svc := newTestService(repo, hubtelTestClient("http://localhost"), nil)
	_, err := svc.ApplyHubtelCallback(context.Background(), &hubtel.Callback{
		ResponseCode:    hubtel.ResponseCodeSuccess,
		ClientReference: "viva_4",
		Status:          hubtel.StatusSuccess,
	})
	if err == nil {
		t.Fatalf("success-path update failure must surface so the gateway redelivers")
	}
}

func TestApplyHubtelCallbackFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.donations["viva_5"] = &models.Donation{
		PaymentReference: "viva_5",
		PaymentStatus:    models.DonationStatusPending,
	}

	svc := newTestService(repo, hubtelTestClient("http://localhost"), nil)
	ok, err := svc.ApplyHubtelCallback(context.Background(), &hubtel.Callback{
		ResponseCode:    "2001",
		ClientReference: "viva_5",
		Status:          hubtel.StatusFailed,
	})
	if err != nil {
		t.Fatalf("failed payment is a terminal outcome, not an error: %v", err)
	}
	if ok {
		t.Fatalf("expected failure outcome")
	}
	if repo.donations["viva_5"].PaymentStatus != models.DonationStatusFailed {
		t.Fatalf("status = %q, want failed", repo.donations["viva_5"].PaymentStatus)
	}
}

func TestVerifyPaymentPendingAtGateway(t *testing.T) {
	repo := newFakeRepository()
	repo.donations["viva_6"] = &models.Donation{PaymentReference: "viva_6", PaymentStatus: models.DonationStatusPending}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ResponseCode": "4040", "Data": []}`))
	}))
	defer srv.Close()

	svc := newTestService(repo, hubtelTestClient(srv.URL), nil)
	result, err := svc.VerifyPayment(context.Background(), "viva_6")
	if err != nil {
		t.Fatalf("VerifyPayment returned error: %v", err)
	}
	if result.Status != "pending" {
		t.Fatalf("Status = %q, want pending", result.Status)
	}
	if repo.donations["viva_6"].PaymentStatus != models.DonationStatusPending {
		t.Fatalf("unknown gateway reference must not touch local state")
	}
}

func TestVerifyPaymentSuccess(t *testing.T) {
	repo := newFakeRepository()
	repo.donations["viva_7"] = &models.Donation{PaymentReference: "viva_7", PaymentStatus: models.DonationStatusPending}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ResponseCode": "0000", "Data": [{"TransactionStatus": "Success", "TransactionId": "tx_9"}]}`))
	}))
	defer srv.Close()

	svc := newTestService(repo, hubtelTestClient(srv.URL), nil)
	result, err := svc.VerifyPayment(context.Background(), "viva_7")
	if err != nil {
		t.Fatalf("VerifyPayment returned error: %v", err)
	}
	if result.Status != "success" || result.TransactionID != "tx_9" {
		t.Fatalf("result = %+v", result)
	}
	if repo.donations["viva_7"].PaymentStatus != models.DonationStatusPaid {
		t.Fatalf("status = %q, want paid", repo.donations["viva_7"].PaymentStatus)
	}
}

func TestVerifyPaymentLocalRowMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ResponseCode": "0000", "Data": [{"TransactionStatus": "Success", "TransactionId": "tx_1"}]}`))
	}))
	defer srv.Close()

	svc := newTestService(newFakeRepository(), hubtelTestClient(srv.URL), nil)
	_, err := svc.VerifyPayment(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyPaymentEmptyReference(t *testing.T) {
	svc := newTestService(newFakeRepository(), hubtelTestClient("http://localhost"), nil)
	if _, err := svc.VerifyPayment(context.Background(), " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestHandlePaystackChargeSuccessInsertsRow(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, hubtelTestClient("http://localhost"), nil)

	raw := []byte(`{"event": "charge.success"}`)
	ev := &paystack.Event{
		Event: paystack.EventChargeSuccess,
		Data: paystack.EventData{
			Reference: "ps_ref_1",
			Amount:    5000,
			Currency:  "GHS",
			Customer:  paystack.Customer{Email: "donor@example.com"},
			Plan:      paystack.PlanInfo{PlanCode: "PLN_1"},
			Metadata: paystack.Metadata{CustomFields: []paystack.CustomField{
				{VariableName: "donor_name", Value: "Ama Mensah"},
				{VariableName: "donation_type", Value: models.DonationTypeRecurring},
			}},
		},
	}

	if err := svc.HandlePaystackEvent(context.Background(), ev, raw); err != nil {
		t.Fatalf("HandlePaystackEvent returned error: %v", err)
	}

	d, ok := repo.donations["ps_ref_1"]
	if !ok {
		t.Fatalf("expected a donation row for the charge")
	}
	if d.PaymentStatus != models.DonationStatusSuccessful {
		t.Fatalf("status = %q, want successful", d.PaymentStatus)
	}
	if d.Amount != 50 {
		t.Fatalf("Amount = %v, want 50 (major units)", d.Amount)
	}
	if d.DonorName != "Ama Mensah" || d.DonationType != models.DonationTypeRecurring {
		t.Fatalf("metadata not applied: %+v", d)
	}
	if len(repo.logs) != 1 || repo.logs[0].LogType != models.PaymentLogWebhookEvent {
		t.Fatalf("expected one webhook audit log, got %+v", repo.logs)
	}
}

func TestHandlePaystackChargeSuccessDefaults(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, hubtelTestClient("http://localhost"), nil)

	ev := &paystack.Event{
		Event: paystack.EventChargeSuccess,
		Data:  paystack.EventData{Reference: "ps_ref_2", Amount: 1000},
	}
	if err := svc.HandlePaystackEvent(context.Background(), ev, []byte(`{}`)); err != nil {
		t.Fatalf("HandlePaystackEvent returned error: %v", err)
	}

	d := repo.donations["ps_ref_2"]
	if d.DonorName != "Anonymous" {
		t.Fatalf("DonorName = %q, want Anonymous", d.DonorName)
	}
	if d.Email != "unknown@email.com" {
		t.Fatalf("Email = %q, want placeholder", d.Email)
	}
	if d.DonationType != models.DonationTypeOneTime {
		t.Fatalf("DonationType = %q, want one-time default", d.DonationType)
	}
}

func TestHandlePaystackSubscriptionNotRenew(t *testing.T) {
	repo := newFakeRepository()
	repo.donations["ps_ref_3"] = &models.Donation{
		PaymentReference: "ps_ref_3",
		SubscriptionCode: "SUB_1",
		PaymentStatus:    models.DonationStatusSuccessful,
	}

	svc := newTestService(repo, hubtelTestClient("http://localhost"), nil)
	ev := &paystack.Event{
		Event: paystack.EventSubscriptionNotRenew,
		Data:  paystack.EventData{SubscriptionCode: "SUB_1"},
	}
	if err := svc.HandlePaystackEvent(context.Background(), ev, []byte(`{}`)); err != nil {
		t.Fatalf("HandlePaystackEvent returned error: %v", err)
	}
	if repo.donations["ps_ref_3"].PaymentStatus != models.DonationStatusCancelled {
		t.Fatalf("status = %q, want cancelled", repo.donations["ps_ref_3"].PaymentStatus)
	}
}

func TestHandlePaystackUnknownEventAcknowledged(t *testing.T) {
	svc := newTestService(newFakeRepository(), hubtelTestClient("http://localhost"), nil)
	ev := &paystack.Event{Event: "customer.identification.success"}
	if err := svc.HandlePaystackEvent(context.Background(), ev, []byte(`{}`)); err != nil {
		t.Fatalf("unknown events must be acknowledged, got %v", err)
	}
}

func TestCreateSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/plan/"):
			_, _ = w.Write([]byte(`{"status": true, "data": {"plan_code": "PLN_50m", "amount": 5000, "interval": "monthly"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/transaction/initialize":
			var req paystack.TransactionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode transaction request: %v", err)
			}
			if req.Plan != "PLN_50m" {
				t.Fatalf("transaction not bound to plan: %q", req.Plan)
			}
			if req.Amount != 5000 {
				t.Fatalf("Amount = %d, want minor units 5000", req.Amount)
			}
			if !strings.HasPrefix(req.Reference, "viva_sub_") {
				t.Fatalf("Reference = %q, want viva_sub_ prefix", req.Reference)
			}
			_, _ = w.Write([]byte(`{"status": true, "data": {"authorization_url": "https://checkout.paystack.com/q", "access_code": "q", "reference": "` + req.Reference + `"}}`))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	paystackClient := &paystack.Client{SecretKey: "sk_test", APIBaseURL: srv.URL, HTTPClient: http.DefaultClient}
	svc := newTestService(newFakeRepository(), hubtelTestClient("http://localhost"), paystackClient)

	result, err := svc.CreateSubscription(context.Background(), CreateSubscriptionInput{
		Email:  "donor@example.com",
		Amount: 50,
	})
	if err != nil {
		t.Fatalf("CreateSubscription returned error: %v", err)
	}
	if result.AuthorizationURL != "https://checkout.paystack.com/q" {
		t.Fatalf("AuthorizationURL = %q", result.AuthorizationURL)
	}
	if result.PlanCode != "PLN_50m" {
		t.Fatalf("PlanCode = %q", result.PlanCode)
	}
}

func TestCreateSubscriptionValidation(t *testing.T) {
	svc := newTestService(newFakeRepository(), hubtelTestClient("http://localhost"), nil)
	if _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionInput{Amount: 10}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing email, got %v", err)
	}
	if _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionInput{Email: "a@b.com"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing amount, got %v", err)
	}
}
