package sale

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/domain/partner"
	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/middleware"
)

type partnerLookupStub struct {
	byOwner map[uuid.UUID]*partner.Partner
}

func (s *partnerLookupStub) GetByOwnerUserID(ctx context.Context, userID uuid.UUID) (*partner.Partner, error) {
	if p, ok := s.byOwner[userID]; ok {
		return p, nil
	}
	return nil, partner.ErrNotPartnerOwner
}

func postJSON(h *Handler, path, body string, userID uuid.UUID) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Mount("/sales", h.Routes())

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req = req.WithContext(middleware.WithIdentity(req.Context(), userID, "partner"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandlerConfirmCreated(t *testing.T) {
	w := newWorld()
	sub := w.addSubscriber(subscriber.StatusActive, 50, 0)
	p := w.addPartner(true)
	svc, _, _ := newTestService(w)
	owner := uuid.New()
	pp := w.partners[p]
	h := NewHandler(svc, &partnerLookupStub{byOwner: map[uuid.UUID]*partner.Partner{owner: &pp}})

	body := `{"subscriberId":"` + sub.String() + `","amount":100,"pointsUsed":50,"discount":0,"cashbackGenerated":5}`
	rr := postJSON(h, "/sales/confirm", body, owner)
	svc.Wait()

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var result SaleResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.TransactionID == uuid.Nil || !result.FinalAmount.Equal(dec("50")) || !result.CashbackGenerated.Equal(dec("5")) {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestHandlerConfirmBusinessRuleIs400(t *testing.T) {
	w := newWorld()
	sub := w.addSubscriber(subscriber.StatusActive, 10, 0)
	p := w.addPartner(true)
	svc, _, _ := newTestService(w)
	owner := uuid.New()
	pp := w.partners[p]
	h := NewHandler(svc, &partnerLookupStub{byOwner: map[uuid.UUID]*partner.Partner{owner: &pp}})

	body := `{"subscriberId":"` + sub.String() + `","amount":100,"pointsUsed":50}`
	rr := postJSON(h, "/sales/confirm", body, owner)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var errBody map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &errBody)
	if errBody["code"] != "INSUFFICIENT_POINTS" || errBody["error"] != "insufficient points" {
		t.Fatalf("unexpected error body %v", errBody)
	}
}

func TestHandlerConfirmUnknownSubscriberIs404(t *testing.T) {
	w := newWorld()
	p := w.addPartner(true)
	svc, _, _ := newTestService(w)
	owner := uuid.New()
	pp := w.partners[p]
	h := NewHandler(svc, &partnerLookupStub{byOwner: map[uuid.UUID]*partner.Partner{owner: &pp}})

	rr := postJSON(h, "/sales/confirm", `{"subscriberId":"`+uuid.NewString()+`","amount":10}`, owner)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHandlerConfirmRequiresPartnerAccount(t *testing.T) {
	svc, _, _ := newTestService(newWorld())
	h := NewHandler(svc, &partnerLookupStub{})

	rr := postJSON(h, "/sales/confirm", `{"amount":10}`, uuid.New())
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestHandlerConfirmRejectsUnknownFields(t *testing.T) {
	w := newWorld()
	p := w.addPartner(true)
	svc, _, _ := newTestService(w)
	owner := uuid.New()
	pp := w.partners[p]
	h := NewHandler(svc, &partnerLookupStub{byOwner: map[uuid.UUID]*partner.Partner{owner: &pp}})

	rr := postJSON(h, "/sales/confirm", `{"amount":10,"bonus":true}`, owner)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandlerRefund(t *testing.T) {
	w := newWorld()
	sub := w.addSubscriber(subscriber.StatusActive, 50, 0)
	p := w.addPartner(true)
	svc, _, _ := newTestService(w)
	owner := uuid.New()
	pp := w.partners[p]
	h := NewHandler(svc, &partnerLookupStub{byOwner: map[uuid.UUID]*partner.Partner{owner: &pp}})

	sale, err := svc.ConfirmSale(context.Background(), p, &ConfirmSaleRequest{SubscriberID: sub, Amount: dec("20"), PointsUsed: dec("20")})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	rr := postJSON(h, "/sales/"+sale.TransactionID.String()+"/refund", `{"reason":"cancelado"}`, owner)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = postJSON(h, "/sales/"+sale.TransactionID.String()+"/refund", ``, owner)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on second refund, got %d", rr.Code)
	}
	svc.Wait()
}
