package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/types"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Data["hello"] != "world" {
		t.Fatalf("unexpected payload %+v", envelope)
	}
}

func TestWriteErrorMapsTypedCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found keeps message",
			err:        pkgerrors.New(pkgerrors.CodeNotFound, "cart not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "insufficient stock",
			err:        pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock"),
			wantStatus: http.StatusConflict,
			wantCode:   "INSUFFICIENT_STOCK",
		},
		{
			name:       "cart validation",
			err:        pkgerrors.New(pkgerrors.CodeCartValidation, "cart failed validation"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "CART_VALIDATION_FAILED",
		},
		{
			name:       "checkout failed",
			err:        pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, errors.New("boom"), "submit sale"),
			wantStatus: http.StatusBadGateway,
			wantCode:   "CHECKOUT_FAILED",
		},
		{
			name:       "untyped error becomes internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			var envelope types.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("expected code %s, got %s", tc.wantCode, envelope.Error.Code)
			}
		})
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "secret database detail"))

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Error.Message == "secret database detail" {
		t.Fatal("internal error message must not leak")
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("expected public message, got %q", envelope.Error.Message)
	}
}

func TestWriteErrorIncludesAllowedDetails(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").
		WithDetails(map[string]any{"product_id": "p1", "available": 2})
	WriteError(context.Background(), nil, rec, err)

	var envelope struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Error.Details["product_id"] != "p1" {
		t.Fatalf("expected details passed through, got %+v", envelope.Error.Details)
	}
}
