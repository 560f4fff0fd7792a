package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_GetPaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "sk_test", user)
		require.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pi_1","amount":4000,"currency":"gbp","status":"succeeded","metadata":{"order_id":"ord_A"}}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{SecretKey: "sk_test", APIBase: srv.URL})
	pi, err := c.GetPaymentIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	require.Equal(t, "GBP", pi.Currency)
	require.Equal(t, "ord_A", pi.Metadata.OrderRef())
}

func TestClient_CreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "payment", r.PostForm.Get("mode"))
		require.Equal(t, "gbp", r.PostForm.Get("line_items[0][price_data][currency]"))
		require.Equal(t, "145", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		require.Equal(t, "ord_A", r.PostForm.Get("metadata[order_id]"))
		require.Equal(t, "ord_A", r.PostForm.Get("payment_intent_data[metadata][order_id]"))
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://checkout.example/cs_1"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{SecretKey: "sk_test", APIBase: srv.URL})
	s, err := c.CreateCheckoutSession(context.Background(), &CheckoutSessionParams{
		Currency:  "GBP",
		LineItems: []CheckoutLineItem{{Name: "Petrol", Quantity: 10, UnitPrice: 145}},
		Metadata:  map[string]string{"order_id": "ord_A"},
	})
	require.NoError(t, err)
	require.Equal(t, "cs_1", s.ID)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(ClientOptions{SecretKey: "sk_test", APIBase: srv.URL}).GetPaymentIntent(context.Background(), "pi_x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "resource_missing", apiErr.Code)

	_, err = NewClient(ClientOptions{APIBase: srv.URL}).GetPaymentIntent(context.Background(), "pi_x")
	require.ErrorIs(t, err, ErrNotConfigured)
}
