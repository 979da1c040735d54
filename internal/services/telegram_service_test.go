package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type botAPI struct {
	mu       sync.Mutex
	paths    []string
	messages []telegramMessage
	status   int
}

func newBotAPI(t *testing.T) (*botAPI, *httptest.Server) {
	t.Helper()
	api := &botAPI{status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg telegramMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		api.mu.Lock()
		api.paths = append(api.paths, r.URL.Path)
		api.messages = append(api.messages, msg)
		status := api.status
		api.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func TestTelegram_NotifyNewOrder(t *testing.T) {
	api, srv := newBotAPI(t)
	tg := NewTelegramService("TOKEN", "42", srv.URL, zap.NewNop())

	err := tg.NotifyNewOrder(context.Background(), OrderNotification{
		OrderID: "ord-1",
		Items: []OrderItemNotification{
			{Name: "Matte <Lipstick>", Quantity: 2, Price: decimal.NewFromInt(1250)},
		},
		Subtotal:      decimal.NewFromInt(2500),
		Discount:      decimal.NewFromInt(100),
		TotalAmount:   decimal.NewFromInt(2400),
		CustomerName:  "Ava",
		CustomerPhone: "9876543210",
		City:          "Pune",
		PaymentMethod: "upi",
		EstimatedDays: 2,
	})
	require.NoError(t, err)

	require.Len(t, api.messages, 1)
	assert.Equal(t, "/botTOKEN/sendMessage", api.paths[0])
	msg := api.messages[0]
	assert.Equal(t, "42", msg.ChatID)
	assert.Equal(t, "HTML", msg.ParseMode)
	assert.Contains(t, msg.Text, "ord-1")
	assert.Contains(t, msg.Text, "Matte &lt;Lipstick&gt;")
	assert.Contains(t, msg.Text, "₹2,500.00")
	assert.Contains(t, msg.Text, "₹2,400.00")
	assert.Contains(t, msg.Text, "UPI")
}

func TestTelegram_SendCode(t *testing.T) {
	api, srv := newBotAPI(t)
	tg := NewTelegramService("TOKEN", "42", srv.URL, zap.NewNop())

	require.NoError(t, tg.SendCode(context.Background(), "9876543210", "123456"))
	require.Len(t, api.messages, 1)
	assert.Contains(t, api.messages[0].Text, "123456")
	assert.Contains(t, api.messages[0].Text, "9876543210")
}

func TestTelegram_ErrorStatus(t *testing.T) {
	api, srv := newBotAPI(t)
	api.status = http.StatusBadGateway
	tg := NewTelegramService("TOKEN", "42", srv.URL, zap.NewNop())

	assert.Error(t, tg.SendToAdmin(context.Background(), "hi"))
}

func TestTelegram_Unconfigured(t *testing.T) {
	api, srv := newBotAPI(t)

	require.NoError(t, NewTelegramService("", "42", srv.URL, zap.NewNop()).SendToAdmin(context.Background(), "hi"))
	require.NoError(t, NewTelegramService("TOKEN", "", srv.URL, zap.NewNop()).NotifyNewOrder(context.Background(), OrderNotification{}))
	assert.Empty(t, api.messages)
}

func TestFormatPrice(t *testing.T) {
	for in, want := range map[string]string{
		"0":         "₹0.00",
		"999.5":     "₹999.50",
		"1000":      "₹1,000.00",
		"1234567.8": "₹1,234,567.80",
		"-2500":     "₹-2,500.00",
	} {
		assert.Equal(t, want, FormatPrice(decimal.RequireFromString(in)), in)
	}
}
