package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
	lg          *zap.Logger
}

// NewTelegramService creates a new TelegramService. An empty apiBase uses the
// public Bot API.
func NewTelegramService(botToken, adminChatID, apiBase string, lg *zap.Logger) *TelegramService {
	if apiBase == "" {
		apiBase = defaultTelegramAPI
	}
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     strings.TrimRight(apiBase, "/"),
		client:      &http.Client{Timeout: 10 * time.Second},
		lg:          lg,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		s.lg.Warn("Telegram bot token not configured")
		return nil
	}

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "telegram request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		s.lg.Warn("Telegram admin chat not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// SendCode relays a one-time code to the operator chat, which forwards it to
// the customer. The code is sent in clear, so every chat member can use it.
func (s *TelegramService) SendCode(ctx context.Context, phone, code string) error {
	text := fmt.Sprintf("<b>🔐 OTP request</b>\n<b>Phone:</b> %s\n<b>Code:</b> <code>%s</code>",
		html.EscapeString(phone), code)
	return s.SendToAdmin(ctx, text)
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderID       string
	Items         []OrderItemNotification
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	TotalAmount   decimal.Decimal
	CustomerName  string
	CustomerPhone string
	City          string
	PaymentMethod string
	EstimatedDays int
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// FormatPrice formats an amount in rupees with thousand separators.
func FormatPrice(amount decimal.Decimal) string {
	str := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	whole, frac, _ := strings.Cut(str, ".")

	var result strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}
	return "₹" + sign + result.String() + "." + frac
}

var paymentLabels = map[string]string{
	"credit_card":      "Credit Card",
	"debit_card":       "Debit Card",
	"upi":              "UPI",
	"cash_on_delivery": "Cash on Delivery",
}

// NotifyNewOrder sends notification about new order to admin chat.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order OrderNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		fmt.Fprintf(&itemsList, "%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(item.Name),
			item.Quantity,
			FormatPrice(item.Price),
			FormatPrice(lineTotal),
		)
	}

	payment, ok := paymentLabels[order.PaymentMethod]
	if !ok {
		payment = order.PaymentMethod
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER!</b>
<b>📋 Order:</b> %s
<b>👤 Customer:</b> %s
<b>📞 Phone:</b> %s
<b>📍 City:</b> %s
<b>📦 Items:</b>
%s
<b>🧾 Subtotal:</b> %s
<b>🎁 Discount:</b> %s
<b>💰 Total:</b> %s
<b>💳 Payment:</b> %s
<b>🚚 Delivery:</b> %d days
━━━━━━━━━━━━━━━━━━`,
		order.OrderID,
		html.EscapeString(order.CustomerName),
		html.EscapeString(order.CustomerPhone),
		html.EscapeString(order.City),
		itemsList.String(),
		FormatPrice(order.Subtotal),
		FormatPrice(order.Discount),
		FormatPrice(order.TotalAmount),
		payment,
		order.EstimatedDays,
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}
