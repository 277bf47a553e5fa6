package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapfit/zapfit-backend/internal/middleware"
	"github.com/zapfit/zapfit-backend/internal/models"
	"github.com/zapfit/zapfit-backend/internal/services"
	"github.com/zapfit/zapfit-backend/internal/storage"
)

const webhookAuthToken = "webhook-test-token"

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) SendWhatsAppMessage(to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, body)
	return nil
}

// twilioSign reproduces Twilio's request signature scheme for test fixtures
func twilioSign(token, rawURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := rawURL
	for _, k := range keys {
		data += k + form.Get(k)
	}

	h := hmac.New(sha1.New, []byte(token))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func newWebhookApp(t *testing.T) (*fiber.App, *storage.MemoryStore, *recordingSender, *models.User) {
	t.Helper()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"resposta da coach"}}]}`))
	}))
	t.Cleanup(gateway.Close)

	store := storage.NewMemoryStore()
	user := store.SeedUser(&models.User{
		Name:           "Ana Souza",
		Email:          "ana@example.com",
		WhatsAppPhone:  "+5511999999999",
		WhatsAppOptIn:  true,
		WhatsAppActive: true,
		PlanType:       models.PlanPremium,
	})

	sender := &recordingSender{}
	ai := services.NewAIService(gateway.URL, "test-key", "chat-model", "vision-model")
	service := services.NewWhatsAppService(store, sender, ai)

	app := fiber.New()
	app.Post("/webhook/whatsapp",
		middleware.ValidateTwilioSignature(webhookAuthToken),
		NewWhatsAppHandler(service).HandleWebhook,
	)

	return app, store, sender, user
}

func webhookRequest(form url.Values, signature string) *http.Request {
	req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set("X-Twilio-Signature", signature)
	}
	return req
}

func TestWebhook_WaterCommandEndToEnd(t *testing.T) {
	app, store, sender, user := newWebhookApp(t)

	form := url.Values{}
	form.Set("MessageSid", "SM42")
	form.Set("From", "whatsapp:+5511999999999")
	form.Set("To", "whatsapp:+14155238886")
	form.Set("Body", "/agua 500")
	form.Set("NumMedia", "0")

	signature := twilioSign(webhookAuthToken, "http://example.com/webhook/whatsapp", form)
	resp, err := app.Test(webhookRequest(form, signature), 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "500ml")

	assert.Equal(t, 1, store.WaterIntakeRows(user.ID))

	logs, err := store.GetRecentMessages(user.ID, 10, math.MaxUint32)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.DirectionOutbound, logs[0].Direction)
	assert.Equal(t, models.DirectionInbound, logs[1].Direction)
	assert.Equal(t, "/agua 500", logs[1].Body)
	assert.Equal(t, "SM42", logs[1].MessageSid)
}

func TestWebhook_PhotoMessageCollectsMediaURLs(t *testing.T) {
	gatewayCalls := 0
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gatewayCalls++
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"prato\":\"Salada\",\"calorias\":200,\"comentario\":\"Boa!\"}"}}]}`))
	}))
	defer gateway.Close()

	store := storage.NewMemoryStore()
	user := store.SeedUser(&models.User{
		Name:           "Ana Souza",
		Email:          "ana@example.com",
		WhatsAppPhone:  "+5511999999999",
		WhatsAppActive: true,
		PlanType:       models.PlanPremium,
	})

	sender := &recordingSender{}
	ai := services.NewAIService(gateway.URL, "test-key", "chat-model", "vision-model")
	service := services.NewWhatsAppService(store, sender, ai)

	app := fiber.New()
	app.Post("/webhook/whatsapp",
		middleware.ValidateTwilioSignature(webhookAuthToken),
		NewWhatsAppHandler(service).HandleWebhook,
	)

	form := url.Values{}
	form.Set("MessageSid", "SM43")
	form.Set("From", "whatsapp:+5511999999999")
	form.Set("Body", "")
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://api.twilio.com/media/ME123")

	signature := twilioSign(webhookAuthToken, "http://example.com/webhook/whatsapp", form)
	resp, err := app.Test(webhookRequest(form, signature), 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, 1, gatewayCalls)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "Salada")

	meals, err := store.CountMealsSince(user.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, meals)
}

func TestWebhook_InvalidSignatureRejected(t *testing.T) {
	app, store, sender, user := newWebhookApp(t)

	form := url.Values{}
	form.Set("From", "whatsapp:+5511999999999")
	form.Set("Body", "/agua 500")
	form.Set("NumMedia", "0")

	resp, err := app.Test(webhookRequest(form, "bm90LXRoZS1yaWdodC1zaWduYXR1cmU="), 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// no side effects at all
	assert.Empty(t, sender.sent)
	assert.Zero(t, store.WaterIntakeRows(user.ID))

	logs, err := store.GetRecentMessages(user.ID, 10, math.MaxUint32)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestWebhook_StatusCallbackAcknowledged(t *testing.T) {
	app, _, sender, _ := newWebhookApp(t)

	// delivery status callbacks have no From
	form := url.Values{}
	form.Set("MessageSid", "SM44")
	form.Set("MessageStatus", "delivered")

	signature := twilioSign(webhookAuthToken, "http://example.com/webhook/whatsapp", form)
	resp, err := app.Test(webhookRequest(form, signature), 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, sender.sent)
}

func TestAdminOverview(t *testing.T) {
	store := storage.NewMemoryStore()
	store.SeedUser(&models.User{
		Name: "Ana", Email: "ana@example.com", WhatsAppPhone: "+5511999999999",
		PlanType: models.PlanPremium,
	})
	store.SeedUser(&models.User{
		Name: "Bruno", Email: "bruno@example.com", WhatsAppPhone: "+5511888888888",
		PlanType: models.PlanFree,
	})

	app := fiber.New()
	app.Get("/admin/overview", NewAdminHandler(store).Overview)

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/overview", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var stats map[string]int64
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.EqualValues(t, 2, stats["total_users"])
	assert.EqualValues(t, 1, stats["premium_users"])
}
