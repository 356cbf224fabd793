package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/trznica/internal/service"
)

// WebhookHandler receives Square webhook notifications. Inventory counts are
// merged through the reconciliation path; everything else is acknowledged
// and dropped.
type WebhookHandler struct {
	Inventory *service.Inventory
	Square    *service.Square

	// SignatureKey and NotificationURL come from the Square webhook
	// subscription settings.
	SignatureKey    string
	NotificationURL string
}

// squareEvent is the subset of Square's webhook envelope we care about.
type squareEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Data    struct {
		Object struct {
			InventoryCounts []squareInventoryCount `json:"inventory_counts"`
		} `json:"object"`
	} `json:"data"`
}

type squareInventoryCount struct {
	CatalogObjectID string `json:"catalog_object_id"`
	State           string `json:"state"`
	Quantity        string `json:"quantity"`
}

// Handle handles POST /api/webhooks/square.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	r.Body.Close()

	if !h.verifySignature(r.Header.Get("X-Square-HmacSha256-Signature"), body) {
		slog.Warn("square webhook signature mismatch", "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event squareEvent
	if err := json.Unmarshal(body, &event); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if event.Type != "inventory.count.updated" {
		// Acknowledge so Square stops retrying.
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	for _, count := range event.Data.Object.InventoryCounts {
		if count.State != "IN_STOCK" {
			continue
		}

		quantity, err := strconv.Atoi(count.Quantity)
		if err != nil {
			slog.Warn("square webhook count not numeric",
				"event_id", event.EventID, "catalog_object_id", count.CatalogObjectID)
			continue
		}

		sku, err := h.Square.SKUForCatalogObject(r.Context(), count.CatalogObjectID)
		if err != nil {
			slog.Error("resolving catalog object", "error", err, "event_id", event.EventID)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if sku == "" {
			slog.Info("square webhook for unknown catalog object",
				"event_id", event.EventID, "catalog_object_id", count.CatalogObjectID)
			continue
		}

		_, err = h.Inventory.ReconcileStock(r.Context(), sku, quantity,
			"square_webhook", event.EventID, map[string]any{
				"catalog_object_id": count.CatalogObjectID,
			})
		if err != nil {
			slog.Error("reconciling webhook stock", "error", err,
				"event_id", event.EventID, "sku", sku)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// verifySignature checks Square's HMAC-SHA256 signature: base64 of the HMAC
// over the notification URL concatenated with the raw body.
func (h *WebhookHandler) verifySignature(signature string, body []byte) bool {
	if h.SignatureKey == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.SignatureKey))
	mac.Write([]byte(h.NotificationURL))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
