package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"storefront/internal/domain"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
)

const (
	noticeProducts = 10
	promptProducts = 15

	notConfigured = "The shopping assistant is not configured yet. Please set GEMINI_API_KEY in the environment or the .env file."
	invalidKey    = "The shopping assistant could not authenticate with Gemini (invalid API key). Please update GEMINI_API_KEY in the environment or the .env file."
	emptyReply    = "I had trouble putting an answer together. Please try again."
	upstreamDown  = "The shopping assistant is unavailable right now. Please try again later."
)

// ProductLister supplies the catalog used to ground replies.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Relay answers shopper messages. Problems with the generative service are
// turned into fallback text, never into errors.
type Relay struct {
	gen      Generator
	products ProductLister
	apiKey   string
}

func NewRelay(gen Generator, products ProductLister, apiKey string) (*Relay, error) {
	if products == nil {
		return nil, fmt.Errorf("product lister is nil")
	}
	return &Relay{gen: gen, products: products, apiKey: apiKey}, nil
}

// Configured is false when the key is empty or still the sample placeholder.
func (r *Relay) Configured() bool {
	return r.gen != nil && r.apiKey != "" && !strings.Contains(strings.ToLower(r.apiKey), "your-gemini")
}

// Reply returns the assistant's answer to msg. The only error is a failure to
// read the catalog.
func (r *Relay) Reply(ctx context.Context, msg string) (string, error) {
	traceId := ctxmanage.TraceIdFromContext(ctx)
	products, err := r.products.ListProducts(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing products: %w", err)
	}

	if !r.Configured() {
		slog.Warn("chat relay is not configured", slog.String(logkey.TraceID, traceId))
		return withProducts(notConfigured, products), nil
	}

	text, err := r.gen.Generate(ctx, prompt(products, msg))
	switch {
	case IsInvalidKey(err):
		slog.Error("gemini rejected the api key", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return withProducts(invalidKey, products), nil
	case err != nil:
		slog.Error("gemini request failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return upstreamDown, nil
	case strings.TrimSpace(text) == "":
		return emptyReply, nil
	}
	return text, nil
}

func withProducts(notice string, products []domain.Product) string {
	if len(products) == 0 {
		return notice
	}
	names := make([]string, 0, noticeProducts)
	for _, p := range products[:min(len(products), noticeProducts)] {
		names = append(names, fmt.Sprintf("%s (₹%s)", p.Name, p.Price.StringFixed(domain.CurrencyPlaces)))
	}
	return notice + " Meanwhile, these products are available: " + strings.Join(names, ", ") + "."
}

func prompt(products []domain.Product, msg string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful customer service assistant for UzhavanHub, an online marketplace for farmers and fresh produce.\n")
	sb.WriteString("Help customers find products, manage their cart and answer questions about checkout and shipping.\n")
	if len(products) > 0 {
		sb.WriteString("\nStore products:\n")
		for _, p := range products[:min(len(products), promptProducts)] {
			fmt.Fprintf(&sb, "- %s: ₹%s\n", p.Name, p.Price.StringFixed(domain.CurrencyPlaces))
		}
	}
	sb.WriteString("\nRespond only in Tamil. Be friendly and concise. Politely steer unrelated questions back to the store.\n")
	sb.WriteString("\nCustomer: ")
	sb.WriteString(msg)
	return sb.String()
}
