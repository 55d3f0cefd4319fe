package printing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appsales "github.com/stephanos-estetic/backend/internal/application/sales"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPDF struct {
	req *RenderRequest
	err error
}

func (s *stubPDF) Render(_ context.Context, req *RenderRequest) (*RenderResult, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &RenderResult{PDFData: []byte("%PDF-1.4 stub")}, nil
}

func (s *stubPDF) Close() error { return nil }

func newTestOrder(t *testing.T) *sales.Order {
	t.Helper()
	order, err := sales.NewOrder(sales.Customer{Name: "maría pérez", Email: "maria@example.com"})
	require.NoError(t, err)
	require.NoError(t, order.AddItem(uuid.New(), "CREMA-01", "Crema <hidratante>", 2, decimal.NewFromInt(15990)))
	require.NoError(t, order.SetShipping(decimal.NewFromInt(3990)))
	return order
}

func TestReceiptRenderer_HTML(t *testing.T) {
	r := newReceiptRenderer(config.ReceiptConfig{ShopName: "Stephanos"}, nil, nil)
	order := newTestOrder(t)

	doc, err := r.Render(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, contentTypeHTML, doc.ContentType)
	assert.Equal(t, appsales.OrderNumber(order)+".html", doc.Filename)

	body := string(doc.Content)
	assert.Contains(t, body, "Stephanos")
	assert.Contains(t, body, "María Pérez")
	assert.Contains(t, body, "CREMA-01")
	assert.Contains(t, body, "Crema &lt;hidratante&gt;")
	assert.NotContains(t, body, "<hidratante>")
	assert.Contains(t, body, "$31.980")
	assert.Contains(t, body, "$35.970")
	assert.Contains(t, body, "Pendiente de pago")
}

func TestReceiptRenderer_DefaultShopName(t *testing.T) {
	r := newReceiptRenderer(config.ReceiptConfig{}, nil, nil)

	doc, err := r.Render(context.Background(), newTestOrder(t))
	require.NoError(t, err)
	assert.Contains(t, string(doc.Content), "Stephanos Estetic")
}

func TestReceiptRenderer_PDF(t *testing.T) {
	pdf := &stubPDF{}
	r := newReceiptRenderer(config.ReceiptConfig{ShopName: "Stephanos"}, pdf, nil)
	order := newTestOrder(t)

	doc, err := r.Render(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, contentTypePDF, doc.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 stub"), doc.Content)
	assert.Contains(t, doc.Filename, ".pdf")
	require.NotNil(t, pdf.req)
	assert.Equal(t, PaperLetter, pdf.req.PaperSize)
	assert.Contains(t, pdf.req.HTML, "<!DOCTYPE html>")
}

func TestReceiptRenderer_PDFError(t *testing.T) {
	renderErr := NewRenderError(ErrCodeRenderTimeout, "timed out", nil)
	r := newReceiptRenderer(config.ReceiptConfig{}, &stubPDF{err: renderErr}, nil)

	doc, err := r.Render(context.Background(), newTestOrder(t))
	assert.Nil(t, doc)
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ErrCodeRenderTimeout, re.Code)
}

func TestBuildPrintParams(t *testing.T) {
	params := buildPrintParams(&RenderRequest{PaperSize: PaperA4, Margins: DefaultMargins()})
	assert.InDelta(t, mmToInches(210), params.paperWidth, 0.01)
	assert.InDelta(t, mmToInches(297), params.paperHeight, 0.01)
	assert.InDelta(t, mmToInches(10), params.marginTop, 0.01)

	params = buildPrintParams(&RenderRequest{})
	assert.InDelta(t, mmToInches(PaperLetter.WidthMM), params.paperWidth, 0.01)
}

func TestChromedpRenderer_EmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{})
	defer r.Close()

	_, err := r.Render(context.Background(), &RenderRequest{HTML: "  "})
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ErrCodeInvalidHTML, re.Code)
}
