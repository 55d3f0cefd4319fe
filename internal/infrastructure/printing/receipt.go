package printing

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	appsales "github.com/stephanos-estetic/backend/internal/application/sales"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeHTML = "text/html; charset=utf-8"
	receiptTimeZone = "America/Santiago"
)

var receiptLang = language.MustParse("es-CL")

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #222; font-size: 12px; }
h1 { font-size: 18px; margin: 0 0 4px 0; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { padding: 6px 4px; border-bottom: 1px solid #ddd; text-align: left; }
td.num, th.num { text-align: right; }
tfoot td { border-bottom: none; }
.total td { font-weight: bold; font-size: 14px; }
</style>
</head>
<body>
<h1>{{.ShopName}}</h1>
<p>Boleta de compra <strong>{{.Number}}</strong><br>
Fecha: {{.Date}}<br>
Estado: {{.Status}}</p>
{{if .CustomerName}}<p>Cliente: {{.CustomerName}}{{if .CustomerEmail}} &lt;{{.CustomerEmail}}&gt;{{end}}</p>{{end}}
<table>
<thead><tr><th>SKU</th><th>Producto</th><th class="num">Cant.</th><th class="num">Precio</th><th class="num">Total</th></tr></thead>
<tbody>
{{range .Lines}}<tr><td>{{.SKU}}</td><td>{{.Name}}</td><td class="num">{{.Qty}}</td><td class="num">{{.Price}}</td><td class="num">{{.Total}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td colspan="4" class="num">Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
<tr><td colspan="4" class="num">Despacho</td><td class="num">{{.Shipping}}</td></tr>
<tr class="total"><td colspan="4" class="num">Total</td><td class="num">{{.Total}}</td></tr>
</tfoot>
</table>
</body>
</html>
`))

type receiptLine struct {
	SKU   string
	Name  string
	Qty   int
	Price string
	Total string
}

type receiptView struct {
	Title         string
	ShopName      string
	Number        string
	Date          string
	Status        string
	CustomerName  string
	CustomerEmail string
	Lines         []receiptLine
	Subtotal      string
	Shipping      string
	Total         string
}

var statusLabels = map[sales.OrderStatus]string{
	sales.OrderStatusPending:   "Pendiente de pago",
	sales.OrderStatusPaid:      "Pagado",
	sales.OrderStatusCancelled: "Anulado",
}

// ReceiptRenderer renders order receipts as PDF, or HTML when PDF output is off
type ReceiptRenderer struct {
	shopName string
	pdf      PDFRenderer
	timeout  time.Duration
	location *time.Location
	printer  *message.Printer
	titler   cases.Caser
	logger   *zap.Logger
}

// NewReceiptRenderer creates a receipt renderer from configuration
func NewReceiptRenderer(cfg config.ReceiptConfig, logger *zap.Logger) *ReceiptRenderer {
	var pdf PDFRenderer
	if cfg.PDFEnabled {
		pdf = NewChromedpRenderer(ChromedpConfig{
			DefaultTimeout: cfg.Timeout,
			RemoteURL:      cfg.RemoteURL,
			NoSandbox:      cfg.NoSandbox,
			Logger:         logger,
		})
	}
	return newReceiptRenderer(cfg, pdf, logger)
}

func newReceiptRenderer(cfg config.ReceiptConfig, pdf PDFRenderer, logger *zap.Logger) *ReceiptRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(receiptTimeZone)
	if err != nil {
		logger.Warn("receipt time zone unavailable, using UTC", zap.Error(err))
		loc = time.UTC
	}
	shopName := strings.TrimSpace(cfg.ShopName)
	if shopName == "" {
		shopName = "Stephanos Estetic"
	}
	return &ReceiptRenderer{
		shopName: shopName,
		pdf:      pdf,
		timeout:  cfg.Timeout,
		location: loc,
		printer:  message.NewPrinter(receiptLang),
		titler:   cases.Title(receiptLang),
		logger:   logger,
	}
}

// Render builds the receipt for an order
func (r *ReceiptRenderer) Render(ctx context.Context, order *sales.Order) (*appsales.Document, error) {
	number := appsales.OrderNumber(order)
	html, err := r.renderHTML(order, number)
	if err != nil {
		return nil, err
	}

	if r.pdf == nil {
		return &appsales.Document{
			Content:     html,
			ContentType: contentTypeHTML,
			Filename:    number + ".html",
		}, nil
	}

	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:      string(html),
		Title:     number,
		PaperSize: PaperLetter,
		Margins:   DefaultMargins(),
		Timeout:   r.timeout,
	})
	if err != nil {
		r.logger.Error("Failed to render receipt PDF",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return nil, err
	}

	return &appsales.Document{
		Content:     result.PDFData,
		ContentType: contentTypePDF,
		Filename:    number + ".pdf",
	}, nil
}

func (r *ReceiptRenderer) renderHTML(order *sales.Order, number string) ([]byte, error) {
	view := receiptView{
		Title:         r.shopName + " " + number,
		ShopName:      r.shopName,
		Number:        number,
		Date:          order.CreatedAt.In(r.location).Format("02-01-2006 15:04"),
		Status:        statusLabels[order.Status],
		CustomerName:  r.titler.String(strings.TrimSpace(order.CustomerName)),
		CustomerEmail: order.CustomerEmail,
		Lines:         make([]receiptLine, 0, len(order.Items)),
		Subtotal:      r.formatCLP(order.SubtotalAmount),
		Shipping:      r.formatCLP(order.ShippingAmount),
		Total:         r.formatCLP(order.TotalAmount),
	}
	if view.Status == "" {
		view.Status = string(order.Status)
	}
	for _, item := range order.Items {
		view.Lines = append(view.Lines, receiptLine{
			SKU:   item.SKU,
			Name:  item.Name,
			Qty:   item.Qty,
			Price: r.formatCLP(item.PriceAt),
			Total: r.formatCLP(item.LineTotal),
		})
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return nil, NewRenderError(ErrCodeTemplate, "failed to execute receipt template", err)
	}
	return buf.Bytes(), nil
}

// formatCLP formats whole pesos with locale grouping, e.g. $12.990
func (r *ReceiptRenderer) formatCLP(amount decimal.Decimal) string {
	return r.printer.Sprintf("$%d", amount.Round(0).IntPart())
}

var _ appsales.ReceiptRenderer = (*ReceiptRenderer)(nil)
