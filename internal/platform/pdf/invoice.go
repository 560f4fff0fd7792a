package pdf

import (
	"errors"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type InvoiceData struct {
	Number    string
	IssueDate string

	SellerName    string
	SellerAddress string
	SellerEmail   string

	BillToName    string
	BillToEmail   string
	BillToAddress string

	Currency string
	Items    []InvoiceLine
	// Total in minor units
	Total int64
}

type InvoiceLine struct {
	Description string
	Quantity    int64
	// UnitPrice in minor units
	UnitPrice int64
}

// Renderer turns invoice data into a PDF document.
type Renderer interface {
	RenderInvoice(data *InvoiceData) ([]byte, error)
}

type MarotoRenderer struct{}

func New() *MarotoRenderer { return &MarotoRenderer{} }

func (r *MarotoRenderer) RenderInvoice(data *InvoiceData) ([]byte, error) {
	if data == nil {
		return nil, errors.New("pdf: nil invoice data")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, data.SellerName, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "INVOICE", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(20,
		col.New(6).Add(
			text.New(data.SellerAddress, props.Text{Size: 9}),
			text.New(data.SellerEmail, props.Text{Size: 9, Top: 5}),
		),
		col.New(6).Add(
			text.New("Invoice number: "+data.Number, props.Text{Size: 9, Align: align.Right}),
			text.New("Date of issue: "+data.IssueDate, props.Text{Size: 9, Top: 5, Align: align.Right}),
		),
	)
	m.AddRow(22,
		col.New(12).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(data.BillToName, props.Text{Top: 5}),
			text.New(data.BillToAddress, props.Text{Top: 9}),
			text.New(data.BillToEmail, props.Text{Top: 13}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range data.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, FormatMinor(item.UnitPrice, data.Currency), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, FormatMinor(item.UnitPrice*item.Quantity, data.Currency), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, FormatMinor(data.Total, data.Currency), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate invoice: %w", err)
	}
	return doc.GetBytes(), nil
}

// FormatMinor renders minor units as "GBP 12.34".
func FormatMinor(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%s %d.%02d", sign, currency, amount/100, amount%100)
}

var _ Renderer = (*MarotoRenderer)(nil)
