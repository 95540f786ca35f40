package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"fakturabg/internal/core"
)

// ScannedInvoice holds the fields read off an invoice photo. Values the model
// could not read come back as empty strings or zeros, never as errors.
type ScannedInvoice struct {
	Supplier         string  `json:"supplier" jsonschema_description:"Supplier company name as printed on the invoice"`
	InvoiceNumber    string  `json:"invoice_number" jsonschema_description:"Invoice number, empty if unreadable"`
	AmountWithoutVAT float64 `json:"amount_without_vat" jsonschema_description:"Net amount before VAT, 0 if unreadable"`
	VATAmount        float64 `json:"vat_amount" jsonschema_description:"VAT amount, usually 20 percent, 0 if unreadable"`
	TotalAmount      float64 `json:"total_amount" jsonschema_description:"Total amount including VAT, 0 if unreadable"`
	InvoiceDate      string  `json:"invoice_date" jsonschema_description:"Invoice date in YYYY-MM-DD form, empty if unreadable"`
}

// InvoiceScanner extracts invoice header fields from a photographed or
// scanned document.
type InvoiceScanner interface {
	ScanInvoice(ctx context.Context, imageBase64 string) (*ScannedInvoice, error)
}

const ocrPrompt = `Ти си OCR асистент за извличане на данни от фактури на български език.
Анализирай изображението и извлечи доставчика, номера на фактурата,
сумата без ДДС, ДДС (обикновено 20%), общата сума и датата на фактурата.
Датата върни във формат YYYY-MM-DD.
Ако не можеш да прочетеш някоя стойност, използвай празен низ за текст или 0 за числа.`

func (o *Oracle) ScanInvoice(ctx context.Context, imageBase64 string) (*ScannedInvoice, error) {
	imageBase64 = strings.TrimSpace(imageBase64)
	if imageBase64 == "" {
		return nil, core.NewValidationError("image must not be empty")
	}
	// Strip a data URL prefix if the client sent one.
	if i := strings.IndexByte(imageBase64, ','); i >= 0 && strings.HasPrefix(imageBase64, "data:") {
		imageBase64 = imageBase64[i+1:]
	}
	dataURL := "data:image/jpeg;base64," + imageBase64

	schemaStruct := generateSchema(ScannedInvoice{})
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("unmarshal schema to map: %w", err)
	}

	content := responses.ResponseInputMessageContentListParam{
		{
			OfInputText: &responses.ResponseInputTextParam{
				Text: ocrPrompt,
			},
		},
		{
			OfInputImage: &responses.ResponseInputImageParam{
				ImageURL: param.NewOpt(dataURL),
				Detail:   responses.ResponseInputImageDetailAuto,
			},
		},
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				{
					OfMessage: &responses.EasyInputMessageParam{
						Role: responses.EasyInputMessageRoleUser,
						Content: responses.EasyInputMessageContentUnionParam{
							OfInputItemContentList: content,
						},
					},
				},
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "scanned_invoice",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Header fields extracted from a Bulgarian invoice image"),
				},
			},
		},
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return nil, &core.ExternalServiceError{Op: "scan invoice", Err: err}
	}

	out := resp.OutputText()
	if out == "" {
		return nil, &core.ExternalServiceError{Op: "scan invoice", Err: fmt.Errorf("empty response content")}
	}

	var scanned ScannedInvoice
	if err := json.Unmarshal([]byte(out), &scanned); err != nil {
		return nil, &core.ExternalServiceError{Op: "scan invoice", Err: fmt.Errorf("parse completion: %w", err)}
	}
	return &scanned, nil
}
