package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const schemaPreorder = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["paymentCode", "buyerEmail", "amount", "expiresAt"],
  "properties": {
    "paymentCode": { "type": "string", "minLength": 1, "maxLength": 64 },
    "buyerEmail":  { "type": "string", "minLength": 1 },
    "amount":      { "type": "integer", "minimum": 1 },
    "expiresAt":   { "type": "string", "format": "date-time" }
  }
}`

const schemaWebhook = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["data"],
  "properties": {
    "data": {
      "type": "object",
      "required": ["id", "description", "amount"],
      "properties": {
        "id":                  { "type": "integer" },
        "description":         { "type": "string" },
        "amount":              { "type": "integer" },
        "transactionDateTime": { "type": "string" },
        "accountNumber":       { "type": ["string", "null"] },
        "bankName":            { "type": ["string", "null"] }
      }
    }
  }
}`

const schemaCartProduct = `{
  "type": "object",
  "required": ["_id", "price", "totalCard"],
  "properties": {
    "_id":          { "type": "string", "minLength": 1 },
    "productName":  { "type": "string" },
    "categoryName": { "type": "string" },
    "price":        { "type": "integer", "minimum": 0 },
    "totalCard":    { "type": "integer", "minimum": 1 },
    "orderDate":    { "type": "string" }
  }
}`

var schemaCreateOrder = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["buyerEmail", "paymentCode", "cassoTxnId", "cartProducts"],
  "properties": {
    "buyerEmail":   { "type": "string", "minLength": 1 },
    "paymentCode":  { "type": "string", "minLength": 1 },
    "cassoTxnId":   { "type": "integer", "minimum": 1 },
    "cartProducts": { "type": "array", "minItems": 1, "items": ` + schemaCartProduct + ` },
    "name":         { "type": "string" },
    "Address":      { "type": "string" },
    "City":         { "type": "string" },
    "Postcode":     { "type": "string" },
    "EmailAddress": { "type": "string" },
    "Phone":        { "type": "string" },
    "date":         { "type": "string" }
  }
}`

const schemaShipmentStatus = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["shipmentStatus"],
  "anyOf": [
    { "required": ["id"],      "properties": { "id":      { "minLength": 1 } } },
    { "required": ["orderId"], "properties": { "orderId": { "minLength": 1 } } }
  ],
  "properties": {
    "id":              { "type": "string" },
    "orderId":         { "type": "string" },
    "shipmentStatus":  { "type": "string", "minLength": 1 },
    "orderStatusDate": { "type": "string" },
    "paymentId":       { "type": "string" }
  }
}`

var schemaCancelOrder = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "buyerEmail", "orderProduct"],
  "properties": {
    "id":           { "type": "string", "minLength": 1 },
    "buyerEmail":   { "type": "string", "minLength": 1 },
    "EmailAddress": { "type": "string" },
    "orderProduct": ` + schemaCartProduct + `,
    "date":         { "type": "string" },
    "Phone":        { "type": "string" },
    "paymentId":    { "type": "string" },
    "orderId":      { "type": "string" }
  }
}`

var (
	PreorderSchema       = mustSchema("preorder", schemaPreorder)
	WebhookSchema        = mustSchema("webhook", schemaWebhook)
	CreateOrderSchema    = mustSchema("create order", schemaCreateOrder)
	ShipmentStatusSchema = mustSchema("shipment status", schemaShipmentStatus)
	CancelOrderSchema    = mustSchema("cancel order", schemaCancelOrder)
)

// SchemaError lists every violation found in a request body.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "invalid request body: " + strings.Join(e.Violations, "; ")
}

// Decode validates body against schema and unmarshals it into dst.
func Decode(schema *gojsonschema.Schema, body []byte, dst interface{}) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &SchemaError{Violations: []string{"malformed JSON"}}
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			violations = append(violations, e.String())
		}
		return &SchemaError{Violations: violations}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &SchemaError{Violations: []string{err.Error()}}
	}
	return nil
}

func mustSchema(name, raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("dto: compile %s schema: %v", name, err))
	}
	return schema
}
