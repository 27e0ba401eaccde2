package domain

// IntentKind discriminates the edits accepted by the engine.
type IntentKind string

const (
	IntentUpdateItem       IntentKind = "update_item"
	IntentAddItem          IntentKind = "add_item"
	IntentRemoveItem       IntentKind = "remove_item"
	IntentSetTaxRate       IntentKind = "set_tax_rate"
	IntentSetDiscount      IntentKind = "set_discount"
	IntentSetStatus        IntentKind = "set_status"
	IntentSetAmountPaid    IntentKind = "set_amount_paid"
	IntentSetBillingField  IntentKind = "set_billing_field"
	IntentSetShippingField IntentKind = "set_shipping_field"
	IntentSetShipSame      IntentKind = "set_ship_same"
	IntentSetCustomerName  IntentKind = "set_customer_name"
	IntentSetField         IntentKind = "set_field"
	IntentLoadSnapshot     IntentKind = "load_snapshot"
)

// InvoiceField names a plain field editable through IntentSetField.
type InvoiceField string

const (
	FieldCurrency         InvoiceField = "currency"
	FieldPaymentMode      InvoiceField = "paymentMode"
	FieldTransactionID    InvoiceField = "transactionId"
	FieldInvoiceDate      InvoiceField = "invoiceDate"
	FieldNotes            InvoiceField = "notes"
	FieldDeliveryTimeline InvoiceField = "deliveryTimeline"
	FieldWarrantyInfo     InvoiceField = "warrantyInfo"
	FieldCompanyName      InvoiceField = "companyName"
	FieldCompanyAddress   InvoiceField = "companyAddress"
	FieldCompanyPhone     InvoiceField = "companyPhone"
	FieldCompanyEmail     InvoiceField = "companyEmail"
	FieldCompanyLogo      InvoiceField = "companyLogo"
)

// Intent is one named edit. Value carries raw user input and is coerced by the engine.
type Intent struct {
	Kind     IntentKind `json:"kind"`
	ItemID   string     `json:"itemId,omitempty"`
	Field    string     `json:"field,omitempty"`
	Value    any        `json:"value,omitempty"`
	Snapshot *Invoice   `json:"snapshot,omitempty"`
}

func UpdateItem(itemID string, field ItemField, value any) Intent {
	return Intent{Kind: IntentUpdateItem, ItemID: itemID, Field: string(field), Value: value}
}

func AddItem() Intent {
	return Intent{Kind: IntentAddItem}
}

func RemoveItem(itemID string) Intent {
	return Intent{Kind: IntentRemoveItem, ItemID: itemID}
}

func SetTaxRate(value any) Intent {
	return Intent{Kind: IntentSetTaxRate, Value: value}
}

func SetDiscount(value any) Intent {
	return Intent{Kind: IntentSetDiscount, Value: value}
}

func SetStatus(status PaymentStatus) Intent {
	return Intent{Kind: IntentSetStatus, Value: string(status)}
}

func SetAmountPaid(value any) Intent {
	return Intent{Kind: IntentSetAmountPaid, Value: value}
}

func SetBillingField(field PartyField, value string) Intent {
	return Intent{Kind: IntentSetBillingField, Field: string(field), Value: value}
}

func SetShippingField(field PartyField, value string) Intent {
	return Intent{Kind: IntentSetShippingField, Field: string(field), Value: value}
}

func SetShipSame(flag bool) Intent {
	return Intent{Kind: IntentSetShipSame, Value: flag}
}

func SetCustomerName(name string) Intent {
	return Intent{Kind: IntentSetCustomerName, Value: name}
}

func SetField(field InvoiceField, value string) Intent {
	return Intent{Kind: IntentSetField, Field: string(field), Value: value}
}

func LoadSnapshot(snapshot Invoice) Intent {
	return Intent{Kind: IntentLoadSnapshot, Snapshot: &snapshot}
}
