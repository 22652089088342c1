package onlinepayments

import "strconv"

// Sample product ids used by the mock catalog.
const (
	ProductVisa       = 1
	ProductAmex       = 2
	ProductMastercard = 3
	ProductJCB        = 125
	ProductBancontact = 3012
	ProductGiftCard   = 5700
	ProductPayPal     = 840
)

func cardNumberField(mask string, minLength, maxLength int) PaymentProductField {
	return PaymentProductField{
		ID:   FieldCardNumber,
		Type: "numericstring",
		DataRestrictions: DataRestrictions{
			IsRequired: true,
			Validators: Validators{
				Length: &LengthRule{MinLength: minLength, MaxLength: maxLength},
				Luhn:   &struct{}{},
			},
		},
		DisplayHints: FieldDisplayHints{
			DisplayOrder:       10,
			Label:              "Card number",
			PlaceholderLabel:   "**** **** **** ****",
			Mask:               mask,
			AlwaysShow:         true,
			PreferredInputType: "IntegerKeyboard",
		},
	}
}

func expiryDateField() PaymentProductField {
	return PaymentProductField{
		ID:   FieldExpiryDate,
		Type: "expirydate",
		DataRestrictions: DataRestrictions{
			IsRequired: true,
			Validators: Validators{
				Length:         &LengthRule{MinLength: 4, MaxLength: 4},
				ExpirationDate: &struct{}{},
			},
		},
		DisplayHints: FieldDisplayHints{
			DisplayOrder:       20,
			Label:              "Expiry date",
			PlaceholderLabel:   "MM/YY",
			Mask:               "{{99}}/{{99}}",
			PreferredInputType: "IntegerKeyboard",
		},
	}
}

func cvvField(minLength, maxLength int) PaymentProductField {
	mask := "{{999}}"
	if maxLength == 4 {
		mask = "{{9999}}"
	}
	return PaymentProductField{
		ID:   FieldCVV,
		Type: "numericstring",
		DataRestrictions: DataRestrictions{
			IsRequired: true,
			Validators: Validators{
				Length:            &LengthRule{MinLength: minLength, MaxLength: maxLength},
				RegularExpression: &RegularExpressionRule{RegularExpression: "[0-9]+"},
			},
		},
		DisplayHints: FieldDisplayHints{
			DisplayOrder:       30,
			Label:              "CVV",
			PlaceholderLabel:   "123",
			Mask:               mask,
			Obfuscate:          true,
			PreferredInputType: "IntegerKeyboard",
		},
	}
}

func cardholderNameField(required bool) PaymentProductField {
	return PaymentProductField{
		ID:   FieldCardholderName,
		Type: "string",
		DataRestrictions: DataRestrictions{
			IsRequired: required,
			Validators: Validators{
				Length: &LengthRule{MinLength: 2, MaxLength: 51},
			},
		},
		DisplayHints: FieldDisplayHints{
			DisplayOrder:       40,
			Label:              "Cardholder name",
			PlaceholderLabel:   "John Doe",
			PreferredInputType: "StringKeyboard",
		},
	}
}

func pinCodeField() PaymentProductField {
	return PaymentProductField{
		ID:   FieldSecurityCode,
		Type: "numericstring",
		DataRestrictions: DataRestrictions{
			IsRequired: true,
			Validators: Validators{
				Length: &LengthRule{MinLength: 4, MaxLength: 4},
			},
		},
		DisplayHints: FieldDisplayHints{
			DisplayOrder:       30,
			Label:              "Security code",
			PlaceholderLabel:   "1234",
			Mask:               "{{9999}}",
			Obfuscate:          true,
			PreferredInputType: "IntegerKeyboard",
		},
	}
}

func cardProduct(id, order int, label string, fields ...PaymentProductField) PaymentProduct {
	hints := DisplayHints{DisplayOrder: order, Label: label, Logo: "templates/master/global/css/img/ppimages/pp_logo_" + strconv.Itoa(id) + "_v2.png"}
	return PaymentProduct{
		BasicPaymentProduct: BasicPaymentProduct{
			ID:                  id,
			PaymentMethod:       PaymentMethodCard,
			PaymentProductGroup: "cards",
			AllowsRecurring:     true,
			AllowsTokenization:  true,
			DisplayHints:        hints,
			DisplayHintsList:    []DisplayHints{hints},
		},
		Fields: fields,
	}
}

// SampleAccountOnFile is the stored Visa card of the mock catalog.
func SampleAccountOnFile() AccountOnFile {
	return AccountOnFile{
		ID:               1001,
		PaymentProductID: ProductVisa,
		DisplayHints: AccountOnFileDisplayHints{
			LabelTemplate: []LabelTemplateElement{
				{AttributeKey: FieldCardNumber, Mask: "{{9999}} {{9999}} {{9999}} {{9999}}"},
			},
		},
		Attributes: []AccountOnFileAttribute{
			{Key: FieldCardNumber, Value: "************1234", Status: StatusReadOnly},
			{Key: FieldExpiryDate, Value: "1229", Status: StatusReadOnly},
			{Key: FieldCardholderName, Value: "J. Doe", Status: StatusCanWrite},
		},
	}
}

// SampleProducts is the mock catalog.
func SampleProducts() []PaymentProduct {
	visa := cardProduct(ProductVisa, 1, "VISA",
		cardNumberField("{{9999}} {{9999}} {{9999}} {{9999}} {{999}}", 12, 19),
		expiryDateField(), cvvField(3, 4), cardholderNameField(true))
	visa.AccountsOnFile = []AccountOnFile{SampleAccountOnFile()}

	applePay := DisplayHints{DisplayOrder: 0, Label: "Apple Pay"}
	paypal := DisplayHints{DisplayOrder: 9, Label: "PayPal"}

	return []PaymentProduct{
		visa,
		cardProduct(ProductAmex, 3, "American Express",
			cardNumberField("{{9999}} {{999999}} {{99999}}", 15, 15),
			expiryDateField(), cvvField(4, 4), cardholderNameField(true)),
		cardProduct(ProductMastercard, 2, "MasterCard",
			cardNumberField("{{9999}} {{9999}} {{9999}} {{9999}}", 16, 16),
			expiryDateField(), cvvField(3, 3), cardholderNameField(false)),
		cardProduct(ProductJCB, 6, "JCB",
			cardNumberField("{{9999}} {{9999}} {{9999}} {{9999}}", 16, 16),
			expiryDateField(), cvvField(3, 3), cardholderNameField(true)),
		cardProduct(ProductBancontact, 4, "Bancontact",
			cardNumberField("{{9999}} {{9999}} {{9999}} {{9999}} {{999}}", 16, 19),
			expiryDateField(), cardholderNameField(true)),
		cardProduct(ProductGiftCard, 5, "Intersolve gift card",
			cardNumberField("{{9999}} {{9999}} {{9999}} {{9999}} {{999}}", 19, 19),
			pinCodeField()),
		{
			BasicPaymentProduct: BasicPaymentProduct{
				ID:               ProductPayPal,
				PaymentMethod:    "redirect",
				DisplayHints:     paypal,
				DisplayHintsList: []DisplayHints{paypal},
			},
		},
		{
			BasicPaymentProduct: BasicPaymentProduct{
				ID:               ApplePayProductID,
				PaymentMethod:    "mobile",
				DisplayHints:     applePay,
				DisplayHintsList: []DisplayHints{applePay},
			},
		},
	}
}

// SampleIINRanges maps well-known test card prefixes to the mock catalog.
// JCB is known but not allowed in the sample context.
func SampleIINRanges() []IINRange {
	return []IINRange{
		{Prefix: "4", ProductID: ProductVisa, Allowed: true},
		{Prefix: "34", ProductID: ProductAmex, Allowed: true},
		{Prefix: "37", ProductID: ProductAmex, Allowed: true},
		{Prefix: "51", ProductID: ProductMastercard, Allowed: true},
		{Prefix: "52", ProductID: ProductMastercard, Allowed: true},
		{Prefix: "53", ProductID: ProductMastercard, Allowed: true},
		{Prefix: "54", ProductID: ProductMastercard, Allowed: true},
		{Prefix: "55", ProductID: ProductMastercard, Allowed: true},
		{Prefix: "3528", ProductID: ProductJCB, Allowed: false},
		{Prefix: "6703", ProductID: ProductBancontact, Allowed: true},
		{Prefix: "6277", ProductID: ProductGiftCard, Allowed: true},
	}
}
